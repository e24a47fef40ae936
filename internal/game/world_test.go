package game

import (
	"math/rand"
	"testing"
	"time"

	"territory-arena/internal/protocol"
)

var testStart = time.Unix(1_700_000_000, 0)

func newTestWorld(seed int64) *World {
	return NewWorld(rand.New(rand.NewSource(seed)), testStart, nil)
}

// mustAdd joins id and discards the join messages.
func mustAdd(t *testing.T, w *World, id string) *Player {
	t.Helper()
	p, err := w.AddPlayer(id, testStart)
	if err != nil {
		t.Fatalf("AddPlayer(%s): %v", id, err)
	}
	w.Drain()
	return p
}

// placeAt moves p onto cell c and makes it the player's only territory.
func placeAt(w *World, p *Player, c Cell) {
	w.owners.ReleaseAll(p.ID)
	w.owners.Claim(c, p.ID)
	p.X, p.Y = w.grid.Center(c)
}

func withEvent(ds []Delivery, event string) []Delivery {
	var out []Delivery
	for _, d := range ds {
		if d.Msg.Event == event {
			out = append(out, d)
		}
	}
	return out
}

func TestAddPlayer(t *testing.T) {
	w := newTestWorld(1)

	p, err := w.AddPlayer("p1", testStart)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if p.Health != PlayerMaxHealth {
		t.Errorf("Expected health %v, got %v", PlayerMaxHealth, p.Health)
	}
	if p.Level != 1 {
		t.Errorf("Expected level 1, got %d", p.Level)
	}
	if w.owners.Size("p1") != 1 {
		t.Fatalf("Expected one seed cell, got %d", w.owners.Size("p1"))
	}
	seed := w.owners.Territory("p1")[0]
	if x, y := w.grid.Center(seed); p.X != x || p.Y != y {
		t.Errorf("Expected player at seed center (%v,%v), got (%v,%v)", x, y, p.X, p.Y)
	}

	out := w.Drain()
	cp := withEvent(out, protocol.EventCurrentPlayers)
	if len(cp) != 1 || cp[0].To != "p1" {
		t.Fatalf("Expected currentPlayers sent to p1, got %+v", cp)
	}
	if others := cp[0].Msg.Data.(map[string]protocol.PlayerView); len(others) != 0 {
		t.Errorf("Expected no other players, got %d", len(others))
	}
	if es := withEvent(out, protocol.EventEnemyState); len(es) != 1 || es[0].To != "p1" {
		t.Errorf("Expected enemyState sent to p1, got %+v", es)
	}

	if _, err := w.AddPlayer("p1", testStart); err != ErrPlayerExists {
		t.Errorf("Expected ErrPlayerExists, got %v", err)
	}
}

func TestAddPlayerSeesOthers(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "p1")

	w.AddPlayer("p2", testStart)
	cp := withEvent(w.Drain(), protocol.EventCurrentPlayers)
	if len(cp) != 1 {
		t.Fatalf("Expected one currentPlayers, got %d", len(cp))
	}
	others := cp[0].Msg.Data.(map[string]protocol.PlayerView)
	v, ok := others["p1"]
	if !ok {
		t.Fatal("Expected p1 in currentPlayers")
	}
	if len(v.Territory) != 1 {
		t.Errorf("Expected p1's full territory, got %d cells", len(v.Territory))
	}
	if _, self := others["p2"]; self {
		t.Error("Newcomer should not be listed in its own currentPlayers")
	}
}

func TestAddPlayerClearsNearbyEnemies(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "p1")

	// Predict the next seed cell with an identical rng
	probe := newTestWorld(1)
	mustAdd(t, probe, "p1")
	seed, _ := probe.seedCell()
	x, y := w.grid.Center(seed)

	farX, farY := 0.0, 0.0
	if x < WorldWidth/2 {
		farX = WorldWidth
	}
	if y < WorldHeight/2 {
		farY = WorldHeight
	}
	w.enemies.Spawn(EnemyTypes["basic"], x+10, y, 1)
	w.enemies.Spawn(EnemyTypes["basic"], farX, farY, 1)
	before := w.enemies.Len()

	w.AddPlayer("p2", testStart)
	if w.enemies.Len() >= before {
		t.Errorf("Expected nearby enemy cleared, still %d", w.enemies.Len())
	}
	es := withEvent(w.Drain(), protocol.EventEnemyState)
	if len(es) != 2 || es[0].Except != "p2" {
		t.Errorf("Expected enemyState broadcast to others then sent to p2, got %+v", es)
	}
}

func TestWorldFull(t *testing.T) {
	w := newTestWorld(1)
	w.grid = NewGrid(100, 100, 50) // 2x2

	for i := 0; i < 4; i++ {
		if _, err := w.AddPlayer(string(rune('a'+i)), testStart); err != nil {
			t.Fatalf("Join %d: %v", i, err)
		}
	}
	if _, err := w.AddPlayer("e", testStart); err != ErrWorldFull {
		t.Errorf("Expected ErrWorldFull, got %v", err)
	}
}

func TestRemovePlayerReleasesEverything(t *testing.T) {
	w := newTestWorld(1)
	a := mustAdd(t, w, "a")
	b := mustAdd(t, w, "b")
	for x := 0; x < 10; x++ {
		w.owners.Claim(Cell{x, 0}, "a")
	}

	// a has b on its tether
	a.CableActive, a.CableTarget = true, "b"
	b.CaughtBy = "a"

	w.RemovePlayer("a", testStart)

	if w.Player("a") != nil {
		t.Error("Player should be gone")
	}
	if w.owners.Size("a") != 0 {
		t.Errorf("Expected no territory left, got %d", w.owners.Size("a"))
	}
	for x := 0; x < 10; x++ {
		if owner := w.owners.OwnerOf(Cell{x, 0}); owner != "" {
			t.Errorf("Cell (%d,0) still owned by %q", x, owner)
		}
	}
	if b.CaughtBy != "" {
		t.Errorf("Expected b released from the tether, caughtBy=%q", b.CaughtBy)
	}

	out := w.Drain()
	if pd := withEvent(out, protocol.EventPlayerDisconnect); len(pd) != 1 || pd[0].Msg.Data != "a" {
		t.Errorf("Expected playerDisconnect(a), got %+v", pd)
	}
	pu := withEvent(out, protocol.EventPlayerUpdate)
	if len(pu) != 1 || pu[0].To != "b" {
		t.Errorf("Expected tether update sent to b, got %+v", pu)
	}

	// Unknown ids are ignored
	w.RemovePlayer("ghost", testStart)
	if len(w.Drain()) != 0 {
		t.Error("Removing an unknown player should send nothing")
	}
}

func TestRemovePlayerReleasesCatcher(t *testing.T) {
	w := newTestWorld(1)
	a := mustAdd(t, w, "a")
	mustAdd(t, w, "b")
	a.CableActive, a.CableTarget = true, "b"
	w.players["b"].CaughtBy = "a"

	w.RemovePlayer("b", testStart)
	if a.CableActive || a.CableTarget != "" {
		t.Errorf("Expected a's cable dropped, got active=%v target=%q", a.CableActive, a.CableTarget)
	}
}

func TestSelectColor(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "a")
	mustAdd(t, w, "b")

	w.SelectColor("a", "#ff0000")
	out := w.Drain()
	if acc := withEvent(out, protocol.EventColorAccepted); len(acc) != 1 || acc[0].To != "a" {
		t.Errorf("Expected colorAccepted to a, got %+v", acc)
	}
	if np := withEvent(out, protocol.EventNewPlayer); len(np) != 1 || np[0].Except != "a" {
		t.Errorf("Expected newPlayer to everyone but a, got %+v", np)
	}

	w.SelectColor("b", "#ff0000")
	out = w.Drain()
	if taken := withEvent(out, protocol.EventColorTaken); len(taken) != 1 || taken[0].To != "b" {
		t.Errorf("Expected colorTaken to b, got %+v", taken)
	}
	if w.Player("b").Color != "" {
		t.Errorf("Expected b to keep no color, got %q", w.Player("b").Color)
	}

	// Reselecting your own color is fine
	w.SelectColor("a", "#ff0000")
	if acc := withEvent(w.Drain(), protocol.EventColorAccepted); len(acc) != 1 {
		t.Error("Expected own color to be accepted again")
	}
}

func TestUpdatePlayer(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "a")
	b := mustAdd(t, w, "b")
	w.SelectColor("a", "#00ff00")
	w.Drain()

	w.UpdatePlayer("b", protocol.Fields{
		"x":           -50.0,
		"y":           1e9,
		"health":      -5.0,
		"color":       "#00ff00",
		"level":       0.0,
		"coins":       12.0,
		"cableActive": 1.0,
		"cableTarget": 42.0,
		"caughtBy":    "a",
		"trail":       []any{[]any{1.0, 2.0}, []any{-1.0, 0.0}, "junk"},
	}, testStart)

	if b.X != 0 || b.Y != WorldHeight {
		t.Errorf("Expected clamped position (0,%v), got (%v,%v)", WorldHeight, b.X, b.Y)
	}
	if b.Health != 0 {
		t.Errorf("Expected health floored at 0, got %v", b.Health)
	}
	if b.Color != "" {
		t.Errorf("Expected taken color refused, got %q", b.Color)
	}
	if b.Level != 1 {
		t.Errorf("Expected level kept at 1, got %d", b.Level)
	}
	if b.Coins != 12 {
		t.Errorf("Expected 12 coins, got %d", b.Coins)
	}
	if !b.CableActive || b.CableTarget != "" || b.CaughtBy != "a" {
		t.Errorf("Unexpected tether state %v %q %q", b.CableActive, b.CableTarget, b.CaughtBy)
	}
	if len(b.Trail) != 1 || b.Trail[0] != (Cell{1, 2}) {
		t.Errorf("Expected trail [(1,2)], got %v", b.Trail)
	}

	pu := withEvent(w.Drain(), protocol.EventPlayerUpdate)
	if len(pu) != 1 || pu[0].Except != "b" {
		t.Fatalf("Expected one playerUpdate to others, got %+v", pu)
	}
	v := pu[0].Msg.Data.(protocol.PlayerUpdate).Data.(protocol.PlayerView)
	if v.Territory != nil {
		t.Error("Movement updates must not carry territory")
	}
}

func TestUpdatePlayerKeepsFieldsOfWrongType(t *testing.T) {
	w := newTestWorld(1)
	p := mustAdd(t, w, "a")
	x, y := p.X, p.Y
	p.Trail = []Cell{{3, 3}}

	w.UpdatePlayer("a", protocol.Fields{"x": "left", "y": nil, "health": true}, testStart)

	if p.X != x || p.Y != y {
		t.Errorf("Expected position unchanged, got (%v,%v)", p.X, p.Y)
	}
	if p.Health != PlayerMaxHealth {
		t.Errorf("Expected health unchanged, got %v", p.Health)
	}
	if len(p.Trail) != 1 {
		t.Errorf("A missing trail key should keep the trail, got %v", p.Trail)
	}
}

func TestTrespassPenalty(t *testing.T) {
	w := newTestWorld(1)
	victim := mustAdd(t, w, "victim")
	mustAdd(t, w, "mover")

	w.owners.ReleaseAll("victim")
	for i := 0; i < 50; i++ {
		w.owners.Claim(Cell{i, 100}, "victim")
	}
	victim.Trail = []Cell{{60, 60}, {61, 60}}

	x, y := w.grid.Center(Cell{61, 60})
	w.UpdatePlayer("mover", protocol.Fields{"x": x, "y": y}, testStart)

	if w.owners.Size("victim") != 49 {
		t.Errorf("Expected 49 cells after penalty, got %d", w.owners.Size("victim"))
	}
	if len(victim.Trail) != 0 {
		t.Errorf("Expected victim trail cleared, got %v", victim.Trail)
	}

	out := w.Drain()
	tp := withEvent(out, protocol.EventTerritoryPenalty)
	if len(tp) != 1 || tp[0].To != "victim" {
		t.Fatalf("Expected territoryPenalty to victim, got %+v", tp)
	}
	if got := tp[0].Msg.Data.(protocol.TerritoryPenalty); len(got.Territory) != 49 || len(got.Trail) != 0 {
		t.Errorf("Expected 49 territory cells and no trail, got %d and %d", len(got.Territory), len(got.Trail))
	}
}

func TestTrespassOwnTrailIgnored(t *testing.T) {
	w := newTestWorld(1)
	p := mustAdd(t, w, "a")
	p.Trail = []Cell{{60, 60}}
	size := w.owners.Size("a")

	x, y := w.grid.Center(Cell{60, 60})
	w.UpdatePlayer("a", protocol.Fields{"x": x, "y": y}, testStart)

	if w.owners.Size("a") != size {
		t.Error("Standing on your own trail must not cost territory")
	}
	if len(withEvent(w.Drain(), protocol.EventTerritoryPenalty)) != 0 {
		t.Error("No penalty expected")
	}
}

func TestCaptureBroadcasts(t *testing.T) {
	w := newTestWorld(1)
	a := mustAdd(t, w, "a")
	b := mustAdd(t, w, "b")
	placeAt(w, mustAdd(t, w, "c"), Cell{100, 100})
	placeAt(w, a, Cell{0, 0})
	for _, c := range []Cell{{0, 1}, {1, 0}, {1, 1}} {
		w.owners.Claim(c, "a")
	}
	placeAt(w, b, Cell{50, 50})
	b.Trail = []Cell{{9, 9}}

	w.Capture("b", []Cell{{0, 1}, {1, 1}, {2, 1}, {3, 1}}, testStart)

	if w.owners.OwnerOf(Cell{0, 1}) != "b" {
		t.Error("Expected (0,1) captured by b")
	}
	if len(b.Trail) != 0 {
		t.Error("Capture should clear the trail")
	}

	pu := withEvent(w.Drain(), protocol.EventPlayerUpdate)
	if len(pu) != 2 {
		t.Fatalf("Expected updates for b and a only, got %d", len(pu))
	}
	first := pu[0].Msg.Data.(protocol.PlayerUpdate)
	if first.ID != "b" {
		t.Errorf("Expected capturer update first, got %s", first.ID)
	}
	if v := first.Data.(protocol.PlayerView); len(v.NewCells) != 4 || len(v.Territory) != 5 {
		t.Errorf("Expected 4 new cells and 5 owned, got %d and %d", len(v.NewCells), len(v.Territory))
	}
	if second := pu[1].Msg.Data.(protocol.PlayerUpdate); second.ID != "a" {
		t.Errorf("Expected loser update for a, got %s", second.ID)
	}
}

func TestCaptureOutsideGridIgnored(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "a")
	w.Capture("a", []Cell{{-1, -1}, {999, 999}}, testStart)
	if len(w.Drain()) != 0 {
		t.Error("A trail entirely outside the grid should do nothing")
	}
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name   string
		reward string
		k      int
		hasK   bool
		want   int
	}{
		{"boss reward", "boss", 0, false, 10},
		{"level up with K", LevelUpReward, 3, true, 3},
		{"level up without K", LevelUpReward, 0, false, 1},
		{"K ignored for enemies", "tank", 7, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(1)
			p := mustAdd(t, w, "a")
			placeAt(w, p, Cell{50, 50})
			// A 5x5 block gives a 20-cell frontier
			for x := 48; x <= 52; x++ {
				for y := 48; y <= 52; y++ {
					w.owners.Claim(Cell{x, y}, "a")
				}
			}

			w.Expand("a", tt.reward, tt.k, tt.hasK, testStart)

			if got := w.owners.Size("a") - 25; got != tt.want {
				t.Errorf("Expected %d new cells, got %d", tt.want, got)
			}
			pu := withEvent(w.Drain(), protocol.EventPlayerUpdate)
			if len(pu) != 1 {
				t.Fatalf("Expected one playerUpdate, got %d", len(pu))
			}
			if v := pu[0].Msg.Data.(protocol.PlayerUpdate).Data.(protocol.PlayerView); len(v.NewCells) != tt.want {
				t.Errorf("Expected %d newCells, got %d", tt.want, len(v.NewCells))
			}
		})
	}
}

func TestExpandNoFrontierIsSilent(t *testing.T) {
	w := newTestWorld(1)
	w.grid = NewGrid(50, 50, 50) // a single cell
	mustAdd(t, w, "a")

	w.Expand("a", "boss", 0, false, testStart)
	if len(w.Drain()) != 0 {
		t.Error("Expected no broadcast when nothing was gained")
	}
}

func TestRelays(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "a")
	mustAdd(t, w, "b")

	w.RelayShoot("a", map[string]any{"angle": 1.5})
	w.RelayCableCatch("a", map[string]any{"target": "b"})
	out := w.Drain()

	if s := withEvent(out, protocol.EventPlayerShoot); len(s) != 1 || s[0].Except != "a" {
		t.Errorf("Expected shot relayed to others, got %+v", s)
	}
	if c := withEvent(out, protocol.EventPlayerCableCatch); len(c) != 1 || c[0].Except != "" || c[0].To != "" {
		t.Errorf("Expected cable catch relayed to everyone, got %+v", c)
	}

	w.RelayShoot("ghost", nil)
	if len(w.Drain()) != 0 {
		t.Error("Unknown senders are not relayed")
	}
}

func TestStepSpawnsAndMoves(t *testing.T) {
	w := newTestWorld(1)
	p := mustAdd(t, w, "a")

	// Not due yet
	w.Step(testStart.Add(SpawnInterval(1)))
	if w.enemies.Len() != 0 {
		t.Fatalf("Expected no spawn before the interval, got %d", w.enemies.Len())
	}

	now := testStart.Add(SpawnInterval(1) + time.Millisecond)
	w.Step(now)
	if w.enemies.Len() != 1 {
		t.Fatalf("Expected one spawn, got %d", w.enemies.Len())
	}
	if !p.LastSpawn.Equal(now) {
		t.Error("Expected spawn timer reset")
	}

	out := w.Drain()
	if len(withEvent(out, protocol.EventEnemySpawn)) != 1 {
		t.Error("Expected an enemySpawn broadcast")
	}
	if len(withEvent(out, protocol.EventEnemyState)) != 2 {
		t.Error("Expected enemyState on every step")
	}
	if w.TickCount() != 2 {
		t.Errorf("Expected 2 ticks, got %d", w.TickCount())
	}
}

func TestStepRespectsEnemyCap(t *testing.T) {
	w := newTestWorld(1)
	for i := 0; i < 40; i++ {
		mustAdd(t, w, string(rune('A'+i)))
	}

	for i := 1; i <= 5; i++ {
		w.Step(testStart.Add(time.Duration(i) * 6 * time.Second))
		if w.enemies.Len() > MaxEnemies {
			t.Fatalf("Enemy population %d above cap", w.enemies.Len())
		}
	}
	if w.enemies.Len() != MaxEnemies {
		t.Errorf("Expected population to reach %d, got %d", MaxEnemies, w.enemies.Len())
	}
}

func TestReconcile(t *testing.T) {
	w := newTestWorld(1)
	mustAdd(t, w, "a")
	mustAdd(t, w, "b")

	w.Reconcile()
	cp := withEvent(w.Drain(), protocol.EventCurrentPlayers)
	if len(cp) != 1 || cp[0].To != "" || cp[0].Except != "" {
		t.Fatalf("Expected one broadcast, got %+v", cp)
	}
	if all := cp[0].Msg.Data.(map[string]protocol.PlayerView); len(all) != 2 {
		t.Errorf("Expected 2 players, got %d", len(all))
	}
}
