package game

import (
	"errors"
	"log"
	"math/rand"
	"time"

	"territory-arena/internal/metrics"
	"territory-arena/internal/protocol"
)

var (
	ErrWorldFull    = errors.New("no unclaimed cell left")
	ErrPlayerExists = errors.New("player already joined")
)

// seedAttempts random probes are made before scanning for a free cell.
const seedAttempts = 64

// Delivery is one outbound message. An empty To broadcasts to every
// player except Except.
type Delivery struct {
	To     string
	Except string
	Msg    protocol.Message
}

// World is the whole game state and every rule that changes it. It is not
// safe for concurrent use: the Engine goroutine is its only caller. Rule
// methods queue their messages; the caller collects them with Drain.
type World struct {
	grid       Grid
	owners     *OwnershipIndex
	players    map[string]*Player
	order      []string // join order, for stable iteration
	enemies    Enemies
	difficulty *Difficulty
	rng        *rand.Rand
	events     *EventLog
	tick       uint64
	out        []Delivery
}

// NewWorld creates an empty world whose session starts at start. events
// may be nil.
func NewWorld(rng *rand.Rand, start time.Time, events *EventLog) *World {
	return &World{
		grid:       DefaultGrid,
		owners:     NewOwnershipIndex(),
		players:    make(map[string]*Player),
		difficulty: NewDifficulty(start),
		rng:        rng,
		events:     events,
	}
}

func (w *World) Player(id string) *Player { return w.players[id] }
func (w *World) PlayerCount() int         { return len(w.players) }
func (w *World) Owners() *OwnershipIndex  { return w.owners }
func (w *World) Enemies() *Enemies        { return &w.enemies }
func (w *World) Grid() Grid               { return w.grid }
func (w *World) TickCount() uint64        { return w.tick }

// Drain returns and clears the queued deliveries.
func (w *World) Drain() []Delivery {
	out := w.out
	w.out = nil
	return out
}

func (w *World) broadcast(event string, data any) {
	w.out = append(w.out, Delivery{Msg: protocol.Message{Event: event, Data: data}})
}

func (w *World) broadcastExcept(except, event string, data any) {
	w.out = append(w.out, Delivery{Except: except, Msg: protocol.Message{Event: event, Data: data}})
}

func (w *World) sendTo(id, event string, data any) {
	w.out = append(w.out, Delivery{To: id, Msg: protocol.Message{Event: event, Data: data}})
}

func (w *World) emit(t EventType, playerID string, payload any, now time.Time) {
	w.events.EmitSimple(t, w.tick, playerID, payload, now)
}

func (w *World) fullView(p *Player) protocol.PlayerView {
	return p.FullView(w.owners.Territory(p.ID))
}

// AddPlayer joins id at a random unclaimed cell, clears enemies around it
// and sends the newcomer the current world.
func (w *World) AddPlayer(id string, now time.Time) (*Player, error) {
	if _, ok := w.players[id]; ok {
		return nil, ErrPlayerExists
	}
	seed, err := w.seedCell()
	if err != nil {
		return nil, err
	}

	x, y := w.grid.Center(seed)
	p := NewPlayer(id, x, y, now)
	w.players[id] = p
	w.order = append(w.order, id)
	w.owners.Claim(seed, id)

	log.Printf("👤 Player %s spawned at cell (%d,%d)", id, seed.X, seed.Y)
	w.emit(EventTypePlayerJoin, id, PlayerJoinPayload{SeedX: seed.X, SeedY: seed.Y, X: x, Y: y}, now)

	if w.enemies.ClearAround(x, y, SpawnProtectionRadius) > 0 {
		w.broadcastExcept(id, protocol.EventEnemyState, w.enemies.Views())
	}

	others := make(map[string]protocol.PlayerView, len(w.players)-1)
	for _, oid := range w.order {
		if oid != id {
			others[oid] = w.fullView(w.players[oid])
		}
	}
	w.sendTo(id, protocol.EventCurrentPlayers, others)
	w.sendTo(id, protocol.EventEnemyState, w.enemies.Views())
	return p, nil
}

// seedCell picks a random unclaimed cell.
func (w *World) seedCell() (Cell, error) {
	for i := 0; i < seedAttempts; i++ {
		c := Cell{w.rng.Intn(w.grid.Cols), w.rng.Intn(w.grid.Rows)}
		if w.owners.OwnerOf(c) == "" {
			return c, nil
		}
	}
	// Crowded grid: scan from a random offset.
	size := w.grid.Size()
	start := w.rng.Intn(size)
	for i := 0; i < size; i++ {
		n := (start + i) % size
		c := Cell{n % w.grid.Cols, n / w.grid.Cols}
		if w.owners.OwnerOf(c) == "" {
			return c, nil
		}
	}
	return Cell{}, ErrWorldFull
}

// RemovePlayer drops id, frees all its territory and unlinks any tether
// naming it. Unknown ids are ignored.
func (w *World) RemovePlayer(id string, now time.Time) {
	p, ok := w.players[id]
	if !ok {
		return
	}
	w.releaseTether(p)

	released := w.owners.ReleaseAll(id)
	delete(w.players, id)
	for i, oid := range w.order {
		if oid == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}

	log.Printf("👋 Player %s disconnected, released %d cells", id, released)
	w.emit(EventTypePlayerLeave, id, PlayerLeavePayload{CellsReleased: released}, now)
	w.broadcast(protocol.EventPlayerDisconnect, id)
}

// releaseTether clears the counterpart side of p's tether relations and
// tells each counterpart. p's own fields are cleared too.
func (w *World) releaseTether(p *Player) {
	if caught, ok := w.players[p.CableTarget]; ok && caught != p {
		caught.CaughtBy = ""
		w.sendTo(caught.ID, protocol.EventPlayerUpdate, protocol.PlayerUpdate{
			ID:   caught.ID,
			Data: map[string]any{"caughtBy": nil},
		})
	}
	if catcher, ok := w.players[p.CaughtBy]; ok && catcher != p {
		catcher.CableActive = false
		catcher.CableTarget = ""
		w.sendTo(catcher.ID, protocol.EventPlayerUpdate, protocol.PlayerUpdate{
			ID:   catcher.ID,
			Data: map[string]any{"cableActive": false, "cableTarget": nil},
		})
	}
	p.ClearTether()
}

func (w *World) colorTaken(color, except string) bool {
	for id, p := range w.players {
		if id != except && p.Color == color {
			return true
		}
	}
	return false
}

// SelectColor assigns color to id unless another player holds it.
func (w *World) SelectColor(id, color string) {
	p, ok := w.players[id]
	if !ok || color == "" {
		return
	}
	if w.colorTaken(color, id) {
		w.sendTo(id, protocol.EventColorTaken, nil)
		return
	}
	p.Color = color
	w.sendTo(id, protocol.EventColorAccepted, protocol.SpawnPosition{X: p.X, Y: p.Y})
	w.broadcastExcept(id, protocol.EventNewPlayer, protocol.NewPlayer{ID: id, Data: w.fullView(p)})
	log.Printf("🎨 Player %s selected color %s", id, color)
}

// UpdatePlayer applies a client state report. Fields of the wrong type keep
// their previous value. After moving, any trail the player now stands on
// is cut.
func (w *World) UpdatePlayer(id string, f protocol.Fields, now time.Time) {
	p, ok := w.players[id]
	if !ok || f == nil {
		return
	}

	if x, ok := f.Float("x"); ok {
		p.X = clamp(x, 0, WorldWidth)
	}
	if y, ok := f.Float("y"); ok {
		p.Y = clamp(y, 0, WorldHeight)
	}
	if h, ok := f.Float("health"); ok {
		p.Health = max(h, 0)
	}
	if c, ok := f.String("color"); ok && c != "" && !w.colorTaken(c, id) {
		p.Color = c
	}
	if lvl, ok := f.Int("level"); ok && lvl >= 1 {
		p.Level = lvl
	}
	if coins, ok := f.Int("coins"); ok && coins >= 0 {
		p.Coins = coins
	}

	p.CableActive = f.Truthy("cableActive")
	p.CableTarget, _ = f.String("cableTarget")
	p.CaughtBy, _ = f.String("caughtBy")

	if raw, ok := f.Pairs("trail"); ok {
		trail := make([]Cell, 0, len(raw))
		for _, pr := range raw {
			if c := (Cell{pr[0], pr[1]}); w.grid.InBounds(c) {
				trail = append(trail, c)
			}
		}
		p.Trail = trail
	}

	w.checkTrespass(p, now)
	w.broadcastExcept(id, protocol.EventPlayerUpdate, protocol.PlayerUpdate{ID: id, Data: p.View()})
}

// checkTrespass penalises every other player whose trail holds mover's cell.
func (w *World) checkTrespass(mover *Player, now time.Time) {
	cell := w.grid.CellAt(mover.X, mover.Y)
	for _, oid := range w.order {
		victim := w.players[oid]
		if oid == mover.ID || !trailContains(victim.Trail, cell) {
			continue
		}

		victim.Trail = nil
		lost := ForfeitCells(w.owners, oid, w.rng)
		metrics.RecordPenalty()

		territory := w.owners.Territory(oid)
		w.sendTo(oid, protocol.EventTerritoryPenalty, protocol.TerritoryPenalty{
			ID:        oid,
			Territory: pairs(territory),
			Trail:     [][2]int{},
		})
		w.broadcastExcept(oid, protocol.EventPlayerUpdate, protocol.PlayerUpdate{
			ID:   oid,
			Data: victim.FullView(territory),
		})

		log.Printf("✂️ Player %s cut %s's trail, %d cells lost", mover.ID, oid, len(lost))
		w.emit(EventTypePenalty, mover.ID, PenaltyPayload{
			Trespasser: mover.ID,
			Victim:     oid,
			CellsLost:  len(lost),
		}, now)
	}
}

// Capture turns id's submitted trail into territory and reports the capturer
// and every player who lost cells.
func (w *World) Capture(id string, trail []Cell, now time.Time) {
	p, ok := w.players[id]
	if !ok {
		return
	}
	inGrid := false
	for _, c := range trail {
		if w.grid.InBounds(c) {
			inGrid = true
			break
		}
	}
	if !inGrid {
		return
	}

	res := CaptureTerritory(w.owners, w.grid, id, trail)
	p.Trail = nil
	metrics.RecordCapture(res.Trail, res.Enclosed, res.Stolen())

	view := w.fullView(p)
	view.NewCells = pairs(res.Gained)
	w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{ID: id, Data: view})
	for _, oid := range w.order {
		if _, lost := res.Losers[oid]; lost {
			w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{ID: oid, Data: w.fullView(w.players[oid])})
		}
	}

	log.Printf("🏳️ Player %s captured %d trail + %d enclosed cells (%d stolen)", id, res.Trail, res.Enclosed, res.Stolen())
	w.emit(EventTypeCapture, id, CapturePayload{
		TrailCells:    res.Trail,
		EnclosedCells: res.Enclosed,
		Losers:        res.Losers,
		Territory:     w.owners.Size(id),
	}, now)
}

// LevelUpReward is the reward name that carries its own cell count.
const LevelUpReward = "levelUp"

// Expand grows id's territory by a reward. hasK selects the explicit count
// k for level-up rewards.
func (w *World) Expand(id, reward string, k int, hasK bool, now time.Time) {
	if _, ok := w.players[id]; !ok {
		return
	}
	n := RewardCells(reward)
	if reward == LevelUpReward && hasK {
		n = k
	}

	gained := ExpandTerritory(w.owners, w.grid, id, n, w.rng)
	if len(gained) == 0 {
		log.Printf("ℹ️ No cells available to expand territory for player %s", id)
		return
	}
	metrics.RecordExpand(len(gained))

	view := w.fullView(w.players[id])
	view.NewCells = pairs(gained)
	w.broadcast(protocol.EventPlayerUpdate, protocol.PlayerUpdate{ID: id, Data: view})
	w.emit(EventTypeExpand, id, ExpandPayload{Reward: reward, Asked: n, Gained: len(gained)}, now)
}

// RelayShoot forwards an opaque shot to everyone but the shooter.
func (w *World) RelayShoot(id string, data any) {
	if _, ok := w.players[id]; !ok {
		return
	}
	w.broadcastExcept(id, protocol.EventPlayerShoot, protocol.Relay{ID: id, Data: data})
}

// RelayCableCatch forwards an opaque tether event to everyone.
func (w *World) RelayCableCatch(id string, data any) {
	if _, ok := w.players[id]; !ok {
		return
	}
	w.broadcast(protocol.EventPlayerCableCatch, data)
}

// Step runs one simulation tick: difficulty, spawning, pursuit and the
// enemy state broadcast.
func (w *World) Step(now time.Time) {
	w.tick++
	mult := w.difficulty.Update(now)

	for _, id := range w.order {
		p := w.players[id]
		if w.enemies.Full() {
			break
		}
		if now.Sub(p.LastSpawn) <= SpawnInterval(p.Level) {
			continue
		}
		w.spawnNear(p, mult, now)
		p.LastSpawn = now
	}

	w.enemies.Each(func(e *Enemy) {
		if target := w.nearestPlayer(e.X, e.Y); target != nil {
			e.StepToward(target.X, target.Y)
		}
	})

	w.broadcast(protocol.EventEnemyState, w.enemies.Views())
	metrics.UpdateWorld(len(w.players), w.enemies.Len(), w.owners.Claimed(), mult)
}

func (w *World) spawnNear(p *Player, mult float64, now time.Time) {
	t := EnemyTypes[PickEnemyType(p.Level, w.rng)]
	x, y := SpawnPoint(p.X, p.Y, w.rng)
	e := w.enemies.Spawn(t, x, y, mult)
	if e == nil {
		return
	}
	metrics.RecordEnemySpawn(t.Name)
	w.broadcast(protocol.EventEnemySpawn, e.View())
	w.emit(EventTypeEnemySpawn, "", EnemySpawnPayload{EnemyID: e.ID, EnemyType: t.Name, Multiplier: mult}, now)
}

func (w *World) nearestPlayer(x, y float64) *Player {
	var best *Player
	bestDist := 0.0
	for _, id := range w.order {
		p := w.players[id]
		dx, dy := p.X-x, p.Y-y
		if d := dx*dx + dy*dy; best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// Reconcile broadcasts every player's full state.
func (w *World) Reconcile() {
	all := make(map[string]protocol.PlayerView, len(w.players))
	for _, id := range w.order {
		all[id] = w.fullView(w.players[id])
	}
	w.broadcast(protocol.EventCurrentPlayers, all)
}

// Difficulty is the current enemy health multiplier.
func (w *World) Difficulty() float64 { return w.difficulty.Multiplier() }
