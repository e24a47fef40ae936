package game

import (
	"sort"
	"sync/atomic"
	"time"

	"territory-arena/internal/protocol"
)

// PlayerSnapshot is an immutable copy of one player's public state.
type PlayerSnapshot struct {
	ID           string  `json:"id"`
	Color        string  `json:"color,omitempty"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Health       float64 `json:"health"`
	Coins        int     `json:"coins"`
	Level        int     `json:"level"`
	Territory    int     `json:"territory"`
	TrailLength  int     `json:"trailLength"`
	Invulnerable bool    `json:"invulnerable"`
}

// GameSnapshot is a read-only copy of the world for HTTP readers. A new
// one is built each publish; readers never see it change.
type GameSnapshot struct {
	Sequence     uint64               `json:"sequence"`
	Timestamp    time.Time            `json:"timestamp"`
	TickNumber   uint64               `json:"tickNumber"`
	Players      []PlayerSnapshot     `json:"players"`
	Enemies      []protocol.EnemyView `json:"enemies"`
	PlayerCount  int                  `json:"playerCount"`
	EnemyCount   int                  `json:"enemyCount"`
	ClaimedCells int                  `json:"claimedCells"`
	TotalCells   int                  `json:"totalCells"`
	Difficulty   float64              `json:"difficulty"`
}

// Snapshot copies the world's public state.
func (w *World) Snapshot(now time.Time) *GameSnapshot {
	snap := &GameSnapshot{
		Timestamp:    now,
		TickNumber:   w.tick,
		Players:      make([]PlayerSnapshot, 0, len(w.order)),
		Enemies:      w.enemies.Views(),
		PlayerCount:  len(w.players),
		EnemyCount:   w.enemies.Len(),
		ClaimedCells: w.owners.Claimed(),
		TotalCells:   w.grid.Size(),
		Difficulty:   w.difficulty.Multiplier(),
	}
	for _, id := range w.order {
		p := w.players[id]
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID:           p.ID,
			Color:        p.Color,
			X:            p.X,
			Y:            p.Y,
			Health:       p.Health,
			Coins:        p.Coins,
			Level:        p.Level,
			Territory:    w.owners.Size(id),
			TrailLength:  len(p.Trail),
			Invulnerable: p.Invulnerable,
		})
	}
	return snap
}

// SnapshotStore publishes the latest snapshot to concurrent readers.
type SnapshotStore struct {
	current  atomic.Pointer[GameSnapshot]
	sequence atomic.Uint64
}

// Publish stamps snap with the next sequence number and makes it current.
// snap must not be modified afterwards.
func (s *SnapshotStore) Publish(snap *GameSnapshot) {
	snap.Sequence = s.sequence.Add(1)
	s.current.Store(snap)
}

// Load returns the latest snapshot, or nil before the first publish.
func (s *SnapshotStore) Load() *GameSnapshot {
	return s.current.Load()
}

// LeaderboardEntry ranks a player by territory size.
type LeaderboardEntry struct {
	Rank      int    `json:"rank"`
	ID        string `json:"id"`
	Color     string `json:"color,omitempty"`
	Territory int    `json:"territory"`
	Level     int    `json:"level"`
	Coins     int    `json:"coins"`
}

// Leaderboard returns the top n players of snap by territory, then coins.
// n <= 0 returns everyone.
func Leaderboard(snap *GameSnapshot, n int) []LeaderboardEntry {
	if snap == nil {
		return []LeaderboardEntry{}
	}
	players := make([]PlayerSnapshot, len(snap.Players))
	copy(players, snap.Players)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Territory != players[j].Territory {
			return players[i].Territory > players[j].Territory
		}
		return players[i].Coins > players[j].Coins
	})
	if n > 0 && n < len(players) {
		players = players[:n]
	}

	out := make([]LeaderboardEntry, len(players))
	for i, p := range players {
		out[i] = LeaderboardEntry{
			Rank:      i + 1,
			ID:        p.ID,
			Color:     p.Color,
			Territory: p.Territory,
			Level:     p.Level,
			Coins:     p.Coins,
		}
	}
	return out
}
