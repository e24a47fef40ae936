package game

import (
	"time"

	"territory-arena/internal/protocol"
)

// Player is one connected participant. Territory is not stored here: the
// OwnershipIndex holds it so the two sides can never disagree.
type Player struct {
	ID     string
	X, Y   float64
	Health float64
	Coins  int
	Color  string
	Level  int

	// Tether state, relayed for the client and cleared on disconnect.
	CableActive bool
	CableTarget string
	CaughtBy    string

	// Trail is the path drawn outside own territory since the last capture.
	Trail []Cell

	// Invulnerability. InShop holds it on; leaving the shop starts the
	// grace period that ends at InvulnerableUntil.
	Invulnerable      bool
	InShop            bool
	InvulnerableUntil time.Time

	LastSpawn time.Time
	JoinedAt  time.Time
}

// NewPlayer places a fresh player at (x, y) with full health.
func NewPlayer(id string, x, y float64, now time.Time) *Player {
	return &Player{
		ID:        id,
		X:         x,
		Y:         y,
		Health:    PlayerMaxHealth,
		Level:     1,
		LastSpawn: now,
		JoinedAt:  now,
	}
}

// CanBeHit reports whether damage may apply at now, ignoring territory.
func (p *Player) CanBeHit(now time.Time) bool {
	if !p.Invulnerable {
		return true
	}
	return !p.InShop && now.After(p.InvulnerableUntil)
}

// ClearTether drops both sides of p's tether state.
func (p *Player) ClearTether() {
	p.CableActive = false
	p.CableTarget = ""
	p.CaughtBy = ""
}

// View is the movement-update shape: everything but territory.
func (p *Player) View() protocol.PlayerView {
	return protocol.PlayerView{
		ID:           p.ID,
		X:            p.X,
		Y:            p.Y,
		Health:       p.Health,
		Coins:        p.Coins,
		Color:        protocol.Optional(p.Color),
		Level:        p.Level,
		CableActive:  p.CableActive,
		CableTarget:  protocol.Optional(p.CableTarget),
		CaughtBy:     protocol.Optional(p.CaughtBy),
		Invulnerable: p.Invulnerable,
		Trail:        pairs(p.Trail),
	}
}

// FullView adds the player's territory.
func (p *Player) FullView(territory []Cell) protocol.PlayerView {
	v := p.View()
	v.Territory = pairs(territory)
	return v
}
