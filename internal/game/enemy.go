package game

import (
	"math"
	"math/rand"

	"territory-arena/internal/protocol"
)

// EnemyType holds the base stats of one enemy variant.
type EnemyType struct {
	Name   string
	Speed  float64
	Health float64
	Radius float64
	Color  string
}

// EnemyTypes is the fixed roster, keyed by wire name.
var EnemyTypes = map[string]EnemyType{
	"basic":    {Name: "basic", Speed: 2.0, Health: 1, Radius: 15, Color: "#FF5252"},
	"fast":     {Name: "fast", Speed: 3.5, Health: 1, Radius: 12, Color: "#00FF00"},
	"tank":     {Name: "tank", Speed: 1.5, Health: 5, Radius: 25, Color: "#0000FF"},
	"miniBoss": {Name: "miniBoss", Speed: 2.5, Health: 50, Radius: 30, Color: "#FF6600"},
	"boss":     {Name: "boss", Speed: 1.8, Health: 100, Radius: 40, Color: "#FF00FF"},
}

// BossApproachDivisor caps a boss step at dist/BossApproachDivisor.
const BossApproachDivisor = 10

// Enemy is one live AI opponent.
type Enemy struct {
	ID        int64
	X, Y      float64
	Type      EnemyType
	Health    float64
	MaxHealth float64
	Speed     float64
}

// NewEnemy scales base stats: health by the difficulty multiplier, speed by
// EnemySpeedFactor.
func NewEnemy(id int64, t EnemyType, x, y, multiplier float64) *Enemy {
	return &Enemy{
		ID:        id,
		X:         x,
		Y:         y,
		Type:      t,
		Health:    t.Health * multiplier,
		MaxHealth: t.Health * multiplier,
		Speed:     t.Speed * EnemySpeedFactor,
	}
}

func (e *Enemy) View() protocol.EnemyView {
	return protocol.EnemyView{
		ID:        e.ID,
		X:         e.X,
		Y:         e.Y,
		Type:      e.Type.Name,
		Health:    e.Health,
		MaxHealth: e.MaxHealth,
		Speed:     e.Speed,
		Radius:    e.Type.Radius,
		Color:     e.Type.Color,
	}
}

// StepToward moves e toward (tx, ty) by its speed and clamps to the world.
// A boss never covers more than a tenth of the remaining distance.
func (e *Enemy) StepToward(tx, ty float64) {
	dx, dy := tx-e.X, ty-e.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	speed := e.Speed
	if e.Type.Name == "boss" {
		speed = math.Min(speed, dist/BossApproachDivisor)
	}
	e.X = clamp(e.X+dx/dist*speed, 0, WorldWidth)
	e.Y = clamp(e.Y+dy/dist*speed, 0, WorldHeight)
}

// SpawnPoint picks a point just outside the viewport centred on (px, py),
// on a random edge, clamped to the world.
func SpawnPoint(px, py float64, rng *rand.Rand) (float64, float64) {
	left, right := px-ViewWidth/2, px+ViewWidth/2
	top, bottom := py-ViewHeight/2, py+ViewHeight/2

	var x, y float64
	switch rng.Intn(4) {
	case 0: // top
		x = left + rng.Float64()*ViewWidth
		y = top - SpawnMargin
	case 1: // right
		x = right + SpawnMargin
		y = top + rng.Float64()*ViewHeight
	case 2: // bottom
		x = left + rng.Float64()*ViewWidth
		y = bottom + SpawnMargin
	default: // left
		x = left - SpawnMargin
		y = top + rng.Float64()*ViewHeight
	}
	return clamp(x, 0, WorldWidth), clamp(y, 0, WorldHeight)
}

// Enemies is the live population, ordered by id.
type Enemies struct {
	list   []*Enemy
	nextID int64
}

func (es *Enemies) Len() int { return len(es.list) }

// Full reports whether the population is at MaxEnemies.
func (es *Enemies) Full() bool { return len(es.list) >= MaxEnemies }

// Spawn adds an enemy of type t at (x, y). It returns nil when the cap is
// reached. Ids are never reused.
func (es *Enemies) Spawn(t EnemyType, x, y, multiplier float64) *Enemy {
	if es.Full() {
		return nil
	}
	es.nextID++
	e := NewEnemy(es.nextID, t, x, y, multiplier)
	es.list = append(es.list, e)
	return e
}

func (es *Enemies) Get(id int64) *Enemy {
	for _, e := range es.list {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (es *Enemies) Remove(id int64) bool {
	for i, e := range es.list {
		if e.ID == id {
			es.list = append(es.list[:i], es.list[i+1:]...)
			return true
		}
	}
	return false
}

// ClearAround removes every enemy within radius of (x, y) and returns how
// many were removed.
func (es *Enemies) ClearAround(x, y, radius float64) int {
	kept := es.list[:0]
	for _, e := range es.list {
		if math.Hypot(e.X-x, e.Y-y) > radius {
			kept = append(kept, e)
		}
	}
	removed := len(es.list) - len(kept)
	clear(es.list[len(kept):])
	es.list = kept
	return removed
}

// Views returns the wire form of every enemy. Never nil.
func (es *Enemies) Views() []protocol.EnemyView {
	out := make([]protocol.EnemyView, len(es.list))
	for i, e := range es.list {
		out[i] = e.View()
	}
	return out
}

// Each calls fn for every enemy in id order.
func (es *Enemies) Each(fn func(*Enemy)) {
	for _, e := range es.list {
		fn(e)
	}
}
