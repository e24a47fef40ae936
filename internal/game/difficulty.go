package game

import (
	"math/rand"
	"time"
)

// DifficultyRate is the multiplier gained per minute of session time.
const DifficultyRate = 0.3

// Multiplier returns the enemy health multiplier after elapsed session time.
func Multiplier(elapsed time.Duration) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	return 1 + elapsed.Minutes()*DifficultyRate
}

// SpawnInterval is how long a player of the given level waits between
// enemy spawns.
func SpawnInterval(level int) time.Duration {
	level = max(level, 1)
	return max(MinSpawnInterval, BaseSpawnInterval-time.Duration(level-1)*SpawnIntervalStep)
}

// Difficulty tracks the global multiplier. It never decreases, even if the
// clock steps backwards.
type Difficulty struct {
	start      time.Time
	multiplier float64
}

func NewDifficulty(start time.Time) *Difficulty {
	return &Difficulty{start: start, multiplier: 1}
}

// Update recomputes the multiplier at now and returns it.
func (d *Difficulty) Update(now time.Time) float64 {
	if m := Multiplier(now.Sub(d.start)); m > d.multiplier {
		d.multiplier = m
	}
	return d.multiplier
}

func (d *Difficulty) Multiplier() float64 { return d.multiplier }

// TypeWeight is the normalized chance of spawning one enemy type.
type TypeWeight struct {
	Type   string
	Weight float64
}

// SpawnWeights returns the spawn table for level. Weights are non-negative
// and sum to 1; types with no chance are left out.
func SpawnWeights(level int) []TypeWeight {
	l := float64(max(level, 1))
	raw := []TypeWeight{
		{"basic", max(0.5-(l-1)*0.05, 0.1)},
		{"fast", min(0.2+(l-2)*0.05, 0.3)},
		{"tank", min(0.15+(l-3)*0.05, 0.2)},
		{"miniBoss", min(0.1+(l-5)*0.02, 0.15)},
		{"boss", min(0.05+(l-7)*0.01, 0.1)},
	}

	total := 0.0
	out := raw[:0]
	for _, tw := range raw {
		if tw.Weight <= 0 {
			continue
		}
		total += tw.Weight
		out = append(out, tw)
	}
	for i := range out {
		out[i].Weight /= total
	}
	return out
}

// PickEnemyType draws a type from the level's spawn table.
func PickEnemyType(level int, rng *rand.Rand) string {
	weights := SpawnWeights(level)
	r := rng.Float64()
	cumulative := 0.0
	for _, tw := range weights {
		cumulative += tw.Weight
		if r < cumulative {
			return tw.Type
		}
	}
	// float rounding can leave r just above the last bucket
	return weights[len(weights)-1].Type
}
