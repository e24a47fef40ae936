package game

import (
	"math"
	"math/rand"
)

// PenaltyRate is the share of territory forfeited when a trail is cut.
const PenaltyRate = 0.01

// PenaltySize is max(1, ceil(size*PenaltyRate)), capped at size.
func PenaltySize(size int) int {
	if size <= 0 {
		return 0
	}
	n := int(math.Ceil(float64(size) * PenaltyRate))
	return min(max(1, n), size)
}

// ForfeitCells releases PenaltySize random cells of player's territory and
// returns them.
func ForfeitCells(idx *OwnershipIndex, player string, rng *rand.Rand) []Cell {
	cells := idx.Territory(player)
	n := PenaltySize(len(cells))
	if n == 0 {
		return nil
	}
	rng.Shuffle(len(cells), func(i, j int) {
		cells[i], cells[j] = cells[j], cells[i]
	})
	lost := cells[:n]
	for _, c := range lost {
		idx.Release(c)
	}
	return lost
}

// trailContains reports whether c appears on trail.
func trailContains(trail []Cell, c Cell) bool {
	for _, t := range trail {
		if t == c {
			return true
		}
	}
	return false
}
