package game

import "math/rand"

// CaptureResult describes what one capture changed.
type CaptureResult struct {
	// Gained lists trail cells and enclosed cells that were not already the
	// capturer's, trail cells first.
	Gained   []Cell
	Trail    int
	Enclosed int
	// Losers maps each previous owner to the number of cells they lost.
	Losers map[string]int
}

// Stolen is the number of cells taken from other players.
func (r CaptureResult) Stolen() int {
	n := 0
	for _, lost := range r.Losers {
		n += lost
	}
	return n
}

// CaptureTerritory converts player's trail into territory. Trail cells are
// taken unconditionally, then every region the trail closes off against the
// player's territory is taken as well. Cells outside the grid are ignored.
func CaptureTerritory(idx *OwnershipIndex, g Grid, player string, trail []Cell) CaptureResult {
	res := CaptureResult{Losers: make(map[string]int)}

	valid := make([]Cell, 0, len(trail))
	for _, c := range trail {
		if g.InBounds(c) {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return res
	}

	take := func(c Cell) bool {
		prev := idx.Claim(c, player)
		if prev == player {
			return false
		}
		if prev != "" {
			res.Losers[prev]++
		}
		res.Gained = append(res.Gained, c)
		return true
	}

	for _, c := range valid {
		if take(c) {
			res.Trail++
		}
	}

	owned := func(c Cell) bool { return idx.Owns(player, c) }
	for _, region := range SolveEnclosure(g, valid, owned) {
		if region.Kind != RegionEnclosed {
			continue
		}
		for _, c := range region.Cells {
			if take(c) {
				res.Enclosed++
			}
		}
	}
	return res
}

// Expansion rewards in cells, keyed by the defeated enemy type.
var expandRewards = map[string]int{
	"basic":    1,
	"fast":     2,
	"tank":     3,
	"miniBoss": 5,
	"boss":     10,
}

// RewardCells returns how many cells an enemy type is worth.
func RewardCells(enemyType string) int {
	if k, ok := expandRewards[enemyType]; ok {
		return k
	}
	return 1
}

// ExpandTerritory claims up to k free cells bordering player's territory,
// chosen at random. It returns the claimed cells, which is empty when the
// territory has no free frontier.
func ExpandTerritory(idx *OwnershipIndex, g Grid, player string, k int, rng *rand.Rand) []Cell {
	if k <= 0 {
		return nil
	}

	seen := make(map[Cell]struct{})
	var frontier []Cell
	for _, c := range idx.Territory(player) {
		for _, n := range Neighbours(c) {
			if !g.InBounds(n) || idx.OwnerOf(n) != "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			frontier = append(frontier, n)
		}
	}
	if len(frontier) == 0 {
		return nil
	}

	rng.Shuffle(len(frontier), func(i, j int) {
		frontier[i], frontier[j] = frontier[j], frontier[i]
	})
	if k > len(frontier) {
		k = len(frontier)
	}
	claimed := frontier[:k]
	for _, c := range claimed {
		idx.Claim(c, player)
	}
	return claimed
}
