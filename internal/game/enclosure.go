package game

// RegionKind tags the outcome of one flood fill.
type RegionKind uint8

const (
	// RegionOpen reached the grid edge; its cells are not captured.
	RegionOpen RegionKind = iota
	// RegionEnclosed is fully surrounded by territory and trail.
	RegionEnclosed
)

func (k RegionKind) String() string {
	if k == RegionEnclosed {
		return "enclosed"
	}
	return "open"
}

// Region is one connected component found by the enclosure solver. Cells is
// only populated for enclosed regions.
type Region struct {
	Kind  RegionKind
	Cells []Cell
}

// SolveEnclosure finds the regions inside the bounding box of trail that are
// walled off by the trail together with the cells owned reports true for.
// Every non-wall cell in the box ends up in exactly one returned region.
func SolveEnclosure(g Grid, trail []Cell, owned func(Cell) bool) []Region {
	if len(trail) == 0 {
		return nil
	}

	walls := make(map[Cell]struct{}, len(trail))
	minX, maxX := trail[0].X, trail[0].X
	minY, maxY := trail[0].Y, trail[0].Y
	for _, c := range trail {
		walls[c] = struct{}{}
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	isWall := func(c Cell) bool {
		if _, ok := walls[c]; ok {
			return true
		}
		return owned(c)
	}

	visited := make(map[Cell]struct{})
	var regions []Region
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			start := Cell{x, y}
			if !g.InBounds(start) || isWall(start) {
				continue
			}
			if _, seen := visited[start]; seen {
				continue
			}
			regions = append(regions, floodRegion(g, start, isWall, visited))
		}
	}
	return regions
}

// floodRegion runs a stack DFS from start. Stepping off the grid marks the
// region open but the fill keeps going so the whole component is visited.
func floodRegion(g Grid, start Cell, isWall func(Cell) bool, visited map[Cell]struct{}) Region {
	stack := []Cell{start}
	var cells []Cell
	open := false

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !g.InBounds(c) {
			open = true
			continue
		}
		if isWall(c) {
			continue
		}
		if _, seen := visited[c]; seen {
			continue
		}
		visited[c] = struct{}{}
		cells = append(cells, c)

		for _, n := range Neighbours(c) {
			stack = append(stack, n)
		}
	}

	if open {
		return Region{Kind: RegionOpen}
	}
	return Region{Kind: RegionEnclosed, Cells: cells}
}
