package game

import (
	"math"
	"time"
)

// World constants. These are part of the client contract and are not
// configurable at runtime.
const (
	WorldWidth  = 9600.0
	WorldHeight = 7200.0
	CellSize    = 50.0

	ViewWidth   = 800.0
	ViewHeight  = 600.0
	SpawnMargin = 50.0

	BaseSpawnInterval = 5000 * time.Millisecond
	MinSpawnInterval  = 1000 * time.Millisecond
	SpawnIntervalStep = 500 * time.Millisecond

	MaxEnemies            = 30
	SpawnProtectionRadius = 500.0
	EnemySpeedFactor      = 1.3

	PlayerMaxHealth      = 100.0
	InvulnerabilityGrace = 3 * time.Second

	// Engine cadences
	SimInterval      = 50 * time.Millisecond
	SweepInterval    = 1000 * time.Millisecond
	SnapshotInterval = 5000 * time.Millisecond
)

// Cell identifies one square of the territory grid.
type Cell struct {
	X, Y int
}

// Pair is the wire form of a cell.
func (c Cell) Pair() [2]int { return [2]int{c.X, c.Y} }

// Grid is the discretisation of the world into square cells.
type Grid struct {
	Cols, Rows int
	CellSize   float64
}

// DefaultGrid is the arena grid: 192 x 144 cells of 50 units.
var DefaultGrid = NewGrid(WorldWidth, WorldHeight, CellSize)

// NewGrid builds a grid covering width x height with square cells.
func NewGrid(width, height, cellSize float64) Grid {
	return Grid{
		Cols:     int(math.Floor(width / cellSize)),
		Rows:     int(math.Floor(height / cellSize)),
		CellSize: cellSize,
	}
}

// InBounds reports whether c lies on the grid.
func (g Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Cols && c.Y >= 0 && c.Y < g.Rows
}

// CellAt maps a world position to the cell containing it. The result may be
// out of bounds for positions outside the world.
func (g Grid) CellAt(x, y float64) Cell {
	return Cell{
		X: int(math.Floor(x / g.CellSize)),
		Y: int(math.Floor(y / g.CellSize)),
	}
}

// Center returns the world position of the middle of c.
func (g Grid) Center(c Cell) (float64, float64) {
	return (float64(c.X) + 0.5) * g.CellSize, (float64(c.Y) + 0.5) * g.CellSize
}

// Size is the total number of cells.
func (g Grid) Size() int {
	return g.Cols * g.Rows
}

var neighbourOffsets = [4]Cell{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Neighbours returns the four edge-adjacent cells of c, including any that
// fall outside the grid.
func Neighbours(c Cell) [4]Cell {
	var out [4]Cell
	for i, d := range neighbourOffsets {
		out[i] = Cell{c.X + d.X, c.Y + d.Y}
	}
	return out
}

func pairs(cells []Cell) [][2]int {
	out := make([][2]int, len(cells))
	for i, c := range cells {
		out[i] = c.Pair()
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
