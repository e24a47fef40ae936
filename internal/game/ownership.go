package game

import "sort"

// OwnershipIndex maps cells to owners and owners to their territory.
//
// Both directions are updated in the same call, so OwnerOf(c) == p holds
// exactly when c is in Territory(p). Not safe for concurrent use; the engine
// goroutine is its only writer.
type OwnershipIndex struct {
	owner     map[Cell]string
	territory map[string]map[Cell]struct{}
}

func NewOwnershipIndex() *OwnershipIndex {
	return &OwnershipIndex{
		owner:     make(map[Cell]string),
		territory: make(map[string]map[Cell]struct{}),
	}
}

// Claim assigns c to player and returns the previous owner ("" if none).
// A different previous owner loses the cell.
func (o *OwnershipIndex) Claim(c Cell, player string) string {
	prev := o.owner[c]
	if prev == player {
		return prev
	}
	if prev != "" {
		o.dropFromSet(prev, c)
	}
	o.owner[c] = player
	set, ok := o.territory[player]
	if !ok {
		set = make(map[Cell]struct{})
		o.territory[player] = set
	}
	set[c] = struct{}{}
	return prev
}

// Release removes any owner of c and returns who held it.
func (o *OwnershipIndex) Release(c Cell) string {
	prev, ok := o.owner[c]
	if !ok {
		return ""
	}
	delete(o.owner, c)
	o.dropFromSet(prev, c)
	return prev
}

// ReleaseAll frees every cell player owns and returns how many there were.
func (o *OwnershipIndex) ReleaseAll(player string) int {
	set := o.territory[player]
	for c := range set {
		delete(o.owner, c)
	}
	delete(o.territory, player)
	return len(set)
}

func (o *OwnershipIndex) OwnerOf(c Cell) string {
	return o.owner[c]
}

// Owns reports whether player owns c.
func (o *OwnershipIndex) Owns(player string, c Cell) bool {
	_, ok := o.territory[player][c]
	return ok
}

func (o *OwnershipIndex) Size(player string) int {
	return len(o.territory[player])
}

// Claimed is the number of owned cells across all players.
func (o *OwnershipIndex) Claimed() int {
	return len(o.owner)
}

// Territory returns player's cells in row-major order.
func (o *OwnershipIndex) Territory(player string) []Cell {
	set := o.territory[player]
	cells := make([]Cell, 0, len(set))
	for c := range set {
		cells = append(cells, c)
	}
	sortCells(cells)
	return cells
}

func (o *OwnershipIndex) dropFromSet(player string, c Cell) {
	set := o.territory[player]
	delete(set, c)
	if len(set) == 0 {
		delete(o.territory, player)
	}
}

func sortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
}
