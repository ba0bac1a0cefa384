package game

import "sort"

// Token is a piece on the board.
type Token struct {
	ID        string `json:"id"`
	Level     int    `json:"level"`
	GridIndex int    `json:"gridIndex"` // 0-24, row-major
}

// Board holds the placed tokens in insertion order. Each grid index is used at most once.
type Board []Token

// ValidIndex reports whether index addresses a cell.
func ValidIndex(index int) bool {
	return index >= 0 && index < TotalCells
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	return len(b) >= TotalCells
}

// At returns the token occupying index.
func (b Board) At(index int) (Token, bool) {
	for _, t := range b {
		if t.GridIndex == index {
			return t, true
		}
	}
	return Token{}, false
}

// Find returns the token with the given id.
func (b Board) Find(id string) (Token, bool) {
	for _, t := range b {
		if t.ID == id {
			return t, true
		}
	}
	return Token{}, false
}

// EmptyCells returns the unoccupied indices in ascending order.
func (b Board) EmptyCells() []int {
	var used [TotalCells]bool
	for _, t := range b {
		if ValidIndex(t.GridIndex) {
			used[t.GridIndex] = true
		}
	}
	cells := make([]int, 0, TotalCells-len(b))
	for i, u := range used {
		if !u {
			cells = append(cells, i)
		}
	}
	return cells
}

// Clone returns an independent copy.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	copy(out, b)
	return out
}

// Grid lays the tokens out row-major. Empty cells hold a zero Token.
func (b Board) Grid() [GridSize][GridSize]Token {
	var g [GridSize][GridSize]Token
	for _, t := range b {
		if ValidIndex(t.GridIndex) {
			g[t.GridIndex/GridSize][t.GridIndex%GridSize] = t
		}
	}
	return g
}

// FirstMergeablePair returns the first two tokens, in insertion order, of the lowest
// level that has at least two tokens.
func (b Board) FirstMergeablePair() (Token, Token, bool) {
	groups := make(map[int][]Token)
	for _, t := range b {
		groups[t.Level] = append(groups[t.Level], t)
	}
	levels := make([]int, 0, len(groups))
	for lvl := range groups {
		levels = append(levels, lvl)
	}
	sort.Ints(levels)

	for _, lvl := range levels {
		if g := groups[lvl]; len(g) >= 2 {
			return g[0], g[1], true
		}
	}
	return Token{}, Token{}, false
}

// without returns the board minus the tokens whose ids are listed.
func (b Board) without(ids ...string) Board {
	out := b[:0:0]
	for _, t := range b {
		drop := false
		for _, id := range ids {
			if t.ID == id {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, t)
		}
	}
	return out
}

// splitBelow partitions the board into tokens at or above level and those below it.
func (b Board) splitBelow(level int) (kept, removed Board) {
	for _, t := range b {
		if t.Level < level {
			removed = append(removed, t)
		} else {
			kept = append(kept, t)
		}
	}
	return kept, removed
}
