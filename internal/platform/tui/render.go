package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/game"
)

// Board layout. Each cell is a box with one line of text inside.
const (
	cellW  = 14
	cellH  = 3
	boardW = cellW * game.GridSize
	boardH = cellH * game.GridSize
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBrightBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	// Pre-allocate with extra space for ANSI codes
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		// Group consecutive cells with the same color for efficiency
		x := 0
		for x < s.Width() {
			cell := s.GetCell(x, y)
			startColor := cell.Color

			// Collect consecutive cells with same color
			var run strings.Builder
			for x < s.Width() {
				cell = s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			// Apply style to the run
			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}


// cellRect returns the screen area of board cell index.
func cellRect(index int) core.Rect {
	col, row := index%game.GridSize, index/game.GridSize
	return core.NewRect(col*cellW, row*cellH, cellW, cellH)
}

// cellAt maps a point in board coordinates to a cell index, or -1 outside the board.
func cellAt(x, y int) int {
	for i := range game.TotalCells {
		if cellRect(i).Contains(x, y) {
			return i
		}
	}
	return -1
}

// boardMarks are the per-cell highlights drawn on top of the tokens.
type boardMarks struct {
	cursor  int
	picked  string // Token id held by the cursor
	flashed string // Token id produced by the latest merge
}

// drawBoard renders the grid and its tokens into s.
func drawBoard(s *core.Screen, tokens game.Board, marks boardMarks) {
	s.Clear()
	grid := tokens.Grid()
	for i := range game.TotalCells {
		r := cellRect(i)
		tok := grid[i/game.GridSize][i%game.GridSize]

		border := core.ColorGrid
		switch {
		case tok.ID != "" && tok.ID == marks.picked:
			border = core.ColorSelected
		case i == marks.cursor:
			border = core.ColorCursor
		case tok.ID != "" && tok.ID == marks.flashed:
			border = core.ColorFlash
		}
		s.DrawBox(r, border)

		if tok.ID == "" {
			continue
		}
		s.DrawTextCentered(r, r.Y+1, tokenLabel(tok.Level, r.W-2), core.TierColor(tok.Level))
	}
}

// tokenLabel fits "level name" into width columns.
func tokenLabel(level, width int) string {
	label := fmt.Sprintf("%d %s", level, game.GetLevel(level).Name)
	runes := []rune(label)
	if len(runes) > width {
		runes = runes[:width]
	}
	return string(runes)
}
