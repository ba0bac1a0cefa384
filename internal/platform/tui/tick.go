// Package tui is the terminal front-end of the tycoon: a Bubble Tea model for the
// board and its panels, and a Wish server that hands one to every SSH session.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg refreshes the view and expires toasts.
type TickMsg time.Time

// tickCmd schedules the next refresh after interval.
func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
