package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

// panel selects the side panel shown next to the board.
type panel int

const (
	panelUpgrades panel = iota
	panelAchievements
	panelCollection
	panelRuns
	panelCount
)

var panelTitles = [panelCount]string{"Upgrades", "Achievements", "Collection", "Runs"}

// Layout constants
const (
	panelWidth  = 40
	tableHeight = 12
	maxRuns     = 20
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Width(panelWidth).
			Padding(0, 1)
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)
	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
	toastStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("11")).
			Padding(0, 1)
)

// RunStore lists finished runs for the history panel. *storage.Store implements it.
type RunStore interface {
	TopRuns(slot string, limit int) ([]storage.RunEntry, error)
}

// newTable creates a read-only table with the shared styling.
func newTable(columns []table.Column) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(tableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Bold(false)
	t.SetStyles(s)
	return t
}

func newAchievementTable() table.Model {
	return newTable([]table.Column{
		{Title: " ", Width: 1},
		{Title: "Achievement", Width: 20},
		{Title: "Reward", Width: 10},
	})
}

func newRunTable() table.Model {
	return newTable([]table.Column{
		{Title: "Peak", Width: 9},
		{Title: "Merges", Width: 6},
		{Title: "Lv", Width: 3},
		{Title: "Date", Width: 12},
	})
}

// achievementRows lists the catalog with a mark on unlocked entries.
func achievementRows(st game.State) []table.Row {
	rows := make([]table.Row, 0, len(game.Achievements))
	for _, a := range game.Achievements {
		mark := " "
		if st.HasAchievement(a.ID) {
			mark = "*"
		}
		rows = append(rows, table.Row{mark, a.Title, game.FormatMoney(a.Reward)})
	}
	return rows
}

// runRows formats run history for the table.
func runRows(runs []storage.RunEntry) []table.Row {
	rows := make([]table.Row, len(runs))
	for i, r := range runs {
		rows[i] = table.Row{
			game.FormatMoney(game.Money(r.PeakMoney)),
			fmt.Sprintf("%d", r.Merges),
			fmt.Sprintf("%d", r.HighestLevel),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	return rows
}

// renderUpgrades lists the tracks with their hotkeys, the gem unlock and the boosts.
func renderUpgrades(infos []game.UpgradeInfo, st game.State, gemCost game.Money, now time.Time) string {
	var b strings.Builder
	for i, info := range infos {
		line := fmt.Sprintf("%d %-17s Lv %-3d", i+1, info.Title, info.Level)
		switch {
		case info.Maxed:
			b.WriteString(dimStyle.Render(line + " MAX"))
		case info.Affordable:
			b.WriteString(goodStyle.Render(line + " " + game.FormatMoney(info.Cost)))
		default:
			b.WriteString(line + " " + game.FormatMoney(info.Cost))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if st.GemSystemUnlocked {
		b.WriteString(dimStyle.Render("g Gem system unlocked"))
	} else {
		line := "g Unlock gems " + game.FormatMoney(gemCost)
		if st.Money >= gemCost {
			line = goodStyle.Render(line)
		}
		b.WriteString(line)
	}
	b.WriteString("\n\n")

	keys := []string{"z", "x", "c"}
	for i, t := range game.BoostTypes {
		line := fmt.Sprintf("%s %-14s", keys[i], t)
		if left := st.Boosts.Remaining(t, now); left > 0 {
			b.WriteString(goodStyle.Render(fmt.Sprintf("%s %s", line, left.Round(time.Second))))
		} else {
			b.WriteString(dimStyle.Render(line + " off"))
		}
		if i < len(game.BoostTypes)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderCollection shows every tier, masking hidden ones until discovered.
func renderCollection(st game.State) string {
	var b strings.Builder
	found := 0
	for _, l := range game.Levels {
		name := l.Name
		discovered := st.Discovered(l.Level)
		if discovered {
			found++
		} else if l.Hidden {
			name = "???"
		}
		line := fmt.Sprintf("%2d %-15s %9s", l.Level, name, game.FormatMoney(l.IncomeRate)+"/t")
		if discovered {
			b.WriteString(line)
		} else {
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\nDiscovered %d/%d", found, len(game.Levels)))
	return b.String()
}

// renderTabs draws the panel selector.
func renderTabs(active panel) string {
	tabs := make([]string, panelCount)
	for i := range panelCount {
		if i == active {
			tabs[i] = activeTabStyle.Render(panelTitles[i])
		} else {
			tabs[i] = tabStyle.Render(panelTitles[i])
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
