package tui

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

func newTestModel(t *testing.T, opts ...ModelOption) (Model, *session.Session, *core.ManualClock) {
	t.Helper()
	clock := core.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	balance := config.DefaultBalance()
	balance.MergeBonus.Chance = 0
	sess := session.Open("tester", nil, session.Options{
		Balance: balance,
		Clock:   clock,
		Seed:    1,
		Logger:  log.New(io.Discard),
	})

	opts = append([]ModelOption{WithClock(clock)}, opts...)
	m := NewModel(sess, core.DefaultConfig(), opts...)
	t.Cleanup(m.feed.Close)
	return m, sess, clock
}

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	if !ok {
		t.Fatalf("Update() returned %T, want Model", next)
	}
	return nm
}

func TestModelSpawnKey(t *testing.T) {
	m, sess, _ := newTestModel(t)

	m = update(t, m, runeKey("s"))
	if got := len(sess.State().Tokens); got != 1 {
		t.Fatalf("tokens after spawn = %d, want 1", got)
	}
	if got := len(m.st.Tokens); got != 1 {
		t.Errorf("model tokens = %d, want 1", got)
	}

	// Starting money covers five level 1 spawns
	for range 5 {
		m = update(t, m, runeKey("s"))
	}
	if m.message != "Not enough money" {
		t.Errorf("message = %q, want %q", m.message, "Not enough money")
	}
}

func TestModelPickAndDropMerges(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = update(t, m, runeKey("s"))
	m = update(t, m, runeKey("s"))

	tokens := sess.State().Tokens
	if len(tokens) != 2 {
		t.Fatalf("tokens = %d, want 2", len(tokens))
	}

	m.cursor = tokens[0].GridIndex
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.picked != tokens[0].ID {
		t.Fatalf("picked = %q, want %q", m.picked, tokens[0].ID)
	}

	m.cursor = tokens[1].GridIndex
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.picked != "" {
		t.Errorf("picked = %q after drop, want empty", m.picked)
	}

	st := sess.State()
	if st.TotalMergeCount != 1 || len(st.Tokens) != 1 || st.Tokens[0].Level != 2 {
		t.Fatalf("after drop: merges=%d tokens=%+v, want one level 2 token", st.TotalMergeCount, st.Tokens)
	}
	if m.flashed != st.Tokens[0].ID {
		t.Errorf("flashed = %q, want the merged token %q", m.flashed, st.Tokens[0].ID)
	}
	if st.LastMergedID != "" || st.LastDiscoveredLevel != 0 {
		t.Error("notifications should be acknowledged after the refresh")
	}
	if len(m.toasts) != 1 || !strings.Contains(m.toasts[0].text, game.GetLevel(2).Name) {
		t.Errorf("toasts = %+v, want a discovery toast", m.toasts)
	}
}

func TestModelPickEmptyCellAndCancel(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = update(t, m, runeKey("s"))

	tok := sess.State().Tokens[0]
	m.cursor = (tok.GridIndex + 1) % game.TotalCells
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.picked != "" {
		t.Fatalf("picked = %q on an empty cell, want empty", m.picked)
	}

	m.cursor = tok.GridIndex
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.picked != "" {
		t.Errorf("picked = %q after esc, want empty", m.picked)
	}
}

func TestModelMoveCursor(t *testing.T) {
	tests := []struct {
		name   string
		start  int
		dx, dy int
		want   int
	}{
		{"right", 0, 1, 0, 1},
		{"wrap right", 4, 1, 0, 0},
		{"wrap left", 5, -1, 0, 9},
		{"down", 2, 0, 1, 7},
		{"stop at top", 2, 0, -1, 2},
		{"stop at bottom", 22, 0, 1, 22},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Model{cursor: tt.start}
			m.moveCursor(tt.dx, tt.dy)
			if m.cursor != tt.want {
				t.Errorf("moveCursor(%d, %d) from %d = %d, want %d", tt.dx, tt.dy, tt.start, m.cursor, tt.want)
			}
		})
	}
}

func TestModelResetNeedsConfirmation(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = update(t, m, runeKey("s"))

	m = update(t, m, runeKey("R"))
	if !m.confirmReset {
		t.Fatal("R should ask for confirmation")
	}
	if !strings.Contains(m.View(), "Reset the game?") {
		t.Error("View() should show the reset prompt")
	}
	m = update(t, m, runeKey("n"))
	if len(sess.State().Tokens) != 1 {
		t.Fatal("declined reset should keep the board")
	}

	m = update(t, m, runeKey("R"))
	m = update(t, m, runeKey("y"))
	if got := len(sess.State().Tokens); got != 0 {
		t.Errorf("tokens after reset = %d, want 0", got)
	}
	if m.confirmReset {
		t.Error("confirmReset still set after y")
	}
}

func TestModelUpgradeKeys(t *testing.T) {
	m, sess, _ := newTestModel(t)

	m = update(t, m, runeKey("1"))
	if m.message != "Not enough money" {
		t.Errorf("message = %q, want %q", m.message, "Not enough money")
	}

	sess.AddMoney(1_000_000)
	m = update(t, m, runeKey("1"))
	if got := sess.State().SpawnLevel; got != 2 {
		t.Errorf("SpawnLevel = %d, want 2", got)
	}

	m = update(t, m, runeKey("z"))
	if !sess.IsBoostActive(game.BoostAutoMerge) {
		t.Error("z should start the auto-merge boost")
	}
	if !strings.Contains(m.View(), "AUTO_MERGE") {
		t.Error("upgrades panel should list the boosts")
	}
}

func TestModelMessagesExpire(t *testing.T) {
	m, _, clock := newTestModel(t)
	m = update(t, m, runeKey("m"))
	if m.message != "No pair to merge" {
		t.Fatalf("message = %q, want %q", m.message, "No pair to merge")
	}

	clock.Advance(messageTTL + time.Second)
	m = update(t, m, TickMsg(clock.Now()))
	if m.message != "" {
		t.Errorf("message = %q after expiry, want empty", m.message)
	}
}

func TestModelAchievementToast(t *testing.T) {
	m, sess, _ := newTestModel(t)

	m = update(t, m, sessionEventMsg(session.Event{
		Kind:         session.EventAchievement,
		State:        sess.State(),
		Achievements: []string{"first_merge", "money_1k"},
	}))
	if len(m.toasts) != 2 {
		t.Fatalf("toasts = %d, want 2", len(m.toasts))
	}
	if !strings.Contains(m.toasts[0].text, "First Merge!") {
		t.Errorf("toast = %q, want the achievement title", m.toasts[0].text)
	}

	for range maxToasts {
		m.pushToast("extra")
	}
	if len(m.toasts) != maxToasts {
		t.Errorf("toasts = %d, want capped at %d", len(m.toasts), maxToasts)
	}
}

func TestModelReceivesSessionEvents(t *testing.T) {
	m, sess, _ := newTestModel(t)

	sess.AddMoney(100)
	msg := m.feed.wait()()
	ev, ok := msg.(sessionEventMsg)
	if !ok {
		t.Fatalf("wait() = %T, want sessionEventMsg", msg)
	}
	if ev.Kind != session.EventState || ev.State.Money != 150 {
		t.Errorf("event = %s money %d, want state_update with 150", ev.Kind, ev.State.Money)
	}
}

func TestModelQuitClosesFeed(t *testing.T) {
	m, sess, _ := newTestModel(t)

	next, cmd := m.Update(runeKey("q"))
	if cmd == nil {
		t.Fatal("q should return tea.Quit")
	}
	if v := next.View(); v != "" {
		t.Errorf("View() after quit = %q, want empty", v)
	}

	// Events after quit are dropped and the wait command returns
	for range eventBuffer + 1 {
		sess.AddMoney(1)
	}
	if msg := m.feed.wait()(); msg != nil {
		t.Errorf("wait() after close = %T, want nil", msg)
	}
}

func TestModelMouseClick(t *testing.T) {
	m, sess, _ := newTestModel(t)
	m = update(t, m, runeKey("s"))
	tok := sess.State().Tokens[0]

	r := cellRect(tok.GridIndex)
	cx, cy := r.Center()
	m = update(t, m, tea.MouseMsg{X: cx, Y: cy + headerLines, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.cursor != tok.GridIndex || m.picked != tok.ID {
		t.Errorf("after click cursor=%d picked=%q, want %d %q", m.cursor, m.picked, tok.GridIndex, tok.ID)
	}

	// Clicks outside the board are ignored
	m = update(t, m, tea.MouseMsg{X: boardW + 5, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.picked != tok.ID {
		t.Error("click outside the board should not drop the token")
	}
}

type fakeRuns struct {
	runs []storage.RunEntry
	err  error
}

func (f fakeRuns) TopRuns(string, int) ([]storage.RunEntry, error) {
	return f.runs, f.err
}

func TestModelPanels(t *testing.T) {
	runs := fakeRuns{runs: []storage.RunEntry{{PeakMoney: 12_345, Merges: 7, HighestLevel: 4, CreatedAt: time.Now()}}}
	m, _, _ := newTestModel(t, WithRuns(runs))

	want := []struct {
		panel panel
		text  string
	}{
		{panelAchievements, "Merge Novice"},
		{panelCollection, "Discovered 1/18"},
		{panelRuns, "12.3K"},
		{panelUpgrades, "Spawn Level"},
	}
	for _, w := range want {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
		if m.panel != w.panel {
			t.Fatalf("panel = %d, want %d", m.panel, w.panel)
		}
		if v := m.View(); !strings.Contains(v, w.text) {
			t.Errorf("panel %s view missing %q", panelTitles[w.panel], w.text)
		}
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.panel != panelRuns {
		t.Errorf("panel after shift+tab = %d, want runs", m.panel)
	}
}

func TestModelRunsError(t *testing.T) {
	m, _, _ := newTestModel(t, WithRuns(fakeRuns{err: errors.New("db closed")}))
	if !strings.Contains(m.message, "db closed") {
		t.Errorf("message = %q, want the load error", m.message)
	}
}
