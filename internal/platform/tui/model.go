package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

// Timings of transient feedback.
const (
	messageTTL = 3 * time.Second
	toastTTL   = 5 * time.Second
	flashTTL   = 600 * time.Millisecond
	maxToasts  = 3
)

// headerLines is the number of terminal rows above the board.
const headerLines = 2

type toast struct {
	text  string
	until time.Time
}

// Model is the Bubble Tea model of one player's board.
type Model struct {
	sess   *session.Session
	runs   RunStore
	clock  core.Clock
	config core.RuntimeConfig
	feed   *eventFeed

	screen *core.Screen
	keys   KeyMap
	help   help.Model

	st       game.State
	upgrades []game.UpgradeInfo
	gemCost  game.Money

	cursor     int
	picked     string
	flashed    string
	flashUntil time.Time

	panel        panel
	achievements table.Model
	runTable     table.Model

	message      string
	messageUntil time.Time
	toasts       []toast
	confirmReset bool

	width    int
	height   int
	quitting bool
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithRuns enables the run history panel.
func WithRuns(r RunStore) ModelOption {
	return func(m *Model) { m.runs = r }
}

// WithClock replaces the clock used for toasts and boost countdowns.
func WithClock(c core.Clock) ModelOption {
	return func(m *Model) { m.clock = c }
}

// NewModel creates a model bound to sess. The model subscribes to the session until
// it quits.
func NewModel(sess *session.Session, cfg core.RuntimeConfig, opts ...ModelOption) Model {
	h := help.New()
	h.ShowAll = false

	m := Model{
		sess:         sess,
		clock:        core.SystemClock{},
		config:       cfg,
		screen:       core.NewScreen(boardW, boardH),
		keys:         DefaultKeyMap(),
		help:         h,
		cursor:       game.TotalCells / 2,
		achievements: newAchievementTable(),
		runTable:     newRunTable(),
		width:        cfg.ScreenW,
		height:       cfg.ScreenH,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.feed = subscribe(sess)
	m.refresh()
	m.loadRuns()
	return m
}

// Init starts the refresh loop and the event feed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(m.config.RefreshInterval()), m.feed.wait())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case TickMsg:
		m.refresh()
		return m, tickCmd(m.config.RefreshInterval())

	case sessionEventMsg:
		m.handleEvent(session.Event(msg))
		return m, m.feed.wait()
	}

	return m, nil
}

func (m Model) now() time.Time {
	return m.clock.Now()
}

// refresh re-reads the session and consumes its one-shot notifications.
func (m *Model) refresh() {
	m.st = m.sess.State()
	m.upgrades = m.sess.UpgradeInfos()
	m.gemCost = m.sess.GemUnlockCost()
	m.achievements.SetRows(achievementRows(m.st))

	now := m.now()
	if m.st.LastMergedID != "" || m.st.LastDiscoveredLevel != 0 {
		if m.st.LastMergedID != "" {
			m.flashed = m.st.LastMergedID
			m.flashUntil = now.Add(flashTTL)
		}
		if lvl := m.st.LastDiscoveredLevel; game.ValidLevel(lvl) {
			m.pushToast("New discovery: " + game.GetLevel(lvl).Name)
		}
		m.sess.Acknowledge()
	}
	if m.flashed != "" && now.After(m.flashUntil) {
		m.flashed = ""
	}
	if m.message != "" && now.After(m.messageUntil) {
		m.message = ""
	}
	m.toasts = expireToasts(m.toasts, now)

	// A picked token may have been merged away by the auto-merge driver
	if m.picked != "" {
		if _, ok := m.st.Tokens.Find(m.picked); !ok {
			m.picked = ""
		}
	}
}

func (m *Model) loadRuns() {
	if m.runs == nil {
		return
	}
	runs, err := m.runs.TopRuns(m.sess.Slot(), maxRuns)
	if err != nil {
		m.setMessage("cannot load runs: " + err.Error())
		return
	}
	m.runTable.SetRows(runRows(runs))
}

func expireToasts(ts []toast, now time.Time) []toast {
	kept := ts[:0]
	for _, t := range ts {
		if now.Before(t.until) {
			kept = append(kept, t)
		}
	}
	return kept
}

func (m *Model) pushToast(text string) {
	m.toasts = append(m.toasts, toast{text: text, until: m.now().Add(toastTTL)})
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[len(m.toasts)-maxToasts:]
	}
}

func (m *Model) setMessage(text string) {
	m.message = text
	m.messageUntil = m.now().Add(messageTTL)
}

// handleEvent turns session notifications into toasts.
func (m *Model) handleEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventAchievement:
		for _, id := range ev.Achievements {
			if a, ok := game.FindAchievement(id); ok {
				m.pushToast(fmt.Sprintf("Achievement: %s (+%s)", a.Title, game.FormatMoney(a.Reward)))
			}
		}
	case session.EventEnding:
		m.pushToast("LEGENDARY TYCOON! You reached " + game.FormatMoney(game.MaxMoney))
		m.loadRuns()
	case session.EventReset:
		m.picked = ""
		m.loadRuns()
	}
	m.st = ev.State
	m.achievements.SetRows(achievementRows(m.st))
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmReset {
		m.confirmReset = false
		if key.Matches(msg, m.keys.Confirm) {
			m.sess.Reset(true)
			m.setMessage("New game started")
			m.refresh()
		} else {
			m.setMessage("Reset cancelled")
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.feed.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(0, -1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(0, 1)
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1, 0)

	case key.Matches(msg, m.keys.Pick):
		m.pickOrDrop()
	case key.Matches(msg, m.keys.Cancel):
		m.picked = ""

	case key.Matches(msg, m.keys.Spawn):
		m.spawn()
	case key.Matches(msg, m.keys.AutoMerge):
		if !m.sess.TriggerAutoMerge() {
			m.setMessage("No pair to merge")
		}

	case key.Matches(msg, m.keys.Upgrade):
		m.upgrade(msg.String())
	case key.Matches(msg, m.keys.Gems):
		if m.sess.UnlockGemSystem() {
			m.setMessage("Gem system unlocked")
		} else {
			m.setMessage("Cannot unlock gems yet")
		}
	case key.Matches(msg, m.keys.Boost):
		t := game.BoostType(boostForKey[msg.String()])
		if m.sess.ActivateBoost(t, 0) {
			m.setMessage(string(t) + " boost active")
		}

	case key.Matches(msg, m.keys.NextPanel):
		m.panel = panel(core.Wrap(int(m.panel)+1, int(panelCount)))
		m.onPanelChange()
	case key.Matches(msg, m.keys.PrevPanel):
		m.panel = panel(core.Wrap(int(m.panel)-1, int(panelCount)))
		m.onPanelChange()

	case key.Matches(msg, m.keys.Reset):
		m.confirmReset = true
		return m, nil
	}

	m.refresh()
	return m, nil
}

func (m *Model) onPanelChange() {
	if m.panel == panelRuns {
		m.loadRuns()
	}
}

// moveCursor steps the cursor, wrapping within a row and stopping at the top and bottom.
func (m *Model) moveCursor(dx, dy int) {
	col := core.Wrap(m.cursor%game.GridSize+dx, game.GridSize)
	row := core.Clamp(m.cursor/game.GridSize+dy, 0, game.GridSize-1)
	m.cursor = row*game.GridSize + col
}

// pickOrDrop picks up the token under the cursor, or drops the held one there.
func (m *Model) pickOrDrop() {
	if m.picked == "" {
		tok, ok := m.st.Tokens.At(m.cursor)
		if !ok {
			return
		}
		m.picked = tok.ID
		return
	}

	id := m.picked
	m.picked = ""
	if tok, ok := m.st.Tokens.At(m.cursor); ok && tok.ID == id {
		return
	}
	if !m.sess.Drop(id, m.cursor) {
		m.setMessage("Cannot place that here")
	}
}

func (m *Model) spawn() {
	switch m.sess.Spawn() {
	case game.SpawnInsufficientFunds:
		m.setMessage("Not enough money")
	case game.SpawnBoardFull:
		m.setMessage("Board is full")
	case game.SpawnGated:
		m.setMessage("Unlock the gem system first")
	}
}

func (m *Model) upgrade(k string) {
	i, ok := upgradeIndex(k)
	if !ok || i >= len(game.UpgradeKinds) {
		return
	}
	kind := game.UpgradeKinds[i]
	if m.sess.Upgrade(kind) {
		m.setMessage("Upgraded " + string(kind))
		return
	}
	for _, info := range m.upgrades {
		if info.Kind == kind && info.Maxed {
			m.setMessage("Already maxed")
			return
		}
	}
	m.setMessage("Not enough money")
}

// handleMouse maps a left click on the board to the pick/drop gesture.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	idx := cellAt(msg.X, msg.Y-headerLines)
	if idx < 0 {
		return m, nil
	}
	m.cursor = idx
	m.pickOrDrop()
	m.refresh()
	return m, nil
}

// View renders the board, the active panel and the help bar.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	drawBoard(m.screen, m.st.Tokens, boardMarks{cursor: m.cursor, picked: m.picked, flashed: m.flashed})
	board := RenderScreen(m.screen)
	side := m.renderPanel()
	if m.width > 0 && m.width < boardW+panelWidth+4 {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, board, side))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, board, "  ", side))
	}
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.help.View(m.keys)))
	return b.String()
}

// renderHeader is exactly headerLines rows tall.
func (m Model) renderHeader() string {
	slot := m.sess.Slot()
	if slot == "" {
		slot = "default"
	}
	title := titleStyle.Render("MERGE MONEY TYCOON") + dimStyle.Render("  slot "+slot)

	spawnCost := game.Money(0)
	if game.ValidLevel(m.st.SpawnLevel) {
		spawnCost = game.ValueOf(m.st.SpawnLevel)
	}
	stats := fmt.Sprintf("Money %s  Income %s/%s  Spawn Lv %d (%s)  Merges %d",
		game.FormatMoney(m.st.Money),
		game.FormatMoney(m.st.IncomeRate),
		time.Duration(m.st.IncomeIntervalMs)*time.Millisecond,
		m.st.SpawnLevel,
		game.FormatMoney(spawnCost),
		m.st.TotalMergeCount,
	)
	return title + "\n" + stats
}

func (m Model) renderPanel() string {
	var body string
	switch m.panel {
	case panelUpgrades:
		body = renderUpgrades(m.upgrades, m.st, m.gemCost, m.now())
	case panelAchievements:
		body = fmt.Sprintf("%d/%d unlocked\n", len(m.st.UnlockedAchievements), len(game.Achievements)) +
			m.achievements.View()
	case panelCollection:
		body = renderCollection(m.st)
	case panelRuns:
		if m.runs == nil || len(m.runTable.Rows()) == 0 {
			body = dimStyle.Italic(true).Render("No finished runs yet.")
		} else {
			body = m.runTable.View()
		}
	}
	return renderTabs(m.panel) + "\n" + panelStyle.Render(body)
}

func (m Model) renderStatus() string {
	var lines []string
	for _, t := range m.toasts {
		lines = append(lines, toastStyle.Render(t.text))
	}
	switch {
	case m.confirmReset:
		lines = append(lines, titleStyle.Render("Reset the game? (y to confirm)"))
	case m.picked != "":
		if tok, ok := m.st.Tokens.Find(m.picked); ok {
			lines = append(lines, "Holding "+game.GetLevel(tok.Level).Name+". Space to drop, esc to cancel")
		}
	case m.message != "":
		lines = append(lines, m.message)
	}
	if m.st.Tokens.Full() {
		lines = append(lines, dimStyle.Render("Board full: merge to make room"))
	}
	return strings.Join(lines, "\n")
}

// Run plays sess in the local terminal until the player quits.
func Run(sess *session.Session, runs RunStore, cfg core.RuntimeConfig) error {
	model := NewModel(sess, cfg, WithRuns(runs))
	defer model.feed.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
