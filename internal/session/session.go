// Package session serializes access to one game engine and keeps its save slot current.
// Every mutating call runs under the session lock, persists the new state and then
// notifies subscribers outside the lock.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

// Store is the persistence a session needs. *storage.Store implements it.
type Store interface {
	SaveSlot(key string, version int, data []byte) error
	LoadSlot(key string) (storage.SlotRecord, error)
	SaveRun(run storage.RunEntry) (int64, error)
}

// EventKind classifies session notifications.
type EventKind string

const (
	EventState       EventKind = "state_update"
	EventAchievement EventKind = "achievement_unlocked"
	EventEnding      EventKind = "ending"
	EventReset       EventKind = "reset"
)

// Event is delivered to subscribers after a change.
type Event struct {
	Kind         EventKind
	Slot         string
	State        game.State
	Achievements []string // Set for EventAchievement
}

// Options configures a Session.
type Options struct {
	Balance config.BalanceConfig
	Clock   core.Clock
	Seed    int64 // 0 picks a time-based seed
	Logger  *log.Logger
}

// Session owns one engine bound to a save slot.
type Session struct {
	mu     sync.Mutex
	slot   string
	engine *game.Engine
	store  Store
	clock  core.Clock
	logger *log.Logger
	peak   game.Money

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

// Open creates a session for slot, restoring its snapshot from store when one exists.
// A missing or unreadable snapshot starts a fresh game. store may be nil for an
// in-memory session.
func Open(slot string, store Store, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Clock == nil {
		opts.Clock = core.SystemClock{}
	}
	if opts.Balance == (config.BalanceConfig{}) {
		opts.Balance = config.DefaultBalance()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		slot: slot,
		engine: game.New(
			game.WithBalance(opts.Balance),
			game.WithClock(opts.Clock),
			game.WithSeed(seed),
		),
		store:  store,
		clock:  opts.Clock,
		logger: opts.Logger.With("slot", displaySlot(slot)),
		subs:   make(map[int]func(Event)),
	}
	s.load()
	s.peak = s.engine.Money()
	return s
}

func displaySlot(slot string) string {
	if slot == "" {
		return "default"
	}
	return slot
}

// Slot returns the slot name.
func (s *Session) Slot() string {
	return s.slot
}

func (s *Session) load() {
	if s.store == nil {
		return
	}
	key := game.SlotKey(s.slot)
	rec, err := s.store.LoadSlot(key)
	if errors.Is(err, storage.ErrSlotNotFound) {
		s.logger.Info("starting new game")
		return
	}
	if err != nil {
		s.logger.Warn("cannot read save, starting new game", "error", err)
		return
	}

	st, version, err := game.DecodeSnapshot(rec.Data, s.engine.Balance())
	if err != nil {
		s.logger.Warn("corrupt save, starting new game", "error", err)
		return
	}
	s.engine.Load(st)
	s.logger.Info("save restored", "version", version, "tokens", len(st.Tokens), "money", st.Money)
}

// persistLocked writes the snapshot. Failures are logged and never reach gameplay.
func (s *Session) persistLocked() {
	if s.store == nil {
		return
	}
	data, err := game.EncodeSnapshot(s.engine.State())
	if err != nil {
		s.logger.Error("encode snapshot", "error", err)
		return
	}
	if err := s.store.SaveSlot(game.SlotKey(s.slot), game.SchemaVersion, data); err != nil {
		s.logger.Error("save snapshot", "error", err)
	}
}

// Save forces a write of the current state.
func (s *Session) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persistLocked()
}

// mutate runs fn under the lock. When fn reports a change the state is persisted and a
// state event is published after the lock is released.
func (s *Session) mutate(fn func(e *game.Engine) bool) bool {
	s.mu.Lock()
	changed := fn(s.engine)
	var ev Event
	if changed {
		s.peak = max(s.peak, s.engine.Money())
		s.persistLocked()
		ev = s.eventLocked(EventState)
	}
	s.mu.Unlock()

	if changed {
		s.publish(ev)
	}
	return changed
}

func (s *Session) eventLocked(kind EventKind) Event {
	return Event{Kind: kind, Slot: s.slot, State: s.engine.State()}
}

// Subscribe registers fn for every event. The returned function unregisters it.
// fn runs on the goroutine that caused the change and must not block.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Session) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Spawn buys a token at the current spawn level.
func (s *Session) Spawn() game.SpawnResult {
	var res game.SpawnResult
	s.mutate(func(e *game.Engine) bool {
		res = e.Spawn()
		return res.OK()
	})
	return res
}

// Move relocates a token to an empty cell.
func (s *Session) Move(id string, target int) bool {
	return s.mutate(func(e *game.Engine) bool { return e.Move(id, target) })
}

// TryMerge merges token id into the same-level token at target.
func (s *Session) TryMerge(id string, target int) bool {
	return s.mutate(func(e *game.Engine) bool { return e.TryMerge(id, target) })
}

// Drop is the drag-and-drop gesture: merge with the token at target when possible,
// otherwise move there.
func (s *Session) Drop(id string, target int) bool {
	return s.mutate(func(e *game.Engine) bool {
		return e.TryMerge(id, target) || e.Move(id, target)
	})
}

// TriggerAutoMerge merges one pair if any exists.
func (s *Session) TriggerAutoMerge() bool {
	return s.mutate(func(e *game.Engine) bool { return e.TriggerAutoMerge() })
}

// ActivateBoost starts or extends a boost. seconds <= 0 uses the configured duration.
func (s *Session) ActivateBoost(t game.BoostType, seconds int) bool {
	if !t.Valid() {
		return false
	}
	return s.mutate(func(e *game.Engine) bool {
		if seconds <= 0 {
			e.ActivateDefaultBoost(t)
		} else {
			e.ActivateBoost(t, seconds)
		}
		return true
	})
}

// AddMoney credits income.
func (s *Session) AddMoney(amount game.Money) {
	s.mutate(func(e *game.Engine) bool {
		before := e.Money()
		e.AddMoney(amount)
		return e.Money() != before
	})
}

// PayIncome credits one payout interval and returns the amount added.
func (s *Session) PayIncome() game.Money {
	var paid game.Money
	s.mutate(func(e *game.Engine) bool {
		paid = e.PayIncome()
		return paid > 0
	})
	return paid
}

// Upgrade buys one step on a track.
func (s *Session) Upgrade(kind game.UpgradeKind) bool {
	return s.mutate(func(e *game.Engine) bool { return e.Upgrade(kind) })
}

// UnlockGemSystem buys the gem tier.
func (s *Session) UnlockGemSystem() bool {
	return s.mutate(func(e *game.Engine) bool { return e.UnlockGemSystem() })
}

// CheckAchievements unlocks newly satisfied achievements and publishes them.
func (s *Session) CheckAchievements() []string {
	var ids []string
	s.mutate(func(e *game.Engine) bool {
		ids = e.CheckAchievements()
		return len(ids) > 0
	})
	if len(ids) > 0 {
		s.logger.Info("achievements unlocked", "ids", ids)
		s.mu.Lock()
		ev := s.eventLocked(EventAchievement)
		s.mu.Unlock()
		ev.Achievements = ids
		s.publish(ev)
	}
	return ids
}

// Acknowledge clears the one-shot merge and discovery notifications.
func (s *Session) Acknowledge() {
	s.mutate(func(e *game.Engine) bool {
		changed := e.LastMergedID() != "" || e.LastDiscoveredLevel() != 0
		e.ClearLastMergedID()
		e.ClearLastDiscoveredLevel()
		return changed
	})
}

// Reset records the current run and starts over. With keepEnding, a reached ending
// stays unlocked in the new game.
func (s *Session) Reset(keepEnding bool) {
	s.mu.Lock()
	st := s.engine.State()
	hadEnding := st.HasAchievement(game.AchievementMaxMoney)
	s.recordRunLocked(st, storage.RunReasonReset)

	s.engine.Reset()
	if keepEnding && hadEnding {
		s.engine.GrantAchievement(game.AchievementMaxMoney)
	}
	s.peak = s.engine.Money()
	s.persistLocked()
	ev := s.eventLocked(EventReset)
	s.mu.Unlock()

	s.logger.Info("game reset", "keep_ending", keepEnding)
	s.publish(ev)
}

// RecordEnding stores the run as finished and publishes the ending.
func (s *Session) RecordEnding() {
	s.mu.Lock()
	s.recordRunLocked(s.engine.State(), storage.RunReasonEnding)
	ev := s.eventLocked(EventEnding)
	s.mu.Unlock()

	s.logger.Info("ending reached")
	s.publish(ev)
}

func (s *Session) recordRunLocked(st game.State, reason string) {
	if s.store == nil {
		return
	}
	// Skip untouched games so repeated resets do not flood the history
	if reason == storage.RunReasonReset && untouched(st) {
		return
	}
	run := storage.RunEntry{
		Slot:         displaySlot(s.slot),
		PeakMoney:    int64(max(s.peak, st.Money)),
		TotalEarned:  int64(st.TotalEarned),
		Merges:       st.TotalMergeCount,
		Achievements: len(st.UnlockedAchievements),
		HighestLevel: max(st.HighestLevel(), maxDiscovered(st.DiscoveredLevels)),
		Reason:       reason,
	}
	if _, err := s.store.SaveRun(run); err != nil {
		s.logger.Error("record run", "error", err)
	}
}

// untouched reports whether st never earned, merged or placed anything. Achievements
// carried over by a reset do not count as play.
func untouched(st game.State) bool {
	return st.TotalEarned == 0 && st.TotalMergeCount == 0 && len(st.Tokens) == 0
}

func maxDiscovered(levels []int) int {
	highest := 0
	for _, l := range levels {
		highest = max(highest, l)
	}
	return highest
}

// State returns a copy of the current state.
func (s *Session) State() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

// UpgradeInfos reports every track in menu order.
func (s *Session) UpgradeInfos() []game.UpgradeInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	infos := make([]game.UpgradeInfo, 0, len(game.UpgradeKinds))
	for _, k := range game.UpgradeKinds {
		if info, ok := s.engine.UpgradeInfo(k); ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// IsBoostActive reports whether t is running.
func (s *Session) IsBoostActive(t game.BoostType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.IsBoostActive(t)
}

// BoostRemaining returns the time left on t.
func (s *Session) BoostRemaining(t game.BoostType) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.BoostRemaining(t)
}

// GemUnlockCost returns the price of the gem tier.
func (s *Session) GemUnlockCost() game.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.GemUnlockCost()
}

// Balance returns the economy tables in use.
func (s *Session) Balance() config.BalanceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Balance()
}

// Timing holds the current driver cadences.
type Timing struct {
	IncomeInterval    time.Duration
	SpawnCooldown     time.Duration
	AutoMergeInterval time.Duration
}

// Timing returns the cadences derived from the purchased upgrades.
func (s *Session) Timing() Timing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Timing{
		IncomeInterval:    time.Duration(s.engine.IncomeIntervalMs()) * time.Millisecond,
		SpawnCooldown:     time.Duration(s.engine.SpawnCooldownMs()) * time.Millisecond,
		AutoMergeInterval: time.Duration(s.engine.AutoMergeIntervalMs()) * time.Millisecond,
	}
}

// Money returns the current balance.
func (s *Session) Money() game.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Money()
}
