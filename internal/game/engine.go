package game

import (
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
)

// SpawnResult explains the outcome of a spawn attempt.
type SpawnResult int

// Spawn outcomes. Funds are checked before board space.
const (
	SpawnOK                SpawnResult = iota // A token was placed
	SpawnInsufficientFunds                    // Money is below the spawn cost
	SpawnBoardFull                            // All cells are taken
	SpawnGated                                // The spawn level needs the gem system
)

// OK reports whether the spawn placed a token.
func (r SpawnResult) OK() bool {
	return r == SpawnOK
}

// String returns the snake_case reason used by the API and MCP tools.
func (r SpawnResult) String() string {
	switch r {
	case SpawnOK:
		return "ok"
	case SpawnInsufficientFunds:
		return "insufficient_funds"
	case SpawnBoardFull:
		return "board_full"
	case SpawnGated:
		return "gated"
	default:
		return "unknown"
	}
}

// Engine owns one game state and enforces its rules.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	balance config.BalanceConfig
	rng     *rand.Rand
	clock   core.Clock
	newID   func() string

	st State
}

// Option configures an Engine.
type Option func(*Engine)

// WithBalance sets the economy tables.
func WithBalance(b config.BalanceConfig) Option {
	return func(e *Engine) { e.balance = b }
}

// WithSeed seeds the engine RNG for deterministic play.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand sets the engine RNG.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock sets the time source used for boosts.
func WithClock(c core.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithIDGenerator sets the token id generator.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

// New creates an engine holding a fresh game.
func New(opts ...Option) *Engine {
	e := &Engine{
		balance: config.DefaultBalance(),
		clock:   core.SystemClock{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e.st = InitialState(e.balance)
	return e
}

// Balance returns the economy tables in use.
func (e *Engine) Balance() config.BalanceConfig {
	return e.balance
}

// State returns a deep copy of the current state.
func (e *Engine) State() State {
	return e.st.Clone()
}

// Load replaces the state with st after sanitizing it, and recomputes derived fields.
func (e *Engine) Load(st State) {
	e.st = Sanitize(st.Clone(), e.balance)
	e.recomputeDerived()
}

// Reset restores the initial state.
func (e *Engine) Reset() {
	e.st = InitialState(e.balance)
	e.recomputeDerived()
}

func (e *Engine) now() time.Time {
	return e.clock.Now()
}

// recomputeDerived refreshes every cached field. It runs after any board change.
func (e *Engine) recomputeDerived() {
	e.st.IncomeRate = TotalIncomeRate(e.st.Tokens)
}

// levelAllowed reports whether tokens of level may be created.
func (e *Engine) levelAllowed(level int) bool {
	if !ValidLevel(level) {
		return false
	}
	return level <= GemThreshold || e.st.GemSystemUnlocked
}

// earn credits amount toward both the balance and the lifetime total.
func (e *Engine) earn(amount Money) {
	if amount <= 0 {
		return
	}
	before := e.st.Money
	e.st.Money = addCapped(e.st.Money, amount)
	e.st.TotalEarned = addCapped(e.st.TotalEarned, e.st.Money-before)
}

// Spawn buys a token at the current spawn level and places it on a random empty cell.
func (e *Engine) Spawn() SpawnResult {
	level := e.st.SpawnLevel
	if !e.levelAllowed(level) {
		return SpawnGated
	}
	cost := ValueOf(level)
	if e.st.Money < cost {
		return SpawnInsufficientFunds
	}
	cells := e.st.Tokens.EmptyCells()
	if len(cells) == 0 {
		return SpawnBoardFull
	}

	cell := cells[e.rng.Intn(len(cells))]
	e.st.Money -= cost
	e.st.Tokens = append(e.st.Tokens, Token{ID: e.newID(), Level: level, GridIndex: cell})
	e.recomputeDerived()
	return SpawnOK
}

// Move relocates a token to an empty cell. Moving onto its own cell succeeds without change.
func (e *Engine) Move(id string, target int) bool {
	if !ValidIndex(target) {
		return false
	}
	if _, ok := e.st.Tokens.Find(id); !ok {
		return false
	}
	if occupant, ok := e.st.Tokens.At(target); ok && occupant.ID != id {
		return false
	}
	for i := range e.st.Tokens {
		if e.st.Tokens[i].ID == id {
			e.st.Tokens[i].GridIndex = target
			break
		}
	}
	return true
}

// TryMerge merges the token id into the same-level token at target. The result takes
// the target cell and the next level.
func (e *Engine) TryMerge(id string, target int) bool {
	if !ValidIndex(target) {
		return false
	}
	moving, ok := e.st.Tokens.Find(id)
	if !ok {
		return false
	}
	dest, ok := e.st.Tokens.At(target)
	if !ok || dest.ID == id || dest.Level != moving.Level {
		return false
	}
	newLevel := moving.Level + 1
	if !e.levelAllowed(newLevel) {
		return false
	}

	merged := Token{ID: e.newID(), Level: newLevel, GridIndex: target}
	e.st.Tokens = append(e.st.Tokens.without(moving.ID, dest.ID), merged)

	if e.rng.Float64() < e.balance.MergeBonus.Chance {
		e.earn(MergeBonus(newLevel, e.st.MergeBonusLevel, e.balance))
	}

	e.st.TotalMergeCount++
	e.st.LastMergedID = merged.ID
	if newLevel == MaxLevel {
		e.st.BitcoinDiscovered = true
	}
	if newLevel >= 2 && !e.st.Discovered(newLevel) {
		e.st.DiscoveredLevels = append(e.st.DiscoveredLevels, newLevel)
		e.st.LastDiscoveredLevel = newLevel
	}
	e.recomputeDerived()
	return true
}

// TriggerAutoMerge merges one pair: the first two tokens of the lowest level holding at
// least two.
func (e *Engine) TriggerAutoMerge() bool {
	a, b, ok := e.st.Tokens.FirstMergeablePair()
	if !ok {
		return false
	}
	return e.TryMerge(a.ID, b.GridIndex)
}

// ActivateBoost starts or extends a boost by seconds.
func (e *Engine) ActivateBoost(t BoostType, seconds int) {
	if !t.Valid() || seconds <= 0 {
		return
	}
	e.st.Boosts = e.st.Boosts.Activate(t, time.Duration(seconds)*time.Second, e.now())
}

// ActivateDefaultBoost starts or extends a boost by the configured duration.
func (e *Engine) ActivateDefaultBoost(t BoostType) {
	e.ActivateBoost(t, e.balance.BoostDurationSec)
}

// IsBoostActive reports whether t is running.
func (e *Engine) IsBoostActive(t BoostType) bool {
	return e.st.Boosts.Active(t, e.now())
}

// BoostRemaining returns the time left on t.
func (e *Engine) BoostRemaining(t BoostType) time.Duration {
	return e.st.Boosts.Remaining(t, e.now())
}

// AddMoney credits income, doubled while DOUBLE_INCOME is active. Non-positive amounts
// are ignored.
func (e *Engine) AddMoney(amount Money) {
	if amount <= 0 {
		return
	}
	if e.IsBoostActive(BoostDoubleIncome) {
		amount = addCapped(amount, amount)
	}
	e.earn(amount)
}

// PayIncome credits one payout interval and returns the amount actually added.
func (e *Engine) PayIncome() Money {
	before := e.st.Money
	e.AddMoney(Payout(e.st.IncomeRate, e.st.IncomeMultiplierLevel, e.balance))
	return e.st.Money - before
}

// CheckAchievements unlocks every newly satisfied achievement, credits the rewards and
// returns the unlocked ids in catalog order.
func (e *Engine) CheckAchievements() []string {
	ids, reward := EvaluateAchievements(&e.st)
	if len(ids) == 0 {
		return nil
	}
	e.st.UnlockedAchievements = append(e.st.UnlockedAchievements, ids...)
	e.earn(reward)
	return ids
}

// GrantAchievement marks id unlocked without paying its reward. It is used to carry
// achievements across a reset. Unknown or already unlocked ids return false.
func (e *Engine) GrantAchievement(id string) bool {
	if _, ok := FindAchievement(id); !ok || e.st.HasAchievement(id) {
		return false
	}
	e.st.UnlockedAchievements = append(e.st.UnlockedAchievements, id)
	return true
}

// ClearLastMergedID acknowledges the merge notification.
func (e *Engine) ClearLastMergedID() {
	e.st.LastMergedID = ""
}

// ClearLastDiscoveredLevel acknowledges the discovery notification.
func (e *Engine) ClearLastDiscoveredLevel() {
	e.st.LastDiscoveredLevel = 0
}

// Query accessors. Each returns the current value of one state field; slice results
// are copies the caller may keep.

// Tokens returns the placed tokens in insertion order.
func (e *Engine) Tokens() []Token            { return e.st.Tokens.Clone() }
func (e *Engine) Money() Money               { return e.st.Money }
func (e *Engine) TotalEarned() Money         { return e.st.TotalEarned }
func (e *Engine) IncomeRate() Money          { return e.st.IncomeRate }
func (e *Engine) IncomeIntervalMs() int64    { return e.st.IncomeIntervalMs }
func (e *Engine) SpawnCooldownMs() int64     { return e.st.SpawnCooldownMs }
func (e *Engine) SpawnLevel() int            { return e.st.SpawnLevel }
func (e *Engine) MergeBonusLevel() int       { return e.st.MergeBonusLevel }
func (e *Engine) IncomeMultiplierLevel() int { return e.st.IncomeMultiplierLevel }
func (e *Engine) AutoMergeIntervalMs() int64 { return e.st.AutoMergeIntervalMs }
func (e *Engine) GemSystemUnlocked() bool    { return e.st.GemSystemUnlocked }
func (e *Engine) BitcoinDiscovered() bool    { return e.st.BitcoinDiscovered }
func (e *Engine) TotalMergeCount() int       { return e.st.TotalMergeCount }
func (e *Engine) LastMergedID() string       { return e.st.LastMergedID }
func (e *Engine) LastDiscoveredLevel() int   { return e.st.LastDiscoveredLevel }
func (e *Engine) IsBoardFull() bool          { return e.st.Tokens.Full() }
func (e *Engine) EmptyCells() []int          { return e.st.Tokens.EmptyCells() }

// UnlockedAchievements, DiscoveredLevels and Boosts return copies of the collections.
func (e *Engine) UnlockedAchievements() []string { return slices.Clone(e.st.UnlockedAchievements) }
func (e *Engine) DiscoveredLevels() []int        { return slices.Clone(e.st.DiscoveredLevels) }
func (e *Engine) Boosts() []Boost                { return e.st.Boosts.Clone() }

// TokenAt returns the token occupying index.
func (e *Engine) TokenAt(index int) (Token, bool) {
	return e.st.Tokens.At(index)
}
