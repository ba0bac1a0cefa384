package game

import (
	"slices"

	"github.com/vovakirdan/merge-tycoon/internal/config"
)

// State is the complete game state. Engine.State returns a deep copy, so callers may
// read it freely.
type State struct {
	Tokens Board

	Money       Money
	TotalEarned Money
	IncomeRate  Money // Derived from Tokens

	IncomeIntervalMs      int64
	SpawnCooldownMs       int64
	SpawnLevel            int
	MergeBonusLevel       int
	IncomeMultiplierLevel int
	AutoMergeIntervalMs   int64

	GemSystemUnlocked bool
	BitcoinDiscovered bool

	Boosts Boosts

	UnlockedAchievements []string
	TotalMergeCount      int
	DiscoveredLevels     []int

	// One-shot notifications for front-ends
	LastMergedID        string
	LastDiscoveredLevel int
}

// InitialState returns a fresh game for the given balance.
func InitialState(b config.BalanceConfig) State {
	u := b.Upgrades
	return State{
		Tokens:                Board{},
		Money:                 Money(b.StartingMoney),
		IncomeIntervalMs:      u.IncomeSpeed.Default,
		SpawnCooldownMs:       u.SpawnSpeed.Default,
		SpawnLevel:            int(u.SpawnLevel.Default),
		MergeBonusLevel:       int(u.MergeBonus.Default),
		IncomeMultiplierLevel: int(u.IncomeMultiplier.Default),
		AutoMergeIntervalMs:   u.AutoMergeSpeed.Default,
		Boosts:                Boosts{},
		UnlockedAchievements:  []string{},
		DiscoveredLevels:      []int{1},
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Tokens = s.Tokens.Clone()
	out.Boosts = s.Boosts.Clone()
	out.UnlockedAchievements = slices.Clone(s.UnlockedAchievements)
	out.DiscoveredLevels = slices.Clone(s.DiscoveredLevels)
	return out
}

// HasAchievement reports whether id is unlocked.
func (s *State) HasAchievement(id string) bool {
	return slices.Contains(s.UnlockedAchievements, id)
}

// Discovered reports whether level has ever been produced.
func (s *State) Discovered(level int) bool {
	return slices.Contains(s.DiscoveredLevels, level)
}

// HighestLevel returns the highest token level on the board, or 0 when empty.
func (s *State) HighestLevel() int {
	highest := 0
	for _, t := range s.Tokens {
		highest = max(highest, t.Level)
	}
	return highest
}
