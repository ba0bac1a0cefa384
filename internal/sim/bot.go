package sim

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

// Strategy decides the moves of one bot turn.
type Strategy func(s *session.Session)

var strategies = map[string]Strategy{
	"idle":   playIdle,
	"greedy": playGreedy,
	"boost":  playBoosted,
}

// StrategyNames lists the known strategies, sorted.
func StrategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseStrategy looks up a strategy by name.
func ParseStrategy(name string) (Strategy, error) {
	st, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("sim: unknown strategy %q (want one of %v)", name, StrategyNames())
	}
	return st, nil
}

// playIdle merges every pair and keeps the board stocked, never spending on upgrades.
func playIdle(s *session.Session) {
	mergeAll(s)
	for s.Spawn().OK() {
		mergeAll(s)
	}
}

// playGreedy buys the cheapest affordable upgrade until none is left, then plays idle.
func playGreedy(s *session.Session) {
	for buyCheapest(s) {
	}
	if s.Money() >= s.GemUnlockCost() {
		s.UnlockGemSystem()
	}
	playIdle(s)
}

// playBoosted keeps every boost running on top of the greedy play.
func playBoosted(s *session.Session) {
	for _, t := range game.BoostTypes {
		if !s.IsBoostActive(t) {
			s.ActivateBoost(t, 0)
		}
	}
	playGreedy(s)
}

func mergeAll(s *session.Session) {
	for s.TriggerAutoMerge() {
	}
}

// buyCheapest buys the cheapest affordable upgrade and reports whether it bought one.
func buyCheapest(s *session.Session) bool {
	infos := slices.DeleteFunc(s.UpgradeInfos(), func(i game.UpgradeInfo) bool {
		return !i.Affordable
	})
	if len(infos) == 0 {
		return false
	}
	cheapest := slices.MinFunc(infos, func(a, b game.UpgradeInfo) int {
		return cmp.Compare(a.Cost, b.Cost)
	})
	return s.Upgrade(cheapest.Kind)
}
