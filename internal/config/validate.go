package config

import (
	"errors"
	"fmt"
)

// ErrInvalidTrack is returned when an upgrade track cannot produce a valid cost curve.
var ErrInvalidTrack = errors.New("invalid upgrade track")

// Validate checks the configuration for values the engine cannot work with.
func (c TycoonConfig) Validate() error {
	b := c.Balance
	if b.StartingMoney < 0 {
		return fmt.Errorf("balance: starting_money must be >= 0, got %d", b.StartingMoney)
	}
	if b.GemUnlockCost <= 0 {
		return fmt.Errorf("balance: gem_unlock_cost must be > 0, got %d", b.GemUnlockCost)
	}
	if b.BoostDurationSec <= 0 {
		return fmt.Errorf("balance: boost_duration_sec must be > 0, got %d", b.BoostDurationSec)
	}
	if b.IncomeMultiplierStep < 0 {
		return fmt.Errorf("balance: income_multiplier_step must be >= 0, got %g", b.IncomeMultiplierStep)
	}
	if b.MergeBonus.Chance < 0 || b.MergeBonus.Chance > 1 {
		return fmt.Errorf("balance: merge_bonus.chance must be within [0, 1], got %g", b.MergeBonus.Chance)
	}
	if b.MergeBonus.PercentPerLevel < 0 {
		return fmt.Errorf("balance: merge_bonus.percent_per_level must be >= 0, got %g", b.MergeBonus.PercentPerLevel)
	}

	names := []string{"spawn_level", "spawn_speed", "income_speed", "merge_bonus", "income_multiplier", "auto_merge_speed"}
	for i, t := range b.Upgrades.All() {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("balance: upgrades.%s: %w", names[i], err)
		}
	}

	// Spawn level indexes the catalog, whose gated tier starts above 12
	if b.Upgrades.SpawnLevel.Default < 1 || b.Upgrades.SpawnLevel.Limit > 12 {
		return fmt.Errorf("balance: upgrades.spawn_level must stay within [1, 12]: %w", ErrInvalidTrack)
	}

	d := c.Drivers
	if d.IdlePollMs <= 0 || d.AchievementPollMs <= 0 || d.MinSpawnCooldownMs <= 0 {
		return fmt.Errorf("drivers: all periods must be > 0")
	}
	return nil
}

// Validate checks that the track steps toward its limit with a positive cost curve.
func (t Track) Validate() error {
	switch {
	case t.Step == 0:
		return fmt.Errorf("step must be non-zero: %w", ErrInvalidTrack)
	case t.Step > 0 && t.Limit < t.Default:
		return fmt.Errorf("limit %d below default %d for increasing track: %w", t.Limit, t.Default, ErrInvalidTrack)
	case t.Step < 0 && t.Limit > t.Default:
		return fmt.Errorf("limit %d above default %d for decreasing track: %w", t.Limit, t.Default, ErrInvalidTrack)
	case t.CostBase <= 0:
		return fmt.Errorf("cost_base must be > 0: %w", ErrInvalidTrack)
	case t.CostExponent <= 0:
		return fmt.Errorf("cost_exponent must be > 0: %w", ErrInvalidTrack)
	}
	return nil
}
