package game

import (
	"math"

	"github.com/vovakirdan/merge-tycoon/internal/config"
)

// TotalIncomeRate sums the income rate of every token.
func TotalIncomeRate(tokens []Token) Money {
	var total Money
	for _, t := range tokens {
		total += IncomeRateOf(t.Level)
	}
	return total
}

// MergeBonus returns the bonus paid when a merge produces newLevel with the given
// bonus upgrade level: floor(value * bonusLevel * percentPerLevel / 100).
func MergeBonus(newLevel, bonusLevel int, balance config.BalanceConfig) Money {
	if bonusLevel <= 0 {
		return 0
	}
	v := float64(ValueOf(newLevel)) * float64(bonusLevel) * balance.MergeBonus.PercentPerLevel / 100
	return Money(math.Floor(v))
}

// Payout returns the income paid for one interval: floor(rate * (1 + multiplierLevel * step)).
func Payout(rate Money, multiplierLevel int, balance config.BalanceConfig) Money {
	if rate <= 0 {
		return 0
	}
	mult := 1 + float64(multiplierLevel)*balance.IncomeMultiplierStep
	return Money(math.Floor(float64(rate) * mult))
}

// TrackLevel returns the 1-based upgrade level for raw value v.
func TrackLevel(t config.Track, v int64) int64 {
	return (v-t.Default)/t.Step + 1
}

// TrackCost returns the price of the next purchase on t from raw value v.
func TrackCost(t config.Track, v int64) Money {
	level := float64(TrackLevel(t, v))
	return Money(math.Floor(t.CostBase * math.Pow(level, t.CostExponent)))
}

// TrackMaxed reports whether v has reached the track limit.
func TrackMaxed(t config.Track, v int64) bool {
	if t.Step > 0 {
		return v >= t.Limit
	}
	return v <= t.Limit
}

// TrackNext returns v advanced by one step, never crossing the limit.
func TrackNext(t config.Track, v int64) int64 {
	return clampTrack(t, v+t.Step)
}

// clampTrack bounds v between the track default and its limit.
func clampTrack(t config.Track, v int64) int64 {
	lo, hi := t.Default, t.Limit
	if t.Step < 0 {
		lo, hi = t.Limit, t.Default
	}
	return max(lo, min(v, hi))
}

// addCapped adds delta to m, saturating at MaxMoney.
func addCapped(m, delta Money) Money {
	if delta > MaxMoney-m {
		return MaxMoney
	}
	return m + delta
}
