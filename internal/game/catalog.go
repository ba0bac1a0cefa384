// Package game implements the merge tycoon state engine: the token catalog,
// board rules, upgrade economy, boosts, achievements and the durable snapshot.
package game

import "fmt"

// Money is an amount of in-game currency. It never goes negative and is capped at MaxMoney.
type Money int64

// Board and tier constants.
const (
	GridSize   = 5
	TotalCells = GridSize * GridSize

	MinLevel     = 1
	MaxLevel     = 18 // Hidden terminal tier
	GemThreshold = 12 // Levels above this need the gem system

	// MaxMoney is the currency cap (9,999 trillion). Reaching it ends the game.
	MaxMoney Money = 9999 * 1_000_000_000_000
)

// Level describes one token tier.
type Level struct {
	Level      int
	Name       string
	Value      Money // Spawn cost and refund value
	IncomeRate Money // Income contributed per payout interval
	Hidden     bool  // Not shown in the collection until discovered
}

// Levels is the static catalog, indexed by level-1.
// Tiers 1-12 are currency, 13-17 gems (gated), 18 the hidden bitcoin.
var Levels = []Level{
	{Level: 1, Name: "10 Won", Value: 10, IncomeRate: 1},
	{Level: 2, Name: "50 Won", Value: 50, IncomeRate: 3},
	{Level: 3, Name: "100 Won", Value: 100, IncomeRate: 8},
	{Level: 4, Name: "500 Won", Value: 500, IncomeRate: 20},
	{Level: 5, Name: "1,000 Won", Value: 1_000, IncomeRate: 50},
	{Level: 6, Name: "5,000 Won", Value: 5_000, IncomeRate: 150},
	{Level: 7, Name: "10,000 Won", Value: 10_000, IncomeRate: 400},
	{Level: 8, Name: "50,000 Won", Value: 50_000, IncomeRate: 1_000},
	{Level: 9, Name: "Cashier's Check", Value: 100_000, IncomeRate: 3_000},
	{Level: 10, Name: "Gold Bar", Value: 500_000, IncomeRate: 10_000},
	{Level: 11, Name: "Diamond", Value: 1_000_000, IncomeRate: 50_000},
	{Level: 12, Name: "Skyscraper", Value: 10_000_000, IncomeRate: 200_000},
	{Level: 13, Name: "Ruby", Value: 50_000_000, IncomeRate: 1_000_000},
	{Level: 14, Name: "Sapphire", Value: 100_000_000, IncomeRate: 5_000_000},
	{Level: 15, Name: "Emerald", Value: 500_000_000, IncomeRate: 20_000_000},
	{Level: 16, Name: "Black Diamond", Value: 1_000_000_000, IncomeRate: 100_000_000},
	{Level: 17, Name: "Cosmic Stone", Value: 5_000_000_000, IncomeRate: 500_000_000},
	{Level: 18, Name: "Bitcoin", Value: 100_000_000_000, IncomeRate: 10_000_000_000, Hidden: true},
}

// ValidLevel reports whether level is in the catalog.
func ValidLevel(level int) bool {
	return level >= MinLevel && level <= MaxLevel
}

// GetLevel returns the catalog entry for level.
// Levels are engine-internal, so an unknown level is a programming error and panics.
func GetLevel(level int) Level {
	if !ValidLevel(level) {
		panic(fmt.Sprintf("game: level %d out of catalog range", level))
	}
	return Levels[level-1]
}

// ValueOf returns the currency value of a token at level.
func ValueOf(level int) Money {
	return GetLevel(level).Value
}

// IncomeRateOf returns the per-interval income of a token at level.
func IncomeRateOf(level int) Money {
	return GetLevel(level).IncomeRate
}

// IsGem reports whether level belongs to the gated tier.
func IsGem(level int) bool {
	return level > GemThreshold
}

// LevelNames returns the names of all levels.
func LevelNames() []string {
	names := make([]string, len(Levels))
	for i, lvl := range Levels {
		names[i] = lvl.Name
	}
	return names
}
