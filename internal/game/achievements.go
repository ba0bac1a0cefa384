package game

// Achievement is a one-time milestone with a currency reward.
type Achievement struct {
	ID          string
	Title       string
	Description string
	Reward      Money
	Condition   func(s *State) bool
}

// Achievement ids referenced outside the catalog.
const (
	AchievementMaxMoney = "max_money"
)

func mergesAtLeast(n int) func(*State) bool {
	return func(s *State) bool { return s.TotalMergeCount >= n }
}

func moneyAtLeast(m Money) func(*State) bool {
	return func(s *State) bool { return s.Money >= m }
}

func tokenLevelAtLeast(level int) func(*State) bool {
	return func(s *State) bool {
		for _, t := range s.Tokens {
			if t.Level >= level {
				return true
			}
		}
		return false
	}
}

func spawnLevelAtLeast(level int) func(*State) bool {
	return func(s *State) bool { return s.SpawnLevel >= level }
}

// Achievements is the static catalog, in evaluation order.
var Achievements = []Achievement{
	{ID: "first_merge", Title: "First Merge!", Description: "Merge two tokens", Reward: 100, Condition: mergesAtLeast(1)},
	{ID: "merge_10", Title: "Merge Novice", Description: "Merge 10 times", Reward: 500, Condition: mergesAtLeast(10)},
	{ID: "merge_50", Title: "Merge Adept", Description: "Merge 50 times", Reward: 2_000, Condition: mergesAtLeast(50)},
	{ID: "merge_100", Title: "Merge Expert", Description: "Merge 100 times", Reward: 5_000, Condition: mergesAtLeast(100)},
	{ID: "merge_500", Title: "Merge Master", Description: "Merge 500 times", Reward: 50_000, Condition: mergesAtLeast(500)},

	{ID: "money_1k", Title: "First Thousand", Description: "Hold 1,000", Reward: 100, Condition: moneyAtLeast(1_000)},
	{ID: "money_10k", Title: "Ten Grand", Description: "Hold 10,000", Reward: 1_000, Condition: moneyAtLeast(10_000)},
	{ID: "money_100k", Title: "Hundred Grand", Description: "Hold 100,000", Reward: 5_000, Condition: moneyAtLeast(100_000)},
	{ID: "money_1m", Title: "Millionaire", Description: "Hold 1,000,000", Reward: 50_000, Condition: moneyAtLeast(1_000_000)},
	{ID: "money_10m", Title: "Multi-Millionaire", Description: "Hold 10,000,000", Reward: 500_000, Condition: moneyAtLeast(10_000_000)},
	{ID: "money_100m", Title: "Hundred Millionaire", Description: "Hold 100,000,000", Reward: 5_000_000, Condition: moneyAtLeast(100_000_000)},
	{ID: "money_1b", Title: "Hall of Wealth", Description: "Hold 1,000,000,000", Reward: 50_000_000, Condition: moneyAtLeast(1_000_000_000)},

	{ID: "level_5", Title: "Level 5", Description: "Own a level 5 token", Reward: 500, Condition: tokenLevelAtLeast(5)},
	{ID: "level_8", Title: "Level 8", Description: "Own a level 8 token", Reward: 5_000, Condition: tokenLevelAtLeast(8)},
	{ID: "level_10", Title: "Gold Rush", Description: "Own a Gold Bar (level 10)", Reward: 50_000, Condition: tokenLevelAtLeast(10)},
	{ID: "level_12", Title: "Skyline", Description: "Build a Skyscraper (level 12)", Reward: 1_000_000, Condition: tokenLevelAtLeast(12)},

	{ID: "gem_unlock", Title: "Gem Hunter", Description: "Unlock the gem system", Reward: 10_000_000,
		Condition: func(s *State) bool { return s.GemSystemUnlocked }},
	{ID: "bitcoin", Title: "Legendary Bitcoin", Description: "Discover the Bitcoin", Reward: 1_000_000_000,
		Condition: func(s *State) bool { return s.BitcoinDiscovered }},
	{ID: "full_board", Title: "Board Conqueror", Description: "Fill every cell of the board", Reward: 1_000,
		Condition: func(s *State) bool { return len(s.Tokens) >= TotalCells }},
	{ID: "spawn_level_5", Title: "Skilled Producer", Description: "Reach spawn level 5", Reward: 10_000, Condition: spawnLevelAtLeast(5)},
	{ID: "spawn_level_10", Title: "Master Producer", Description: "Reach spawn level 10", Reward: 500_000, Condition: spawnLevelAtLeast(10)},

	{ID: AchievementMaxMoney, Title: "Legendary Tycoon", Description: "Reach 9,999 trillion. Game clear!", Reward: 0, Condition: moneyAtLeast(MaxMoney)},
}

// FindAchievement looks up an achievement by id.
func FindAchievement(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// EvaluateAchievements returns the ids whose condition holds on s and that are not yet
// unlocked, in catalog order, together with their summed reward. It does not modify s.
func EvaluateAchievements(s *State) ([]string, Money) {
	unlocked := make(map[string]bool, len(s.UnlockedAchievements))
	for _, id := range s.UnlockedAchievements {
		unlocked[id] = true
	}

	var ids []string
	var reward Money
	for _, a := range Achievements {
		if unlocked[a.ID] || !a.Condition(s) {
			continue
		}
		ids = append(ids, a.ID)
		reward += a.Reward
	}
	return ids, reward
}
