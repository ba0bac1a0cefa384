package config

import (
	_ "embed"
)

//go:embed defaults/tycoon.yaml
var defaultTycoonYAML []byte

// DefaultTycoonConfig returns the default configuration.
func DefaultTycoonConfig() TycoonConfig {
	return TycoonConfig{
		Balance: DefaultBalance(),
		Drivers: DriverConfig{
			IdlePollMs:         1000,
			AchievementPollMs:  1000,
			MinSpawnCooldownMs: 200,
		},
		Server: ServerConfig{
			SSHAddress:     ":23235",
			HTTPAddress:    ":8080",
			IdleTimeoutMin: 30,
		},
	}
}

// DefaultBalance returns the default economy.
func DefaultBalance() BalanceConfig {
	return BalanceConfig{
		StartingMoney:        50,
		GemUnlockCost:        100_000_000,
		BoostDurationSec:     180, // 3 minutes
		IncomeMultiplierStep: 0.1,
		MergeBonus: MergeBonusConfig{
			Chance:          0.10,
			PercentPerLevel: 0.5,
		},
		Upgrades: UpgradeTracks{
			SpawnLevel: Track{
				Default:      1,
				Step:         1,
				Limit:        11,
				CostBase:     1000,
				CostExponent: 2.0,
			},
			SpawnSpeed: Track{
				Default:      5000,
				Step:         -500,
				Limit:        200,
				CostBase:     1000,
				CostExponent: 1.8,
			},
			IncomeSpeed: Track{
				Default:      10000,
				Step:         -100,
				Limit:        1000,
				CostBase:     1000,
				CostExponent: 2.0,
			},
			MergeBonus: Track{
				Default:      0,
				Step:         1,
				Limit:        60, // 30% at 0.5% per level
				CostBase:     200,
				CostExponent: 1.4,
			},
			IncomeMultiplier: Track{
				Default:      0,
				Step:         1,
				Limit:        20,
				CostBase:     2000,
				CostExponent: 2.2,
			},
			AutoMergeSpeed: Track{
				Default:      1000,
				Step:         -100,
				Limit:        200,
				CostBase:     5000,
				CostExponent: 1.6,
			},
		},
	}
}

// GetDefaultYAML returns the embedded default YAML.
func GetDefaultYAML() []byte {
	return defaultTycoonYAML
}
