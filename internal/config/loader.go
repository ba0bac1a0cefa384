package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// configFile is the file name looked up in the user and local config directories.
const configFile = "tycoon.yaml"

// LoadTycoon loads the game configuration.
// Search order: customPath -> ~/.tycoon/configs/tycoon.yaml -> ./configs/tycoon.yaml -> embedded default.
// Files are decoded on top of the defaults, so a partial file only overrides the keys it names.
func LoadTycoon(customPath string) (TycoonConfig, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return DefaultTycoonConfig(), fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		cfg, err := parseTycoon(data)
		if err != nil {
			return DefaultTycoonConfig(), fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory
	if userCfgPath := userConfigPath(configFile); userCfgPath != "" {
		if data, err := os.ReadFile(userCfgPath); err == nil {
			if cfg, err := parseTycoon(data); err == nil {
				return cfg, nil
			}
		}
	}

	// Try local configs directory
	if data, err := os.ReadFile(filepath.Join("configs", configFile)); err == nil {
		if cfg, err := parseTycoon(data); err == nil {
			return cfg, nil
		}
	}

	// Use embedded default YAML
	cfg, err := parseTycoon(defaultTycoonYAML)
	if err != nil {
		return DefaultTycoonConfig(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// parseTycoon decodes data over the hardcoded defaults and validates the result.
func parseTycoon(data []byte) (TycoonConfig, error) {
	cfg := DefaultTycoonConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tycoon", "configs", filename)
}

// ApplyPreset modifies the balance based on a difficulty preset.
func ApplyPreset(cfg *TycoonConfig, preset DifficultyPreset) {
	scale := CostScaleForPreset(preset)
	if scale != 1.0 {
		for _, t := range cfg.Balance.Upgrades.All() {
			t.CostBase *= scale
		}
		cfg.Balance.GemUnlockCost = int64(float64(cfg.Balance.GemUnlockCost) * scale)
	}

	// Adjust the opening based on difficulty
	switch preset {
	case DifficultyEasy:
		cfg.Balance.StartingMoney = 500
		cfg.Balance.BoostDurationSec = 300
	case DifficultyHard:
		cfg.Balance.StartingMoney = 20
		cfg.Balance.MergeBonus.Chance = 0.05
	}
}

// All returns pointers to every track, in purchase-menu order.
func (u *UpgradeTracks) All() []*Track {
	return []*Track{
		&u.SpawnLevel,
		&u.SpawnSpeed,
		&u.IncomeSpeed,
		&u.MergeBonus,
		&u.IncomeMultiplier,
		&u.AutoMergeSpeed,
	}
}
