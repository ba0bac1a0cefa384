// Package config provides YAML-based balance configuration loading and
// difficulty presets for the tycoon engine and its servers.
package config

// TycoonConfig contains all configuration for the game and its front-ends.
type TycoonConfig struct {
	Balance BalanceConfig `yaml:"balance"`
	Drivers DriverConfig  `yaml:"drivers"`
	Server  ServerConfig  `yaml:"server"`
}

// BalanceConfig defines the economy knobs of the engine.
type BalanceConfig struct {
	StartingMoney        int64            `yaml:"starting_money"`
	GemUnlockCost        int64            `yaml:"gem_unlock_cost"`
	BoostDurationSec     int              `yaml:"boost_duration_sec"`
	IncomeMultiplierStep float64          `yaml:"income_multiplier_step"` // Added to 1.0 per multiplier level
	MergeBonus           MergeBonusConfig `yaml:"merge_bonus"`
	Upgrades             UpgradeTracks    `yaml:"upgrades"`
}

// MergeBonusConfig defines the random bonus paid on merges.
type MergeBonusConfig struct {
	Chance          float64 `yaml:"chance"`            // Probability per merge (0.0-1.0)
	PercentPerLevel float64 `yaml:"percent_per_level"` // Percent of the merged token value per bonus level
}

// UpgradeTracks holds the six purchasable upgrade tracks.
type UpgradeTracks struct {
	SpawnLevel       Track `yaml:"spawn_level"`
	SpawnSpeed       Track `yaml:"spawn_speed"`
	IncomeSpeed      Track `yaml:"income_speed"`
	MergeBonus       Track `yaml:"merge_bonus"`
	IncomeMultiplier Track `yaml:"income_multiplier"`
	AutoMergeSpeed   Track `yaml:"auto_merge_speed"`
}

// Track describes one upgrade: the raw parameter it steps and its power-law cost curve.
// The upgrade level of a raw value v is (v-Default)/Step + 1, and its cost is
// floor(CostBase * level^CostExponent).
type Track struct {
	Default      int64   `yaml:"default"`
	Step         int64   `yaml:"step"`  // Signed; negative tracks count down toward Limit
	Limit        int64   `yaml:"limit"` // Bound the raw value never crosses
	CostBase     float64 `yaml:"cost_base"`
	CostExponent float64 `yaml:"cost_exponent"`
}

// DriverConfig defines the cadences of the periodic drivers.
type DriverConfig struct {
	IdlePollMs         int `yaml:"idle_poll_ms"`         // Polling period while a boost is inactive
	AchievementPollMs  int `yaml:"achievement_poll_ms"`  // Achievement watcher period
	MinSpawnCooldownMs int `yaml:"min_spawn_cooldown_ms"` // Auto-spawn never fires faster than this
}

// ServerConfig defines the network front-ends.
type ServerConfig struct {
	SSHAddress     string `yaml:"ssh_address"`
	HTTPAddress    string `yaml:"http_address"`
	HostKeyPath    string `yaml:"host_key_path"`
	IdleTimeoutMin int    `yaml:"idle_timeout_min"`
}

// DifficultyPreset represents a named balance preset.
type DifficultyPreset string

const (
	DifficultyEasy   DifficultyPreset = "easy"
	DifficultyNormal DifficultyPreset = "normal"
	DifficultyHard   DifficultyPreset = "hard"
)

// CostScaleForPreset returns the multiplier applied to every upgrade cost base.
func CostScaleForPreset(preset DifficultyPreset) float64 {
	switch preset {
	case DifficultyEasy:
		return 0.5
	case DifficultyHard:
		return 1.5
	default:
		return 1.0
	}
}

// IsKnownPreset reports whether preset names a preset (empty counts as normal).
func IsKnownPreset(preset DifficultyPreset) bool {
	switch preset {
	case "", DifficultyEasy, DifficultyNormal, DifficultyHard:
		return true
	}
	return false
}
