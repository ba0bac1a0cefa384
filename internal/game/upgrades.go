package game

import (
	"github.com/vovakirdan/merge-tycoon/internal/config"
)

// UpgradeKind names a purchasable upgrade track.
type UpgradeKind string

const (
	UpgradeSpawnLevel       UpgradeKind = "spawn_level"
	UpgradeSpawnSpeed       UpgradeKind = "spawn_speed"
	UpgradeIncomeSpeed      UpgradeKind = "income_speed"
	UpgradeMergeBonus       UpgradeKind = "merge_bonus"
	UpgradeIncomeMultiplier UpgradeKind = "income_multiplier"
	UpgradeAutoMergeSpeed   UpgradeKind = "auto_merge_speed"
)

// UpgradeKinds lists the tracks in menu order.
var UpgradeKinds = []UpgradeKind{
	UpgradeSpawnLevel,
	UpgradeSpawnSpeed,
	UpgradeIncomeSpeed,
	UpgradeMergeBonus,
	UpgradeIncomeMultiplier,
	UpgradeAutoMergeSpeed,
}

// upgradeDef binds a track to the state field it steps.
type upgradeDef struct {
	title string
	track func(*config.UpgradeTracks) config.Track
	get   func(*State) int64
	set   func(*State, int64)
}

var upgradeDefs = map[UpgradeKind]upgradeDef{
	UpgradeSpawnLevel: {
		title: "Spawn Level",
		track: func(u *config.UpgradeTracks) config.Track { return u.SpawnLevel },
		get:   func(s *State) int64 { return int64(s.SpawnLevel) },
		set:   func(s *State, v int64) { s.SpawnLevel = int(v) },
	},
	UpgradeSpawnSpeed: {
		title: "Spawn Speed",
		track: func(u *config.UpgradeTracks) config.Track { return u.SpawnSpeed },
		get:   func(s *State) int64 { return s.SpawnCooldownMs },
		set:   func(s *State, v int64) { s.SpawnCooldownMs = v },
	},
	UpgradeIncomeSpeed: {
		title: "Income Speed",
		track: func(u *config.UpgradeTracks) config.Track { return u.IncomeSpeed },
		get:   func(s *State) int64 { return s.IncomeIntervalMs },
		set:   func(s *State, v int64) { s.IncomeIntervalMs = v },
	},
	UpgradeMergeBonus: {
		title: "Merge Bonus",
		track: func(u *config.UpgradeTracks) config.Track { return u.MergeBonus },
		get:   func(s *State) int64 { return int64(s.MergeBonusLevel) },
		set:   func(s *State, v int64) { s.MergeBonusLevel = int(v) },
	},
	UpgradeIncomeMultiplier: {
		title: "Income Multiplier",
		track: func(u *config.UpgradeTracks) config.Track { return u.IncomeMultiplier },
		get:   func(s *State) int64 { return int64(s.IncomeMultiplierLevel) },
		set:   func(s *State, v int64) { s.IncomeMultiplierLevel = int(v) },
	},
	UpgradeAutoMergeSpeed: {
		title: "Auto-Merge Speed",
		track: func(u *config.UpgradeTracks) config.Track { return u.AutoMergeSpeed },
		get:   func(s *State) int64 { return s.AutoMergeIntervalMs },
		set:   func(s *State, v int64) { s.AutoMergeIntervalMs = v },
	},
}

// ParseUpgradeKind validates a track name.
func ParseUpgradeKind(name string) (UpgradeKind, bool) {
	k := UpgradeKind(name)
	_, ok := upgradeDefs[k]
	return k, ok
}

// UpgradeInfo describes the next purchase on a track.
type UpgradeInfo struct {
	Kind       UpgradeKind `json:"kind"`
	Title      string      `json:"title"`
	Level      int64       `json:"level"`
	Value      int64       `json:"value"`
	Cost       Money       `json:"cost"`
	Maxed      bool        `json:"maxed"`
	Affordable bool        `json:"affordable"`
}

// UpgradeInfo reports the state of the track kind. Unknown kinds return false.
func (e *Engine) UpgradeInfo(kind UpgradeKind) (UpgradeInfo, bool) {
	def, ok := upgradeDefs[kind]
	if !ok {
		return UpgradeInfo{}, false
	}
	track := def.track(&e.balance.Upgrades)
	v := def.get(&e.st)
	info := UpgradeInfo{
		Kind:  kind,
		Title: def.title,
		Level: TrackLevel(track, v),
		Value: v,
		Cost:  TrackCost(track, v),
		Maxed: TrackMaxed(track, v),
	}
	info.Affordable = !info.Maxed && e.st.Money >= info.Cost
	return info, true
}

// Upgrade buys one step on the track kind.
func (e *Engine) Upgrade(kind UpgradeKind) bool {
	def, ok := upgradeDefs[kind]
	if !ok {
		return false
	}
	track := def.track(&e.balance.Upgrades)
	v := def.get(&e.st)
	if TrackMaxed(track, v) {
		return false
	}
	cost := TrackCost(track, v)
	if e.st.Money < cost {
		return false
	}

	e.st.Money -= cost
	def.set(&e.st, TrackNext(track, v))
	if kind == UpgradeSpawnLevel {
		e.refundBelowSpawnLevel()
	}
	e.recomputeDerived()
	return true
}

// refundBelowSpawnLevel removes tokens under the spawn level, refunding their value.
func (e *Engine) refundBelowSpawnLevel() {
	kept, removed := e.st.Tokens.splitBelow(e.st.SpawnLevel)
	if len(removed) == 0 {
		return
	}
	var refund Money
	for _, t := range removed {
		refund += ValueOf(t.Level)
	}
	if kept == nil {
		kept = Board{}
	}
	e.st.Tokens = kept
	e.st.Money = addCapped(e.st.Money, refund)
}

func (e *Engine) UpgradeSpawnLevel() bool       { return e.Upgrade(UpgradeSpawnLevel) }
func (e *Engine) UpgradeSpawnSpeed() bool       { return e.Upgrade(UpgradeSpawnSpeed) }
func (e *Engine) UpgradeIncomeSpeed() bool      { return e.Upgrade(UpgradeIncomeSpeed) }
func (e *Engine) UpgradeMergeBonus() bool       { return e.Upgrade(UpgradeMergeBonus) }
func (e *Engine) UpgradeIncomeMultiplier() bool { return e.Upgrade(UpgradeIncomeMultiplier) }
func (e *Engine) UpgradeAutoMergeSpeed() bool   { return e.Upgrade(UpgradeAutoMergeSpeed) }

// GemUnlockCost returns the price of the gem system.
func (e *Engine) GemUnlockCost() Money {
	return Money(e.balance.GemUnlockCost)
}

// UnlockGemSystem buys access to the gated tier. It succeeds once.
func (e *Engine) UnlockGemSystem() bool {
	if e.st.GemSystemUnlocked {
		return false
	}
	cost := e.GemUnlockCost()
	if e.st.Money < cost {
		return false
	}
	e.st.Money -= cost
	e.st.GemSystemUnlocked = true
	return true
}
