package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/vovakirdan/merge-tycoon/internal/config"
)

// Snapshot storage constants.
const (
	SaveKey       = "merge-money-tycoon"
	SchemaVersion = 4
)

// ErrEmptySnapshot is returned when there is nothing to decode.
var ErrEmptySnapshot = errors.New("empty snapshot")

// SlotKey returns the storage key for a named save slot. The empty slot is the default game.
func SlotKey(slot string) string {
	if slot == "" {
		return SaveKey
	}
	return SaveKey + ":" + slot
}

// SlotFromKey reverses SlotKey. It reports false for keys that are not save slots.
func SlotFromKey(key string) (string, bool) {
	if key == SaveKey {
		return "", true
	}
	slot, ok := strings.CutPrefix(key, SaveKey+":")
	if !ok || slot == "" {
		return "", false
	}
	return slot, true
}

type snapshotDoc struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// snapshotState is the durable subset of State. Pointer fields distinguish absent keys
// from zero values so they can be defaulted.
type snapshotState struct {
	Tokens                []Token  `json:"tokens"`
	Money                 *Money   `json:"money,omitempty"`
	TotalEarned           Money    `json:"totalEarned"`
	IncomeIntervalMs      *int64   `json:"incomeIntervalMs,omitempty"`
	SpawnCooldownMs       *int64   `json:"spawnCooldownMs,omitempty"`
	SpawnLevel            *int     `json:"spawnLevel,omitempty"`
	MergeBonusLevel       *int     `json:"mergeBonusLevel,omitempty"`
	IncomeMultiplierLevel *int     `json:"incomeMultiplierLevel,omitempty"`
	AutoMergeIntervalMs   *int64   `json:"autoMergeIntervalMs,omitempty"`
	GemSystemUnlocked     bool     `json:"gemSystemUnlocked"`
	BitcoinDiscovered     bool     `json:"bitcoinDiscovered"`
	Boosts                []Boost  `json:"boosts"`
	UnlockedAchievements  []string `json:"unlockedAchievements"`
	TotalMergeCount       int      `json:"totalMergeCount"`
	DiscoveredLevels      []int    `json:"discoveredLevels,omitempty"`
}

// legacyState is the layout written before version 4, which used the browser store's
// field names and had no multiplier or auto-merge tracks.
type legacyState struct {
	Coins                []Token  `json:"coins"`
	TotalMoney           *float64 `json:"totalMoney,omitempty"`
	TotalEarnedMoney     float64  `json:"totalEarnedMoney"`
	IncomeInterval       *int64   `json:"incomeInterval,omitempty"`
	SpawnCooldown        *int64   `json:"spawnCooldown,omitempty"`
	SpawnLevel           *int     `json:"spawnLevel,omitempty"`
	MergeBonusLevel      *int     `json:"mergeBonusLevel,omitempty"`
	GemSystemUnlocked    bool     `json:"gemSystemUnlocked"`
	BitcoinDiscovered    bool     `json:"bitcoinDiscovered"`
	ActiveBoosts         []Boost  `json:"activeBoosts"`
	UnlockedAchievements []string `json:"unlockedAchievements"`
	TotalMergeCount      int      `json:"totalMergeCount"`
	DiscoveredLevels     []int    `json:"discoveredLevels,omitempty"`
}

func (l legacyState) upgrade() snapshotState {
	var money *Money
	if l.TotalMoney != nil {
		m := floorMoney(*l.TotalMoney)
		money = &m
	}
	return snapshotState{
		Tokens:               l.Coins,
		Money:                money,
		TotalEarned:          floorMoney(l.TotalEarnedMoney),
		IncomeIntervalMs:     l.IncomeInterval,
		SpawnCooldownMs:      l.SpawnCooldown,
		SpawnLevel:           l.SpawnLevel,
		MergeBonusLevel:      l.MergeBonusLevel,
		GemSystemUnlocked:    l.GemSystemUnlocked,
		BitcoinDiscovered:    l.BitcoinDiscovered,
		Boosts:               l.ActiveBoosts,
		UnlockedAchievements: l.UnlockedAchievements,
		TotalMergeCount:      l.TotalMergeCount,
		DiscoveredLevels:     l.DiscoveredLevels,
	}
}

// floorMoney converts a fractional legacy amount, dropping the fraction and clamping
// into [0, MaxMoney].
func floorMoney(f float64) Money {
	switch {
	case f <= 0:
		return 0
	case f >= float64(MaxMoney):
		return MaxMoney
	}
	return Money(math.Floor(f))
}

// EncodeSnapshot serializes the durable fields of s at the current schema version.
func EncodeSnapshot(s State) ([]byte, error) {
	st := snapshotState{
		Tokens:                s.Tokens,
		Money:                 &s.Money,
		TotalEarned:           s.TotalEarned,
		IncomeIntervalMs:      &s.IncomeIntervalMs,
		SpawnCooldownMs:       &s.SpawnCooldownMs,
		SpawnLevel:            &s.SpawnLevel,
		MergeBonusLevel:       &s.MergeBonusLevel,
		IncomeMultiplierLevel: &s.IncomeMultiplierLevel,
		AutoMergeIntervalMs:   &s.AutoMergeIntervalMs,
		GemSystemUnlocked:     s.GemSystemUnlocked,
		BitcoinDiscovered:     s.BitcoinDiscovered,
		Boosts:                s.Boosts,
		UnlockedAchievements:  s.UnlockedAchievements,
		TotalMergeCount:       s.TotalMergeCount,
		DiscoveredLevels:      s.DiscoveredLevels,
	}
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode state: %w", err)
	}
	data, err := json.Marshal(snapshotDoc{Version: SchemaVersion, State: raw})
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode document: %w", err)
	}
	return data, nil
}

// DecodeSnapshot restores a state written by EncodeSnapshot or an older version. Absent
// fields take their defaults and the result is sanitized. On error the initial state is
// returned alongside it, so callers can always continue.
func DecodeSnapshot(data []byte, b config.BalanceConfig) (State, int, error) {
	if len(data) == 0 {
		return InitialState(b), 0, ErrEmptySnapshot
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return InitialState(b), 0, fmt.Errorf("snapshot: decode document: %w", err)
	}
	if len(doc.State) == 0 {
		return InitialState(b), doc.Version, fmt.Errorf("snapshot: version %d: %w", doc.Version, ErrEmptySnapshot)
	}

	var st snapshotState
	if doc.Version < SchemaVersion {
		var legacy legacyState
		if err := json.Unmarshal(doc.State, &legacy); err != nil {
			return InitialState(b), doc.Version, fmt.Errorf("snapshot: decode v%d state: %w", doc.Version, err)
		}
		st = legacy.upgrade()
	} else if err := json.Unmarshal(doc.State, &st); err != nil {
		return InitialState(b), doc.Version, fmt.Errorf("snapshot: decode v%d state: %w", doc.Version, err)
	}

	s := InitialState(b)
	s.Tokens = st.Tokens
	s.TotalEarned = st.TotalEarned
	s.GemSystemUnlocked = st.GemSystemUnlocked
	s.BitcoinDiscovered = st.BitcoinDiscovered
	s.Boosts = st.Boosts
	s.UnlockedAchievements = st.UnlockedAchievements
	s.TotalMergeCount = st.TotalMergeCount
	s.DiscoveredLevels = st.DiscoveredLevels
	setIfPresent(&s.Money, st.Money)
	setIfPresent(&s.IncomeIntervalMs, st.IncomeIntervalMs)
	setIfPresent(&s.SpawnCooldownMs, st.SpawnCooldownMs)
	setIfPresent(&s.SpawnLevel, st.SpawnLevel)
	setIfPresent(&s.MergeBonusLevel, st.MergeBonusLevel)
	setIfPresent(&s.IncomeMultiplierLevel, st.IncomeMultiplierLevel)
	setIfPresent(&s.AutoMergeIntervalMs, st.AutoMergeIntervalMs)

	s = Sanitize(s, b)
	s.IncomeRate = TotalIncomeRate(s.Tokens)
	return s, doc.Version, nil
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Sanitize repairs a state that did not come from the engine: it drops tokens with an
// unknown level, a bad or duplicate cell, or beyond board capacity, clamps numbers into
// their ranges, and dedupes boosts and achievements. Derived and one-shot fields are reset.
func Sanitize(s State, b config.BalanceConfig) State {
	u := b.Upgrades

	tokens := make(Board, 0, len(s.Tokens))
	usedCells := make(map[int]bool)
	usedIDs := make(map[string]bool)
	for _, t := range s.Tokens {
		if len(tokens) == TotalCells {
			break
		}
		if t.ID == "" || usedIDs[t.ID] || !ValidLevel(t.Level) || !ValidIndex(t.GridIndex) || usedCells[t.GridIndex] {
			continue
		}
		usedCells[t.GridIndex] = true
		usedIDs[t.ID] = true
		tokens = append(tokens, t)
	}
	s.Tokens = tokens

	s.Money = max(0, min(s.Money, MaxMoney))
	s.TotalEarned = max(0, s.TotalEarned)
	s.IncomeIntervalMs = clampTrack(u.IncomeSpeed, s.IncomeIntervalMs)
	s.SpawnCooldownMs = clampTrack(u.SpawnSpeed, s.SpawnCooldownMs)
	s.SpawnLevel = int(clampTrack(u.SpawnLevel, int64(s.SpawnLevel)))
	s.MergeBonusLevel = int(clampTrack(u.MergeBonus, int64(s.MergeBonusLevel)))
	s.IncomeMultiplierLevel = int(clampTrack(u.IncomeMultiplier, int64(s.IncomeMultiplierLevel)))
	s.AutoMergeIntervalMs = clampTrack(u.AutoMergeSpeed, s.AutoMergeIntervalMs)
	s.TotalMergeCount = max(0, s.TotalMergeCount)

	boosts := make(Boosts, 0, len(BoostTypes))
	for _, bst := range s.Boosts {
		if !bst.Type.Valid() {
			continue
		}
		if i := slices.IndexFunc(boosts, func(x Boost) bool { return x.Type == bst.Type }); i >= 0 {
			boosts[i].EndTime = max(boosts[i].EndTime, bst.EndTime)
			continue
		}
		boosts = append(boosts, bst)
	}
	s.Boosts = boosts

	achievements := make([]string, 0, len(s.UnlockedAchievements))
	for _, id := range s.UnlockedAchievements {
		if _, ok := FindAchievement(id); ok && !slices.Contains(achievements, id) {
			achievements = append(achievements, id)
		}
	}
	s.UnlockedAchievements = achievements

	discovered := []int{1}
	for _, lvl := range s.DiscoveredLevels {
		if ValidLevel(lvl) && !slices.Contains(discovered, lvl) {
			discovered = append(discovered, lvl)
		}
	}
	s.DiscoveredLevels = discovered

	s.IncomeRate = 0
	s.LastMergedID = ""
	s.LastDiscoveredLevel = 0
	return s
}
