package session

import (
	"time"

	"github.com/vovakirdan/merge-tycoon/internal/game"
)

// View is the JSON rendering of a game shared by the HTTP, WebSocket and MCP front-ends.
type View struct {
	Slot                  string      `json:"slot"`
	Money                 game.Money  `json:"money"`
	MoneyText             string      `json:"money_text"`
	TotalEarned           game.Money  `json:"total_earned"`
	IncomeRate            game.Money  `json:"income_rate"`
	IncomeIntervalMs      int64       `json:"income_interval_ms"`
	SpawnCooldownMs       int64       `json:"spawn_cooldown_ms"`
	SpawnLevel            int         `json:"spawn_level"`
	SpawnCost             game.Money  `json:"spawn_cost"`
	MergeBonusLevel       int         `json:"merge_bonus_level"`
	IncomeMultiplierLevel int         `json:"income_multiplier_level"`
	AutoMergeIntervalMs   int64       `json:"auto_merge_interval_ms"`
	GemSystemUnlocked     bool        `json:"gem_system_unlocked"`
	BitcoinDiscovered     bool        `json:"bitcoin_discovered"`
	BoardFull             bool        `json:"board_full"`
	Tokens                []TokenView `json:"tokens"`
	Boosts                []BoostView `json:"boosts"`
	UnlockedAchievements  []string    `json:"unlocked_achievements"`
	TotalMergeCount       int         `json:"total_merge_count"`
	DiscoveredLevels      []int       `json:"discovered_levels"`
	LastMergedID          string      `json:"last_merged_id,omitempty"`
	LastDiscoveredLevel   int         `json:"last_discovered_level,omitempty"`
}

// TokenView is a token with its catalog name.
type TokenView struct {
	ID        string `json:"id"`
	Level     int    `json:"level"`
	Name      string `json:"name"`
	GridIndex int    `json:"grid_index"`
}

// BoostView is a boost with its remaining time.
type BoostView struct {
	Type        game.BoostType `json:"type"`
	EndTime     int64          `json:"end_time"`
	Active      bool           `json:"active"`
	RemainingMs int64          `json:"remaining_ms"`
}

// NewView renders st as seen at now.
func NewView(slot string, st game.State, now time.Time) View {
	v := View{
		Slot:                  displaySlot(slot),
		Money:                 st.Money,
		MoneyText:             game.FormatMoney(st.Money),
		TotalEarned:           st.TotalEarned,
		IncomeRate:            st.IncomeRate,
		IncomeIntervalMs:      st.IncomeIntervalMs,
		SpawnCooldownMs:       st.SpawnCooldownMs,
		SpawnLevel:            st.SpawnLevel,
		MergeBonusLevel:       st.MergeBonusLevel,
		IncomeMultiplierLevel: st.IncomeMultiplierLevel,
		AutoMergeIntervalMs:   st.AutoMergeIntervalMs,
		GemSystemUnlocked:     st.GemSystemUnlocked,
		BitcoinDiscovered:     st.BitcoinDiscovered,
		BoardFull:             st.Tokens.Full(),
		Tokens:                make([]TokenView, 0, len(st.Tokens)),
		Boosts:                make([]BoostView, 0, len(st.Boosts)),
		UnlockedAchievements:  st.UnlockedAchievements,
		TotalMergeCount:       st.TotalMergeCount,
		DiscoveredLevels:      st.DiscoveredLevels,
		LastMergedID:          st.LastMergedID,
		LastDiscoveredLevel:   st.LastDiscoveredLevel,
	}
	if game.ValidLevel(st.SpawnLevel) {
		v.SpawnCost = game.ValueOf(st.SpawnLevel)
	}
	for _, t := range st.Tokens {
		v.Tokens = append(v.Tokens, TokenView{ID: t.ID, Level: t.Level, Name: game.GetLevel(t.Level).Name, GridIndex: t.GridIndex})
	}
	for _, b := range st.Boosts {
		remaining := st.Boosts.Remaining(b.Type, now)
		v.Boosts = append(v.Boosts, BoostView{
			Type:        b.Type,
			EndTime:     b.EndTime,
			Active:      remaining > 0,
			RemainingMs: remaining.Milliseconds(),
		})
	}
	return v
}

// View renders the current state.
func (s *Session) View() View {
	s.mu.Lock()
	st := s.engine.State()
	s.mu.Unlock()
	return NewView(s.slot, st, s.clock.Now())
}

// ViewOf renders the state carried by ev.
func (s *Session) ViewOf(ev Event) View {
	return NewView(ev.Slot, ev.State, s.clock.Now())
}
