package game

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/vovakirdan/merge-tycoon/internal/config"
)

func TestSnapshotRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t)
	withTokens(e, 5_000,
		Token{ID: "a", Level: 2, GridIndex: 3},
		Token{ID: "b", Level: 2, GridIndex: 7},
	)
	e.TryMerge("a", 7)
	e.UpgradeIncomeSpeed()
	e.ActivateBoost(BoostDoubleIncome, 60)
	e.CheckAchievements()
	want := e.State()

	data, err := EncodeSnapshot(want)
	if err != nil {
		t.Fatalf("EncodeSnapshot() error: %v", err)
	}
	got, version, err := DecodeSnapshot(data, e.Balance())
	if err != nil {
		t.Fatalf("DecodeSnapshot() error: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("version = %d, want %d", version, SchemaVersion)
	}

	if !slices.Equal(got.Tokens, want.Tokens) {
		t.Errorf("Tokens = %+v, want %+v", got.Tokens, want.Tokens)
	}
	if got.Money != want.Money || got.TotalEarned != want.TotalEarned {
		t.Errorf("money = %d/%d, want %d/%d", got.Money, got.TotalEarned, want.Money, want.TotalEarned)
	}
	if got.IncomeIntervalMs != 9900 || got.TotalMergeCount != 1 {
		t.Errorf("interval %d merges %d, want 9900/1", got.IncomeIntervalMs, got.TotalMergeCount)
	}
	if !slices.Equal(got.Boosts, want.Boosts) {
		t.Errorf("Boosts = %+v, want %+v", got.Boosts, want.Boosts)
	}
	if !slices.Equal(got.UnlockedAchievements, want.UnlockedAchievements) {
		t.Errorf("UnlockedAchievements = %v, want %v", got.UnlockedAchievements, want.UnlockedAchievements)
	}
	if !slices.Equal(got.DiscoveredLevels, []int{1, 3}) {
		t.Errorf("DiscoveredLevels = %v, want [1 3]", got.DiscoveredLevels)
	}
	if got.IncomeRate != want.IncomeRate {
		t.Errorf("IncomeRate = %d, want recomputed %d", got.IncomeRate, want.IncomeRate)
	}
	// One-shot fields are not durable
	if got.LastMergedID != "" || got.LastDiscoveredLevel != 0 {
		t.Errorf("one-shot fields restored: %q, %d", got.LastMergedID, got.LastDiscoveredLevel)
	}
}

func TestSnapshotOmitsDerivedFields(t *testing.T) {
	e, _ := newTestEngine(t)
	withTokens(e, 0, Token{ID: "a", Level: 1, GridIndex: 0}, Token{ID: "b", Level: 1, GridIndex: 1})
	e.TryMerge("a", 1)

	data, err := EncodeSnapshot(e.State())
	if err != nil {
		t.Fatalf("EncodeSnapshot() error: %v", err)
	}
	var doc struct {
		State map[string]json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"incomeRate", "IncomeRate", "lastMergedId", "LastMergedID", "lastDiscoveredLevel"} {
		if _, ok := doc.State[key]; ok {
			t.Errorf("snapshot contains derived key %q", key)
		}
	}
}

func TestDecodeSnapshotDefaultsAbsentFields(t *testing.T) {
	b := config.DefaultBalance()
	data := []byte(`{"version":4,"state":{"tokens":[{"id":"a","level":3,"gridIndex":4}],"money":777}}`)

	st, _, err := DecodeSnapshot(data, b)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error: %v", err)
	}
	if st.Money != 777 {
		t.Errorf("Money = %d, want 777", st.Money)
	}
	if !slices.Equal(st.DiscoveredLevels, []int{1}) {
		t.Errorf("DiscoveredLevels = %v, want [1]", st.DiscoveredLevels)
	}
	if st.IncomeMultiplierLevel != 0 || st.AutoMergeIntervalMs != 1000 || st.SpawnCooldownMs != 5000 {
		t.Errorf("defaults not applied: %+v", st)
	}
	if st.IncomeRate != 8 {
		t.Errorf("IncomeRate = %d, want 8", st.IncomeRate)
	}
}

func TestDecodeLegacySnapshot(t *testing.T) {
	data := []byte(`{"version":3,"state":{
		"coins":[{"id":"c1","level":2,"gridIndex":0},{"id":"c2","level":5,"gridIndex":9}],
		"totalMoney":12345,"spawnLevel":2,"spawnCooldown":4000,"incomeInterval":9500,
		"mergeBonusLevel":4,"activeBoosts":[{"type":"AUTO_SPAWN","endTime":99}],
		"unlockedAchievements":["first_merge"],"totalMergeCount":12,"totalEarnedMoney":20000}}`)

	st, version, err := DecodeSnapshot(data, config.DefaultBalance())
	if err != nil {
		t.Fatalf("DecodeSnapshot() error: %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}
	if len(st.Tokens) != 2 || st.Money != 12345 || st.TotalEarned != 20000 {
		t.Errorf("legacy fields lost: %+v", st)
	}
	if st.SpawnLevel != 2 || st.SpawnCooldownMs != 4000 || st.IncomeIntervalMs != 9500 || st.MergeBonusLevel != 4 {
		t.Errorf("legacy upgrades lost: %+v", st)
	}
	if st.AutoMergeIntervalMs != 1000 || st.IncomeMultiplierLevel != 0 {
		t.Errorf("new tracks not defaulted: %+v", st)
	}
	if !slices.Equal(st.DiscoveredLevels, []int{1}) {
		t.Errorf("DiscoveredLevels = %v, want [1]", st.DiscoveredLevels)
	}
	if len(st.Boosts) != 1 || st.Boosts[0].Type != BoostAutoSpawn {
		t.Errorf("Boosts = %+v, want one AUTO_SPAWN", st.Boosts)
	}
}

func TestDecodeLegacyFractionalMoney(t *testing.T) {
	tests := []struct {
		money, earned string
		want, wantErn Money
	}{
		{"1517.7979", "2603.25", 1517, 2603},
		{"-3.5", "0", 0, 0},
		{"1e20", "1e20", MaxMoney, MaxMoney},
	}
	for _, tt := range tests {
		data := []byte(`{"version":0,"state":{
			"coins":[{"id":"c1","level":3,"gridIndex":4}],"totalMergeCount":7,
			"totalMoney":` + tt.money + `,"totalEarnedMoney":` + tt.earned + `}}`)

		st, _, err := DecodeSnapshot(data, config.DefaultBalance())
		if err != nil {
			t.Fatalf("DecodeSnapshot(totalMoney=%s) error: %v", tt.money, err)
		}
		if st.Money != tt.want || st.TotalEarned != tt.wantErn {
			t.Errorf("DecodeSnapshot(totalMoney=%s) money = %d, earned %d, want %d, %d", tt.money, st.Money, st.TotalEarned, tt.want, tt.wantErn)
		}
		if len(st.Tokens) != 1 || st.TotalMergeCount != 7 {
			t.Errorf("DecodeSnapshot(totalMoney=%s) lost fields: tokens %d, merges %d", tt.money, len(st.Tokens), st.TotalMergeCount)
		}
	}
}

func TestDecodeSnapshotCorrupt(t *testing.T) {
	b := config.DefaultBalance()
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not json")},
		{"no state", []byte(`{"version":4}`)},
		{"bad state", []byte(`{"version":4,"state":{"tokens":"x"}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, _, err := DecodeSnapshot(tt.data, b)
			if err == nil {
				t.Fatal("DecodeSnapshot() error = nil, want error")
			}
			if st.Money != 50 || len(st.Tokens) != 0 || !slices.Equal(st.DiscoveredLevels, []int{1}) {
				t.Errorf("DecodeSnapshot() state = %+v, want defaults", st)
			}
		})
	}

	if _, _, err := DecodeSnapshot(nil, b); !errors.Is(err, ErrEmptySnapshot) {
		t.Errorf("DecodeSnapshot(nil) error = %v, want ErrEmptySnapshot", err)
	}
}

func TestSanitize(t *testing.T) {
	b := config.DefaultBalance()
	st := InitialState(b)
	st.Money = -5
	st.SpawnLevel = 40
	st.SpawnCooldownMs = 10
	st.Tokens = Board{
		{ID: "ok", Level: 1, GridIndex: 0},
		{ID: "dup-cell", Level: 1, GridIndex: 0},
		{ID: "bad-level", Level: 19, GridIndex: 1},
		{ID: "bad-cell", Level: 1, GridIndex: 25},
		{ID: "ok", Level: 2, GridIndex: 2},
		{ID: "", Level: 2, GridIndex: 3},
	}
	st.Boosts = Boosts{{Type: BoostAutoMerge, EndTime: 10}, {Type: BoostAutoMerge, EndTime: 20}, {Type: "X", EndTime: 5}}
	st.UnlockedAchievements = []string{"first_merge", "first_merge", "ghost"}
	st.DiscoveredLevels = []int{2, 2, 99}
	st.LastMergedID = "ok"

	got := Sanitize(st, b)
	if len(got.Tokens) != 1 || got.Tokens[0].ID != "ok" {
		t.Errorf("Tokens = %+v, want only the first valid token", got.Tokens)
	}
	if got.Money != 0 {
		t.Errorf("Money = %d, want 0", got.Money)
	}
	if got.SpawnLevel != 11 || got.SpawnCooldownMs != 200 {
		t.Errorf("SpawnLevel %d cooldown %d, want 11/200", got.SpawnLevel, got.SpawnCooldownMs)
	}
	if len(got.Boosts) != 1 || got.Boosts[0].EndTime != 20 {
		t.Errorf("Boosts = %+v, want one AUTO_MERGE ending at 20", got.Boosts)
	}
	if !slices.Equal(got.UnlockedAchievements, []string{"first_merge"}) {
		t.Errorf("UnlockedAchievements = %v, want [first_merge]", got.UnlockedAchievements)
	}
	if !slices.Equal(got.DiscoveredLevels, []int{1, 2}) {
		t.Errorf("DiscoveredLevels = %v, want [1 2]", got.DiscoveredLevels)
	}
	if got.LastMergedID != "" {
		t.Errorf("LastMergedID = %q, want cleared", got.LastMergedID)
	}
}

func TestSanitizeCapsBoardSize(t *testing.T) {
	st := InitialState(config.DefaultBalance())
	for i := 0; i < 30; i++ {
		st.Tokens = append(st.Tokens, Token{ID: string(rune('a' + i)), Level: 1, GridIndex: i % TotalCells})
	}
	got := Sanitize(st, config.DefaultBalance())
	if len(got.Tokens) != TotalCells {
		t.Errorf("len(Tokens) = %d, want %d", len(got.Tokens), TotalCells)
	}
}

func TestSlotKey(t *testing.T) {
	if got := SlotKey(""); got != "merge-money-tycoon" {
		t.Errorf("SlotKey(\"\") = %q", got)
	}
	if got := SlotKey("alice"); got != "merge-money-tycoon:alice" {
		t.Errorf("SlotKey(alice) = %q", got)
	}
}

func TestSlotFromKey(t *testing.T) {
	tests := []struct {
		key    string
		want   string
		wantOK bool
	}{
		{"merge-money-tycoon", "", true},
		{"merge-money-tycoon:alice", "alice", true},
		{"merge-money-tycoon:", "", false},
		{"other", "", false},
	}
	for _, tt := range tests {
		got, ok := SlotFromKey(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("SlotFromKey(%q) = %q, %v, want %q, %v", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}
