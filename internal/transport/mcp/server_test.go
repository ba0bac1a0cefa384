package mcp

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	balance := config.DefaultBalance()
	balance.MergeBonus.Chance = 0
	m := session.NewManager(nil, session.ManagerOptions{
		Balance: balance,
		Clock:   core.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Seed:    3,
		Logger:  log.New(io.Discard),
	})
	return NewServer(m, "agent", "test"), m
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// textOf returns a checker taking a handler's results directly, as in
// textOf(t)(s.handleSpawn(ctx, req)).
func textOf(t *testing.T) func(*mcp.CallToolResult, error) string {
	t.Helper()
	return func(res *mcp.CallToolResult, err error) string {
		t.Helper()
		return resultText(t, res, err)
	}
}

func resultText(t *testing.T, res *mcp.CallToolResult, err error) string {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want mcp.TextContent", res.Content[0])
	}
	return text.Text
}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t)
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() = nil")
	}
}

func TestGameStateRendersBoard(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	text := textOf(t)(s.handleGameState(ctx, call("game_state", nil)))
	for _, want := range []string{"Money: 50", "Spawn level: 1", "spawn_level: level 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("game_state missing %q:\n%s", want, text)
		}
	}
}

func TestSpawnMoveMerge(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()

	textOf(t)(s.handleSpawn(ctx, call("spawn", nil)))
	textOf(t)(s.handleSpawn(ctx, call("spawn", nil)))

	sess, _ := m.Get("agent")
	tokens := sess.State().Tokens
	if len(tokens) != 2 {
		t.Fatalf("tokens = %d, want 2", len(tokens))
	}
	from, to := tokens[0].GridIndex, tokens[1].GridIndex

	res, err := s.handleMove(ctx, call("move", map[string]any{"from": float64(from), "to": float64(to)}))
	if text := resultText(t, res, err); !strings.HasPrefix(text, "cannot move") {
		t.Errorf("move onto occupied cell = %q, want failure", text)
	}

	res, err = s.handleMerge(ctx, call("merge", map[string]any{"from": float64(from), "to": float64(to)}))
	if text := resultText(t, res, err); !strings.HasPrefix(text, "merge") {
		t.Errorf("merge = %q, want success", text)
	}
	if got := sess.State().Tokens; len(got) != 1 || got[0].Level != 2 {
		t.Errorf("tokens after merge = %+v", got)
	}
}

func TestArgumentErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
	}{
		{"move out of range", s.handleMove, map[string]any{"from": float64(0), "to": float64(30)}},
		{"move from empty cell", s.handleMove, map[string]any{"from": float64(0), "to": float64(1)}},
		{"merge missing args", s.handleMerge, nil},
		{"unknown upgrade", s.handleUpgrade, map[string]any{"kind": "warp"}},
		{"unknown boost", s.handleActivateBoost, map[string]any{"type": "TURBO"}},
		{"invalid slot", s.handleGameState, map[string]any{"slot": "../etc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(ctx, call(tt.name, tt.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if !res.IsError {
				t.Errorf("IsError = false, want a tool error")
			}
		})
	}
}

func TestBoostAndAchievements(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()

	text := textOf(t)(s.handleActivateBoost(ctx, call("activate_boost", map[string]any{"type": "auto_merge", "seconds": float64(90)})))
	if !strings.HasPrefix(text, "AUTO_MERGE active for 1m30s") {
		t.Errorf("activate_boost = %q", text)
	}

	if text := textOf(t)(s.handleCheckAchievements(ctx, call("check_achievements", nil))); text != "No new achievements" {
		t.Errorf("check_achievements on a fresh game = %q", text)
	}

	sess, _ := m.Get("agent")
	sess.AddMoney(1_000)
	text = textOf(t)(s.handleCheckAchievements(ctx, call("check_achievements", nil)))
	if !strings.Contains(text, "Unlocked:") {
		t.Errorf("check_achievements = %q, want an unlock", text)
	}
}

func TestUpgradeAndGems(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()

	text := textOf(t)(s.handleUpgrade(ctx, call("upgrade", map[string]any{"kind": "spawn_level"})))
	if !strings.HasPrefix(text, "cannot upgrade") {
		t.Errorf("upgrade with 50 money = %q", text)
	}

	sess, _ := m.Get("agent")
	sess.AddMoney(1_000)
	text = textOf(t)(s.handleUpgrade(ctx, call("upgrade", map[string]any{"kind": "spawn_level"})))
	if !strings.HasPrefix(text, "upgraded spawn_level") {
		t.Errorf("upgrade = %q", text)
	}

	text = textOf(t)(s.handleUnlockGems(ctx, call("unlock_gems", nil)))
	if !strings.HasPrefix(text, "cannot unlock gems") {
		t.Errorf("unlock_gems = %q", text)
	}
}

func TestResetAndSlots(t *testing.T) {
	s, m := newTestServer(t)
	ctx := context.Background()

	textOf(t)(s.handleSpawn(ctx, call("spawn", map[string]any{"slot": "other"})))
	other, _ := m.Get("other")
	if len(other.State().Tokens) != 1 {
		t.Fatalf("spawn did not reach slot other")
	}
	agent, _ := m.Get("agent")
	if len(agent.State().Tokens) != 0 {
		t.Error("spawn on slot other touched the default slot")
	}

	text := textOf(t)(s.handleReset(ctx, call("reset_game", map[string]any{"slot": "other"})))
	if !strings.HasPrefix(text, "Game reset") || len(other.State().Tokens) != 0 {
		t.Errorf("reset_game = %q, tokens %d", text, len(other.State().Tokens))
	}
}

func TestCatalog(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	text := textOf(t)(s.handleCatalog(ctx, call("catalog", map[string]any{"query": "diamond"})))
	if !strings.Contains(text, "Diamond") || !strings.Contains(text, "Black Diamond") {
		t.Errorf("catalog diamond = %q", text)
	}
	if strings.Contains(textOf(t)(s.handleCatalog(ctx, call("catalog", nil))), "Bitcoin") {
		t.Error("catalog lists the hidden level")
	}
	if text := textOf(t)(s.handleCatalog(ctx, call("catalog", map[string]any{"query": "zzzz"}))); text != "No matching tokens" {
		t.Errorf("catalog zzzz = %q", text)
	}
}
