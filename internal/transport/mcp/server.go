// Package mcp exposes the game as Model Context Protocol tools so an agent can play a slot.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

// Server binds MCP tools to game sessions.
type Server struct {
	sessions  *session.Manager
	slot      string
	mcpServer *server.MCPServer
}

// NewServer creates a tool server. Tools act on slot unless a call names another one.
func NewServer(sessions *session.Manager, slot, version string) *Server {
	s := &Server{sessions: sessions, slot: slot}
	s.mcpServer = server.NewMCPServer(
		"Merge Money Tycoon",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Merge Money Tycoon - MCP Interface

Spawn money tokens onto a 5x5 board, merge two tokens of the same level into the next
level, and spend the income on upgrades. Cells are numbered 0-24 row by row.

AVAILABLE TOOLS:
- game_state: board, money and upgrade levels
- spawn: buy a token at the current spawn level
- move / merge: move a token to an empty cell, or merge it into a same-level token
- auto_merge: merge the first mergeable pair
- upgrade: buy one level of an upgrade track
- unlock_gems: unlock levels above 12
- activate_boost: start AUTO_MERGE, DOUBLE_INCOME or AUTO_SPAWN
- check_achievements: collect achievement rewards
- reset_game: start over
- catalog: search the token catalog`),
	)
	s.registerTools()
	return s
}

// MCPServer returns the underlying server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin and stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func slotProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Save slot (optional, defaults to the server slot)",
	}
}

func cellProperty(desc string) map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": desc,
		"minimum":     0,
		"maximum":     game.TotalCells - 1,
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Show the board, money, income and upgrade levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"slot": slotProperty()},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "spawn",
		Description: "Buy one token at the current spawn level and place it on a random empty cell",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"slot": slotProperty()},
		},
	}, s.handleSpawn)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Move the token at one cell to an empty cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"slot": slotProperty(),
				"from": cellProperty("Cell holding the token"),
				"to":   cellProperty("Empty destination cell"),
			},
			Required: []string{"from", "to"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "merge",
		Description: "Merge the token at one cell into the same-level token at another cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"slot": slotProperty(),
				"from": cellProperty("Cell holding the dragged token"),
				"to":   cellProperty("Cell holding the target token"),
			},
			Required: []string{"from", "to"},
		},
	}, s.handleMerge)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "auto_merge",
		Description: "Merge the first mergeable pair of the lowest level",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"slot": slotProperty()},
		},
	}, s.handleAutoMerge)

	kinds := make([]string, len(game.UpgradeKinds))
	for i, k := range game.UpgradeKinds {
		kinds[i] = string(k)
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "upgrade",
		Description: "Buy one level of an upgrade track",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"slot": slotProperty(),
				"kind": map[string]any{
					"type":        "string",
					"enum":        kinds,
					"description": "Upgrade track",
				},
			},
			Required: []string{"kind"},
		},
	}, s.handleUpgrade)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "unlock_gems",
		Description: "Unlock the gem tier (levels above 12)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"slot": slotProperty()},
		},
	}, s.handleUnlockGems)

	boosts := make([]string, len(game.BoostTypes))
	for i, b := range game.BoostTypes {
		boosts[i] = string(b)
	}
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "activate_boost",
		Description: "Start or extend a timed boost",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"slot": slotProperty(),
				"type": map[string]any{
					"type":        "string",
					"enum":        boosts,
					"description": "Boost type",
				},
				"seconds": map[string]any{
					"type":        "integer",
					"description": "Duration in seconds (optional, defaults to the configured duration)",
				},
			},
			Required: []string{"type"},
		},
	}, s.handleActivateBoost)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "check_achievements",
		Description: "Unlock satisfied achievements and collect their rewards",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"slot": slotProperty()},
		},
	}, s.handleCheckAchievements)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start a new game in the slot",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"slot": slotProperty(),
				"keep_ending": map[string]any{
					"type":        "boolean",
					"description": "Keep the ending achievement if it was reached",
				},
			},
		},
	}, s.handleReset)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "catalog",
		Description: "Search the token catalog by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Fuzzy name query (optional, empty lists everything)",
				},
			},
		},
	}, s.handleCatalog)
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

// intArg reads a JSON number argument.
func intArg(args map[string]any, name string) (int, bool) {
	switch v := args[name].(type) {
	case float64:
		return int(v), v == float64(int(v))
	case int:
		return v, true
	}
	return 0, false
}

func (s *Server) session(args map[string]any) (*session.Session, error) {
	slot := s.slot
	if v, ok := args["slot"].(string); ok && v != "" {
		slot = v
	}
	return s.sessions.Get(slot)
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(sess)), nil
}

func (s *Server) handleSpawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := sess.Spawn()
	return mcp.NewToolResultText(formatOutcome(sess, res.OK(), "spawned", "spawn failed: "+res.String())), nil
}

func (s *Server) cellOp(request mcp.CallToolRequest, verb string, op func(*session.Session, string, int) bool) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sess, err := s.session(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, ok1 := intArg(args, "from")
	to, ok2 := intArg(args, "to")
	if !ok1 || !ok2 || !game.ValidIndex(from) || !game.ValidIndex(to) {
		return mcp.NewToolResultError(fmt.Sprintf("from and to must be cells 0-%d", game.TotalCells-1)), nil
	}
	tok, found := sess.State().Tokens.At(from)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("cell %d is empty", from)), nil
	}
	ok := op(sess, tok.ID, to)
	return mcp.NewToolResultText(formatOutcome(sess, ok,
		fmt.Sprintf("%s %d -> %d", verb, from, to),
		fmt.Sprintf("cannot %s %d -> %d", verb, from, to))), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.cellOp(request, "move", (*session.Session).Move)
}

func (s *Server) handleMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.cellOp(request, "merge", (*session.Session).TryMerge)
}

func (s *Server) handleAutoMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatOutcome(sess, sess.TriggerAutoMerge(), "merged one pair", "no mergeable pair")), nil
}

func (s *Server) handleUpgrade(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sess, err := s.session(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, _ := args["kind"].(string)
	kind, ok := game.ParseUpgradeKind(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown upgrade %q", name)), nil
	}
	return mcp.NewToolResultText(formatOutcome(sess, sess.Upgrade(kind),
		"upgraded "+string(kind),
		"cannot upgrade "+string(kind)+": maxed or not enough money")), nil
}

func (s *Server) handleUnlockGems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cost := sess.GemUnlockCost()
	return mcp.NewToolResultText(formatOutcome(sess, sess.UnlockGemSystem(),
		"gem system unlocked",
		"cannot unlock gems: already unlocked or below "+game.FormatMoney(cost))), nil
}

func (s *Server) handleActivateBoost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sess, err := s.session(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, _ := args["type"].(string)
	t := game.BoostType(strings.ToUpper(name))
	if !t.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown boost %q", name)), nil
	}
	seconds, _ := intArg(args, "seconds")
	sess.ActivateBoost(t, seconds)
	return mcp.NewToolResultText(fmt.Sprintf("%s active for %s\n\n%s",
		t, sess.BoostRemaining(t).Round(time.Second), formatState(sess))), nil
}

func (s *Server) handleCheckAchievements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids := sess.CheckAchievements()
	if len(ids) == 0 {
		return mcp.NewToolResultText("No new achievements"), nil
	}
	var b strings.Builder
	b.WriteString("Unlocked:\n")
	for _, id := range ids {
		if a, ok := game.FindAchievement(id); ok {
			fmt.Fprintf(&b, "- %s (%s): +%s\n", a.Title, a.Description, game.FormatMoney(a.Reward))
		}
	}
	fmt.Fprintf(&b, "Money: %s", game.FormatMoney(sess.Money()))
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sess, err := s.session(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	keep, _ := args["keep_ending"].(bool)
	sess.Reset(keep)
	return mcp.NewToolResultText("Game reset\n\n" + formatState(sess)), nil
}

func (s *Server) handleCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := arguments(request)["query"].(string)
	levels := game.SearchLevels(query, false)
	if len(levels) == 0 {
		return mcp.NewToolResultText("No matching tokens"), nil
	}
	var b strings.Builder
	for _, l := range levels {
		fmt.Fprintf(&b, "L%-2d %-16s value %-8s income %s\n", l.Level, l.Name, game.FormatMoney(l.Value), game.FormatMoney(l.IncomeRate))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatOutcome(sess *session.Session, ok bool, success, failure string) string {
	msg := failure
	if ok {
		msg = success
	}
	return msg + "\n\n" + formatState(sess)
}

// formatState renders the board as a 5x5 grid of levels followed by the economy.
func formatState(sess *session.Session) string {
	st := sess.State()
	var b strings.Builder

	fmt.Fprintf(&b, "Money: %s (earned %s)\n", game.FormatMoney(st.Money), game.FormatMoney(st.TotalEarned))
	fmt.Fprintf(&b, "Income: %s every %.1fs\n", game.FormatMoney(st.IncomeRate), float64(st.IncomeIntervalMs)/1000)
	fmt.Fprintf(&b, "Spawn level: %d (cost %s)\n", st.SpawnLevel, game.FormatMoney(game.ValueOf(st.SpawnLevel)))
	if st.GemSystemUnlocked {
		b.WriteString("Gems: unlocked\n")
	}

	b.WriteString("\nBoard (cell: level):\n")
	grid := st.Tokens.Grid()
	for r := 0; r < game.GridSize; r++ {
		for c := 0; c < game.GridSize; c++ {
			idx := r*game.GridSize + c
			if tok := grid[r][c]; tok.Level > 0 {
				fmt.Fprintf(&b, "%2d:L%-3d", idx, tok.Level)
			} else {
				fmt.Fprintf(&b, "%2d:.   ", idx)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("\nUpgrades:\n")
	for _, info := range sess.UpgradeInfos() {
		cost := game.FormatMoney(info.Cost)
		if info.Maxed {
			cost = "MAX"
		}
		fmt.Fprintf(&b, "- %s: level %d, next %s\n", info.Kind, info.Level, cost)
	}

	for _, bv := range sess.View().Boosts {
		if bv.Active {
			fmt.Fprintf(&b, "Boost %s: %ds left\n", bv.Type, bv.RemainingMs/1000)
		}
	}
	fmt.Fprintf(&b, "Merges: %d, achievements: %d/%d", st.TotalMergeCount, len(st.UnlockedAchievements), len(game.Achievements))
	return b.String()
}
