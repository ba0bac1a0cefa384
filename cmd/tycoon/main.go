// tycoon is Merge Money Tycoon, an idle merge game for the terminal.
//
// Usage:
//
//	tycoon play              - Play in the terminal
//	tycoon serve             - Serve the game over SSH and HTTP
//	tycoon sim               - Run a headless bot game in virtual time
//	tycoon status            - Show a save slot
//	tycoon reset             - Start a save slot over
//	tycoon runs              - Show finished runs
//	tycoon catalog [query]   - Search the token catalog
//	tycoon mcp               - Serve MCP tools over stdio
//
// Global flags:
//
//	--db <path>          - Set database path (default: ~/.tycoon/tycoon.db)
//	--config <path>      - Load balance and server settings from YAML
//	--difficulty <name>  - Apply a balance preset: easy, normal, hard
//	--seed <value>       - Set RNG seed for reproducible gameplay
//	--log-level <level>  - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time.
var version = "dev"

var (
	// Global flags
	flagDBPath     string
	flagConfig     string
	flagDifficulty string
	flagSeed       int64
	flagLogLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "tycoon",
	Short:   "Merge Money Tycoon - merge coins into a fortune",
	Version: version,
	Long: `Merge Money Tycoon is an idle merge game. Buy coins, merge equal
ones into higher tiers, and let their income pile up until you reach
9,999 trillion.

Available commands:
  play     - Play in the terminal
  serve    - Serve the game over SSH, HTTP and WebSocket
  sim      - Run a headless bot game in virtual time
  status   - Show a save slot
  reset    - Start a save slot over
  runs     - Show finished runs
  catalog  - Search the token catalog
  mcp      - Serve MCP tools over stdio

Examples:
  tycoon play
  tycoon play --slot alice
  tycoon serve --ssh :23235 --http :8080
  tycoon sim --duration 2h --strategy greedy
  tycoon catalog gold`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.tycoon/tycoon.db", "Path to the save database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a tycoon YAML config")
	rootCmd.PersistentFlags().StringVar(&flagDifficulty, "difficulty", "", "Balance preset: easy, normal, hard")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(mcpCmd)
}
