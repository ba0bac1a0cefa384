package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/driver"
	"github.com/vovakirdan/merge-tycoon/internal/platform/tui"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

var flagPlaySlot string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in the terminal",
	Long: `Open the board in the terminal. Income, boosts and achievements keep
running while the game is open; the board is saved after every change.

Controls:
  Arrows/hjkl  - Move the cursor
  Space/Enter  - Pick up a token, then drop it to move or merge
  Esc          - Put the token back
  S            - Buy a token
  M            - Merge one pair
  1-6          - Buy an upgrade
  G            - Unlock the gem system
  Z/X/C        - Start the auto-merge, double-income or auto-spawn boost
  Tab          - Switch panel (upgrades, achievements, collection, runs)
  R            - Start over
  ?            - Toggle help
  Q/Ctrl+C     - Quit

The mouse works too: click a token, then click where it should go.

Examples:
  tycoon play
  tycoon play --slot alice
  tycoon play --difficulty easy --db ./tycoon.db`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagPlaySlot, "slot", "", "Save slot to play (default slot if empty)")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := newLogger(logFile, "tycoon")
	if err != nil {
		return err
	}

	// Open save storage
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open save database: %v\n", err)
		// Continue without storage - the game still works, it just is not saved
		store = nil
	}
	var runs tui.RunStore
	if store != nil {
		defer store.Close()
		runs = store
	}

	sessions := newManager(store, cfg, logger, nil)
	sess, err := sessions.Get(slotFlag(flagPlaySlot))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	runner := driver.New(sess, cfg.Drivers, driver.WithLogger(logger))
	unsubscribe := sess.Subscribe(runner.HandleEvent)
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	width, height := terminalSize()
	rc := core.DefaultConfig()
	rc.ScreenW = width
	rc.ScreenH = height
	rc.Seed = flagSeed

	runErr := tui.Run(sess, runs, rc)

	cancel()
	if err := <-done; err != nil {
		logger.Error("drivers stopped", "error", err)
	}
	sess.Save()

	if runErr != nil {
		return fmt.Errorf("error running game: %w", runErr)
	}
	return nil
}
