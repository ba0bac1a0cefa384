package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/session"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
)

// loadConfig reads the YAML config and applies the difficulty preset.
func loadConfig() (config.TycoonConfig, error) {
	preset := config.DifficultyPreset(flagDifficulty)
	if !config.IsKnownPreset(preset) {
		return config.TycoonConfig{}, fmt.Errorf("unknown difficulty %q (want easy, normal or hard)", flagDifficulty)
	}
	cfg, err := config.LoadTycoon(flagConfig)
	if err != nil {
		return cfg, err
	}
	config.ApplyPreset(&cfg, preset)
	return cfg, nil
}

// newLogger creates a logger writing to w at the --log-level level.
func newLogger(w io.Writer, prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
	})
	logger.SetLevel(level)
	return logger, nil
}

// openLogFile opens ~/.tycoon/tycoon.log for appending. The TUI owns the terminal, so
// logs go there instead.
func openLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot get home directory: %w", err)
	}
	dir := filepath.Join(home, ".tycoon")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", dir, err)
	}
	return os.OpenFile(filepath.Join(dir, "tycoon.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}

// newManager creates the session manager for cfg. A nil store keeps every game in memory.
func newManager(store *storage.Store, cfg config.TycoonConfig, logger *log.Logger, onOpen func(*session.Session)) *session.Manager {
	var backing session.Store
	if store != nil {
		backing = store
	}
	return session.NewManager(backing, session.ManagerOptions{
		Balance: cfg.Balance,
		Clock:   core.SystemClock{},
		Seed:    flagSeed,
		Logger:  logger,
		OnOpen:  onOpen,
	})
}

// slotFlag maps the "default" alias to the default slot.
func slotFlag(name string) string {
	if name == "default" {
		return ""
	}
	return name
}

// terminalSize returns the size of stdout, falling back to 80x24.
func terminalSize() (int, int) {
	width, height := 80, 24 // Defaults
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}
	return width, height
}
