package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/merge-tycoon/internal/session"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
	"github.com/vovakirdan/merge-tycoon/internal/transport/mcp"
)

var flagMCPSlot string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the game as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin and stdout so an agent can
play. Tools act on --slot unless a call names another slot. Drivers run
for every slot the agent touches. Logs go to ~/.tycoon/tycoon.log.

Example client config:
  {"command": "tycoon", "args": ["mcp", "--slot", "agent"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&flagMCPSlot, "slot", "", "Default save slot for tool calls")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Stdout carries the protocol
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger, err := newLogger(logFile, "mcp")
	if err != nil {
		return err
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open save database: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var drivers sync.WaitGroup
	sessions := newManager(store, cfg, logger, func(s *session.Session) {
		startDrivers(ctx, &drivers, s, cfg.Drivers, logger)
	})

	slot := slotFlag(flagMCPSlot)
	if _, err := sessions.Get(slot); err != nil {
		return err
	}

	logger.Info("serving MCP over stdio", "slot", slot)
	serveErr := mcp.NewServer(sessions, slot, version).ServeStdio()

	cancel()
	drivers.Wait()
	sessions.SaveAll()
	return serveErr
}
