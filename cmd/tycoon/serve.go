package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/merge-tycoon/internal/api"
	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/driver"
	"github.com/vovakirdan/merge-tycoon/internal/platform/tui"
	"github.com/vovakirdan/merge-tycoon/internal/session"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
	"github.com/vovakirdan/merge-tycoon/internal/transport/mcp"
	"github.com/vovakirdan/merge-tycoon/internal/transport/websocket"
)

var (
	flagSSHAddr     string
	flagHTTPAddr    string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the game over SSH, HTTP and WebSocket",
	Long: `Start the multiplayer server. Every player gets their own save slot:
over SSH the login name picks the slot, over HTTP the slot is part of
the URL. Drivers (income, boosts, achievements) run for every slot that
has been opened, whether or not anyone is connected.

Endpoints:
  ssh  <user>@host -p 23235           Terminal play
  GET  /api/slots/{slot}/state        REST API (see /api/...)
  GET  /ws?slot=<slot>                Live state stream
  POST /mcp                           MCP tools over HTTP
  GET  /health                        Liveness

Pass an empty address to disable a listener.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tycoon/host_key

Examples:
  tycoon serve
  tycoon serve --ssh :2222 --http :9090
  tycoon serve --http ""              # SSH only`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (default from config)")
	serveCmd.Flags().StringVar(&flagHTTPAddr, "http", "", "HTTP server address (default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes before disconnecting (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyServeFlags(cmd, &cfg.Server)
	if cfg.Server.SSHAddress == "" && cfg.Server.HTTPAddress == "" {
		return errors.New("nothing to serve: both --ssh and --http are empty")
	}

	logger, err := newLogger(os.Stderr, "tycoon")
	if err != nil {
		return err
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("cannot open save database: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := websocket.NewHub(logger)
	var drivers sync.WaitGroup
	sessions := newManager(store, cfg, logger, func(s *session.Session) {
		hub.Attach(s)
		startDrivers(ctx, &drivers, s, cfg.Drivers, logger)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if addr := cfg.Server.HTTPAddress; addr != "" {
		handler := newHTTPHandler(api.NewServer(sessions, store, hub, logger), mcp.NewServer(sessions, "", version))
		g.Go(func() error { return serveHTTP(gctx, addr, handler, logger) })
	}

	if addr := cfg.Server.SSHAddress; addr != "" {
		sshCfg := tui.SSHServerConfigFrom(cfg.Server)
		sshServer, err := tui.NewSSHServer(sshCfg, sessions, store, logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error { return sshServer.Serve(gctx) })
		if _, port, err := net.SplitHostPort(addr); err == nil {
			logger.Info("connect with", "cmd", "ssh <name>@localhost -p "+port)
		}
	}

	err = g.Wait()
	stop()
	drivers.Wait()
	sessions.SaveAll()
	logger.Info("server stopped")
	return err
}

// applyServeFlags overrides the config with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, sc *config.ServerConfig) {
	flags := cmd.Flags()
	if flags.Changed("ssh") {
		sc.SSHAddress = flagSSHAddr
	}
	if flags.Changed("http") {
		sc.HTTPAddress = flagHTTPAddr
	}
	if flags.Changed("host-key") {
		sc.HostKeyPath = flagHostKey
	}
	if flags.Changed("idle-timeout") {
		sc.IdleTimeoutMin = flagIdleTimeout
	}
}

// startDrivers runs the periodic loops of s until ctx is cancelled.
func startDrivers(ctx context.Context, wg *sync.WaitGroup, s *session.Session, cfg config.DriverConfig, logger *log.Logger) {
	runner := driver.New(s, cfg, driver.WithLogger(logger.With("slot", s.View().Slot)))
	unsubscribe := s.Subscribe(runner.HandleEvent)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer unsubscribe()
		if err := runner.Run(ctx); err != nil {
			logger.Error("drivers stopped", "slot", s.Slot(), "error", err)
		}
	}()
}

// newHTTPHandler mounts the REST API at the root and MCP at /mcp.
func newHTTPHandler(apiServer http.Handler, mcpServer *mcp.Server) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", mcpOverHTTP(mcpServer.MCPServer()))
	return mux
}

// mcpOverHTTP answers one JSON-RPC message per POST.
func mcpOverHTTP(h *mcpserver.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := h.HandleMessage(r.Context(), body)
		if response == nil {
			// Notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(response); err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		}
	}
}

// serveHTTP runs an HTTP server until ctx is cancelled.
func serveHTTP(ctx context.Context, addr string, handler http.Handler, logger *log.Logger) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
