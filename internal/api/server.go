// Package api exposes game slots over a JSON REST API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
	"github.com/vovakirdan/merge-tycoon/internal/storage"
	"github.com/vovakirdan/merge-tycoon/internal/transport/websocket"
)

// defaultSlot is how the unnamed slot appears in URLs.
const defaultSlot = "default"

// RunStore lists recorded runs. *storage.Store implements it.
type RunStore interface {
	TopRuns(slot string, limit int) ([]storage.RunEntry, error)
}

// Server is the REST API server.
type Server struct {
	sessions *session.Manager
	runs     RunStore
	hub      *websocket.Hub
	router   *mux.Router
	logger   *log.Logger
}

// NewServer creates a server over sessions. runs and hub may be nil.
func NewServer(sessions *session.Manager, runs RunStore, hub *websocket.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		sessions: sessions,
		runs:     runs,
		hub:      hub,
		router:   mux.NewRouter(),
		logger:   logger.WithPrefix("http"),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/catalog", s.handleCatalog).Methods("GET")
	api.HandleFunc("/achievements", s.handleAchievements).Methods("GET")
	api.HandleFunc("/slots", s.handleListSlots).Methods("GET")
	api.HandleFunc("/runs", s.handleRuns).Methods("GET")

	slot := api.PathPrefix("/slots/{slot}").Subrouter()
	slot.HandleFunc("/state", s.handleState).Methods("GET")
	slot.HandleFunc("/spawn", s.handleSpawn).Methods("POST")
	slot.HandleFunc("/move", s.handleMove).Methods("POST")
	slot.HandleFunc("/merge", s.handleMerge).Methods("POST")
	slot.HandleFunc("/drop", s.handleDrop).Methods("POST")
	slot.HandleFunc("/auto-merge", s.handleAutoMerge).Methods("POST")
	slot.HandleFunc("/boosts", s.handleBoost).Methods("POST")
	slot.HandleFunc("/upgrades", s.handleListUpgrades).Methods("GET")
	slot.HandleFunc("/upgrades/{kind}", s.handleUpgrade).Methods("POST")
	slot.HandleFunc("/gems", s.handleUnlockGems).Methods("POST")
	slot.HandleFunc("/achievements/check", s.handleCheckAchievements).Methods("POST")
	slot.HandleFunc("/reset", s.handleReset).Methods("POST")
	slot.HandleFunc("/acknowledge", s.handleAcknowledge).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// actionResponse reports a game operation. Rule failures are ok=false with a reason,
// never an HTTP error.
type actionResponse struct {
	OK       bool         `json:"ok"`
	Reason   string       `json:"reason,omitempty"`
	Unlocked []string     `json:"unlocked,omitempty"`
	State    session.View `json:"state"`
}

func respondAction(w http.ResponseWriter, sess *session.Session, ok bool, reason string) {
	resp := actionResponse{OK: ok, State: sess.View()}
	if !ok {
		resp.Reason = reason
	}
	respondJSON(w, http.StatusOK, resp)
}

// decodeBody decodes an optional JSON body. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// slotName maps the URL form of a slot to its session name.
func slotName(raw string) string {
	if raw == defaultSlot {
		return ""
	}
	return raw
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(slotName(mux.Vars(r)["slot"]))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return sess, true
}

// Slot handlers

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res := sess.Spawn()
	respondAction(w, sess, res.OK(), res.String())
}

type tokenRequest struct {
	ID     string `json:"id"`
	Target *int   `json:"target"`
}

func (s *Server) tokenOp(w http.ResponseWriter, r *http.Request, op func(*session.Session, string, int) bool, reason string) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" || req.Target == nil {
		respondError(w, http.StatusBadRequest, "id and target are required")
		return
	}
	if !game.ValidIndex(*req.Target) {
		respondError(w, http.StatusBadRequest, "target out of range")
		return
	}
	respondAction(w, sess, op(sess, req.ID, *req.Target), reason)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	s.tokenOp(w, r, (*session.Session).Move, "invalid_move")
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	s.tokenOp(w, r, (*session.Session).TryMerge, "invalid_merge")
}

func (s *Server) handleDrop(w http.ResponseWriter, r *http.Request) {
	s.tokenOp(w, r, (*session.Session).Drop, "invalid_drop")
}

func (s *Server) handleAutoMerge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondAction(w, sess, sess.TriggerAutoMerge(), "no_pair")
}

func (s *Server) handleBoost(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Type    game.BoostType `json:"type"`
		Seconds int            `json:"seconds"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Type.Valid() {
		respondError(w, http.StatusBadRequest, "unknown boost type")
		return
	}
	respondAction(w, sess, sess.ActivateBoost(req.Type, req.Seconds), "rejected")
}

func (s *Server) handleListUpgrades(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"upgrades":        sess.UpgradeInfos(),
		"gem_unlock_cost": sess.GemUnlockCost(),
	})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	kind, known := game.ParseUpgradeKind(mux.Vars(r)["kind"])
	if !known {
		respondError(w, http.StatusBadRequest, "unknown upgrade")
		return
	}
	reason := "insufficient_funds"
	for _, info := range sess.UpgradeInfos() {
		if info.Kind == kind && info.Maxed {
			reason = "maxed"
		}
	}
	respondAction(w, sess, sess.Upgrade(kind), reason)
}

func (s *Server) handleUnlockGems(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	reason := "insufficient_funds"
	if sess.State().GemSystemUnlocked {
		reason = "already_unlocked"
	}
	respondAction(w, sess, sess.UnlockGemSystem(), reason)
}

func (s *Server) handleCheckAchievements(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	ids := sess.CheckAchievements()
	respondJSON(w, http.StatusOK, actionResponse{OK: true, Unlocked: ids, State: sess.View()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req struct {
		KeepEnding bool `json:"keep_ending"`
	}
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess.Reset(req.KeepEnding)
	respondAction(w, sess, true, "")
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Acknowledge()
	respondAction(w, sess, true, "")
}

// Catalog handlers

type levelEntry struct {
	Level      int        `json:"level"`
	Name       string     `json:"name"`
	Value      game.Money `json:"value"`
	IncomeRate game.Money `json:"income_rate"`
	Gem        bool       `json:"gem"`
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	reveal, _ := strconv.ParseBool(q.Get("reveal"))
	levels := game.SearchLevels(q.Get("q"), reveal)
	entries := make([]levelEntry, len(levels))
	for i, l := range levels {
		entries[i] = levelEntry{Level: l.Level, Name: l.Name, Value: l.Value, IncomeRate: l.IncomeRate, Gem: game.IsGem(l.Level)}
	}
	respondJSON(w, http.StatusOK, entries)
}

type achievementEntry struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Reward      game.Money `json:"reward"`
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	entries := make([]achievementEntry, len(game.Achievements))
	for i, a := range game.Achievements {
		entries[i] = achievementEntry{ID: a.ID, Title: a.Title, Description: a.Description, Reward: a.Reward}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	names := s.sessions.Slots()
	for i, n := range names {
		if n == "" {
			names[i] = defaultSlot
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"count": len(names), "slots": names})
}

type runEntry struct {
	Slot         string     `json:"slot"`
	PeakMoney    game.Money `json:"peak_money"`
	TotalEarned  game.Money `json:"total_earned"`
	Merges       int        `json:"merges"`
	Achievements int        `json:"achievements"`
	HighestLevel int        `json:"highest_level"`
	Reason       string     `json:"reason"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondJSON(w, http.StatusOK, []runEntry{})
		return
	}
	q := r.URL.Query()
	limit := 10
	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = l
	}
	runs, err := s.runs.TopRuns(q.Get("slot"), limit)
	if err != nil {
		s.logger.Error("list runs", "error", err)
		respondError(w, http.StatusInternalServerError, "cannot list runs")
		return
	}
	entries := make([]runEntry, len(runs))
	for i, run := range runs {
		entries[i] = runEntry{
			Slot:         run.Slot,
			PeakMoney:    game.Money(run.PeakMoney),
			TotalEarned:  game.Money(run.TotalEarned),
			Merges:       run.Merges,
			Achievements: run.Achievements,
			HighestLevel: run.HighestLevel,
			Reason:       run.Reason,
			CreatedAt:    run.CreatedAt,
		}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusNotFound, "live updates disabled")
		return
	}
	raw := r.URL.Query().Get("slot")
	if raw == "" {
		raw = defaultSlot
	}
	// Open the slot so its events reach the hub
	if _, err := s.sessions.Get(slotName(raw)); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.ServeWS(w, r, raw)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
