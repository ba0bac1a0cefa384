package session

import (
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
)

var (
	// ErrUnknownSlot is returned by Lookup for a slot that has not been opened.
	ErrUnknownSlot = errors.New("session: unknown slot")
	// ErrInvalidSlot is returned for slot names that cannot be used as keys.
	ErrInvalidSlot = errors.New("session: invalid slot name")
)

var slotPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,64}$`)

// ValidSlot reports whether name is usable as a slot. The empty name is the default slot.
func ValidSlot(name string) bool {
	return name == "" || slotPattern.MatchString(name)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Balance config.BalanceConfig
	Clock   core.Clock
	Seed    int64
	Logger  *log.Logger

	// OnOpen runs once for every newly opened session, outside the manager lock.
	OnOpen func(*Session)
}

// Manager keeps one session per slot, opening them on first use.
type Manager struct {
	mu       sync.Mutex
	store    Store
	opts     ManagerOptions
	sessions map[string]*Session
}

// NewManager creates a manager backed by store.
func NewManager(store Store, opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Manager{
		store:    store,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for slot, opening it if needed.
func (m *Manager) Get(slot string) (*Session, error) {
	if !ValidSlot(slot) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}

	m.mu.Lock()
	if s, ok := m.sessions[slot]; ok {
		m.mu.Unlock()
		return s, nil
	}
	s := Open(slot, m.store, Options{
		Balance: m.opts.Balance,
		Clock:   m.opts.Clock,
		Seed:    slotSeed(m.opts.Seed, slot),
		Logger:  m.opts.Logger,
	})
	m.sessions[slot] = s
	m.mu.Unlock()

	if m.opts.OnOpen != nil {
		m.opts.OnOpen(s)
	}
	return s, nil
}

// Lookup returns an already opened session.
func (m *Manager) Lookup(slot string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[slot]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	return s, nil
}

// Slots returns the names of the open sessions, sorted.
func (m *Manager) Slots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.sessions))
	for name := range m.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SaveAll writes every open session.
func (m *Manager) SaveAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Save()
	}
}

// slotSeed derives a per-slot seed so seeded servers stay deterministic per player.
func slotSeed(seed int64, slot string) int64 {
	if seed == 0 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(slot))
	return seed ^ int64(h.Sum64())
}
