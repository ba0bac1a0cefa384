package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/merge-tycoon/internal/session"
)

// eventBuffer bounds the events queued for the UI between renders.
const eventBuffer = 64

// sessionEventMsg carries a session event into the update loop.
type sessionEventMsg session.Event

// eventFeed forwards session events to the Bubble Tea program.
type eventFeed struct {
	events chan session.Event
	done   chan struct{}
	once   sync.Once
	unsub  func()
}

// subscribe attaches a feed to s. Events that arrive while the queue is full are
// dropped; the next tick re-reads the state anyway.
func subscribe(s *session.Session) *eventFeed {
	f := &eventFeed{
		events: make(chan session.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	f.unsub = s.Subscribe(func(ev session.Event) {
		select {
		case <-f.done:
		case f.events <- ev:
		default:
		}
	})
	return f
}

// wait returns a command that blocks until the next event or until the feed closes.
func (f *eventFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-f.events:
			return sessionEventMsg(ev)
		case <-f.done:
			return nil
		}
	}
}

// Close detaches the feed from its session.
func (f *eventFeed) Close() {
	f.once.Do(func() {
		f.unsub()
		close(f.done)
	})
}
