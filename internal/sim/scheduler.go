// Package sim plays a game headlessly in virtual time. A Scheduler stands in for the
// drivers' timers so hours of play finish in moments, and a Bot makes the moves.
package sim

import (
	"context"
	"sync"
	"time"

	"github.com/vovakirdan/merge-tycoon/internal/core"
)

type waiter struct {
	at   time.Time
	seq  uint64
	wake chan bool
}

// Scheduler is a virtual-time driver.WaitFunc. Once every participant is waiting it
// jumps the clock to the earliest deadline and wakes that waiter alone, so exactly one
// goroutine runs at a time and a seeded run is reproducible.
type Scheduler struct {
	mu       sync.Mutex
	clock    *core.ManualClock
	end      time.Time
	parties  int
	queue    []*waiter
	seq      uint64
	finished bool
}

// NewScheduler creates a scheduler for parties goroutines that stops at end.
func NewScheduler(clock *core.ManualClock, parties int, end time.Time) *Scheduler {
	return &Scheduler{
		clock:   clock,
		end:     end,
		parties: parties,
	}
}

// Wait blocks until virtual time advances by d. It returns false once the run is over.
func (s *Scheduler) Wait(ctx context.Context, d time.Duration) bool {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return false
	}
	w := &waiter{at: s.clock.Now().Add(max(d, 0)), seq: s.seq, wake: make(chan bool, 1)}
	s.seq++
	s.queue = append(s.queue, w)
	s.dispatchLocked()
	s.mu.Unlock()

	select {
	case ok := <-w.wake:
		return ok
	case <-ctx.Done():
		s.Stop()
		return false
	}
}

// Stop ends the run and releases every waiter.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

// Now returns the virtual time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

func (s *Scheduler) dispatchLocked() {
	if len(s.queue) < s.parties {
		return
	}
	next := 0
	for i, w := range s.queue {
		if w.at.Before(s.queue[next].at) || (w.at.Equal(s.queue[next].at) && w.seq < s.queue[next].seq) {
			next = i
		}
	}
	w := s.queue[next]
	if w.at.After(s.end) {
		s.finishLocked()
		return
	}
	s.queue = append(s.queue[:next], s.queue[next+1:]...)
	s.clock.Set(w.at)
	w.wake <- true
}

func (s *Scheduler) finishLocked() {
	s.finished = true
	for _, w := range s.queue {
		w.wake <- false
	}
	s.queue = nil
}
