package driver

import (
	"context"
	"io"
	"runtime"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

type fakeTarget struct {
	mu sync.Mutex

	timing     session.Timing
	money      game.Money
	autoMerge  bool
	autoSpawn  bool
	payouts    int
	merges     int
	spawns     int
	checks     int
	endings    int
	afterPayFn func(f *fakeTarget)
}

func (f *fakeTarget) PayIncome() game.Money {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payouts++
	if f.afterPayFn != nil {
		f.afterPayFn(f)
	}
	return 1
}

func (f *fakeTarget) TriggerAutoMerge() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.merges++
	return true
}

func (f *fakeTarget) Spawn() game.SpawnResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spawns++
	return game.SpawnOK
}

func (f *fakeTarget) CheckAchievements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks++
	return nil
}

func (f *fakeTarget) IsBoostActive(t game.BoostType) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch t {
	case game.BoostAutoMerge:
		return f.autoMerge
	case game.BoostAutoSpawn:
		return f.autoSpawn
	}
	return false
}

func (f *fakeTarget) Timing() session.Timing {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.timing
}

func (f *fakeTarget) Money() game.Money {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.money
}

func (f *fakeTarget) RecordEnding() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endings++
}

// scriptedWait lets n waits elapse, recording their durations, then reports cancellation.
type scriptedWait struct {
	mu    sync.Mutex
	left  int
	waits []time.Duration
}

func (w *scriptedWait) wait(_ context.Context, d time.Duration) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits = append(w.waits, d)
	if w.left <= 0 {
		return false
	}
	w.left--
	return true
}

func defaultTiming() session.Timing {
	return session.Timing{
		IncomeInterval:    10 * time.Second,
		SpawnCooldown:     5 * time.Second,
		AutoMergeInterval: time.Second,
	}
}

func newTestRunner(target Target, w *scriptedWait) *Runner {
	return New(target, config.DefaultTycoonConfig().Drivers,
		WithWait(w.wait),
		WithLogger(log.New(io.Discard)),
	)
}

func TestIncomeLoopRereadsInterval(t *testing.T) {
	target := &fakeTarget{
		timing: defaultTiming(),
		afterPayFn: func(f *fakeTarget) {
			f.timing.IncomeInterval = 2 * time.Second
		},
	}
	w := &scriptedWait{left: 3}
	r := newTestRunner(target, w)

	if err := r.incomeLoop(context.Background()); err != nil {
		t.Fatalf("incomeLoop() error: %v", err)
	}
	if target.payouts != 3 {
		t.Errorf("payouts = %d, want 3", target.payouts)
	}
	want := []time.Duration{10 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second}
	if !slices.Equal(w.waits, want) {
		t.Errorf("waits = %v, want %v", w.waits, want)
	}
}

func TestAutoMergeLoopGatedByBoost(t *testing.T) {
	target := &fakeTarget{timing: defaultTiming()}
	w := &scriptedWait{left: 2}
	r := newTestRunner(target, w)

	r.autoMergeLoop(context.Background())
	if target.merges != 0 {
		t.Errorf("merges without boost = %d, want 0", target.merges)
	}
	if w.waits[0] != time.Second {
		t.Errorf("idle wait = %v, want 1s", w.waits[0])
	}

	target.autoMerge = true
	target.timing.AutoMergeInterval = 300 * time.Millisecond
	w2 := &scriptedWait{left: 4}
	r.wait = w2.wait
	r.autoMergeLoop(context.Background())
	if target.merges != 4 {
		t.Errorf("merges with boost = %d, want 4", target.merges)
	}
	if w2.waits[0] != 300*time.Millisecond {
		t.Errorf("active wait = %v, want 300ms", w2.waits[0])
	}
}

func TestAutoSpawnLoopUsesCooldownFloor(t *testing.T) {
	target := &fakeTarget{timing: defaultTiming(), autoSpawn: true}
	target.timing.SpawnCooldown = 50 * time.Millisecond
	w := &scriptedWait{left: 3}
	r := newTestRunner(target, w)

	r.autoSpawnLoop(context.Background())
	if target.spawns != 3 {
		t.Errorf("spawns = %d, want 3", target.spawns)
	}
	for _, d := range w.waits {
		if d != 200*time.Millisecond {
			t.Errorf("spawn wait = %v, want the 200ms floor", d)
		}
	}
}

func TestAchievementLoopEndingLatch(t *testing.T) {
	target := &fakeTarget{timing: defaultTiming(), money: game.MaxMoney}
	w := &scriptedWait{left: 5}
	r := newTestRunner(target, w)

	r.achievementLoop(context.Background())
	if target.checks != 5 {
		t.Errorf("checks = %d, want 5", target.checks)
	}
	if target.endings != 1 {
		t.Fatalf("endings = %d, want 1", target.endings)
	}
	if !r.EndingSeen() {
		t.Error("EndingSeen() = false, want true")
	}

	r.HandleEvent(session.Event{Kind: session.EventState})
	if !r.EndingSeen() {
		t.Error("state event cleared the latch")
	}
	r.HandleEvent(session.Event{Kind: session.EventReset})
	if r.EndingSeen() {
		t.Error("reset event kept the latch")
	}

	r.wait = (&scriptedWait{left: 2}).wait
	r.achievementLoop(context.Background())
	if target.endings != 2 {
		t.Errorf("endings after reset = %d, want 2", target.endings)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	target := &fakeTarget{timing: defaultTiming(), autoMerge: true, autoSpawn: true}
	progressed := func() bool {
		target.mu.Lock()
		defer target.mu.Unlock()
		return min(target.payouts, target.merges, target.spawns, target.checks) >= 2
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Every loop keeps ticking until all four have run twice.
	wait := func(ctx context.Context, d time.Duration) bool {
		if progressed() {
			cancel()
		}
		runtime.Gosched()
		return ctx.Err() == nil
	}

	r := New(target, config.DefaultTycoonConfig().Drivers, WithWait(wait), WithLogger(log.New(io.Discard)))
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	if target.payouts < 2 || target.merges < 2 || target.spawns < 2 || target.checks < 2 {
		t.Errorf("payouts, merges, spawns, checks = %d, %d, %d, %d, want at least 2 each",
			target.payouts, target.merges, target.spawns, target.checks)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sleep(ctx, time.Hour) {
		t.Error("sleep() on cancelled context = true, want false")
	}
	if !sleep(context.Background(), time.Millisecond) {
		t.Error("sleep(1ms) = false, want true")
	}
}
