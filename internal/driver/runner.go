// Package driver runs the periodic loops that keep a game moving: income payouts,
// boost-gated auto-merge and auto-spawn, and the achievement watcher.
package driver

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

// Target is the game the loops act on. *session.Session implements it.
type Target interface {
	PayIncome() game.Money
	TriggerAutoMerge() bool
	Spawn() game.SpawnResult
	CheckAchievements() []string
	IsBoostActive(t game.BoostType) bool
	Timing() session.Timing
	Money() game.Money
	RecordEnding()
}

// WaitFunc blocks for d or until ctx is done. It reports whether the full wait elapsed.
type WaitFunc func(ctx context.Context, d time.Duration) bool

// Runner owns the periodic drivers of one game.
type Runner struct {
	target Target
	cfg    config.DriverConfig
	logger *log.Logger
	wait   WaitFunc

	endingSeen atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithWait replaces the timer used between ticks.
func WithWait(w WaitFunc) Option {
	return func(r *Runner) { r.wait = w }
}

// New creates a runner for target.
func New(target Target, cfg config.DriverConfig, opts ...Option) *Runner {
	r := &Runner{
		target: target,
		cfg:    cfg,
		logger: log.Default(),
		wait:   sleep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sleep waits on a fresh timer so each tick picks up the current period.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Run starts every loop and blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.incomeLoop(ctx) })
	g.Go(func() error { return r.autoMergeLoop(ctx) })
	g.Go(func() error { return r.autoSpawnLoop(ctx) })
	g.Go(func() error { return r.achievementLoop(ctx) })
	return g.Wait()
}

// ResetLatches forgets that the ending was shown, so a new run can reach it again.
func (r *Runner) ResetLatches() {
	r.endingSeen.Store(false)
}

// HandleEvent clears the latches when the game is reset. Subscribe it to the session.
func (r *Runner) HandleEvent(ev session.Event) {
	if ev.Kind == session.EventReset {
		r.ResetLatches()
	}
}

// EndingSeen reports whether the ending fired during this run.
func (r *Runner) EndingSeen() bool {
	return r.endingSeen.Load()
}

func (r *Runner) idle() time.Duration {
	return time.Duration(r.cfg.IdlePollMs) * time.Millisecond
}

// incomeLoop pays income, re-reading the interval before every wait so income speed
// upgrades apply from the next payout.
func (r *Runner) incomeLoop(ctx context.Context) error {
	for {
		if !r.wait(ctx, r.target.Timing().IncomeInterval) {
			return nil
		}
		if paid := r.target.PayIncome(); paid > 0 {
			r.logger.Debug("income paid", "amount", paid)
		}
	}
}

// autoMergeLoop merges one pair per tick while the auto-merge boost runs.
func (r *Runner) autoMergeLoop(ctx context.Context) error {
	for {
		d := r.idle()
		if r.target.IsBoostActive(game.BoostAutoMerge) {
			d = r.target.Timing().AutoMergeInterval
		}
		if !r.wait(ctx, d) {
			return nil
		}
		if r.target.IsBoostActive(game.BoostAutoMerge) {
			r.target.TriggerAutoMerge()
		}
	}
}

// autoSpawnLoop spawns at the spawn cooldown while the auto-spawn boost runs.
func (r *Runner) autoSpawnLoop(ctx context.Context) error {
	minCooldown := time.Duration(r.cfg.MinSpawnCooldownMs) * time.Millisecond
	for {
		d := r.idle()
		if r.target.IsBoostActive(game.BoostAutoSpawn) {
			d = max(minCooldown, r.target.Timing().SpawnCooldown)
		}
		if !r.wait(ctx, d) {
			return nil
		}
		if r.target.IsBoostActive(game.BoostAutoSpawn) {
			r.target.Spawn()
		}
	}
}

// achievementLoop checks achievements and fires the ending once per run.
func (r *Runner) achievementLoop(ctx context.Context) error {
	period := time.Duration(r.cfg.AchievementPollMs) * time.Millisecond
	for {
		if !r.wait(ctx, period) {
			return nil
		}
		r.target.CheckAchievements()
		if r.target.Money() >= game.MaxMoney && r.endingSeen.CompareAndSwap(false, true) {
			r.target.RecordEnding()
		}
	}
}
