package sim

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/merge-tycoon/internal/config"
	"github.com/vovakirdan/merge-tycoon/internal/core"
	"github.com/vovakirdan/merge-tycoon/internal/driver"
	"github.com/vovakirdan/merge-tycoon/internal/game"
	"github.com/vovakirdan/merge-tycoon/internal/session"
)

// driverLoops is the number of loops a driver.Runner starts.
const driverLoops = 4

// Options configures a simulated run.
type Options struct {
	Duration    time.Duration // Virtual play time
	BotInterval time.Duration // Virtual time between bot turns
	Strategy    Strategy
	Balance     config.BalanceConfig
	Drivers     config.DriverConfig
	Seed        int64
	Logger      *log.Logger
}

// Report summarizes a finished run.
type Report struct {
	Elapsed      time.Duration
	Money        game.Money
	TotalEarned  game.Money
	Merges       int
	HighestLevel int
	SpawnLevel   int
	Discovered   int
	Achievements int
	GemsUnlocked bool
	Ending       bool
}

// Run plays a fresh in-memory game for opts.Duration of virtual time.
func Run(ctx context.Context, opts Options) (Report, error) {
	if opts.Duration <= 0 {
		return Report{}, errors.New("sim: duration must be positive")
	}
	if opts.Strategy == nil {
		opts.Strategy = playGreedy
	}
	if opts.BotInterval <= 0 {
		opts.BotInterval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Drivers == (config.DriverConfig{}) {
		opts.Drivers = config.DefaultTycoonConfig().Drivers
	}

	start := time.Now().Truncate(time.Second)
	clock := core.NewManualClock(start)
	sess := session.Open("", nil, session.Options{
		Balance: opts.Balance,
		Clock:   clock,
		Seed:    opts.Seed,
		Logger:  opts.Logger,
	})

	sched := NewScheduler(clock, driverLoops+1, start.Add(opts.Duration))
	runner := driver.New(sess, opts.Drivers, driver.WithLogger(opts.Logger), driver.WithWait(sched.Wait))
	defer sess.Subscribe(runner.HandleEvent)()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(gctx) })
	g.Go(func() error {
		for sched.Wait(gctx, opts.BotInterval) {
			opts.Strategy(sess)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	st := sess.State()
	return Report{
		Elapsed:      clock.Now().Sub(start),
		Money:        st.Money,
		TotalEarned:  st.TotalEarned,
		Merges:       st.TotalMergeCount,
		HighestLevel: st.HighestLevel(),
		SpawnLevel:   st.SpawnLevel,
		Discovered:   len(st.DiscoveredLevels),
		Achievements: len(st.UnlockedAchievements),
		GemsUnlocked: st.GemSystemUnlocked,
		Ending:       runner.EndingSeen(),
	}, ctx.Err()
}
