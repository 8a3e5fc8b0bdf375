package scheduler

import (
	"context"

	redis "github.com/redis/go-redis/v9"
	"github.com/valnet/valdesk-central/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(provideLocker),
	fx.Provide(New),
	fx.Invoke(Start),
)

// provideLocker wires the cross-replica run lock only when redis is
// configured. Single-replica deployments run without it.
func provideLocker(cfg config.Config) *Locker {
	if cfg.RedisAddr == "" {
		return nil
	}
	return NewLocker(redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}))
}

// Start runs the scheduler in cron mode when a generator schedule is
// configured, otherwise on the interval ticker.
func Start(lc fx.Lifecycle, sched *Scheduler, billing *config.BillingConfigHolder) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())

			if schedule := billing.Get().GeneratorSchedule; schedule != "" {
				c, err := sched.StartCron(runCtx, schedule)
				if err != nil {
					cancel()
					return err
				}
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						cancel()
						select {
						case <-c.Stop().Done():
						case <-ctx.Done():
						}
						return nil
					},
				})
				return nil
			}

			go sched.RunForever(runCtx)
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}
