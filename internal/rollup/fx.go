package rollup

import (
	"context"

	"github.com/driftbyte/skyvault/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("rollup",
	fx.Provide(ProvideConfig),
	fx.Provide(NewWorker),
	fx.Invoke(register),
)

func ProvideConfig(cfg config.Config) Config {
	c := DefaultConfig()
	if cfg.RollupInterval > 0 {
		c.PollInterval = cfg.RollupInterval
	}
	return c
}

func register(lc fx.Lifecycle, cfg config.Config, worker *Worker) {
	if !cfg.RollupEnabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
