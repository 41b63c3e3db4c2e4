package main

import (
	"context"

	"github.com/smallbiznis/churnlab/internal/config"
	"github.com/smallbiznis/churnlab/internal/observability"
	"github.com/smallbiznis/churnlab/internal/synth"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		synth.Module,

		fx.Invoke(run),
	)
	app.Run()
}

func run(lc fx.Lifecycle, sd fx.Shutdowner, g *synth.Generator, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				if err := g.Generate(context.Background()); err != nil {
					log.Error("synthetic data generation failed", zap.Error(err))
					code = 1
				}
				_ = sd.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}
