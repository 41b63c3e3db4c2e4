package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnlab/internal/churn"
	"github.com/smallbiznis/churnlab/internal/churn/pipeline"
	"github.com/smallbiznis/churnlab/internal/config"
	"github.com/smallbiznis/churnlab/internal/observability"
	"github.com/smallbiznis/churnlab/internal/warehouse"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),

		// Functional domains
		warehouse.Module,
		churn.Module,

		fx.Invoke(run),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// run executes one dataset build and shuts the app down with a non-zero
// exit code on failure.
func run(lc fx.Lifecycle, sd fx.Shutdowner, p *pipeline.Pipeline, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				if err := p.Run(context.Background()); err != nil {
					log.Error("dataset build failed", zap.Error(err))
					code = 1
				}
				_ = sd.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}
