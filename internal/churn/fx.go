package churn

import (
	"github.com/smallbiznis/churnlab/internal/churn/loader"
	"github.com/smallbiznis/churnlab/internal/churn/pipeline"
	"github.com/smallbiznis/churnlab/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("churn",
	fx.Provide(
		provideLoader,
		pipeline.New,
	),
)

func provideLoader(cfg config.Config, log *zap.Logger) *loader.Loader {
	return loader.New(log, cfg.RawDataDir)
}
