package synth

import (
	"github.com/smallbiznis/churnlab/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("synth",
	fx.Provide(provideGenerator),
)

func provideGenerator(cfg config.Config, pcfg config.PipelineConfig, log *zap.Logger) (*Generator, error) {
	return New(log, pcfg.Generator, cfg.RawDataDir)
}
