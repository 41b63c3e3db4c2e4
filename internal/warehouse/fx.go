package warehouse

import (
	"github.com/smallbiznis/churnlab/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("warehouse",
	fx.Provide(provide),
)

// provide returns a nil sink when no warehouse path is configured; the
// pipeline treats nil as disabled.
func provide(cfg config.Config, log *zap.Logger) (*Warehouse, error) {
	if cfg.WarehousePath == "" {
		return nil, nil
	}
	return Open(cfg.WarehousePath, log)
}
