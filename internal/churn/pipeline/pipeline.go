// Package pipeline orchestrates one full dataset build: load, aggregate,
// label, assemble, persist. Sequential and fail-fast; any stage error
// aborts the run and leaves the previous output untouched.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/churnlab/internal/churn/assembler"
	"github.com/smallbiznis/churnlab/internal/churn/features"
	"github.com/smallbiznis/churnlab/internal/churn/label"
	"github.com/smallbiznis/churnlab/internal/churn/loader"
	"github.com/smallbiznis/churnlab/internal/config"
	"github.com/smallbiznis/churnlab/internal/warehouse"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// OutputFile is the name of the materialized dataset under the processed
// data directory.
const OutputFile = "model_dataset.csv"

type Params struct {
	fx.In

	Log       *zap.Logger
	Cfg       config.Config
	Pipeline  config.PipelineConfig
	GenID     *snowflake.Node
	Loader    *loader.Loader
	Warehouse *warehouse.Warehouse
}

type Pipeline struct {
	log       *zap.Logger
	cfg       config.Config
	labelCfg  label.Config
	genID     *snowflake.Node
	loader    *loader.Loader
	warehouse *warehouse.Warehouse
}

func New(p Params) *Pipeline {
	labelCfg := label.Config{
		UsageWindow:   p.Pipeline.Label.UsageWindowMonths,
		BillingWindow: p.Pipeline.Label.BillingWindowMonths,
		FailureCutoff: p.Pipeline.Label.FailedPaymentCutoff,
	}
	return &Pipeline{
		log:       p.Log.Named("churn.pipeline"),
		cfg:       p.Cfg,
		labelCfg:  labelCfg,
		genID:     p.GenID,
		loader:    p.Loader,
		warehouse: p.Warehouse,
	}
}

// Run executes one full dataset build.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := p.genID.Generate()
	log := p.log.With(zap.String("run_id", runID.String()))

	tables, err := p.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load raw tables: %w", err)
	}

	log.Info("engineering usage features")
	usageAgg := features.AggregateUsage(tables.Usage)

	log.Info("engineering billing features")
	billingAgg := features.AggregateBilling(tables.Billing)

	log.Info("engineering support features")
	supportAgg := features.AggregateSupport(tables.Tickets)

	log.Info("deriving churn label")
	labels := label.Derive(p.labelCfg, tables.Subscriptions, tables.Usage, tables.Billing)

	log.Info("assembling dataset")
	rows := assembler.Assemble(tables.Customers, tables.Subscriptions, usageAgg, billingAgg, supportAgg, labels)

	out := filepath.Join(p.cfg.ProcessedDataDir, OutputFile)
	if err := assembler.WriteCSV(rows, out); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}

	if err := p.warehouse.Store(ctx, runID, rows); err != nil {
		return fmt.Errorf("mirror dataset to warehouse: %w", err)
	}

	log.Info("dataset build complete",
		zap.Int("rows", len(rows)),
		zap.String("path", out),
	)
	return nil
}
