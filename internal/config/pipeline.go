package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PipelineConfig carries the dataset knobs loaded from pipeline.yml.
type PipelineConfig struct {
	Generator GeneratorConfig `mapstructure:"generator"`
	Label     LabelConfig     `mapstructure:"label"`
}

// GeneratorConfig controls the synthetic raw-data generator.
type GeneratorConfig struct {
	Customers         int     `mapstructure:"customers"`
	Months            int     `mapstructure:"months"`
	StartDate         string  `mapstructure:"start_date"`
	FailedPaymentRate float64 `mapstructure:"failed_payment_rate"`
	TicketRate        float64 `mapstructure:"ticket_rate"`
	Seed              int64   `mapstructure:"seed"`
}

// LabelConfig controls the trailing windows of the churn label policy.
type LabelConfig struct {
	UsageWindowMonths   int `mapstructure:"usage_window_months"`
	BillingWindowMonths int `mapstructure:"billing_window_months"`
	FailedPaymentCutoff int `mapstructure:"failed_payment_cutoff"`
}

// DefaultPipelineConfig mirrors the reference dataset: 10k customers,
// 24 months of history starting 2022-01, 5% failed payments.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Generator: GeneratorConfig{
			Customers:         10000,
			Months:            24,
			StartDate:         "2022-01-01",
			FailedPaymentRate: 0.05,
			TicketRate:        1.2,
			Seed:              42,
		},
		Label: LabelConfig{
			UsageWindowMonths:   2,
			BillingWindowMonths: 3,
			FailedPaymentCutoff: 2,
		},
	}
}

// LoadPipelineConfig reads pipeline.yml, falling back to defaults when no
// config file exists. The file is read once per run; a one-shot batch job
// has no use for hot reload.
func LoadPipelineConfig(cfg Config) (PipelineConfig, error) {
	out := DefaultPipelineConfig()

	v := viper.New()
	if path := strings.TrimSpace(cfg.PipelineConfigPath); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("pipeline")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return out, nil
		}
		return out, err
	}
	if err := v.Unmarshal(&out); err != nil {
		return PipelineConfig{}, err
	}

	return out.withDefaults(), nil
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	def := DefaultPipelineConfig()
	if c.Generator.Customers <= 0 {
		c.Generator.Customers = def.Generator.Customers
	}
	if c.Generator.Months <= 0 {
		c.Generator.Months = def.Generator.Months
	}
	if _, err := time.Parse("2006-01-02", c.Generator.StartDate); err != nil {
		c.Generator.StartDate = def.Generator.StartDate
	}
	if c.Generator.FailedPaymentRate < 0 || c.Generator.FailedPaymentRate > 1 {
		c.Generator.FailedPaymentRate = def.Generator.FailedPaymentRate
	}
	if c.Generator.TicketRate < 0 {
		c.Generator.TicketRate = def.Generator.TicketRate
	}
	if c.Label.UsageWindowMonths <= 0 {
		c.Label.UsageWindowMonths = def.Label.UsageWindowMonths
	}
	if c.Label.BillingWindowMonths <= 0 {
		c.Label.BillingWindowMonths = def.Label.BillingWindowMonths
	}
	if c.Label.FailedPaymentCutoff <= 0 {
		c.Label.FailedPaymentCutoff = def.Label.FailedPaymentCutoff
	}
	return c
}
