package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module wires configuration loading into the fx graph.
var Module = fx.Module("config",
	fx.Provide(Load, LoadPipelineConfig),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	LogLevel  string
	LogFormat string

	// RawDataDir holds the five input tables; ProcessedDataDir receives
	// the assembled model_dataset.csv.
	RawDataDir       string
	ProcessedDataDir string

	// WarehousePath enables the SQLite dataset mirror when non-empty.
	WarehousePath string

	// PipelineConfigPath points at an optional pipeline.yml; when empty
	// the well-known search paths are tried instead.
	PipelineConfigPath string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:            getenv("APP_SERVICE", "churnlab"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		LogFormat:          getenv("LOG_FORMAT", "json"),
		RawDataDir:         getenv("RAW_DATA_DIR", "data/raw"),
		ProcessedDataDir:   getenv("PROCESSED_DATA_DIR", "data/processed"),
		WarehousePath:      strings.TrimSpace(getenv("WAREHOUSE_PATH", "")),
		PipelineConfigPath: strings.TrimSpace(getenv("PIPELINE_CONFIG", "")),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
