package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// DataDir is the directory scanned and watched for model output files.
	DataDir     string `env:"DATA_DIR" envDefault:"./data"`
	FilePattern string `env:"FILE_PATTERN" envDefault:"*.nc"`

	// Planet selects the constants set stamped into normalized grids.
	Planet string `env:"PLANET" envDefault:"earth"`
	// TargetLonMin is the lower edge of the longitude convention, e.g.
	// -180 for [-180, 180) or 0 for [0, 360).
	TargetLonMin float64 `env:"TARGET_LON_MIN" envDefault:"-180"`

	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// SettleInterval is how long a file must stay quiet after the last
	// filesystem event before it is considered fully written.
	SettleInterval time.Duration `env:"SETTLE_INTERVAL" envDefault:"500ms"`

	// Kafka summary publishing, disabled by default.
	KafkaEnabled   bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaSinkTopic string   `env:"KAFKA_SINK_TOPIC" envDefault:"normalized-run-summaries"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.FilePattern == "" {
		return nil, errors.New("FILE_PATTERN is required")
	}
	if cfg.Planet == "" {
		return nil, errors.New("PLANET is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.SettleInterval <= 0 {
		return nil, errors.New("invalid SETTLE_INTERVAL")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}

	return cfg, nil
}
