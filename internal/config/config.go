package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Brownie44l1/sketchpad/internal/raster"
	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	ModelPath      string  `env:"MODEL_PATH" default:"mnist-8.onnx"`
	LabelsPath     string  `env:"MODEL_LABELS_PATH"`
	ORTLibraryPath string  `env:"ONNXRUNTIME_LIB_PATH"`
	ResampleFilter string  `env:"RESAMPLE_FILTER" default:"area"`
	StrokeWidth    float64 `env:"STROKE_WIDTH" default:"16"`
	MetricsAddr    string  `env:"METRICS_ADDR"`
	LogLevel       string  `env:"LOG_LEVEL" default:"info"`
	LogFormat      string  `env:"LOG_FORMAT" default:"text"`

	InferenceTimeout time.Duration `env:"INFERENCE_TIMEOUT" default:"0s"` // 0 waits indefinitely
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ModelPath == "" {
		return errors.New("MODEL_PATH is required")
	}
	if _, err := raster.NewResampler(cfg.ResampleFilter); err != nil {
		return fmt.Errorf("RESAMPLE_FILTER: %w", err)
	}
	if cfg.StrokeWidth <= 0 {
		return fmt.Errorf("STROKE_WIDTH must be positive, got %v", cfg.StrokeWidth)
	}
	if cfg.InferenceTimeout < 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must not be negative, got %s", cfg.InferenceTimeout)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	return nil
}
