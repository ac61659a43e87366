package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	SchemaV1 = "v1"
	SchemaV2 = "v2"

	StatusModeLegacy = "legacy"
	StatusModeHTTP   = "http"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	BodyLimitMB int    `envconfig:"BODY_LIMIT_MB" default:"10"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Keep-alive
	URL               string        `envconfig:"URL"`
	KeepAliveInterval time.Duration `envconfig:"KEEPALIVE_INTERVAL" default:"60s"`
	KeepAliveTimeout  time.Duration `envconfig:"KEEPALIVE_TIMEOUT" default:"30s"`

	// Provider
	FaceProvider     string `envconfig:"FACE_PROVIDER" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DlibModelsDir    string `envconfig:"DLIB_MODELS_DIR" default:"./models"`
	DetectorModel    string `envconfig:"DETECTOR_MODEL" default:"hog"`
	DetectorUpsample int    `envconfig:"DETECTOR_UPSAMPLE" default:"1"`

	// Matching
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	EmbeddingDim   int     `envconfig:"EMBEDDING_DIM" default:"128"`
	KNNNeighbors   int     `envconfig:"KNN_NEIGHBORS" default:"0"`
	KNNThreshold   float64 `envconfig:"KNN_THRESHOLD" default:"0.5"`

	// Response contract
	ResponseSchema  string `envconfig:"RESPONSE_SCHEMA" default:"v1"`
	ErrorStatusMode string `envconfig:"ERROR_STATUS_MODE" default:"legacy"`

	// Database
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Rate limiting, requests per minute per IP
	RateLimitMax int `envconfig:"RATE_LIMIT_MAX" default:"0"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.ResponseSchema {
	case SchemaV1, SchemaV2:
	default:
		return fmt.Errorf("RESPONSE_SCHEMA must be %q or %q, got %q", SchemaV1, SchemaV2, c.ResponseSchema)
	}
	switch c.ErrorStatusMode {
	case StatusModeLegacy, StatusModeHTTP:
	default:
		return fmt.Errorf("ERROR_STATUS_MODE must be %q or %q, got %q", StatusModeLegacy, StatusModeHTTP, c.ErrorStatusMode)
	}
	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("KEEPALIVE_INTERVAL must be positive")
	}
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("EMBEDDING_DIM must not be negative")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// BodyLimit is the request body cap in bytes.
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}
