package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "XRAY_"

type Config struct {
	Server ServerConfig
	Model  ModelConfig
	Stats  StatsConfig
	Assets AssetsConfig
	Log    LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Mode           string // gin mode: debug, release or test
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

type ModelConfig struct {
	Path              string
	LabelsPath        string
	SharedLibraryPath string
	InputName         string
	OutputName        string
}

// StatsConfig holds the evaluation confusion matrix shown on the page.
type StatsConfig struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	TrueNegatives  int
}

type AssetsConfig struct {
	AnimationURL string
	FetchTimeout time.Duration
}

type LogConfig struct {
	Level   string
	Format  string // json or console
	Output  string // stdout or stderr
	Service string
}

// Load reads an optional .env file from the working directory and then
// the XRAY_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Mode:           getEnv("SERVER_MODE", "release"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			MaxUploadBytes: getEnvAsInt64("SERVER_MAX_UPLOAD_BYTES", 10<<20),
		},
		Model: ModelConfig{
			Path:              getEnv("MODEL_PATH", filepath.Join(".", "model", "keras_model.onnx")),
			LabelsPath:        getEnv("MODEL_LABELS_PATH", filepath.Join(".", "model", "labels.txt")),
			SharedLibraryPath: getEnv("MODEL_ONNX_LIB", ""),
			InputName:         getEnv("MODEL_INPUT_NAME", ""),
			OutputName:        getEnv("MODEL_OUTPUT_NAME", ""),
		},
		Stats: StatsConfig{
			TruePositives:  getEnvAsInt("STATS_TRUE_POSITIVES", 448),
			FalsePositives: getEnvAsInt("STATS_FALSE_POSITIVES", 25),
			FalseNegatives: getEnvAsInt("STATS_FALSE_NEGATIVES", 32),
			TrueNegatives:  getEnvAsInt("STATS_TRUE_NEGATIVES", 171),
		},
		Assets: AssetsConfig{
			AnimationURL: getEnv("ASSETS_ANIMATION_URL", "https://lottie.host/4d3f22af-b69d-4ad7-8726-a7763503b249/pXNnGjgrYk.json"),
			FetchTimeout: getEnvAsDuration("ASSETS_FETCH_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  getEnv("LOG_FORMAT", "json"),
			Output:  getEnv("LOG_OUTPUT", "stdout"),
			Service: getEnv("LOG_SERVICE", "xray-api"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid server mode %q", c.Server.Mode)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid max upload size %d", c.Server.MaxUploadBytes)
	}
	if c.Model.Path == "" || c.Model.LabelsPath == "" {
		return errors.New("model and labels paths are required")
	}
	s := c.Stats
	if s.TruePositives < 0 || s.FalsePositives < 0 || s.FalseNegatives < 0 || s.TrueNegatives < 0 {
		return errors.New("confusion matrix counts must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
