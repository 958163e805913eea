// Package logger builds the zap logger shared by the server and the CLI.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Brownie44l1/xray-api/internal/config"
)

// NewLogger builds a zap logger for cfg. Unknown levels fall back to info;
// an unknown output is an error.
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "", "stdout":
		sink = os.Stdout
	case "stderr":
		sink = os.Stderr
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	return New(cfg, zapcore.Lock(sink)), nil
}

// New builds a logger writing to ws. Every entry carries the service name.
func New(cfg *config.LogConfig, ws zapcore.WriteSyncer) *zap.Logger {
	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	logger := zap.New(zapcore.NewCore(encoder, ws, level),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if cfg.Service != "" {
		logger = logger.With(zap.String("service", cfg.Service))
	}
	return logger
}
