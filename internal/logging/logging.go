// Package logging builds the zap logger shared by the opsplan commands.
//
// Library packages take a *zap.Logger in their constructors and fall back to
// zap.NewNop when given nil; only cmd/opsplan constructs loggers.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and encoding of a logger.
type Config struct {
	// Level is one of "debug", "info", "warn" or "error". Empty means "info".
	Level string
	// Format is "json" or "console". Empty means "console".
	Format string
}

// New returns a logger writing to stderr, keeping stdout free for reports.
func New(cfg Config) (*zap.Logger, error) {
	return NewWithSink(cfg, zapcore.Lock(os.Stderr))
}

// NewWithSink returns a logger writing to sink.
func NewWithSink(cfg Config, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging: invalid level %q: %w", cfg.Level, err)
		}
	}

	var enc zapcore.Encoder
	switch cfg.Format {
	case "json":
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewJSONEncoder(ec)
	case "", "console":
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	default:
		return nil, fmt.Errorf("logging: invalid format %q", cfg.Format)
	}

	core := zapcore.NewCore(enc, sink, zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.AddCaller()), nil
}
