package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger for the environment. Development gets a colored console
// encoder at debug level; everything else gets JSON at info level. A non-empty level
// overrides the environment default.
func New(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	return cfg.Build()
}

// NewNamed builds a logger for env and tags it with the service name.
func NewNamed(env, name string, level ...string) (*zap.Logger, error) {
	lvl := ""
	if len(level) > 0 {
		lvl = level[0]
	}
	log, err := New(env, lvl)
	if err != nil {
		return nil, err
	}
	return log.Named(name).With(zap.String("service", name)), nil
}
