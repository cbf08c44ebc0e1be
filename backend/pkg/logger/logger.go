package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every entry as the "service" field
const ServiceName = "sportsgraph"

// Logger is a global logger instance
var Logger *zap.Logger

var (
	fallback     *zap.Logger
	fallbackOnce sync.Once
)

// Options selects the encoder and minimum level for Init
type Options struct {
	// Env is "production" for JSON output, anything else for the console encoder
	Env string
	// Level overrides the environment's default level (debug, info, warn, error)
	Level string
}

// Init initializes the global logger
func Init(opts Options) error {
	config, err := buildConfig(opts)
	if err != nil {
		return err
	}

	built, err := config.Build()
	if err != nil {
		return err
	}
	Logger = built.With(zap.String("service", ServiceName))

	return nil
}

func buildConfig(opts Options) (zap.Config, error) {
	var config zap.Config

	if opts.Env == "production" {
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return zap.Config{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		config.Level = level
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config, nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Get returns the global logger instance, or a shared development logger
// when Init has not run (tests, scripts)
func Get() *zap.Logger {
	if Logger != nil {
		return Logger
	}
	fallbackOnce.Do(func() {
		built, err := zap.NewDevelopment()
		if err != nil {
			built = zap.NewNop()
		}
		fallback = built.With(zap.String("service", ServiceName))
	})
	return fallback
}

// Named returns the global logger scoped to a component
func Named(component string) *zap.Logger {
	return Get().Named(component)
}
