// Package logger holds the process-wide zap logger. Services tag their
// entries through WithModule so log lines can be filtered per subsystem
// (services.auth, services.courses, handlers.auth, ...).
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu   sync.RWMutex
	base = zap.NewNop() // replaced by Init; nop keeps early callers safe
)

// Init builds the global logger at the given level. Unknown level strings
// fall back to info rather than failing startup.
func Init(level string) error {
	parsed := zapcore.InfoLevel
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		parsed = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	base = built
	mu.Unlock()
	return nil
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithModule returns a child logger tagged with the owning subsystem.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// Sync flushes buffered entries. Called once on shutdown.
func Sync() error {
	return Logger().Sync()
}
