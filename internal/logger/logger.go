package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log *zap.Logger
	mu  sync.RWMutex
)

// Init builds the process logger: JSON in production, colored console
// output everywhere else.
func Init(env string) error {
	var cfg zap.Config

	if env == "production" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.MessageKey = "message"
		cfg.EncoderConfig.LevelKey = "level"
		cfg.EncoderConfig.CallerKey = "caller"
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.OutputPaths = []string{"stdout"}
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	built, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return err
	}

	Set(built.With(zap.String("env", envName(env))))
	return nil
}

// Set replaces the process logger and returns the previous one.
func Set(l *zap.Logger) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	prev := log
	log = l
	return prev
}

// L returns the process logger, initialising it from APP_ENV on first use.
func L() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	if err := Init(os.Getenv("APP_ENV")); err != nil {
		Set(zap.NewNop())
	}

	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}

func envName(env string) string {
	if env == "" {
		return "development"
	}
	return env
}
