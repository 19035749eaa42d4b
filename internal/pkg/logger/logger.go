// Package logger provides the process-wide zap logger for ingestq.
//
// JSON output by default, console output for local development. The level is
// an AtomicLevel so it can be changed while the drain loop is running.
package logger

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global is the package-level logger instance.
	global      *zap.Logger
	atomicLevel zap.AtomicLevel
	once        sync.Once
)

// Init initializes the global logger.
// level: debug, info, warn, error
// format: json or console
func Init(level, format string) error {
	var initErr error
	once.Do(func() {
		atomicLevel = zap.NewAtomicLevel()
		if err := atomicLevel.UnmarshalText([]byte(level)); err != nil {
			initErr = fmt.Errorf("parse log level %q: %w", level, err)
			return
		}

		var cfg zap.Config
		switch format {
		case "console":
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		default:
			cfg = zap.NewProductionConfig()
		}
		cfg.Level = atomicLevel

		logger, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			initErr = fmt.Errorf("build logger: %w", err)
			return
		}
		global = logger
	})
	return initErr
}

// L returns the global logger. Panics if Init has not been called.
func L() *zap.Logger {
	if global == nil {
		panic("logger.Init() must be called before logger.L()")
	}
	return global
}

// Debug logs a message at DebugLevel.
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Info logs a message at InfoLevel.
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn logs a message at WarnLevel.
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error logs a message at ErrorLevel.
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// HTTPHandler returns the AtomicLevel, which implements http.Handler.
// The router mounts it at /log/level.
//
//	GET  /log/level                        returns current level
//	PUT  /log/level -d '{"level":"debug"}' changes level
func HTTPHandler() *zap.AtomicLevel {
	return &atomicLevel
}

// Ingestion returns the fields identifying an ingestion in log lines.
func Ingestion(ingestionID string) zap.Field {
	return zap.String("ingestion_id", ingestionID)
}

// Batch returns the fields identifying a batch and its owning ingestion.
func Batch(batchID, ingestionID string) []zap.Field {
	return []zap.Field{
		zap.String("batch_id", batchID),
		zap.String("ingestion_id", ingestionID),
	}
}

// Sync flushes any buffered log entries.
func Sync() error {
	if global == nil {
		return nil
	}
	return global.Sync()
}
