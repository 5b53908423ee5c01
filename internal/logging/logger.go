// Package logging provides structured logging for the synchronization-
// validation core, backed by zap.
package logging

import (
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Config holds logging configuration.
type Config struct {
	Level   LogLevel
	Encoder string    // "console" or "json"; empty defaults to "console"
	Output  io.Writer // destination; nil defaults to os.Stderr
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{Level: LevelInfo, Encoder: "console"}
}

// Logger wraps a zap.SugaredLogger with the fixed four-level API the
// rest of this module calls through, so call sites stay level-oriented
// rather than coupled to zap's full field-builder surface.
type Logger struct {
	sugar *zap.SugaredLogger
}

// NewLogger builds a Logger writing to config.Output (stderr when nil) at
// config's level.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if config.Encoder == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	var output io.Writer = os.Stderr
	if config.Output != nil {
		output = config.Output
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(output)), config.Level.zapLevel())
	return &Logger{sugar: zap.New(core).Sugar()}
}

// WithQueue returns a Logger that annotates every entry with queue_id.
func (l *Logger) WithQueue(queueID int32) *Logger {
	return &Logger{sugar: l.sugar.With("queue_id", queueID)}
}

// WithTag returns a Logger that annotates every entry with the
// submission tag and the operation that produced it.
func (l *Logger) WithTag(tag int64, op string) *Logger {
	return &Logger{sugar: l.sugar.With("tag", tag, "op", op)}
}

// WithError returns a Logger that annotates every entry with err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{sugar: l.sugar.With("error", err)}
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault replaces the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error { return l.sugar.Sync() }

// Debug logs msg at debug level with structured key/value fields.
func (l *Logger) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

// Info logs msg at info level with structured key/value fields.
func (l *Logger) Info(msg string, args ...any) { l.sugar.Infow(msg, args...) }

// Warn logs msg at warn level with structured key/value fields.
func (l *Logger) Warn(msg string, args ...any) { l.sugar.Warnw(msg, args...) }

// Error logs msg at error level with structured key/value fields.
func (l *Logger) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

// Debugf logs a printf-style message at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }

// Infof logs a printf-style message at info level.
func (l *Logger) Infof(format string, args ...any) { l.sugar.Infof(format, args...) }

// Warnf logs a printf-style message at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.sugar.Warnf(format, args...) }

// Errorf logs a printf-style message at error level.
func (l *Logger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }

// Printf is kept for call sites migrated from the line-oriented logger
// this package replaces; it logs at info level.
func (l *Logger) Printf(format string, args ...any) { l.Infof(format, args...) }

// Global convenience functions delegating to Default().

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
