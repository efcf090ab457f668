// Package logger provides the application-wide structured logger built
// on zap with lumberjack file rotation. The same logger doubles as the
// sqldb-logger sink so database queries land in the same stream.
package logger

import (
	"context"
	"os"

	sqldblogger "github.com/simukti/sqldb-logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging interface the application depends on.
type Logger interface {
	// With returns a logger based off the root logger and decorated
	// with the given context and arguments.
	With(ctx context.Context, args ...interface{}) Logger

	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})

	// Log implements the sqldb-logger sink.
	Log(ctx context.Context, level sqldblogger.Level, msg string, data map[string]interface{})

	// Sync flushes any buffered log entries.
	Sync() error
}

type logger struct {
	*zap.SugaredLogger
}

// Options configure the logger construction.
type Options struct {
	// Path to the log file. Empty means stderr only.
	Path string
	// Level is a zap level name: debug, info, warn, error.
	Level string
	// Rotation settings, used only when Path is set.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// New creates a new logger. Unknown level names default to info.
func New(opts Options) Logger {
	level := zapcore.InfoLevel
	_ = level.Set(opts.Level)

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	sink := zapcore.AddSync(os.Stderr)
	if opts.Path != "" {
		sink = zapcore.NewMultiWriteSyncer(
			zapcore.AddSync(os.Stderr),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   opts.Path,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
				MaxAge:     opts.MaxAgeDays,
			}),
		)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, level)

	return &logger{zap.New(core, zap.AddCaller()).Sugar()}
}

// NewNop returns a logger that discards everything. Intended for tests.
func NewNop() Logger {
	return &logger{zap.NewNop().Sugar()}
}

func (l *logger) With(_ context.Context, args ...interface{}) Logger {
	if len(args) > 0 {
		return &logger{l.SugaredLogger.With(args...)}
	}
	return l
}

func (l *logger) Log(_ context.Context, level sqldblogger.Level, msg string, data map[string]interface{}) {
	args := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		args = append(args, k, v)
	}

	switch level {
	case sqldblogger.LevelError:
		l.Errorw(msg, args...)
	case sqldblogger.LevelInfo:
		l.Infow(msg, args...)
	default:
		l.Debugw(msg, args...)
	}
}

func (l *logger) Sync() error {
	return l.SugaredLogger.Sync()
}
