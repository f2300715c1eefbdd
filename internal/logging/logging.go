// Package logging builds the zap logger behind --verbose.
package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Verbose bool // info and above
	Debug   bool // debug and above, implies Verbose
	JSON    bool
	// Output defaults to stderr.
	Output io.Writer
	Fields []zap.Field
}

// New returns a logger for cfg. Without Verbose or Debug only warnings and
// errors get through.
func New(cfg Config) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case cfg.Debug:
		level = zapcore.DebugLevel
	case cfg.Verbose:
		level = zapcore.InfoLevel
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var enc zapcore.Encoder
	if cfg.JSON {
		enc = zapcore.NewJSONEncoder(EncoderConfig(zapcore.DefaultLineEnding))
	} else {
		ec := EncoderConfig(zapcore.DefaultLineEnding)
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc = zapcore.NewConsoleEncoder(ec)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(out), zap.NewAtomicLevelAt(level))
	return zap.New(core, zap.Fields(cfg.Fields...))
}

func EncoderConfig(lineEnding string) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		MessageKey:     "message",
		LevelKey:       "level",
		NameKey:        "logger",
		StacktraceKey:  "stacktrace",
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     lineEnding,
	}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
