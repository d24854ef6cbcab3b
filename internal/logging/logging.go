// Package logging installs the process logger: log/slog call sites backed by
// a zap core. INFO and WARN go to stdout, ERROR and above go to stderr, and an
// optional file receives every level.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

// Config selects the encoding, level and optional file of the logger.
type Config struct {
	// Env is "production" for JSON output; anything else logs for humans.
	Env string

	// Level is a zap level name. Defaults to info.
	Level string

	// File, when set, receives all levels as JSON.
	File string
}

// Setup builds the logger and makes it the slog and zap default. The
// returned cleanup flushes the logger and closes the log file.
func Setup(cfg Config) (func(), error) {
	var file *os.File
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		file = f
	}

	var fileW io.Writer
	if file != nil {
		fileW = file
	}
	core, err := NewCore(cfg, os.Stdout, os.Stderr, fileW)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, err
	}

	logger := zap.New(core)
	zap.ReplaceGlobals(logger)
	slog.SetDefault(slog.New(zapslog.NewHandler(core)))

	return func() {
		_ = logger.Sync()
		if file != nil {
			file.Close()
		}
	}, nil
}

// NewCore returns the teed zap core writing to stdout, stderr and, when file
// is non-nil, to file.
func NewCore(cfg Config, stdout, stderr, file io.Writer) (zapcore.Core, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	console := consoleEncoder(cfg.Env)
	cores := []zapcore.Core{
		zapcore.NewCore(console, zapcore.AddSync(stdout), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= level && l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(console, zapcore.AddSync(stderr), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= level && l >= zapcore.ErrorLevel
		})),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(file),
			level,
		))
	}
	return zapcore.NewTee(cores...), nil
}

// ParseLevel parses a level name. An empty name is info.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func consoleEncoder(env string) zapcore.Encoder {
	if env == "production" {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}
