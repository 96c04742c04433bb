// Package logging builds the process logger. Everything else logs through
// zap.S() once the logger has been installed with zap.ReplaceGlobals.
package logging

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Config struct {
	Level  string      `json:"level"`
	Format string      `json:"format"`
	File   *FileConfig `json:"file,omitempty"`
}

// FileConfig enables a rotating log file next to stderr.
type FileConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.Level != "" {
		if _, err := zapcore.ParseLevel(c.Level); err != nil {
			el.Add(fmt.Errorf("level: %w", err))
		}
	}

	switch c.Format {
	case "", "console", "json":
	default:
		el.Add(fmt.Errorf("format must be console or json, got %q", c.Format))
	}

	if c.File != nil && c.File.Path == "" {
		el.Add(fmt.Errorf("file: path is required"))
	}

	return el.Err()
}

// New creates a logger from c.
func New(c Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if c.Level != "" {
		l, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing level: %w", err)
		}
		level = l
	}

	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if c.Format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.Lock(os.Stderr)}
	if c.File != nil {
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File.Path,
			MaxSize:    c.File.MaxSizeMB,
			MaxBackups: c.File.MaxBackups,
			MaxAge:     c.File.MaxAgeDays,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	return zap.New(core, zap.AddCaller()), nil
}
