// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level" toml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Console    bool   `mapstructure:"console" toml:"console" default:"true"`
	File       bool   `mapstructure:"file" toml:"file" default:"false"`
	FilePath   string `mapstructure:"file_path" toml:"file_path"`
	MaxSize    int    `mapstructure:"max_size" toml:"max_size" default:"50" validate:"gte=1"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" default:"5" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age" toml:"max_age" default:"30" validate:"gte=0"` // days
}

// DefaultLogFilePath returns the rotating log file location under the user's config directory.
func DefaultLogFilePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "quant-engine", "logs", "quant.log")
}

// NewLogger creates a logger writing to the console and, when enabled, a
// rotating log file.
func NewLogger(cfg LogConfig) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg LogConfig, console io.Writer) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				ll, ok := i.(string)
				if !ok {
					return "???"
				}
				switch ll {
				case "debug":
					return "\033[36mDBG\033[0m"
				case "info":
					return "\033[32mINF\033[0m"
				case "warn":
					return "\033[33mWRN\033[0m"
				case "error":
					return "\033[31mERR\033[0m"
				default:
					return ll
				}
			},
		})
	}

	if cfg.File {
		path := cfg.FilePath
		if path == "" {
			path = DefaultLogFilePath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   path,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = io.Discard
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	return zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithSymbol adds a symbol to the logger context.
func WithSymbol(logger zerolog.Logger, symbol string) zerolog.Logger {
	return logger.With().Str("symbol", symbol).Logger()
}

// WithOperation adds an operation name to the logger context.
func WithOperation(logger zerolog.Logger, operation string) zerolog.Logger {
	return logger.With().Str("operation", operation).Logger()
}

// WithRunID tags every event of a portfolio run.
func WithRunID(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}

// LogDecision logs a synthesized decision.
func LogDecision(logger zerolog.Logger, symbol, signal string, confidence, edgeBps float64, elapsed time.Duration) {
	logger.Info().
		Str("event", "decision").
		Str("symbol", symbol).
		Str("signal", signal).
		Float64("confidence", confidence).
		Float64("edge_bps", edgeBps).
		Dur("elapsed", elapsed).
		Msg("Decision synthesized")
}

// LogAnalyzerFailure logs a recovered analyzer failure.
func LogAnalyzerFailure(logger zerolog.Logger, symbol string, err error) {
	logger.Error().
		Str("event", "analyzer_failure").
		Str("symbol", symbol).
		Err(err).
		Msg("Analysis failed, returning neutral decision")
}

// LogSeriesLoad logs a price series load from the store.
func LogSeriesLoad(logger zerolog.Logger, symbol string, points int, duration time.Duration, err error) {
	event := logger.Debug().
		Str("event", "series_load").
		Str("symbol", symbol).
		Int("points", points).
		Dur("duration", duration)

	if err != nil {
		event.Err(err).Msg("Series load failed")
	} else {
		event.Msg("Series loaded")
	}
}
