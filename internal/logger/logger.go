// Package logger provides the levelled, key/value logger used by the
// connection gate, the storage engines and the CLI.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a structured logger. Arguments after msg are alternating
// key/value pairs.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
}

// SlogHandler adapts a log/slog handler.
type SlogHandler struct {
	logger *slog.Logger
}

// NewSlog wraps h.
func NewSlog(h slog.Handler) *SlogHandler {
	return &SlogHandler{logger: slog.New(h)}
}

func (handler *SlogHandler) Error(msg string, args ...any) {
	handler.logger.Error(msg, args...)
}

func (handler *SlogHandler) Warn(msg string, args ...any) {
	handler.logger.Warn(msg, args...)
}

func (handler *SlogHandler) Info(msg string, args ...any) {
	handler.logger.Info(msg, args...)
}

func (handler *SlogHandler) Debug(msg string, args ...any) {
	handler.logger.Debug(msg, args...)
}

// ZerologHandler adapts a zerolog logger.
type ZerologHandler struct {
	logger zerolog.Logger
}

// NewZerolog logs JSON lines with timestamps to w at or above level.
func NewZerolog(w io.Writer, level zerolog.Level) *ZerologHandler {
	return &ZerologHandler{logger: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (handler *ZerologHandler) Error(msg string, args ...any) {
	handler.logger.Error().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Warn(msg string, args ...any) {
	handler.logger.Warn().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Info(msg string, args ...any) {
	handler.logger.Info().Fields(args).Msg(msg)
}

func (handler *ZerologHandler) Debug(msg string, args ...any) {
	handler.logger.Debug().Fields(args).Msg(msg)
}

type noop struct{}

func (noop) Error(string, ...any) {}
func (noop) Warn(string, ...any)  {}
func (noop) Info(string, ...any)  {}
func (noop) Debug(string, ...any) {}

// Noop discards everything.
func Noop() Logger { return noop{} }

// New builds a logger writing to w. format is "text", "json" or "zerolog";
// level is "debug", "info", "warn" or "error".
func New(w io.Writer, format, level string) (Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", "text":
		return NewSlog(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case "json":
		return NewSlog(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
	case "zerolog":
		return NewZerolog(w, zerologLevel(lvl)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l <= slog.LevelDebug:
		return zerolog.DebugLevel
	case l <= slog.LevelInfo:
		return zerolog.InfoLevel
	case l <= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
