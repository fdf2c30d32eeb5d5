// Package xlog is the ambient structured-logging layer every package in
// this module logs recoverable-but-noteworthy conditions through (SPEC_FULL
// §10): encoding fallbacks, BOM stripping, CSV separator auto-detection,
// and so on. It wraps log/slog the way the teacher's own log package does,
// rather than introducing a bespoke logging abstraction.
package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler's output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	ErrUnknownLevel  = errors.New("xlog: unknown log level")
	ErrUnknownFormat = errors.New("xlog: unknown log format")
)

// GetLevel parses a case-insensitive level name.
func GetLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "error":
		return slog.LevelError, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
}

// GetFormat parses a case-insensitive format name.
func GetFormat(format string) (Format, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// NewHandler creates a slog.Handler writing to w at the given level and
// format.
func NewHandler(w io.Writer, level slog.Level, format Format) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// defaultLogger is the package-level logger every parser/editor/validator
// component logs through; host applications may replace it with
// SetDefault for a process-wide override without needing a logger
// parameter threaded through every constructor.
var defaultLogger = slog.New(NewHandler(os.Stderr, slog.LevelWarn, FormatText))

// Default returns the current package-level logger.
func Default() *slog.Logger { return defaultLogger }

// SetDefault replaces the package-level logger.
func SetDefault(l *slog.Logger) { defaultLogger = l }
