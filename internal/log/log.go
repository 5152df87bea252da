// Package log builds the structured loggers used across extplan.
// Every subsystem logs through a *slog.Logger tagged with a category so
// output from the resolver, repositories and CLI can be filtered.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Category groups related log messages.
type Category string

const (
	CatResolver  Category = "resolver"  // dependency resolution
	CatJob       Category = "job"       // planning runs
	CatRemote    Category = "remote"    // remote repository calls
	CatInstalled Category = "installed" // installed-state store
	CatChain     Category = "chain"     // repository priority chain
	CatConfig    Category = "config"    // configuration loading
	CatCLI       Category = "cli"
)

// Supported output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns a logger writing to w at the given level ("debug", "info",
// "warn", "error") in the given format ("text" or "json").
func New(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ParseLevel converts a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// For tags l with a category. A nil l yields a discarding logger.
func For(l *slog.Logger, cat Category) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With("category", string(cat))
}
