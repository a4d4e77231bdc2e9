// Package logging builds the slog loggers used by the command line.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-research/yomitran/api"
)

// Config holds logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	// Path, when set, receives the log instead of the default writer.
	Path string
}

// FromOptions derives a Config from the debug options of a configuration.
// debug forces debug level even when the options leave it off.
func FromOptions(d api.Debug, debug bool) Config {
	cfg := Config{Level: "info", Format: d.Format}
	if d.Enabled || debug {
		cfg.Level = "debug"
	}
	if d.Enabled {
		cfg.Path = d.Path
	}
	return cfg
}

// ParseLevel maps a level name to a slog.Level. Unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a logger writing to w.
func New(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Open returns a logger for cfg and installs it as the slog default.
// With a Path the log is appended to that file; otherwise it goes to w.
// The returned close function releases the file.
func Open(cfg Config, w io.Writer) (*slog.Logger, func() error, error) {
	closer := func() error { return nil }
	if cfg.Path != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f.Close
	}
	l := New(cfg, w)
	slog.SetDefault(l)
	return l, closer, nil
}
