// Package log builds the pslog loggers used across hclshell.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
)

// Options selects where and how much to log.
type Options struct {
	Level   string // trace, debug, info, warn or error
	Mode    string // structured or console
	NoColor bool
}

// New returns a logger writing to w.
func New(w io.Writer, o Options) (pslog.Logger, error) {
	opts := pslog.Options{
		Mode:          pslog.ModeStructured,
		NoColor:       o.NoColor,
		MinLevel:      pslog.InfoLevel,
		VerboseFields: true,
	}
	switch strings.ToLower(strings.TrimSpace(o.Mode)) {
	case "", "structured", "json":
	case "console", "text":
		opts.Mode = pslog.ModeConsole
	default:
		return nil, fmt.Errorf("unknown log mode %q", o.Mode)
	}
	switch strings.ToLower(strings.TrimSpace(o.Level)) {
	case "trace":
		opts.MinLevel = pslog.TraceLevel
	case "debug":
		opts.MinLevel = pslog.DebugLevel
	case "", "info":
	case "warn", "warning":
		opts.MinLevel = pslog.WarnLevel
	case "error":
		opts.MinLevel = pslog.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", o.Level)
	}
	return pslog.NewWithOptions(w, opts), nil
}

// Open returns a logger appending to path. An empty path discards output.
func Open(path string, o Options) (pslog.Logger, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		l, err := New(io.Discard, o)
		return l, nopCloser{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	o.NoColor = true
	l, err := New(f, o)
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return l, f, nil
}

// Nop returns a logger that drops everything.
func Nop() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, MinLevel: pslog.ErrorLevel})
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
