package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sonroyaalmerol/auria/internal/config"
)

// New builds the process logger. The returned closer flushes the rotating log
// file, if one was configured.
func New(cfg *config.Config) (*slog.Logger, io.Closer) {
	return newWithStderr(cfg, os.Stderr, isatty.IsTerminal(os.Stderr.Fd()))
}

func newWithStderr(cfg *config.Config, stderr io.Writer, tty bool) (*slog.Logger, io.Closer) {
	var out io.Writer = stderr
	var closer io.Closer = nopCloser{}

	if cfg.LogFile != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755)
		lj := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogFileMaxMB,
			MaxBackups: cfg.LogFileBackups,
		}
		out = io.MultiWriter(stderr, lj)
		closer = lj
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}

	var h slog.Handler
	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(out, opts)
	case "console":
		h = slog.NewTextHandler(out, opts)
	default:
		if tty {
			h = slog.NewTextHandler(out, opts)
		} else {
			h = slog.NewJSONHandler(out, opts)
		}
	}
	return slog.New(h), closer
}

func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewNop returns a logger that discards everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Component tags every record with the owning component.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = NewNop()
	}
	return l.With("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
