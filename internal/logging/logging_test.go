package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sonroyaalmerol/auria/internal/config"
)

func TestNewAutoFormatUsesJSONWithoutTTY(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	var buf bytes.Buffer
	logger, closer := newWithStderr(cfg, &buf, false)
	defer closer.Close()

	Component(logger, "cache").Info("hello", "hash", "abc")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json record, got %q: %v", buf.String(), err)
	}
	if rec["component"] != "cache" || rec["hash"] != "abc" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewConsoleFormatAndLevel(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LogFormat = "console"
	cfg.LogLevel = "warn"
	var buf bytes.Buffer
	logger, closer := newWithStderr(cfg, &buf, false)
	defer closer.Close()

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered: %q", out)
	}
	if !strings.Contains(out, "msg=kept") {
		t.Fatalf("expected text record, got %q", out)
	}
}

func TestNewWritesLogFile(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.LogFormat = "json"
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "auria.log")
	var buf bytes.Buffer
	logger, closer := newWithStderr(cfg, &buf, false)

	logger.Info("to file")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(cfg.LogFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Fatalf("log file missing record: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	if ParseLevel("debug") != slog.LevelDebug || ParseLevel("bogus") != slog.LevelInfo {
		t.Fatalf("unexpected level mapping")
	}
}
