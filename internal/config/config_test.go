package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("AURIA_CONFIG", "")
	t.Setenv("AURIA_CACHE_DIR", "")
	t.Setenv("AURIA_SEARCH_LIMIT", "")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if filepath.Base(cfg.CacheDir) != appCacheDirName {
		t.Fatalf("unexpected cache dir %q", cfg.CacheDir)
	}
	if cfg.SearchLimit != defaultSearchLimit {
		t.Fatalf("expected search limit %d, got %d", defaultSearchLimit, cfg.SearchLimit)
	}
	if cfg.CacheLimitBytes != 0 {
		t.Fatalf("expected unbounded cache by default, got %d", cfg.CacheLimitBytes)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "auria.toml")
	body := `cache_dir = "` + filepath.Join(dir, "cache") + `"
search_limit = 5
cache_limit_bytes = 1024
speaker_buffer_ms = 250
ffmpeg_path = "/opt/ffmpeg"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AURIA_SEARCH_LIMIT", "7")
	t.Setenv("AURIA_CACHE_DIR", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CacheDir != filepath.Join(dir, "cache") {
		t.Fatalf("file value not applied: %q", cfg.CacheDir)
	}
	if cfg.SearchLimit != 7 {
		t.Fatalf("env override not applied: %d", cfg.SearchLimit)
	}
	if cfg.CacheLimitBytes != 1024 {
		t.Fatalf("unexpected cache limit %d", cfg.CacheLimitBytes)
	}
	if cfg.SpeakerBuffer() != 250*time.Millisecond {
		t.Fatalf("unexpected speaker buffer %s", cfg.SpeakerBuffer())
	}
	if cfg.FFmpegPath != "/opt/ffmpeg" {
		t.Fatalf("unexpected ffmpeg path %q", cfg.FFmpegPath)
	}
}

func TestLoadConfigMissingFileIsIgnored(t *testing.T) {
	t.Setenv("AURIA_CACHE_DIR", "")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}
