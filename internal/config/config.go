package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	appCacheDirName    = "auria_audio_cache"
	defaultSearchLimit = 10
	defaultSampleRate  = 44100
	defaultAPIBind     = "127.0.0.1:7480"
)

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func mustAtoi64(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Default returns a Config rooted at the platform cache and data locations.
func Default() *Config {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		base = "."
	}
	dataDir := filepath.Join(base, "auria")
	return &Config{
		DataDir:         dataDir,
		CacheDir:        filepath.Join(base, appCacheDirName),
		DBPath:          filepath.Join(dataDir, "auria.db"),
		YtdlpPath:       "yt-dlp",
		FFmpegPath:      "ffmpeg",
		SearchLimit:     defaultSearchLimit,
		SampleRate:      defaultSampleRate,
		SpeakerBufferMS: 100,
		APIBind:         defaultAPIBind,
		LogLevel:        "info",
		LogFormat:       "auto",
		LogFileMaxMB:    20,
		LogFileBackups:  3,
	}
}

// LoadConfig layers an optional TOML file and AURIA_* environment variables
// over Default. An empty path skips the file; a missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	path = strings.TrimSpace(path)
	if path == "" {
		path = os.Getenv("AURIA_CONFIG")
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	normalize(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.DataDir = getenv("AURIA_DATA_DIR", cfg.DataDir)
	cfg.CacheDir = getenv("AURIA_CACHE_DIR", cfg.CacheDir)
	cfg.DBPath = getenv("AURIA_DB_PATH", cfg.DBPath)
	if v := os.Getenv("AURIA_CACHE_LIMIT"); v != "" {
		cfg.CacheLimitBytes = mustAtoi64(v)
	}
	cfg.YtdlpPath = getenv("AURIA_YTDLP", cfg.YtdlpPath)
	cfg.FFmpegPath = getenv("AURIA_FFMPEG", cfg.FFmpegPath)
	if v := os.Getenv("AURIA_SEARCH_LIMIT"); v != "" {
		cfg.SearchLimit = int(mustAtoi64(v))
	}
	cfg.APIBind = getenv("AURIA_API_BIND", cfg.APIBind)
	cfg.LogLevel = getenv("AURIA_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getenv("AURIA_LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getenv("AURIA_LOG_FILE", cfg.LogFile)
	cfg.DiscordToken = getenv("DISCORD_TOKEN", cfg.DiscordToken)
	cfg.DiscordGuildID = getenv("DISCORD_GUILD_ID", cfg.DiscordGuildID)
	cfg.SpotifyClientID = getenv("SPOTIFY_CLIENT_ID", cfg.SpotifyClientID)
	cfg.SpotifyClientSecret = getenv("SPOTIFY_CLIENT_SECRET", cfg.SpotifyClientSecret)
}

func normalize(cfg *Config) {
	cfg.DataDir = expandHome(strings.TrimSpace(cfg.DataDir))
	cfg.CacheDir = expandHome(strings.TrimSpace(cfg.CacheDir))
	cfg.DBPath = expandHome(strings.TrimSpace(cfg.DBPath))
	cfg.LogFile = expandHome(strings.TrimSpace(cfg.LogFile))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.SpeakerBufferMS <= 0 {
		cfg.SpeakerBufferMS = 100
	}
	if cfg.CacheLimitBytes < 0 {
		cfg.CacheLimitBytes = 0
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return ErrConfig("cache_dir required")
	}
	if c.YtdlpPath == "" || c.FFmpegPath == "" {
		return ErrConfig("ytdlp_path and ffmpeg_path required")
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return ErrConfig(fmt.Sprintf("unsupported log_format %q", c.LogFormat))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrConfig(fmt.Sprintf("unsupported log_level %q", c.LogLevel))
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
