package config

import "time"

type Config struct {
	DataDir         string `toml:"data_dir"`
	CacheDir        string `toml:"cache_dir"`
	CacheLimitBytes int64  `toml:"cache_limit_bytes"` // 0 = unbounded
	DBPath          string `toml:"db_path"`

	YtdlpPath   string `toml:"ytdlp_path"`
	FFmpegPath  string `toml:"ffmpeg_path"`
	SearchLimit int    `toml:"search_limit"`

	SampleRate      int    `toml:"sample_rate"`
	SpeakerBufferMS int    `toml:"speaker_buffer_ms"`
	APIBind         string `toml:"api_bind"`
	LogLevel        string `toml:"log_level"`
	LogFormat       string `toml:"log_format"` // auto/console/json
	LogFile         string `toml:"log_file"`
	LogFileMaxMB    int    `toml:"log_file_max_mb"`
	LogFileBackups  int    `toml:"log_file_backups"`

	DiscordToken        string `toml:"discord_token"`
	DiscordGuildID      string `toml:"discord_guild_id"`
	SpotifyClientID     string `toml:"spotify_client_id"`
	SpotifyClientSecret string `toml:"spotify_client_secret"`
}

func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != ""
}

func (c *Config) SpeakerBuffer() time.Duration {
	return time.Duration(c.SpeakerBufferMS) * time.Millisecond
}
