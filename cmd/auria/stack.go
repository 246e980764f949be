package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sonroyaalmerol/auria/internal/cache"
	"github.com/sonroyaalmerol/auria/internal/config"
	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/metrics"
	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/player/device"
	"github.com/sonroyaalmerol/auria/internal/processor"
	"github.com/sonroyaalmerol/auria/internal/repository"
	"github.com/sonroyaalmerol/auria/internal/search"
	"github.com/sonroyaalmerol/auria/internal/spotify"
	"github.com/sonroyaalmerol/auria/internal/stream"
)

// stack is everything behind the command processor.
type stack struct {
	repo     *repository.Repo
	cache    *cache.FileCache
	searcher *search.Searcher
	engine   *player.Engine
	hub      *processor.Hub
	proc     *processor.Processor
}

// openCache opens the sqlite index and the file cache. A broken index is
// logged and the cache falls back to file modification times.
func openCache(cfg *config.Config, logger *slog.Logger) (*cache.FileCache, *repository.Repo) {
	var (
		repo *repository.Repo
		idx  cache.Index
	)
	db, err := repository.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Warn("cache index unavailable, using file times", "db", cfg.DBPath, "err", err)
	} else {
		repo = repository.NewRepo(db)
		idx = repo
	}
	return cache.NewFileCache(cfg.CacheDir, cfg.CacheLimitBytes, idx, logger), repo
}

func newSearcher(cfg *config.Config, logger *slog.Logger) *search.Searcher {
	return search.New(search.YtdlpRunner{Executable: cfg.YtdlpPath}, cfg.SearchLimit, logger)
}

func buildStack(cfg *config.Config, logger *slog.Logger) (*stack, error) {
	metrics.Register()

	out, err := device.NewSpeakerOutput(cfg.SampleRate, cfg.SpeakerBuffer())
	if err != nil {
		return nil, fmt.Errorf("audio output: %w", err)
	}

	fc, repo := openCache(cfg, logger)
	s := &stack{
		repo:     repo,
		cache:    fc,
		searcher: newSearcher(cfg, logger),
		engine:   player.NewEngine(out, player.MP3Decoder{}, cfg.SampleRate, logger),
		hub:      processor.NewHub(logger),
	}

	var resolver processor.Resolver
	if cfg.SpotifyEnabled() {
		client := spotify.NewClientCredentials(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
		resolver = spotify.NewResolver(client, s.searcher, logger)
	}

	s.proc = processor.New(processor.Deps{
		Acquirer: stream.NewPipeline(fc, cfg.YtdlpPath, cfg.FFmpegPath, logger),
		Engine:   s.engine,
		Searcher: s.searcher,
		Resolver: resolver,
		Sink:     s.hub,
		Logger:   logger,
	})
	logging.Component(logger, "stack").Debug("stack ready",
		"cache_dir", cfg.CacheDir, "cache_limit", cfg.CacheLimitBytes, "spotify", cfg.SpotifyEnabled())
	return s, nil
}

func (s *stack) close() error {
	var errs []error
	if s.proc != nil {
		s.proc.Close()
	}
	if s.engine != nil {
		errs = append(errs, s.engine.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}
