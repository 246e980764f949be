package stream

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/metrics"
)

var errEmptyOutput = errors.New("no audio produced")

// Store is the subset of the file cache the pipeline needs.
type Store interface {
	Exists(locator string) bool
	Read(ctx context.Context, locator string) ([]byte, error)
	Write(ctx context.Context, locator string, data []byte) error
}

// Acquirer turns a locator into playable audio bytes.
type Acquirer interface {
	Acquire(ctx context.Context, locator string) ([]byte, error)
}

type Pipeline struct {
	store      Store
	downloader string
	transcoder string
	logger     *slog.Logger
}

func NewPipeline(store Store, downloader, transcoder string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		downloader: downloader,
		transcoder: transcoder,
		logger:     logging.Component(logger, "pipeline"),
	}
}

// Acquire returns cached audio for locator, or downloads and transcodes it and
// stores the result. Cache write failures are logged and do not fail the call.
func (p *Pipeline) Acquire(ctx context.Context, locator string) ([]byte, error) {
	if p.store.Exists(locator) {
		data, err := p.store.Read(ctx, locator)
		if err == nil && len(data) > 0 {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			p.logger.Debug("cache hit", "locator", locator, "bytes", len(data))
			return data, nil
		}
		p.logger.Warn("cached audio unreadable, refetching", "locator", locator, "err", err)
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	start := time.Now()
	data, err := p.fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	metrics.AcquireLatency.Observe(time.Since(start).Seconds())
	p.logger.Info("fetched audio", "locator", locator, "bytes", len(data), "took", time.Since(start))

	if err := p.store.Write(ctx, locator, data); err != nil {
		p.logger.Warn("cache write failed", "locator", locator, "err", err)
	}
	return data, nil
}

// fetch runs the downloader with its stdout wired straight into the
// transcoder's stdin and collects the transcoder's stdout.
func (p *Pipeline) fetch(ctx context.Context, locator string) ([]byte, error) {
	dl := DownloadCommand(ctx, p.downloader, locator)
	tc := TranscodeCommand(ctx, p.transcoder)

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, NewToolError(ToolDownloader, nil, err)
	}

	var dlErr, tcErr, out bytes.Buffer
	dl.Stdout = pw
	dl.Stderr = &dlErr
	tc.Stdin = pr
	tc.Stdout = &out
	tc.Stderr = &tcErr

	if err := dl.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, NewToolError(ToolDownloader, nil, err)
	}
	if err := tc.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		_ = dl.Process.Kill()
		_ = dl.Wait()
		return nil, NewToolError(ToolTranscoder, nil, err)
	}
	// Both children hold their own copies now.
	_ = pr.Close()
	_ = pw.Close()

	tcWait := tc.Wait()
	dlWait := dl.Wait()

	if dlWait != nil {
		return nil, NewToolError(ToolDownloader, dlErr.Bytes(), dlWait)
	}
	if tcWait != nil {
		return nil, NewToolError(ToolTranscoder, tcErr.Bytes(), tcWait)
	}
	if out.Len() == 0 {
		return nil, NewToolError(ToolTranscoder, tcErr.Bytes(), errEmptyOutput)
	}
	return out.Bytes(), nil
}
