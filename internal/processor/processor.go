// Package processor executes playback and search intents one at a time, in
// the order they were submitted.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/metrics"
	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/search"
	"github.com/sonroyaalmerol/auria/internal/spotify"
	"github.com/sonroyaalmerol/auria/internal/stream"
)

var (
	ErrClosed         = errors.New("processor closed")
	ErrRunning        = errors.New("processor already running")
	ErrUnknownIntent  = errors.New("unknown intent")
	ErrMissingLocator = errors.New("play requires a locator")
	ErrMissingQuery   = errors.New("search requires a query")
	ErrNoMatch        = errors.New("no search result to play")
	ErrNoResolver     = errors.New("spotify links need spotify credentials")
)

// Engine is the playback surface the worker drives.
type Engine interface {
	Decode(locator string, data []byte) (*player.Track, error)
	Start(t *player.Track)
	Pause() error
	Resume() error
	Status() player.Status
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) (search.ResultSet, error)
}

// Resolver maps a Spotify link to a locator the downloader can fetch.
type Resolver interface {
	Resolve(ctx context.Context, locator string) (string, error)
}

type Deps struct {
	Acquirer stream.Acquirer
	Engine   Engine
	Searcher Searcher
	Resolver Resolver
	Sink     Sink
	Logger   *slog.Logger
}

type Processor struct {
	deps    Deps
	queue   *intentQueue
	logger  *slog.Logger
	running atomic.Bool
	now     func() time.Time
}

func New(d Deps) *Processor {
	if d.Sink == nil {
		d.Sink = SinkFunc(func(Result) {})
	}
	return &Processor{
		deps:   d,
		queue:  newIntentQueue(),
		logger: logging.Component(d.Logger, "processor"),
		now:    time.Now,
	}
}

// Submit enqueues in and returns it with its ID filled in. It never blocks.
func (p *Processor) Submit(in Intent) (Intent, error) {
	if !in.Kind.Valid() {
		return in, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Kind)
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	in.Submitted = p.now()
	if !p.queue.Push(in) {
		return in, ErrClosed
	}
	p.logger.Debug("intent queued", "id", in.ID, "kind", in.Kind)
	return in, nil
}

// Pending reports how many intents are waiting behind the one in flight.
func (p *Processor) Pending() int { return p.queue.Len() }

// Run executes intents until ctx is cancelled or Close is called. Only one
// Run may be active at a time.
func (p *Processor) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer p.running.Store(false)

	stop := context.AfterFunc(ctx, p.queue.Close)
	defer stop()

	p.logger.Info("processor started")
	for {
		in, ok := p.queue.Pop()
		if !ok {
			p.logger.Info("processor stopped")
			if err := ctx.Err(); err != nil {
				return err
			}
			return nil
		}
		p.execute(ctx, in)
	}
}

// Close stops the worker after the intent in flight. Queued intents are
// discarded and further submissions fail with ErrClosed.
func (p *Processor) Close() { p.queue.Close() }

func (p *Processor) execute(ctx context.Context, in Intent) {
	start := p.now()
	res := Result{Intent: in}

	var err error
	switch in.Kind {
	case KindPlay:
		err = p.play(ctx, in.Locator)
	case KindPause:
		err = p.deps.Engine.Pause()
	case KindResume:
		err = p.deps.Engine.Resume()
	case KindSearch:
		res.Results, err = p.search(ctx, in)
	}

	res.Status = p.deps.Engine.Status()
	res.Finished = p.now()
	res.Took = res.Finished.Sub(start)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		res.err = err
		res.Error = err.Error()
		p.logger.Warn("intent failed", "id", in.ID, "kind", in.Kind, "err", err)
	} else {
		p.logger.Info("intent done", "id", in.ID, "kind", in.Kind, "took", res.Took)
	}
	metrics.Intents.WithLabelValues(string(in.Kind), outcome).Inc()
	p.deps.Sink.Publish(res)
}

// play only touches the engine once audio has been fetched and decoded, so a
// failure keeps whatever was already playing.
func (p *Processor) play(ctx context.Context, locator string) error {
	if locator == "" {
		return ErrMissingLocator
	}
	locator, err := p.resolve(ctx, locator)
	if err != nil {
		return err
	}
	data, err := p.deps.Acquirer.Acquire(ctx, locator)
	if err != nil {
		return err
	}
	track, err := p.deps.Engine.Decode(locator, data)
	if err != nil {
		return err
	}
	p.deps.Engine.Start(track)
	return nil
}

// resolve turns whatever the user typed into a URL for the downloader:
// Spotify links go through the Resolver, free text plays the first search hit.
func (p *Processor) resolve(ctx context.Context, locator string) (string, error) {
	switch {
	case spotify.IsLink(locator):
		if p.deps.Resolver == nil {
			return "", ErrNoResolver
		}
		resolved, err := p.deps.Resolver.Resolve(ctx, locator)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", locator, err)
		}
		return resolved, nil
	case search.IsURL(locator) || p.deps.Searcher == nil:
		return locator, nil
	}

	set, err := p.deps.Searcher.Search(ctx, locator, 1)
	if err != nil {
		return "", fmt.Errorf("search %q: %w", locator, err)
	}
	for _, hit := range set.Sorted() {
		if hit.Locator != search.LocatorPrefix {
			p.logger.Debug("playing first search hit", "query", locator, "locator", hit.Locator)
			return hit.Locator, nil
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNoMatch, locator)
}

func (p *Processor) search(ctx context.Context, in Intent) (search.ResultSet, error) {
	if in.Query == "" {
		return nil, ErrMissingQuery
	}
	if p.deps.Searcher == nil {
		return nil, errors.New("search is not configured")
	}
	return p.deps.Searcher.Search(ctx, in.Query, in.Limit)
}
