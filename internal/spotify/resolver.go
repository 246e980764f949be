package spotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/search"
)

var ErrNoMatch = errors.New("no playable match")

// Catalog is the part of the Spotify client the resolver needs.
type Catalog interface {
	Tracks(ctx context.Context, link Link, limit int) ([]Track, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) (search.ResultSet, error)
}

// Resolver turns Spotify links into downloader locators by searching for the
// track's title and artist. Albums, playlists and artists resolve to their
// first track.
type Resolver struct {
	catalog  Catalog
	searcher Searcher
	logger   *slog.Logger
}

func NewResolver(catalog Catalog, searcher Searcher, logger *slog.Logger) *Resolver {
	return &Resolver{catalog: catalog, searcher: searcher, logger: logging.Component(logger, "spotify")}
}

// Resolve returns locator unchanged unless it is a Spotify link.
func (r *Resolver) Resolve(ctx context.Context, locator string) (string, error) {
	if !IsLink(locator) {
		return locator, nil
	}
	link, err := ParseLink(locator)
	if err != nil {
		return "", err
	}
	tracks, err := r.catalog.Tracks(ctx, link, 1)
	if err != nil {
		return "", fmt.Errorf("spotify %s: %w", link, err)
	}
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w: %s is empty", ErrNoMatch, link)
	}

	query := Query(tracks[0])
	set, err := r.searcher.Search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	hits := set.Sorted()
	if len(hits) == 0 {
		return "", fmt.Errorf("%w for %q", ErrNoMatch, query)
	}
	r.logger.Info("resolved spotify link", "link", locator, "query", query, "locator", hits[0].Locator)
	return hits[0].Locator, nil
}

// Query is the search text used for a track.
func Query(t Track) string {
	return strings.TrimSpace(t.Name + " " + t.Artist)
}
