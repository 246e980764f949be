// Package search runs catalog searches through yt-dlp and parses its
// line-delimited JSON output.
package search

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/sonroyaalmerol/auria/internal/logging"
)

const (
	LocatorPrefix = "https://www.youtube.com/watch?v="
	UnknownTitle  = "Unknown title"
	DefaultLimit  = 10
)

var ErrParseFailed = errors.New("search output parse failed")

type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("search output line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParseFailed }

// VideoDescriptor identifies one result. Two descriptors are the same result
// only when both title and locator match.
type VideoDescriptor struct {
	Title   string `json:"title"`
	Locator string `json:"locator"`
}

// ResultSet is a deduplicated set of descriptors.
type ResultSet map[VideoDescriptor]struct{}

func (s ResultSet) Add(d VideoDescriptor) { s[d] = struct{}{} }

func (s ResultSet) Contains(d VideoDescriptor) bool {
	_, ok := s[d]
	return ok
}

func (s ResultSet) Len() int { return len(s) }

// Sorted returns the descriptors ordered by title, then locator, for display.
func (s ResultSet) Sorted() []VideoDescriptor {
	out := make([]VideoDescriptor, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].Locator < out[j].Locator
	})
	return out
}

// MarshalJSON emits the set as a sorted array.
func (s ResultSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// descriptorFrom reads id and title from a decoded record. Fields that are
// missing or not strings fall back to an empty id and UnknownTitle, as does a
// record that is not an object.
func descriptorFrom(v any) VideoDescriptor {
	d := VideoDescriptor{Title: UnknownTitle, Locator: LocatorPrefix}
	obj, ok := v.(map[string]any)
	if !ok {
		return d
	}
	if title, ok := obj["title"].(string); ok {
		d.Title = title
	}
	if id, ok := obj["id"].(string); ok {
		d.Locator = LocatorPrefix + id
	}
	return d
}

// IsURL reports whether locator is an absolute URL the downloader can fetch
// directly, as opposed to free search text.
func IsURL(locator string) bool {
	u, err := url.Parse(strings.TrimSpace(locator))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Parse reads one JSON object per line. Blank lines are skipped; any other
// line that is not valid JSON fails the whole parse. Valid JSON of the wrong
// shape still yields a descriptor.
func Parse(out string) (ResultSet, error) {
	set := ResultSet{}
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			return nil, &ParseError{Line: n, Err: err}
		}
		set.Add(descriptorFrom(v))
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Line: n + 1, Err: err}
	}
	return set, nil
}

// Runner executes the search tool for a target such as "ytsearch10:query"
// and returns its stdout.
type Runner interface {
	Run(ctx context.Context, target string) (string, error)
}

// Searcher is safe for concurrent use.
type Searcher struct {
	runner Runner
	limit  int
	logger *slog.Logger
}

func New(runner Runner, defaultLimit int, logger *slog.Logger) *Searcher {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Searcher{runner: runner, limit: defaultLimit, logger: logging.Component(logger, "search")}
}

// Target formats the provider search expression for query.
func Target(query string, limit int) string {
	return fmt.Sprintf("ytsearch%d:%s", limit, query)
}

// Search returns at most limit results (fewer after deduplication). A limit of
// zero uses the configured default.
func (s *Searcher) Search(ctx context.Context, query string, limit int) (ResultSet, error) {
	if limit <= 0 {
		limit = s.limit
	}
	out, err := s.runner.Run(ctx, Target(query, limit))
	if err != nil {
		return nil, err
	}
	set, err := Parse(out)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("search complete", "query", query, "results", set.Len())
	return set, nil
}
