package processor

import (
	"time"

	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/search"
)

type Kind string

const (
	KindPlay   Kind = "play"
	KindPause  Kind = "pause"
	KindResume Kind = "resume"
	KindSearch Kind = "search"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPlay, KindPause, KindResume, KindSearch:
		return true
	}
	return false
}

// Intent is a user command waiting to be executed.
type Intent struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Locator   string    `json:"locator,omitempty"`
	Query     string    `json:"query,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Source    string    `json:"source,omitempty"`
	Submitted time.Time `json:"submitted"`
}

func Play(locator string) Intent { return Intent{Kind: KindPlay, Locator: locator} }
func Pause() Intent              { return Intent{Kind: KindPause} }
func Resume() Intent             { return Intent{Kind: KindResume} }

func Search(query string, limit int) Intent {
	return Intent{Kind: KindSearch, Query: query, Limit: limit}
}

// Result is published once per executed intent.
type Result struct {
	Intent   Intent           `json:"intent"`
	Error    string           `json:"error,omitempty"`
	Results  search.ResultSet `json:"results,omitempty"`
	Status   player.Status    `json:"status"`
	Finished time.Time        `json:"finished"`
	Took     time.Duration    `json:"took_ns"`

	err error
}

func (r Result) OK() bool { return r.Error == "" }

// Err returns the original error, if any. It is not serialized.
func (r Result) Err() error { return r.err }

// Sink receives results. Publish must not block for long; it runs on the
// worker goroutine.
type Sink interface {
	Publish(Result)
}

type SinkFunc func(Result)

func (f SinkFunc) Publish(r Result) { f(r) }
