package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/search"
	"github.com/sonroyaalmerol/auria/internal/stream"
)

type fakeAcquirer struct {
	entered chan string
	release map[string]chan struct{}
	data    map[string][]byte
	err     map[string]error
}

func (f *fakeAcquirer) Acquire(ctx context.Context, locator string) ([]byte, error) {
	if f.entered != nil {
		f.entered <- locator
	}
	if ch, ok := f.release[locator]; ok {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.err[locator]; err != nil {
		return nil, err
	}
	if d, ok := f.data[locator]; ok {
		return d, nil
	}
	return []byte("audio:" + locator), nil
}

type fakeEngine struct {
	mu      sync.Mutex
	ops     []string
	current string
	state   player.PlayerStatus
}

func (e *fakeEngine) Decode(locator string, data []byte) (*player.Track, error) {
	if string(data) == "garbage" {
		return nil, player.ErrDecodeFailed
	}
	return &player.Track{Locator: locator}, nil
}

func (e *fakeEngine) Start(t *player.Track) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = append(e.ops, "start:"+t.Locator)
	e.current = t.Locator
	e.state = player.StatusPlaying
}

func (e *fakeEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = append(e.ops, "pause")
	if e.state == player.StatusPlaying {
		e.state = player.StatusPaused
	}
	return nil
}

func (e *fakeEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ops = append(e.ops, "resume")
	if e.state == player.StatusPaused {
		e.state = player.StatusPlaying
	}
	return nil
}

func (e *fakeEngine) Status() player.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return player.Status{State: e.state, Locator: e.current}
}

func (e *fakeEngine) opsSnapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.ops...)
}

type fakeSearcher struct {
	set search.ResultSet
	err error
}

func (s fakeSearcher) Search(context.Context, string, int) (search.ResultSet, error) {
	return s.set, s.err
}

func startProcessor(t *testing.T, d Deps) (*Processor, <-chan Result) {
	t.Helper()
	results := make(chan Result, 32)
	d.Sink = SinkFunc(func(r Result) { results <- r })
	d.Logger = logging.NewNop()
	p := New(d)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p, results
}

func next(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for result")
		return Result{}
	}
}

func TestIntentsRunInSubmissionOrder(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	acq := &fakeAcquirer{
		entered: make(chan string, 1),
		release: map[string]chan struct{}{"x": release},
	}
	eng := &fakeEngine{}
	p, results := startProcessor(t, Deps{Acquirer: acq, Engine: eng})

	for _, in := range []Intent{Play("x"), Pause(), Resume()} {
		if _, err := p.Submit(in); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	<-acq.entered
	time.Sleep(20 * time.Millisecond)
	if ops := eng.opsSnapshot(); len(ops) != 0 {
		t.Fatalf("nothing should reach the engine while x is loading, got %v", ops)
	}
	if p.Pending() != 2 {
		t.Fatalf("expected pause and resume queued, got %d", p.Pending())
	}
	close(release)

	var kinds []Kind
	for i := 0; i < 3; i++ {
		r := next(t, results)
		if !r.OK() {
			t.Fatalf("unexpected error for %s: %s", r.Intent.Kind, r.Error)
		}
		kinds = append(kinds, r.Intent.Kind)
	}
	if kinds[0] != KindPlay || kinds[1] != KindPause || kinds[2] != KindResume {
		t.Fatalf("results out of order: %v", kinds)
	}
	want := []string{"start:x", "pause", "resume"}
	got := eng.opsSnapshot()
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ops = %v, want %v", got, want)
		}
	}
}

func TestFailedPlayKeepsCurrentTrack(t *testing.T) {
	t.Parallel()

	acq := &fakeAcquirer{
		data: map[string][]byte{"corrupt": []byte("garbage")},
		err: map[string]error{
			"offline": stream.NewToolError(stream.ToolDownloader, []byte("network unreachable"), errors.New("exit status 1")),
		},
	}
	eng := &fakeEngine{}
	p, results := startProcessor(t, Deps{Acquirer: acq, Engine: eng})

	_, _ = p.Submit(Play("a"))
	_, _ = p.Submit(Play("offline"))
	_, _ = p.Submit(Play("corrupt"))

	if r := next(t, results); !r.OK() {
		t.Fatalf("play a: %s", r.Error)
	}
	r := next(t, results)
	if r.OK() || !errors.Is(r.Err(), stream.ErrExternalToolFailed) {
		t.Fatalf("expected tool failure, got %+v", r)
	}
	r = next(t, results)
	if !errors.Is(r.Err(), player.ErrDecodeFailed) {
		t.Fatalf("expected decode failure, got %+v", r)
	}
	if r.Status.Locator != "a" || r.Status.State != player.StatusPlaying {
		t.Fatalf("current track should be untouched, got %+v", r.Status)
	}
	if ops := eng.opsSnapshot(); len(ops) != 1 {
		t.Fatalf("engine should only have started a, got %v", ops)
	}
}

func TestErrorsDoNotStopProcessing(t *testing.T) {
	t.Parallel()

	set := search.ResultSet{}
	set.Add(search.VideoDescriptor{Title: "Lofi Mix", Locator: search.LocatorPrefix + "abc"})
	broken := search.LocatorPrefix + "broken"
	acq := &fakeAcquirer{err: map[string]error{broken: errors.New("boom")}}
	p, results := startProcessor(t, Deps{
		Acquirer: acq,
		Engine:   &fakeEngine{},
		Searcher: fakeSearcher{set: set},
	})

	_, _ = p.Submit(Play(broken))
	_, _ = p.Submit(Search("lofi beats", 0))
	_, _ = p.Submit(Search("", 0))

	if r := next(t, results); r.OK() {
		t.Fatalf("expected play failure")
	}
	r := next(t, results)
	if !r.OK() || r.Results.Len() != 1 {
		t.Fatalf("search should still run, got %+v", r)
	}
	if r := next(t, results); !errors.Is(r.Err(), ErrMissingQuery) {
		t.Fatalf("expected missing query error, got %v", r.Err())
	}
}

func TestPauseWhileIdleSucceeds(t *testing.T) {
	t.Parallel()

	p, results := startProcessor(t, Deps{Acquirer: &fakeAcquirer{}, Engine: &fakeEngine{}})
	_, _ = p.Submit(Pause())
	_, _ = p.Submit(Resume())
	for i := 0; i < 2; i++ {
		r := next(t, results)
		if !r.OK() || r.Status.State != player.StatusIdle {
			t.Fatalf("unexpected result %+v", r)
		}
	}
}

type resolverFunc func(context.Context, string) (string, error)

func (f resolverFunc) Resolve(ctx context.Context, l string) (string, error) { return f(ctx, l) }

func TestPlayUsesResolver(t *testing.T) {
	t.Parallel()

	eng := &fakeEngine{}
	p, results := startProcessor(t, Deps{
		Acquirer: &fakeAcquirer{},
		Engine:   eng,
		Resolver: resolverFunc(func(_ context.Context, l string) (string, error) {
			if l == "spotify:track:1" {
				return "https://www.youtube.com/watch?v=abc", nil
			}
			return l, nil
		}),
	})
	_, _ = p.Submit(Play("spotify:track:1"))
	if r := next(t, results); !r.OK() || r.Status.Locator != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestPlayFreeTextUsesFirstSearchHit(t *testing.T) {
	t.Parallel()

	set := search.ResultSet{}
	set.Add(search.VideoDescriptor{Title: "Lofi Mix", Locator: search.LocatorPrefix + "abc"})
	eng := &fakeEngine{}
	p, results := startProcessor(t, Deps{
		Acquirer: &fakeAcquirer{},
		Engine:   eng,
		Searcher: fakeSearcher{set: set},
	})

	_, _ = p.Submit(Play("lofi beats"))
	if r := next(t, results); !r.OK() || r.Status.Locator != search.LocatorPrefix+"abc" {
		t.Fatalf("unexpected result %+v", r)
	}
}

func TestPlayFreeTextWithoutHits(t *testing.T) {
	t.Parallel()

	set := search.ResultSet{}
	set.Add(search.VideoDescriptor{Title: search.UnknownTitle, Locator: search.LocatorPrefix})
	eng := &fakeEngine{}
	p, results := startProcessor(t, Deps{
		Acquirer: &fakeAcquirer{},
		Engine:   eng,
		Searcher: fakeSearcher{set: set},
	})

	_, _ = p.Submit(Play("nothing matches"))
	if r := next(t, results); !errors.Is(r.Err(), ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", r.Err())
	}
	if ops := eng.opsSnapshot(); len(ops) != 0 {
		t.Fatalf("engine should be untouched, got %v", ops)
	}
}

func TestPlaySpotifyLinkWithoutResolver(t *testing.T) {
	t.Parallel()

	p, results := startProcessor(t, Deps{
		Acquirer: &fakeAcquirer{},
		Engine:   &fakeEngine{},
		Searcher: fakeSearcher{set: search.ResultSet{}},
	})
	_, _ = p.Submit(Play("https://open.spotify.com/track/abc"))
	if r := next(t, results); !errors.Is(r.Err(), ErrNoResolver) {
		t.Fatalf("expected ErrNoResolver, got %v", r.Err())
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	p := New(Deps{Engine: &fakeEngine{}, Logger: logging.NewNop()})
	if _, err := p.Submit(Intent{Kind: "skip"}); !errors.Is(err, ErrUnknownIntent) {
		t.Fatalf("expected unknown intent, got %v", err)
	}
	in, err := p.Submit(Pause())
	if err != nil || in.ID == "" {
		t.Fatalf("expected id assigned, got %+v %v", in, err)
	}
	p.Close()
	if _, err := p.Submit(Pause()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("run on closed processor should return immediately, got %v", err)
	}
}

func TestRunRejectsSecondWorker(t *testing.T) {
	t.Parallel()

	p, _ := startProcessor(t, Deps{Acquirer: &fakeAcquirer{}, Engine: &fakeEngine{}})
	deadline := time.Now().Add(2 * time.Second)
	for !p.running.Load() {
		if time.Now().After(deadline) {
			t.Fatalf("worker did not start")
		}
		time.Sleep(time.Millisecond)
	}
	if err := p.Run(context.Background()); !errors.Is(err, ErrRunning) {
		t.Fatalf("expected ErrRunning, got %v", err)
	}
}
