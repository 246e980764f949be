package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/stream"
)

type fakeRunner struct {
	out     string
	err     error
	targets []string
}

func (f *fakeRunner) Run(_ context.Context, target string) (string, error) {
	f.targets = append(f.targets, target)
	return f.out, f.err
}

func TestSearchKeepsSameTitleDifferentLocators(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{out: `{"id":"abc","title":"Lofi Mix"}
{"id":"xyz","title":"Lofi Mix"}
`}
	s := New(r, 0, logging.NewNop())

	set, err := s.Search(context.Background(), "lofi beats", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 results, got %v", set.Sorted())
	}
	for _, id := range []string{"abc", "xyz"} {
		if !set.Contains(VideoDescriptor{Title: "Lofi Mix", Locator: LocatorPrefix + id}) {
			t.Fatalf("missing %s", id)
		}
	}
	if len(r.targets) != 1 || r.targets[0] != "ytsearch10:lofi beats" {
		t.Fatalf("unexpected targets %v", r.targets)
	}
}

func TestParseDeduplicatesByFullValue(t *testing.T) {
	t.Parallel()

	set, err := Parse(`{"id":"abc","title":"Song"}
{"id":"abc","title":"Song"}
{"id":"abc","title":"Song (Live)"}
`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected identical records to collapse and retitled ones to stay, got %v", set.Sorted())
	}
}

func TestParseMalformedLineAborts(t *testing.T) {
	t.Parallel()

	_, err := Parse("{\"id\":\"abc\",\"title\":\"ok\"}\nnot json\n")
	if !errors.Is(err, ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Line != 2 {
		t.Fatalf("expected failure on line 2, got %v", err)
	}
}

func TestParseEmptyOutput(t *testing.T) {
	t.Parallel()

	set, err := Parse("")
	if err != nil {
		t.Fatalf("empty output should not fail: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set")
	}
}

func TestParseMissingTitle(t *testing.T) {
	t.Parallel()

	set, err := Parse("{\"id\":\"q1\"}\n\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !set.Contains(VideoDescriptor{Title: UnknownTitle, Locator: LocatorPrefix + "q1"}) {
		t.Fatalf("unexpected set %v", set.Sorted())
	}
}

func TestParseWrongFieldTypesFallBack(t *testing.T) {
	t.Parallel()

	set, err := Parse(`{"id":"abc","title":123}
{"id":"xyz","title":"ok"}
{"id":7,"title":"numeric id"}
[1,2]
`)
	if err != nil {
		t.Fatalf("valid json must not abort the search: %v", err)
	}
	want := []VideoDescriptor{
		{Title: UnknownTitle, Locator: LocatorPrefix + "abc"},
		{Title: "ok", Locator: LocatorPrefix + "xyz"},
		{Title: "numeric id", Locator: LocatorPrefix},
		{Title: UnknownTitle, Locator: LocatorPrefix},
	}
	if set.Len() != len(want) {
		t.Fatalf("expected %d results, got %+v", len(want), set.Sorted())
	}
	for _, d := range want {
		if !set.Contains(d) {
			t.Fatalf("missing %+v in %+v", d, set.Sorted())
		}
	}
}

func TestIsURL(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{
		"https://www.youtube.com/watch?v=abc": true,
		" http://example.com/a.mp3 ":          true,
		"lofi beats":                          false,
		"spotify:track:abc":                   false,
		"www.youtube.com/watch?v=abc":         false,
		"":                                    false,
	} {
		if got := IsURL(in); got != want {
			t.Fatalf("IsURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSearchPropagatesToolFailure(t *testing.T) {
	t.Parallel()

	r := &fakeRunner{err: stream.NewToolError(stream.ToolDownloader, []byte("ERROR: offline"), errors.New("exit status 1"))}
	_, err := New(r, 5, logging.NewNop()).Search(context.Background(), "x", 0)
	if !errors.Is(err, stream.ErrExternalToolFailed) {
		t.Fatalf("expected tool failure, got %v", err)
	}
	if r.targets[0] != "ytsearch5:x" {
		t.Fatalf("expected configured default limit, got %v", r.targets)
	}
}

func TestYtdlpRunnerWithStub(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	exe := filepath.Join(dir, "yt-dlp")
	script := `#!/bin/sh
case "$*" in
  *--dump-json*) ;;
  *) exit 2 ;;
esac
echo '{"id":"abc","title":"Lofi Mix"}'
`
	if err := os.WriteFile(exe, []byte(script), 0o700); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	set, err := New(YtdlpRunner{Executable: exe}, 1, logging.NewNop()).Search(context.Background(), "lofi", 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("expected one result, got %v", set.Sorted())
	}
}
