package handlers

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/processor"
)

func strOpt(name, v string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: v}
}

func intOpt(name string, v float64) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionInteger, Value: v}
}

func TestIntentFor(t *testing.T) {
	t.Parallel()

	in, ok, err := intentFor(discordgo.ApplicationCommandInteractionData{
		Name:    "play",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{strOpt("query", " https://www.youtube.com/watch?v=abc ")},
	})
	if err != nil || !ok || in.Kind != processor.KindPlay || in.Locator != "https://www.youtube.com/watch?v=abc" {
		t.Fatalf("play: %+v %v %v", in, ok, err)
	}

	in, _, err = intentFor(discordgo.ApplicationCommandInteractionData{
		Name:    "search",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{strOpt("query", "lofi beats"), intOpt("limit", 3)},
	})
	if err != nil || in.Kind != processor.KindSearch || in.Query != "lofi beats" || in.Limit != 3 {
		t.Fatalf("search: %+v %v", in, err)
	}

	if in, ok, _ := intentFor(discordgo.ApplicationCommandInteractionData{Name: "pause"}); !ok || in.Kind != processor.KindPause {
		t.Fatalf("pause: %+v", in)
	}
	if in, ok, _ := intentFor(discordgo.ApplicationCommandInteractionData{Name: "resume"}); !ok || in.Kind != processor.KindResume {
		t.Fatalf("resume: %+v", in)
	}
	if _, ok, err := intentFor(discordgo.ApplicationCommandInteractionData{Name: "play", Options: []*discordgo.ApplicationCommandInteractionDataOption{strOpt("query", "  ")}}); !ok || !errors.Is(err, errNoQuery) {
		t.Fatalf("expected errNoQuery, got %v", err)
	}
	if _, ok, _ := intentFor(discordgo.ApplicationCommandInteractionData{Name: "now-playing"}); ok {
		t.Fatalf("now-playing is answered directly")
	}
}

func TestCommandsMatchIntentKinds(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, c := range Commands() {
		names[c.Name] = true
	}
	for _, want := range []string{"play", "pause", "resume", "search", "now-playing"} {
		if !names[want] {
			t.Fatalf("missing command %s", want)
		}
	}
}

type fakeEditor struct {
	edits []*discordgo.WebhookEdit
	to    []*discordgo.Interaction
}

func (f *fakeEditor) InteractionResponseEdit(it *discordgo.Interaction, e *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.to = append(f.to, it)
	f.edits = append(f.edits, e)
	return &discordgo.Message{}, nil
}

func TestDeliverRoutesToPendingInteraction(t *testing.T) {
	t.Parallel()

	h := NewCommandHandler(nil, nil, nil, logging.NewNop())
	it := &discordgo.Interaction{ID: "i1"}
	h.track("intent-1", it)

	ed := &fakeEditor{}
	h.Deliver(ed, processor.Result{Intent: processor.Intent{ID: "other"}})
	if len(ed.edits) != 0 {
		t.Fatalf("results for unknown intents must be ignored")
	}

	h.Deliver(ed, processor.Result{
		Intent: processor.Intent{ID: "intent-1", Kind: processor.KindPause},
		Status: player.Status{State: player.StatusPaused, Locator: "https://www.youtube.com/watch?v=abc"},
	})
	if len(ed.edits) != 1 || ed.to[0] != it {
		t.Fatalf("expected one edit to the pending interaction")
	}
	embeds := *ed.edits[0].Embeds
	if len(embeds) != 1 || embeds[0].Title != "Paused" {
		t.Fatalf("unexpected embeds %+v", embeds)
	}

	h.Deliver(ed, processor.Result{Intent: processor.Intent{ID: "intent-1"}})
	if len(ed.edits) != 1 {
		t.Fatalf("an interaction is answered once")
	}
}

// publishingSubmitter delivers each result before Submit returns, the way a
// fast worker can for pause or a cache hit.
type publishingSubmitter struct {
	h   *CommandHandler
	ed  *fakeEditor
	err error
}

func (p *publishingSubmitter) Submit(in processor.Intent) (processor.Intent, error) {
	if p.err != nil {
		return in, p.err
	}
	p.h.Deliver(p.ed, processor.Result{Intent: in, Status: player.Status{State: player.StatusPaused}})
	return in, nil
}

func (p *publishingSubmitter) Pending() int { return 0 }

func TestSubmitTracksBeforeQueuing(t *testing.T) {
	t.Parallel()

	ed := &fakeEditor{}
	sub := &publishingSubmitter{ed: ed}
	h := NewCommandHandler(sub, nil, nil, logging.NewNop())
	sub.h = h

	it := &discordgo.Interaction{ID: "i1"}
	queued, err := h.submit(processor.Pause(), it)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if queued.ID == "" {
		t.Fatalf("expected an intent id")
	}
	if len(ed.edits) != 1 || ed.to[0] != it {
		t.Fatalf("result published during Submit was not delivered")
	}
	if h.take(queued.ID) != nil {
		t.Fatalf("delivered interaction should no longer be pending")
	}
}

func TestSubmitFailureForgetsInteraction(t *testing.T) {
	t.Parallel()

	sub := &publishingSubmitter{err: processor.ErrClosed}
	h := NewCommandHandler(sub, nil, nil, logging.NewNop())

	if _, err := h.submit(processor.Resume(), &discordgo.Interaction{ID: "i2"}); !errors.Is(err, processor.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	h.mu.Lock()
	n := len(h.pending)
	h.mu.Unlock()
	if n != 0 {
		t.Fatalf("failed submissions must not leave pending interactions, got %d", n)
	}
}
