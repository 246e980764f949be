package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"github.com/sonroyaalmerol/auria/internal/autocomplete"
	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/processor"
	"github.com/sonroyaalmerol/auria/internal/ui"
)

var errNoQuery = errors.New("a query is required")

type Submitter interface {
	Submit(in processor.Intent) (processor.Intent, error)
	Pending() int
}

type StatusSource interface {
	Status() player.Status
}

// responseEditor is the part of *discordgo.Session used to deliver results.
type responseEditor interface {
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type CommandHandler struct {
	proc    Submitter
	status  StatusSource
	suggest *autocomplete.Suggester
	logger  *slog.Logger

	mu      sync.Mutex
	pending map[string]*discordgo.Interaction
}

func NewCommandHandler(proc Submitter, status StatusSource, suggest *autocomplete.Suggester, logger *slog.Logger) *CommandHandler {
	return &CommandHandler{
		proc:    proc,
		status:  status,
		suggest: suggest,
		logger:  logger,
		pending: make(map[string]*discordgo.Interaction),
	}
}

func Commands() []*discordgo.ApplicationCommand {
	minLimit := 1.0
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Play a URL, a Spotify link or the first search hit",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "URL, link or search terms", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
			},
		},
		{Name: "pause", Description: "Pause playback"},
		{Name: "resume", Description: "Resume playback"},
		{
			Name:        "search",
			Description: "Search YouTube",
			Options: []*discordgo.ApplicationCommandOption{
				{Name: "query", Description: "search terms", Type: discordgo.ApplicationCommandOptionString, Required: true, Autocomplete: true},
				{Name: "limit", Description: "max results", Type: discordgo.ApplicationCommandOptionInteger, MinValue: &minLimit, MaxValue: 25},
			},
		},
		{Name: "now-playing", Description: "Show what is playing"},
	}
}

func (h *CommandHandler) RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	start := time.Now()
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	if err != nil {
		return err
	}
	h.logger.Info("registered application commands", "guildID", guildID, "took", time.Since(start))
	return nil
}

// intentFor maps a slash command to an intent. ok is false for commands that
// are answered directly.
func intentFor(data discordgo.ApplicationCommandInteractionData) (in processor.Intent, ok bool, err error) {
	opts := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, o := range data.Options {
		opts[o.Name] = o
	}
	query := ""
	if o, found := opts["query"]; found {
		query = strings.TrimSpace(o.StringValue())
	}

	switch data.Name {
	case "play":
		if query == "" {
			return in, true, errNoQuery
		}
		return processor.Play(query), true, nil
	case "pause":
		return processor.Pause(), true, nil
	case "resume":
		return processor.Resume(), true, nil
	case "search":
		if query == "" {
			return in, true, errNoQuery
		}
		limit := 0
		if o, found := opts["limit"]; found {
			limit = int(o.IntValue())
		}
		return processor.Search(query, limit), true, nil
	}
	return in, false, nil
}

func (h *CommandHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.logger.Debug("interaction: application command", "guildID", i.GuildID, "userID", userIDOf(i), "command", i.ApplicationCommandData().Name)
		h.handleChatCommand(s, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		h.handleAutocomplete(s, i)
	default:
		h.logger.Debug("interaction: ignored type", "type", i.Type, "guildID", i.GuildID)
	}
}

func (h *CommandHandler) handleChatCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name == "now-playing" {
		h.respondEmbed(s, i, ui.BuildStatusEmbed(h.status.Status(), h.proc.Pending()))
		return
	}

	in, ok, err := intentFor(data)
	if !ok {
		h.logger.Debug("unknown command", "name", data.Name, "guildID", i.GuildID)
		return
	}
	if err != nil {
		h.reply(s, i, err.Error(), true)
		return
	}
	in.Source = "discord:" + userIDOf(i)

	h.deferReply(s, i)
	queued, err := h.submit(in, i.Interaction)
	if err != nil {
		h.editReply(s, i.Interaction, err.Error())
		return
	}
	h.logger.Info("cmd "+data.Name, "guildID", i.GuildID, "userID", userIDOf(i), "intent", queued.ID)
}

// submit registers the interaction under a fresh intent ID before queuing, so
// a result published while Submit is still returning finds its reply.
func (h *CommandHandler) submit(in processor.Intent, it *discordgo.Interaction) (processor.Intent, error) {
	in.ID = uuid.NewString()
	h.track(in.ID, it)
	queued, err := h.proc.Submit(in)
	if err != nil {
		h.take(in.ID)
		return queued, err
	}
	return queued, nil
}

func (h *CommandHandler) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused {
			query = opt.StringValue()
			break
		}
	}
	choices := []*discordgo.ApplicationCommandOptionChoice{}
	if strings.TrimSpace(query) != "" && h.suggest != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		got, err := h.suggest.Choices(ctx, query, 10)
		cancel()
		if err != nil {
			h.logger.Debug("autocomplete suggestions error", "err", err)
		}
		choices = append(choices, got...)
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

func (h *CommandHandler) track(id string, it *discordgo.Interaction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending[id] = it
}

func (h *CommandHandler) take(id string) *discordgo.Interaction {
	h.mu.Lock()
	defer h.mu.Unlock()
	it := h.pending[id]
	delete(h.pending, id)
	return it
}

// Deliver posts a processor result into the interaction that asked for it.
// Results for intents submitted elsewhere are ignored.
func (h *CommandHandler) Deliver(s responseEditor, res processor.Result) {
	it := h.take(res.Intent.ID)
	if it == nil {
		return
	}
	embeds := []*discordgo.MessageEmbed{ui.BuildResultEmbed(res)}
	if _, err := s.InteractionResponseEdit(it, &discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
		h.logger.Warn("deliver result failed", "intent", res.Intent.ID, "err", err)
	}
}

func (h *CommandHandler) reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content, Flags: flags},
	}); err != nil {
		h.logger.Warn("reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, e *discordgo.MessageEmbed) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{e}},
	}); err != nil {
		h.logger.Warn("reply failed", "guildID", i.GuildID, "err", err)
	}
}

func (h *CommandHandler) deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		h.logger.Warn("defer reply failed", "guildID", i.GuildID, "userID", userIDOf(i), "err", err)
	}
}

func (h *CommandHandler) editReply(s responseEditor, it *discordgo.Interaction, content string) {
	if _, err := s.InteractionResponseEdit(it, &discordgo.WebhookEdit{Content: &content}); err != nil {
		h.logger.Warn("edit reply failed", "err", err)
	}
}

func userIDOf(i *discordgo.InteractionCreate) string {
	if i == nil {
		return ""
	}
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
