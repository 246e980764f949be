// Package handlers is the Discord front end. Slash commands become processor
// intents and results are posted back as interaction edits.
package handlers

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/auria/internal/autocomplete"
	"github.com/sonroyaalmerol/auria/internal/config"
	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/processor"
)

type Subscriber interface {
	Subscribe(buffer int) (<-chan processor.Result, func())
}

type Bot struct {
	cfg    *config.Config
	events Subscriber
	cmd    *CommandHandler
	logger *slog.Logger
}

func NewBot(cfg *config.Config, proc Submitter, status StatusSource, events Subscriber, logger *slog.Logger) *Bot {
	logger = logging.Component(logger, "discord")
	return &Bot{
		cfg:    cfg,
		events: events,
		cmd:    NewCommandHandler(proc, status, autocomplete.NewSuggester(), logger),
		logger: logger,
	}
}

func (b *Bot) Run(ctx context.Context) error {
	dg, err := discordgo.New("Bot " + b.cfg.DiscordToken)
	if err != nil {
		return err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds

	dg.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("connected", "user", s.State.User.Username)
		if err := b.cmd.RegisterCommands(s, s.State.User.ID, b.cfg.DiscordGuildID); err != nil {
			b.logger.Error("register commands", "guild", b.cfg.DiscordGuildID, "err", err)
		}
	})
	dg.AddHandler(b.cmd.HandleInteraction)

	results, cancel := b.events.Subscribe(64)
	defer cancel()

	if err := dg.Open(); err != nil {
		return err
	}
	defer dg.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case res, ok := <-results:
			if !ok {
				return nil
			}
			b.cmd.Deliver(dg, res)
		}
	}
}
