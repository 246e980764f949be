package main

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sonroyaalmerol/auria/internal/api"
	"github.com/sonroyaalmerol/auria/internal/deps"
	"github.com/sonroyaalmerol/auria/internal/handlers"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var noDiscord bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the player with the HTTP API and, if configured, the Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := ctx.cfg, ctx.logger
			if err := deps.Missing(deps.CheckBinaries(deps.Requirements(cfg))); err != nil {
				logger.Warn("external tools missing; play and search will fail", "err", err)
			}

			s, err := buildStack(cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			runCtx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				errs []error
			)
			run := func(name string, fn func(context.Context) error) {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := fn(runCtx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("component stopped", "component", name, "err", err)
						mu.Lock()
						errs = append(errs, err)
						mu.Unlock()
					}
					cancel()
				}()
			}

			run("processor", s.proc.Run)
			if cfg.APIBind != "" {
				router := api.NewRouter(logger, s.proc, s.engine, s.hub)
				run("api", func(c context.Context) error { return api.Serve(c, cfg.APIBind, router, logger) })
			}
			if cfg.DiscordEnabled() && !noDiscord {
				bot := handlers.NewBot(cfg, s.proc, s.engine, s.hub, logger)
				run("discord", bot.Run)
			}

			wg.Wait()
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&noDiscord, "no-discord", false, "Do not start the Discord bot even if a token is configured")
	return cmd
}
