package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/processor"
	"github.com/sonroyaalmerol/auria/internal/utils"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "play <locator>",
		Short: "Fetch a track and play it until it ends",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildStack(ctx.cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer func() { _ = s.close() }()

			results, cancel := s.hub.Subscribe(1)
			defer cancel()

			runCtx := cmd.Context()
			go func() { _ = s.proc.Run(runCtx) }()

			in, err := s.proc.Submit(processor.Play(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetching %s\n", args[0])

			var res processor.Result
			select {
			case <-runCtx.Done():
				return runCtx.Err()
			case res = <-results:
			}
			if res.Intent.ID != in.ID {
				return fmt.Errorf("unexpected result for intent %s", res.Intent.ID)
			}
			if err := res.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Playing %s (%s)\n", res.Status.Locator, utils.PrettyDuration(res.Status.Length))

			tick := time.NewTicker(500 * time.Millisecond)
			defer tick.Stop()
			for {
				select {
				case <-runCtx.Done():
					return nil
				case <-tick.C:
					if s.engine.Status().State == player.StatusIdle {
						return nil
					}
				}
			}
		},
	}
}
