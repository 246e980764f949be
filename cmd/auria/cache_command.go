package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sonroyaalmerol/auria/internal/utils"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the audio cache",
	}
	cacheCmd.AddCommand(newCachePathCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func newCachePathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path [locator]",
		Short: "Print the cache directory, or the file a locator is cached under",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, repo := openCache(ctx.cfg, ctx.logger)
			if repo != nil {
				defer repo.Close()
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), fc.Dir())
				return nil
			}
			state := "miss"
			if fc.Exists(args[0]) {
				state = "hit"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", fc.PathFor(args[0]), state)
			return nil
		},
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show audio cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, repo := openCache(ctx.cfg, ctx.logger)
			if repo != nil {
				defer repo.Close()
			}
			stats, err := fc.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			limit := "unbounded"
			if stats.LimitBytes > 0 {
				limit = utils.HumanBytes(stats.LimitBytes)
			}
			fmt.Fprintf(out, "Directory: %s\n", stats.Dir)
			fmt.Fprintf(out, "Entries:   %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:      %s / %s\n", utils.HumanBytes(stats.TotalBytes), limit)

			entries, err := fc.Entries(cmd.Context())
			if err != nil || len(entries) == 0 {
				return err
			}
			const stampLayout = "2006-01-02 15:04"
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Hash,
					utils.HumanBytes(e.Bytes),
					e.AccessedAt.Local().Format(stampLayout),
					utils.Truncate(e.Locator, 60),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Size", "Last used", "Locator"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}))
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove least recently used audio until the cache fits the limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, repo := openCache(ctx.cfg, ctx.logger)
			if repo != nil {
				defer repo.Close()
			}
			if !cmd.Flags().Changed("limit") {
				limit = ctx.cfg.CacheLimitBytes
			}
			start := time.Now()
			removed, err := fc.Prune(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s) in %s\n", removed, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", 0, "Target size in bytes (default cache_limit_bytes; 0 empties the cache)")
	return cmd
}
