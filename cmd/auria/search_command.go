package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sonroyaalmerol/auria/internal/search"
	"github.com/sonroyaalmerol/auria/internal/utils"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search YouTube and list the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			set, err := newSearcher(ctx.cfg, ctx.logger).Search(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(set)
			}
			fmt.Fprintln(out, renderResults(set.Sorted()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

func renderResults(results []search.VideoDescriptor) string {
	if len(results) == 0 {
		return "No results"
	}
	rows := make([][]string, 0, len(results))
	for i, d := range results {
		rows = append(rows, []string{fmt.Sprint(i + 1), utils.Truncate(d.Title, 60), d.Locator})
	}
	return renderTable([]string{"#", "Title", "Locator"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft})
}
