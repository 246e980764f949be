package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sonroyaalmerol/auria/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that yt-dlp and ffmpeg are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckBinaries(deps.Requirements(ctx.cfg))
			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				state, where := "ok", st.Path
				if !st.Available {
					state, where = "missing", st.Detail
				}
				rows = append(rows, []string{st.Name, state, where, st.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Tool", "Status", "Path", "Used for"}, rows, nil))
			return deps.Missing(statuses)
		},
	}
}
