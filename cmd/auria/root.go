package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sonroyaalmerol/auria/internal/config"
	"github.com/sonroyaalmerol/auria/internal/logging"
)

// commandContext loads configuration and the logger once per invocation.
type commandContext struct {
	configPath *string
	cfg        *config.Config
	logger     *slog.Logger
	closer     io.Closer
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.LoadConfig(*c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.logger, c.closer = logging.New(cfg)
	slog.SetDefault(c.logger)
	return cfg, nil
}

func (c *commandContext) close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := &commandContext{configPath: &configFlag}

	rootCmd := &cobra.Command{
		Use:           "auria",
		Short:         "Fetch, cache and play normalized audio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default $AURIA_CONFIG)")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newPlayCommand(ctx))
	rootCmd.AddCommand(newSearchCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	return rootCmd
}
