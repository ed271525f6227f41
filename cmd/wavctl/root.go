package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/eric-edouard/life-recorder/internal/config"
)

// commandContext carries state shared by all subcommands
type commandContext struct {
	configPath *string
	verbose    *bool
	config     *config.Config
}

// loadConfig loads the service configuration once
func (c *commandContext) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// logger writes to the command's stderr
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if *c.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := &commandContext{configPath: &configFlag, verbose: &verboseFlag}

	rootCmd := &cobra.Command{
		Use:           "wavctl",
		Short:         "Inspect and classify audio clips the way the ingestion service does",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newFrameCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newClassifyCommand(ctx))

	return rootCmd
}
