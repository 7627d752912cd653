package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"morsel/internal/app"
	"morsel/internal/config"
	"morsel/internal/logging"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "morsel",
		Short:         "Turn emailed article links into a daily audio podcast",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	build := func() (*app.Application, *slog.Logger, error) {
		cfg := config.Load(configFlag)
		logger := logging.New(cfg.Logging.Level)
		application, err := app.New(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return application, logger, nil
	}

	rootCmd.AddCommand(newPollCommand(build))
	rootCmd.AddCommand(newDigestCommand(build))
	rootCmd.AddCommand(newPruneCommand(build))
	rootCmd.AddCommand(newInboxesCommand(build))
	rootCmd.AddCommand(newQueueCommand(build))

	return rootCmd
}

type appBuilder func() (*app.Application, *slog.Logger, error)
