package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"morsel/internal/domain"
)

func newDigestCommand(build appBuilder) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "digest [date]",
		Short: "Generate and publish the audio digest for a day",
		Long: "Generate and publish the audio digest for a day.\n\n" +
			"With no arguments the digest covers yesterday (the scheduled mode).\n" +
			"Pass a YYYY-MM-DD date to regenerate a specific day, or --all to\n" +
			"process every day that still has queued articles.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			if all {
				if len(args) > 0 {
					return fmt.Errorf("--all cannot be combined with an explicit date")
				}
				return application.Digest.RunAll(cmd.Context())
			}

			day := domain.DayOf(time.Now().AddDate(0, 0, -1))
			if len(args) == 1 {
				day, err = domain.ParseDay(args[0])
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", args[0], err)
				}
			}

			return application.Digest.Run(cmd.Context(), day)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Digest every day with queued articles")

	return cmd
}
