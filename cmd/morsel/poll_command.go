package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newPollCommand(build appBuilder) *cobra.Command {
	var watch bool
	var interval int

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Check the inbox for new article links and queue them",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			if watch {
				return application.Poller.Watch(cmd.Context(), time.Duration(interval)*time.Second)
			}
			_, err = application.Poller.PollOnce(cmd.Context())
			return err
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Poll continuously")
	cmd.Flags().IntVar(&interval, "interval", 60, "Poll interval in seconds")

	return cmd
}
