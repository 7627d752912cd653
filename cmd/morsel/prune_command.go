package main

import (
	"github.com/spf13/cobra"
)

func newPruneCommand(build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Expire episodes past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Digest.Prune(cmd.Context())
		},
	}
}
