package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInboxesCommand(build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "inboxes",
		Short: "List mail inboxes available on the account",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			inboxes, err := application.Mail.Inboxes(cmd.Context())
			if err != nil {
				return err
			}
			if len(inboxes) == 0 {
				fmt.Println("No inboxes found. Create one first in the mail console.")
				return nil
			}

			for _, inbox := range inboxes {
				fmt.Printf("Inbox ID:     %s\n", inbox.ID)
				name := inbox.DisplayName
				if name == "" {
					name = "(none)"
				}
				fmt.Printf("Display name: %s\n", name)
				fmt.Printf("Created:      %s\n\n", inbox.CreatedAt.Format("2006-01-02 15:04:05 MST"))
			}
			return nil
		},
	}
}
