package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"morsel/internal/domain"
)

func newQueueCommand(build appBuilder) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the article queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(build))
	queueCmd.AddCommand(newQueueListCommand(build))

	return queueCmd
}

func newQueueStatusCommand(build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show article counts per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			stats, err := application.Store().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}

			for _, status := range []domain.ArticleStatus{domain.StatusQueued, domain.StatusExtracted, domain.StatusExtractionFailed} {
				if count, ok := stats[status]; ok {
					fmt.Printf("%-18s %d\n", status, count)
				}
			}
			return nil
		},
	}
}

func newQueueListCommand(build appBuilder) *cobra.Command {
	return &cobra.Command{
		Use:   "list [date]",
		Short: "List queued articles for a day (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, _, err := build()
			if err != nil {
				return err
			}
			defer application.Close()

			day := domain.DayOf(time.Now())
			if len(args) == 1 {
				day, err = domain.ParseDay(args[0])
				if err != nil {
					return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", args[0], err)
				}
			}

			articles, err := application.Store().ArticlesFor(cmd.Context(), day)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				fmt.Printf("No articles for %s.\n", domain.FormatDay(day))
				return nil
			}

			for i, article := range articles {
				title := article.Title
				if title == "" {
					title = "(untitled)"
				}
				fmt.Printf("%2d. [%s] %s\n    %s\n", i+1, article.Status, title, article.URL)
			}
			return nil
		},
	}
}
