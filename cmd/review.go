package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/weekrev/weekrev/internal/calendar"
	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/tasks"
)

func newReviewCmd() *cobra.Command {
	var account string
	var days int

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Print a weekly review of completed tasks and meetings",
		Long: `Assemble a review of the recent past: tasks completed in Todoist and
meetings that look like accomplishments across all connected calendars.
When a service is unreachable the review falls back to cached data and
says so, rather than failing outright.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, accounts, err := loadCredentials()
			if err != nil {
				return err
			}

			ctx := context.Background()
			sc := server.NewServerContext(ctx, tokens,
				server.WithAccountStore(calendar.NewMemoryAccountStore(accounts...)))
			defer func() { _ = sc.Shutdown() }()

			now := time.Now().UTC()
			since := now.AddDate(0, 0, -days)
			fmt.Printf("Weekly review: %s to %s\n\n", since.Format("2006-01-02"), now.Format("2006-01-02"))

			printCompletedTasks(ctx, sc, account, since, now)
			printMeetings(ctx, sc, since, now)
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "default", "Todoist account name to review")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to look back")
	return cmd
}

func printCompletedTasks(ctx context.Context, sc *server.ServerContext, account string, since, until time.Time) {
	page, err := sc.TasksServiceForAccount(account).CompletedTasksWithFallback(ctx, tasks.CompletedQuery{
		Since: since.Format("2006-01-02"),
		Until: until.Format("2006-01-02"),
	})
	if err != nil {
		fmt.Printf("Completed tasks unavailable: %v\n\n", err)
		return
	}

	fmt.Printf("Completed tasks (%d):\n", len(page.Items))
	for _, item := range page.Items {
		fmt.Printf("  - %s (completed %s)\n", item.Content, item.CompletedAt)
	}
	fmt.Println()
}

func printMeetings(ctx context.Context, sc *server.ServerContext, since, until time.Time) {
	result, err := sc.CalendarService().EventsWithFallback(ctx, calendar.FetchOptions{
		Start: since,
		End:   until,
	})
	if err != nil {
		fmt.Printf("Calendar events unavailable: %v\n", err)
		return
	}

	for _, failure := range result.Failures {
		fmt.Println(fetchWarning(failure))
	}

	summary := calendar.AnalyzeEvents(result.Events, until)
	fmt.Printf("Meetings: %d events, %d minutes total\n", summary.TotalEvents, summary.TotalDurationMinutes)

	accomplishments := calendar.PastWeekAccomplishments(result.Events, nil, until)
	fmt.Printf("Accomplishment meetings (%d):\n", len(accomplishments))
	for _, event := range accomplishments {
		fmt.Printf("  - %s (%s, %d min)\n", event.Summary, event.Start.Format("Mon Jan 2"), event.DurationMinutes())
	}
}

func fetchWarning(failure calendar.FetchFailure) string {
	return fmt.Sprintf("Warning: calendar %s on account %s could not be fetched: %v",
		failure.CalendarID, failure.AccountEmail, failure.Err)
}
