package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List all workflow sessions",
	RunE:  runSessions,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workflow session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sessions, err := dbClient.ListSessions(ctx)
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions. Start one with 'gradeflow new <feature>'.")
		return nil
	}

	fmt.Printf("%-10s %-12s %-8s %s\n", "ID", "FEATURE", "INPUTS", "UPDATED")
	for _, rec := range sessions {
		id, err := rec.SessionID()
		if err != nil {
			return err
		}
		fmt.Printf("%-10s %-12s %-8d %s\n", id, rec.Feature, len(rec.InputItems),
			rec.Updated.Format(time.RFC3339))
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	if _, err := dbClient.GetSession(ctx, args[0]); err != nil {
		return err
	}
	if err := dbClient.DeleteSession(ctx, args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", args[0])
	return nil
}
