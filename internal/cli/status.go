package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gradeflow/internal/models"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session's workflow state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	feat := sess.Feature()
	fmt.Printf("Session: %s (%s)\n\n", sess.ID, feat.Title)

	current := sess.Step()
	for i, step := range feat.Steps {
		n := i + 1
		marker := " "
		switch {
		case sess.IsComplete(n):
			marker = "✓"
		case !sess.CanAccess(n):
			marker = "·"
		}
		cursor := "  "
		if n == current {
			cursor = "> "
		}
		fmt.Printf("%s%s %d. %s\n", cursor, marker, n, step.Name)
	}

	setup := sess.SetupFields()
	if len(setup) > 0 {
		fmt.Println("\nSetup:")
		for _, f := range feat.RequiredSetup {
			if v := setup[f]; v != "" {
				fmt.Printf("  %s: %s\n", f, v)
			} else {
				fmt.Printf("  %s: (not set)\n", f)
			}
		}
	}

	fmt.Printf("\nInputs: %d\n", len(sess.Inputs()))

	if job := sess.Job(); job != nil {
		fmt.Printf("\nJob: %s\n", job.ID)
		fmt.Printf("  Status: %s (%s)\n", job.Status, job.Mode)
		if job.Progress != nil {
			fmt.Printf("  Progress: %d/%d\n", job.Progress.Completed, job.Progress.Total)
		}
		if job.CompletedAt != nil {
			fmt.Printf("  Completed: %s\n", job.CompletedAt.Format(time.RFC3339))
		}
		if job.Err != "" {
			fmt.Printf("  Error: %s\n", job.Err)
		}
	}

	if store := sess.Store(); store.Len() > 0 {
		counts := store.Counts()
		fmt.Printf("\nResults: %d\n", store.Len())
		for _, st := range []models.ReviewStatus{
			models.StatusReadyForReview, models.StatusApproved,
			models.StatusEdited, models.StatusNeedsAttention, models.StatusError,
		} {
			if counts[st] > 0 {
				fmt.Printf("  %s: %d\n", st, counts[st])
			}
		}
	}

	return nil
}
