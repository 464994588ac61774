package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gradeflow/internal/engine"
	"gradeflow/internal/models"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Submit the input batch for generation",
	Long: `Submit the session's input batch for generation.

Small batches are generated while you wait and results appear
immediately. Larger batches run asynchronously: a progress display polls
the job until it completes. Ctrl+C leaves the job running server-side;
the next gradeflow command picks its results up automatically.

Re-running generate always starts a fresh job and replaces any prior
results.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if missing := missingSetup(sess); len(missing) > 0 {
		return fmt.Errorf("setup incomplete, still needed: %s", strings.Join(missing, ", "))
	}

	job, err := sess.Submit(ctx)
	if err != nil {
		// Keep the errored job visible for status, then surface the error.
		_ = persistSession(ctx, sess)
		return err
	}

	if err := persistSession(ctx, sess); err != nil {
		return err
	}

	if job.Mode == models.ModeSynchronous {
		fmt.Printf("Generated %d results\n\n", sess.Store().Len())
		printReviewSummary(sess)
		return nil
	}

	fmt.Printf("Job %s accepted", job.ID)
	if job.EstimatedSeconds > 0 {
		fmt.Printf(" (estimated %ds)", job.EstimatedSeconds)
	}
	fmt.Println()

	if err := runBatchProgress(sess, len(sess.Inputs())); err != nil {
		return err
	}

	if done := sess.Job(); done != nil && done.Status == models.JobComplete {
		fmt.Printf("\nGenerated %d results\n\n", sess.Store().Len())
		printReviewSummary(sess)
	}
	return nil
}

// printReviewSummary shows what to do with freshly generated results.
func printReviewSummary(sess *engine.Session) {
	for _, it := range sess.Store().Items() {
		fmt.Printf("  %-10s %-20s %d words\n", it.Key, it.Name, it.WordCount)
	}
	fmt.Println("\nReview with 'gradeflow review', then approve or flag each item.")
}
