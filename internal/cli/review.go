package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gradeflow/internal/engine"
	"gradeflow/internal/models"
)

var (
	reviewStatus string
	reviewText   string
	reviewFile   string
	flagText     string
	flagFile     string
)

var reviewCmd = &cobra.Command{
	Use:   "review [key]",
	Short: "List generated results, or show one in full",
	Long: `List the generated results and their review states, or show one
item's full text by key.

Every item starts as ready_for_review. Sign off with 'gradeflow approve'
(optionally with revised text) or mark problems with 'gradeflow flag'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReview,
}

var approveCmd = &cobra.Command{
	Use:   "approve <key>",
	Short: "Sign off on a result, optionally with revised text",
	Long: `Sign off on a generated result.

Without --text or --file the generated text is approved as-is. With
revised text the item is recorded as edited instead of approved; both
count as signed off for export.

The action is synced to the server before it takes effect locally, so a
sync failure leaves the item unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

var flagCmd = &cobra.Command{
	Use:   "flag <key>",
	Short: "Mark a result as needing attention",
	Long: `Mark a generated result as needing attention, excluding it from
approved-only exports until it is re-approved. Use --text or --file to
record a working revision alongside the flag.`,
	Args: cobra.ExactArgs(1),
	RunE: runFlag,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "only list items with this review status")
	approveCmd.Flags().StringVarP(&reviewText, "text", "t", "", "revised text")
	approveCmd.Flags().StringVarP(&reviewFile, "file", "f", "", "read revised text from file")
	flagCmd.Flags().StringVarP(&flagText, "text", "t", "", "working revision")
	flagCmd.Flags().StringVarP(&flagFile, "file", "f", "", "read working revision from file")

	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(flagCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	store := sess.Store()
	if store.Len() == 0 {
		fmt.Println("No results to review yet. Run 'gradeflow generate' first.")
		return nil
	}

	if len(args) == 1 {
		it, ok := store.Get(args[0])
		if !ok {
			return fmt.Errorf("no result with key %q", models.NormalizeKey(args[0]))
		}
		fmt.Printf("%s", formatItem(it))
		return nil
	}

	items := store.Items()
	if reviewStatus != "" {
		st, err := parseReviewStatus(reviewStatus)
		if err != nil {
			return err
		}
		items = store.ByStatus(st)
	}

	counts := store.Counts()
	fmt.Printf("%d results (%d awaiting review, %d signed off, %d flagged)\n\n",
		store.Len(),
		counts[models.StatusReadyForReview],
		counts[models.StatusApproved]+counts[models.StatusEdited],
		counts[models.StatusNeedsAttention])

	fmt.Printf("%-10s %-20s %-18s %s\n", "KEY", "NAME", "STATUS", "WORDS")
	for _, it := range items {
		fmt.Printf("%-10s %-20s %-18s %d\n", it.Key, it.Name, it.Status, it.WordCount)
	}
	fmt.Println("\nShow one in full with 'gradeflow review <key>'.")
	return nil
}

func parseReviewStatus(s string) (models.ReviewStatus, error) {
	for _, st := range []models.ReviewStatus{
		models.StatusReadyForReview, models.StatusApproved,
		models.StatusEdited, models.StatusNeedsAttention, models.StatusError,
	} {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown review status %q", s)
}

func formatItem(it models.ResultItem) string {
	out := it.Key
	if it.Name != "" {
		out += fmt.Sprintf(" (%s)", it.Name)
	}
	out += fmt.Sprintf("  [%s, %d words]\n\n%s\n", it.Status, it.WordCount, it.Content)
	return out
}

func runApprove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	key := args[0]
	content, err := optionalContent(sess, key, reviewText, reviewFile)
	if err != nil {
		return err
	}

	if err := sess.Store().Approve(ctx, key, content); err != nil {
		return err
	}

	it, _ := sess.Store().Get(key)
	fmt.Printf("%s %s\n", it.Key, it.Status)
	return nil
}

func runFlag(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	key := args[0]
	content, err := optionalContent(sess, key, flagText, flagFile)
	if err != nil {
		return err
	}

	if err := sess.Store().Flag(ctx, key, content); err != nil {
		return err
	}

	fmt.Printf("%s flagged for attention\n", models.NormalizeKey(key))
	return nil
}

// optionalContent returns the revised text if given, otherwise the item's
// current content.
func optionalContent(sess *engine.Session, key, text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", fmt.Errorf("provide either inline text or a file, not both")
	case text != "":
		return text, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read revision file: %w", err)
		}
		return string(data), nil
	}
	it, ok := sess.Store().Get(key)
	if !ok {
		return "", fmt.Errorf("no result with key %q", models.NormalizeKey(key))
	}
	return it.Content, nil
}
