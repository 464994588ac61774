package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set a setup field on the current session",
	Long: `Set a setup field on the current session.

Each feature requires certain setup fields before generation:
  feedback:    assignment, class
  narratives:  class, term

Examples:
  gradeflow set assignment "Persuasive Essay 3"
  gradeflow set class 5B`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	field, value := args[0], args[1]
	feat := sess.Feature()
	if !slices.Contains(feat.RequiredSetup, field) {
		fmt.Printf("Note: %q is not required by %s (required: %s)\n",
			field, feat.Title, strings.Join(feat.RequiredSetup, ", "))
	}

	sess.SetSetupField(field, value)
	if err := persistSession(ctx, sess); err != nil {
		return err
	}

	fmt.Printf("%s = %s\n", field, value)
	if missing := missingSetup(sess); len(missing) > 0 {
		fmt.Printf("Still needed: %s\n", strings.Join(missing, ", "))
	}
	return nil
}
