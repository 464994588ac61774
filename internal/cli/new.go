package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"gradeflow/internal/feature"
)

var newCmd = &cobra.Command{
	Use:   "new <feature>",
	Short: "Start a new workflow session",
	Long: fmt.Sprintf(`Start a new workflow session for one of the built-in features.

Available features: %s

Examples:
  gradeflow new feedback     # Grading feedback for an assignment
  gradeflow new narratives   # Report-card narratives for a class`,
		strings.Join(feature.Names(), ", ")),
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

func init() {
	rootCmd.AddCommand(newCmd)
}

func runNew(cmd *cobra.Command, args []string) error {
	feat, err := feature.ByName(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	id := uuid.New().String()[:8]

	if _, err := dbClient.CreateSession(ctx, id, feat.Name); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	fmt.Printf("Started %s session %s\n\n", feat.Title, id)
	fmt.Println("Next steps:")
	for _, f := range feat.RequiredSetup {
		fmt.Printf("  gradeflow set %s <value>\n", f)
	}
	fmt.Println("  gradeflow input add --key <id> --name <name> --file <path>")
	fmt.Println("  gradeflow generate")
	return nil
}
