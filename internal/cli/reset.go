package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current session's progress",
	Long: `Discard the current session's setup, inputs, job, and results,
returning it to the first step. Any running poll is cancelled.

This cannot be undone; pass --yes to skip the confirmation.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if !resetYes {
		fmt.Printf("Discard all progress in session %s? [y/N] ", sess.ID)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	sess.Reset()
	if err := persistSession(ctx, sess); err != nil {
		return err
	}
	fmt.Printf("Session %s reset\n", sess.ID)
	return nil
}
