package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gradeflow/internal/engine"
)

var (
	exportFormat string
	exportAll    bool
	exportRemote bool
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reviewed results",
	Long: `Export the session's results as txt, csv, or json.

By default only signed-off items (approved or edited) are included;
--all exports everything regardless of review state. Output goes to
stdout unless --out names a file.

--remote fetches the artifact rendered by the server instead of
serializing locally. Both renderings carry the same fixed column set
per feature.

Examples:
  gradeflow export --format csv --out feedback.csv
  gradeflow export --format json --all
  gradeflow export --format txt --remote`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "F", "txt", "export format: txt, csv, or json")
	exportCmd.Flags().BoolVar(&exportAll, "all", false, "include items that are not signed off")
	exportCmd.Flags().BoolVar(&exportRemote, "remote", false, "fetch the server-rendered artifact")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := engine.ParseFormat(exportFormat)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	approvedOnly := !exportAll

	var artifact string
	if exportRemote {
		artifact, err = sess.RemoteExport(ctx, format, approvedOnly)
	} else {
		artifact, err = sess.RenderExport(format, approvedOnly)
	}
	if err != nil {
		return err
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, []byte(artifact), 0644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Printf("Wrote %s\n", exportOut)
		return nil
	}

	fmt.Print(artifact)
	return nil
}
