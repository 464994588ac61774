package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"gradeflow/internal/models"
)

var (
	inputKey     string
	inputName    string
	inputText    string
	inputFile    string
	inputReplace bool
)

var inputCmd = &cobra.Command{
	Use:   "input",
	Short: "Manage the session's input items",
}

var inputAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add one input item",
	Long: `Add one input item to the current session.

Content comes from --text or --file. Keys are case-insensitive and must
be unique; pass --replace to overwrite an existing item deliberately.

Examples:
  gradeflow input add --key AB12 --name "Alice B." --file essays/alice.txt
  gradeflow input add --key CD34 --text "Strong opening, weak conclusion..."`,
	RunE: runInputAdd,
}

var inputImportCmd = &cobra.Command{
	Use:   "import <roster.yaml>",
	Short: "Import input items from a YAML roster",
	Long: `Import input items from a YAML roster file.

The roster is a list of items:

  - key: AB12
    name: Alice B.
    content: |
      Full submission text...
  - key: CD34
    name: Chen D.
    file: essays/chen.txt

Each item supplies content inline or via a file path relative to the
working directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runInputImport,
}

var inputListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session's input items",
	RunE:  runInputList,
}

var inputRemoveCmd = &cobra.Command{
	Use:   "remove <key>",
	Short: "Remove an input item by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runInputRemove,
}

func init() {
	inputAddCmd.Flags().StringVarP(&inputKey, "key", "k", "", "unique item key, e.g. a student id (required)")
	inputAddCmd.Flags().StringVarP(&inputName, "name", "n", "", "display name")
	inputAddCmd.Flags().StringVarP(&inputText, "text", "t", "", "item content")
	inputAddCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read item content from file")
	inputAddCmd.Flags().BoolVar(&inputReplace, "replace", false, "overwrite an existing item with the same key")
	_ = inputAddCmd.MarkFlagRequired("key")

	inputImportCmd.Flags().BoolVar(&inputReplace, "replace", false, "overwrite existing items with matching keys")

	inputCmd.AddCommand(inputAddCmd)
	inputCmd.AddCommand(inputImportCmd)
	inputCmd.AddCommand(inputListCmd)
	inputCmd.AddCommand(inputRemoveCmd)
	rootCmd.AddCommand(inputCmd)
}

func runInputAdd(cmd *cobra.Command, args []string) error {
	content, err := resolveContent(inputText, inputFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	rec := models.InputRecord{Key: inputKey, Name: inputName, Content: content}
	if inputReplace {
		err = sess.ReplaceInput(rec)
	} else {
		err = sess.AddInput(rec)
	}
	if err != nil {
		return err
	}

	if err := persistSession(ctx, sess); err != nil {
		return err
	}
	fmt.Printf("Added %s (%d items total)\n", models.NormalizeKey(inputKey), len(sess.Inputs()))
	return nil
}

// rosterItem is one entry in a YAML roster file.
type rosterItem struct {
	Key     string `yaml:"key"`
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
	File    string `yaml:"file"`
}

func runInputImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read roster: %w", err)
	}

	var roster []rosterItem
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return fmt.Errorf("parse roster: %w", err)
	}
	if len(roster) == 0 {
		return fmt.Errorf("roster %s contains no items", args[0])
	}

	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	added := 0
	for _, item := range roster {
		content, err := resolveContent(item.Content, item.File)
		if err != nil {
			return fmt.Errorf("roster item %q: %w", item.Key, err)
		}
		rec := models.InputRecord{Key: item.Key, Name: item.Name, Content: content}
		if inputReplace {
			err = sess.ReplaceInput(rec)
		} else {
			err = sess.AddInput(rec)
		}
		if err != nil {
			return fmt.Errorf("roster item %q: %w", item.Key, err)
		}
		added++
	}

	if err := persistSession(ctx, sess); err != nil {
		return err
	}
	fmt.Printf("Imported %d items (%d total)\n", added, len(sess.Inputs()))
	return nil
}

func runInputList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	inputs := sess.Inputs()
	if len(inputs) == 0 {
		fmt.Println("No input items")
		return nil
	}

	fmt.Printf("%-10s %-20s %s\n", "KEY", "NAME", "WORDS")
	for _, in := range inputs {
		fmt.Printf("%-10s %-20s %d\n", in.Key, in.Name, models.CountWords(in.Content))
	}
	return nil
}

func runInputRemove(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	sess, err := loadSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	sess.RemoveInput(args[0])
	if err := persistSession(ctx, sess); err != nil {
		return err
	}
	fmt.Printf("Removed %s (%d items remain)\n", models.NormalizeKey(args[0]), len(sess.Inputs()))
	return nil
}

// resolveContent picks inline text or file contents, requiring exactly one.
func resolveContent(text, file string) (string, error) {
	switch {
	case text != "" && file != "":
		return "", fmt.Errorf("provide either inline text or a file, not both")
	case text != "":
		return text, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read content file: %w", err)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("no content provided (use --text or --file)")
}
