package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	saveZip       bool
	saveOverwrite bool
)

var saveCmd = &cobra.Command{
	Use:   "save [target]",
	Short: "Save the working corpus as a snapshot",
	Long: `Writes a self-contained snapshot of the working corpus: the store, a
config.toml descriptor and a copy of every resource the records point at.
With --zip the snapshot is written as a single archive; a directory target
receives corpus.zip.`,
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().BoolVarP(&saveZip, "zip", "z", false, "write a zip archive")
	saveCmd.Flags().BoolVarP(&saveOverwrite, "overwrite", "f", false, "replace an existing snapshot")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	ctx := context.Background()
	target := args[0]

	save := corpusService.SaveToDir
	if saveZip {
		save = corpusService.SaveToZip
	}
	if err := save(ctx, target, saveOverwrite); err != nil {
		return fmt.Errorf("save failed: %w", err)
	}

	cmd.Printf("Corpus saved to %s\n", target)
	return nil
}
