package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read [address]",
	Short: "Print a resource by address",
	Long: `Prints the content of a resource. Any scheme the corpus understands can
be read; corpus: addresses are resolved against a snapshot's resources.`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	addSnapshotFlag(readCmd)
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, release, err := openCorpus(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	data, err := c.ReadResource(ctx, args[0])
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}
	cmd.Print(string(data))
	return nil
}
