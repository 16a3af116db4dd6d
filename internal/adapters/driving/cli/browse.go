package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the corpus in an interactive terminal UI",
	Long: `Launch the interactive terminal UI for querying the corpus.

Type a query and press Enter to rank the current partition. Select a match
and press Enter again to read the resource it came from.

Controls:
  Tab/Shift+Tab - Switch partition
  ↑/k, ↓/j      - Navigate matches
  Enter         - Query / Open resource
  n             - New query
  Esc           - Back
  ?             - Help
  q             - Quit`,
	RunE: runBrowse,
}

func init() {
	addSnapshotFlag(browseCmd)
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	corpus, release, err := openCorpus(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer release()

	app, err := tui.NewApp(&tui.Ports{Corpus: corpus})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if err := app.WithContext(cmd.Context()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
