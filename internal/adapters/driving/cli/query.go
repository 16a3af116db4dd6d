package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

var (
	queryLimit     int
	queryPartition string
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query a corpus partition",
	Long: `Ranks the records of a partition against the query text. Records are
compared by embedding when the corpus has an embedding function, and by
shared terms otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List corpus partitions",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

func init() {
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 10, "maximum number of results")
	queryCmd.Flags().StringVarP(&queryPartition, "partition", "p", "", "partition to query (default: the store's default)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	addSnapshotFlag(queryCmd)
	addSnapshotFlag(lsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(lsCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	c, release, err := openCorpus(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	resp, err := c.Query(ctx, args[0], queryPartition, queryLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputQueryJSON(cmd, resp)
	}
	return outputQueryTable(cmd, resp)
}

// queryResult is the JSON shape of one match.
type queryResult struct {
	ID       string         `json:"id"`
	Address  string         `json:"address,omitempty"`
	Distance float64        `json:"distance"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func outputQueryJSON(cmd *cobra.Command, resp *domain.QueryResponse) error {
	results := make([]queryResult, len(resp.Matches))
	for i, m := range resp.Matches {
		results[i] = queryResult{
			ID:       m.Record.ID,
			Address:  m.Record.Address.String(),
			Distance: m.Distance,
			Content:  m.Record.Content,
			Metadata: m.Record.Metadata,
		}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputQueryTable(cmd *cobra.Command, resp *domain.QueryResponse) error {
	if len(resp.Matches) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results from %s:\n\n", resp.Partition)
	for i, m := range resp.Matches {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, m.Record.ID, m.Distance)
		if m.Record.HasAddress() {
			cmd.Printf("      Address: %s\n", m.Record.Address)
		}
		cmd.Printf("      %s\n\n", snippet(m.Record.Content, 160))
	}
	return nil
}

// snippet flattens whitespace and truncates to at most n runes.
func snippet(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}

func runLs(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	c, release, err := openCorpus(ctx, cmd)
	if err != nil {
		return err
	}
	defer release()

	partitions, err := c.Partitions(ctx)
	if err != nil {
		return fmt.Errorf("listing partitions: %w", err)
	}
	if len(partitions) == 0 {
		cmd.Println("Corpus is empty.")
		return nil
	}
	for _, p := range partitions {
		cmd.Println(p)
	}
	return nil
}
