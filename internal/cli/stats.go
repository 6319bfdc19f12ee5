package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// StatsCmd creates the stats command.
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  "Prints chunk totals grouped by language and node type.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runStats(cmd, outputJSON)
		},
	}
	return cmd
}

func runStats(cmd *cobra.Command, outputJSON bool) error {
	ctx := cmd.Context()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	stats := rt.retrieval.Stats(ctx)

	if outputJSON {
		out, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("Total chunks: %d\n", stats.TotalChunks)

	if len(stats.ByLanguage) > 0 {
		fmt.Println("\nBy language:")
		printCounts(stats.ByLanguage)
	}
	if len(stats.ByNodeType) > 0 {
		fmt.Println("\nBy node type:")
		printCounts(stats.ByNodeType)
	}
	return nil
}

func printCounts(counts map[string]int64) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
}
