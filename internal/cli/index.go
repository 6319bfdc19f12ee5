package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// IndexCmd creates the index command.
func IndexCmd() *cobra.Command {
	var (
		languages   []string
		incremental bool
		full        bool
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a source tree",
		Long:  "Extracts code chunks from the source tree, embeds them, and stores them in the index.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			// --full wins over --incremental; a full scan is always safe.
			return runIndex(cmd, args[0], languages, incremental && !full, dryRun, outputJSON)
		},
	}

	cmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "Languages to index (default: all supported)")
	cmd.Flags().BoolVar(&incremental, "incremental", false, "Only process files changed since the last git commit")
	cmd.Flags().BoolVar(&full, "full", false, "Force a full scan even in a git repository")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Discover and extract without writing to the index")

	return cmd
}

func runIndex(cmd *cobra.Command, path string, rawLanguages []string, incremental, dryRun, outputJSON bool) error {
	ctx := cmd.Context()

	langs, err := parseLanguages(rawLanguages)
	if err != nil {
		return err
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	// Dry runs never embed, so a missing API key is fine there.
	if !dryRun {
		if err := rt.requireEmbedder(); err != nil {
			return err
		}
	}

	resp, err := rt.indexer.Run(ctx, &domain.IndexRequest{
		SourcePath:  path,
		Languages:   langs,
		Incremental: incremental,
		DryRun:      dryRun,
	})
	if err != nil {
		return err
	}

	if outputJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if dryRun {
		fmt.Println("Dry run: no changes written.")
	}
	fmt.Printf("Files processed:  %d\n", resp.TotalFiles)
	fmt.Printf("Chunks extracted: %d\n", resp.TotalChunks)
	fmt.Printf("Chunks indexed:   %d\n", resp.IndexedChunks)
	fmt.Printf("Chunks updated:   %d\n", resp.UpdatedChunks)
	fmt.Printf("Chunks deleted:   %d\n", resp.DeletedChunks)
	fmt.Printf("Duration:         %.2fs\n", resp.DurationSeconds())

	if len(resp.Errors) > 0 {
		fmt.Printf("\n%d file(s) failed:\n", len(resp.Errors))
		for _, msg := range resp.Errors {
			fmt.Printf("  %s\n", msg)
		}
	}
	return nil
}
