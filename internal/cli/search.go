package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/codelens/internal/domain"
)

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		topK       int
		languages  []string
		nodeTypes  []string
		pathPrefix string
		content    bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the code index",
		Long:  "Finds indexed code chunks most similar to the query text.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runSearch(cmd, args[0], topK, languages, nodeTypes, pathPrefix, content, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&topK, "top-k", "n", domain.DefaultTopK, "Maximum number of results")
	cmd.Flags().StringSliceVarP(&languages, "language", "l", nil, "Filter by language")
	cmd.Flags().StringSliceVarP(&nodeTypes, "type", "t", nil, "Filter by node type (class, method, function, ...)")
	cmd.Flags().StringVar(&pathPrefix, "file", "", "Filter by file path prefix")
	cmd.Flags().BoolVar(&content, "content", true, "Include chunk content in results (--content=false to omit)")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, topK int, rawLanguages, rawNodeTypes []string, pathPrefix string, content, outputJSON bool) error {
	ctx := cmd.Context()

	langs, err := parseLanguages(rawLanguages)
	if err != nil {
		return err
	}
	var types []domain.NodeType
	for _, raw := range rawNodeTypes {
		nt, err := domain.ParseNodeType(raw)
		if err != nil {
			return err
		}
		types = append(types, nt)
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.requireEmbedder(); err != nil {
		return err
	}

	resp, err := rt.retrieval.Search(ctx, &domain.SearchRequest{
		Query:          query,
		TopK:           topK,
		Languages:      langs,
		NodeTypes:      types,
		FilePathPrefix: pathPrefix,
		IncludeContent: content,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if outputJSON {
		out, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Println(string(out))
		return nil
	}

	if len(resp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results in %.2fs:\n\n", resp.TotalFound, resp.Duration.Seconds())
	for _, result := range resp.Results {
		c := result.Chunk
		fmt.Printf("%d. %s (%.3f)\n", result.Rank, c.FullyQualifiedName, result.SimilarityScore)
		fmt.Printf("   %s:%d-%d  [%s %s]\n", c.FilePath, c.StartLine, c.EndLine, c.Language, c.NodeType)
		if content && c.Content != "" {
			fmt.Println(indent(snippet(c.Content, 6), "   | "))
		}
		fmt.Println()
	}
	return nil
}

// snippet returns at most maxLines lines of content.
func snippet(content string, maxLines int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "...")
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
