package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// ResetCmd creates the reset command.
func ResetCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every chunk from the index",
		Long:  "Removes all indexed chunks. The schema is kept; re-indexing restores the data.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(cmd, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}

func runReset(cmd *cobra.Command, force bool) error {
	ctx := cmd.Context()

	if !force {
		fmt.Print("This deletes every indexed chunk. Continue? [y/N] ")
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	deleted, err := rt.retrieval.Reset(ctx)
	if err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}

	fmt.Printf("Deleted %d chunks.\n", deleted)
	return nil
}
