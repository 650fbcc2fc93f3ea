package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/boardsync"
	"github.com/todosync/todosync/internal/debug"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove tasks whose Trello card was deleted",
	Long: `Drop tasks bound to cards that no longer exist on the configured board.
Local-only tasks and tasks bound to other boards are untouched.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		o, err := newOrchestrator()
		if err != nil {
			fatalf("%v", err)
		}

		removed, err := o.Prune(rootCtx, "manual")
		if errors.Is(err, boardsync.ErrBusy) {
			fatalf("a sync pass is already running")
		}
		if err != nil {
			fatalf("prune failed: %v", err)
		}

		if jsonOutput {
			printJSON(map[string]int{"removed": removed})
			return
		}
		debug.PrintNormal("Pruned %d task(s)\n", removed)
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
