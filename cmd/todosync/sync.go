package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/boardsync"
	"github.com/todosync/todosync/internal/debug"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass against the Trello board",
	Long: `Reconcile the local task list with the configured Trello board: pull
remote changes, push local edits, and create cards for local-only tasks
when trello.sync_local_todos is enabled.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		o, err := newOrchestrator()
		if err != nil {
			fatalf("%v", err)
		}

		result, err := o.SyncNow(rootCtx, "manual")
		if errors.Is(err, boardsync.ErrBusy) {
			fatalf("a sync pass is already running")
		}
		if err != nil {
			fatalf("sync failed: %v", err)
		}
		if result == nil {
			// Disabled or unconfigured; warnings already printed.
			return
		}

		if jsonOutput {
			printJSON(result)
			return
		}
		s := result.Stats
		line := fmt.Sprintf("Sync complete: %d pulled in, %d updated, %d pushed", s.Created, s.Updated, s.Pushed)
		if s.Removed > 0 {
			line += fmt.Sprintf(", %d removed by assigned-only filter", s.Removed)
		}
		if s.Conflicts > 0 {
			line += fmt.Sprintf(", %d conflicts resolved by timestamp", s.Conflicts)
		}
		debug.PrintNormal("%s\n", line)
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
