package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/store"
)

var rmCmd = &cobra.Command{
	Use:     "rm <id>...",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete tasks",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := taskStore()
		for _, id := range args {
			err := st.Delete(id)
			if errors.Is(err, store.ErrNotFound) {
				fatalf("no task with id %s", id)
			}
			if err != nil {
				fatalf("deleting task %s: %v", id, err)
			}
			if !jsonOutput {
				debug.PrintNormal("deleted %s\n", id)
			}
		}
		if jsonOutput {
			printJSON(map[string]interface{}{"deleted": args})
		}
	},
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
