package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/store"
)

var doneCmd = &cobra.Command{
	Use:   "done <id>...",
	Short: "Toggle task completion",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := taskStore()
		for _, id := range args {
			task, err := st.ToggleComplete(id)
			if errors.Is(err, store.ErrNotFound) {
				fatalf("no task with id %s", id)
			}
			if err != nil {
				fatalf("updating task %s: %v", id, err)
			}

			if jsonOutput {
				printJSON(task)
				continue
			}
			state := "reopened"
			if task.Completed {
				state = "completed"
			}
			debug.PrintNormal("%s %s: %s\n", state, task.ID, task.Title)
		}
	},
}

func init() {
	rootCmd.AddCommand(doneCmd)
}
