package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/types"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		title := strings.Join(args, " ")
		notes, _ := cmd.Flags().GetString("notes")
		status, _ := cmd.Flags().GetString("status")
		labels, _ := cmd.Flags().GetStringArray("label")
		files, _ := cmd.Flags().GetStringArray("file")
		subtasks, _ := cmd.Flags().GetStringArray("subtask")

		if status != "" {
			labels = types.EnsureStatusLabel(labels, status)
		}

		var subs []types.Subtask
		for _, text := range subtasks {
			subs = append(subs, types.Subtask{Text: text})
		}

		task, err := taskStore().Create(store.CreateParams{
			Title:    title,
			Notes:    notes,
			Labels:   labels,
			Files:    files,
			Subtasks: subs,
		})
		if err != nil {
			fatalf("adding task: %v", err)
		}

		if jsonOutput {
			printJSON(task)
			return
		}
		debug.PrintNormal("Added %s: %s\n", task.ID, task.Title)
	},
}

func init() {
	addCmd.Flags().StringP("notes", "n", "", "Task notes")
	addCmd.Flags().StringP("status", "s", "", "Status (backlog, planned, in-progress, blocked, review, done)")
	addCmd.Flags().StringArrayP("label", "l", nil, "Label (repeatable)")
	addCmd.Flags().StringArrayP("file", "f", nil, "Related file (repeatable)")
	addCmd.Flags().StringArray("subtask", nil, "Subtask text (repeatable)")
	rootCmd.AddCommand(addCmd)
}
