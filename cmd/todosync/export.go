package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks to markdown",
	Long:  `Render the task list to <export_dir>/todos.md, grouped by status.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		f, err := taskStore().Load()
		if err != nil {
			fatalf("loading tasks: %v", err)
		}

		summary, err := export.WriteFile(f, config.ExportDir())
		if errors.Is(err, export.ErrEmpty) {
			fatalf("no tasks to export")
		}
		if err != nil {
			fatalf("exporting: %v", err)
		}

		if jsonOutput {
			printJSON(summary)
			return
		}
		debug.PrintNormal("Exported %d tasks (%d open, %d completed) to %s\n",
			summary.Total, summary.Uncompleted, summary.Completed, summary.Path)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
