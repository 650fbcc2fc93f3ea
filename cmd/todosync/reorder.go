package main

import (
	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/debug"
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Move tasks within or between sections",
	Long: `Move one or more tasks to a position inside a section. Moving into a
different section rewrites the tasks' status to match; moving into done
marks them completed.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		to, _ := cmd.Flags().GetInt("to")
		section, _ := cmd.Flags().GetString("section")
		from, _ := cmd.Flags().GetString("from")

		if section == "" {
			fatalf("--section is required")
		}

		if err := taskStore().Reorder(args, to, section, from); err != nil {
			fatalf("reordering: %v", err)
		}

		if jsonOutput {
			printJSON(map[string]interface{}{"moved": args, "section": section, "index": to})
			return
		}
		debug.PrintNormal("moved %d task(s) to %s[%d]\n", len(args), section, to)
	},
}

func init() {
	reorderCmd.Flags().Int("to", 0, "Target index within the section")
	reorderCmd.Flags().String("section", "", "Target section")
	reorderCmd.Flags().String("from", "", "Source section (defaults to each task's current section)")
	rootCmd.AddCommand(reorderCmd)
}
