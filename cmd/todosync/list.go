package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/types"
	"github.com/todosync/todosync/internal/ui"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks grouped by status",
	Run: func(cmd *cobra.Command, args []string) {
		all, _ := cmd.Flags().GetBool("all")
		sectionFilter, _ := cmd.Flags().GetString("section")

		f, err := taskStore().Load()
		if err != nil {
			fatalf("loading tasks: %v", err)
		}

		bySection := map[string][]*types.Task{}
		for _, t := range f.Todos {
			s := t.SectionType()
			bySection[s] = append(bySection[s], t)
		}
		for _, tasks := range bySection {
			sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
		}

		if jsonOutput {
			if sectionFilter != "" {
				printJSON(bySection[sectionFilter])
				return
			}
			printJSON(f.Todos)
			return
		}

		shown := 0
		for _, section := range sectionOrder(bySection) {
			if sectionFilter != "" && section != sectionFilter {
				continue
			}
			if section == types.StatusDone && !all && sectionFilter == "" {
				continue
			}
			tasks := bySection[section]
			if len(tasks) == 0 {
				continue
			}

			fmt.Println(ui.SectionStyle.Render(sectionTitle(section)))
			for _, t := range tasks {
				printTaskLine(t)
				shown++
			}
			fmt.Println()
		}

		if shown == 0 {
			fmt.Println(ui.MutedStyle.Render("no tasks"))
		}
	},
}

// sectionOrder yields the built-in sections in display order, then any
// unknown status values alphabetically.
func sectionOrder(bySection map[string][]*types.Task) []string {
	known := map[string]bool{}
	out := append([]string(nil), types.KnownSections...)
	for _, s := range out {
		known[s] = true
	}

	var extra []string
	for s := range bySection {
		if !known[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)

	// Extras slot in before no-status and done.
	head := out[:len(out)-2]
	tail := out[len(out)-2:]
	return append(append(append([]string(nil), head...), extra...), tail...)
}

func sectionTitle(section string) string {
	words := strings.Split(strings.ReplaceAll(section, "-", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func printTaskLine(t *types.Task) {
	line := fmt.Sprintf("  %s %s", ui.Checkbox(t.Completed), t.Title)
	if labels := types.NonStatusLabels(t.Labels); len(labels) > 0 {
		line += "  " + ui.LabelStyle.Render(strings.Join(labels, " "))
	}
	if t.Trello != nil && t.Trello.CardID != "" {
		line += "  " + ui.AccentStyle.Render("[trello]")
	}
	fmt.Println(line)
	fmt.Println(ui.MutedStyle.Render("    " + t.ID))
}

func init() {
	listCmd.Flags().BoolP("all", "a", false, "Include completed tasks")
	listCmd.Flags().String("section", "", "Show a single section")
	rootCmd.AddCommand(listCmd)
}
