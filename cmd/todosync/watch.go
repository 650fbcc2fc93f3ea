package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the todos file and sync on change",
	Long: `Run until interrupted: watch todos.json for edits and sync after each
change settles, plus periodic syncs when trello.sync_interval_minutes is
set. An initial pass runs at startup.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		o, err := newOrchestrator()
		if err != nil {
			fatalf("%v", err)
		}
		o.OnMessage = func(msg string) {
			if !debug.IsQuiet() {
				fmt.Println(ui.MutedStyle.Render(msg))
			}
		}
		o.OnRefresh = func() {
			if !debug.IsQuiet() {
				fmt.Println(ui.AccentStyle.Render("todos updated"))
			}
		}

		if err := o.Start(rootCtx); err != nil {
			fatalf("starting watcher: %v", err)
		}
		defer o.Close()

		_, _ = o.SyncNow(rootCtx, "startup")

		debug.PrintNormal("Watching %s (ctrl-c to stop)\n", taskStore().Path())
		<-rootCtx.Done()
		debug.PrintNormal("\nstopping\n")
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
