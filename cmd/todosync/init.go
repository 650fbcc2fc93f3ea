package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold the todos directory",
	Long: `Create the todos directory with an empty todos.json and a commented
config.yaml. Safe to run in a fresh workspace; refuses to overwrite an
existing config.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dir := todosDir()

		path, err := config.WriteDefault(dir)
		if err != nil {
			fatalf("%v", err)
		}

		st := store.New(dir)
		if _, statErr := os.Stat(st.Path()); os.IsNotExist(statErr) {
			if err := st.Save(&store.File{Todos: nil}); err != nil {
				fatalf("creating %s: %v", st.Path(), err)
			}
		}

		if jsonOutput {
			printJSON(map[string]string{"config": path, "todos": st.Path()})
			return
		}
		debug.PrintNormal("Initialized %s\n", dir)
		debug.PrintNormal("  config: %s\n", path)
		debug.PrintNormal("  todos:  %s\n", st.Path())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
