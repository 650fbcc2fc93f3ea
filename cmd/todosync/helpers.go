package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/todosync/todosync/internal/boardsync"
	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/secrets"
	"github.com/todosync/todosync/internal/store"
	"github.com/todosync/todosync/internal/ui"
)

// todosDir resolves the directory holding todos.json and config.yaml:
// the --dir flag when given, otherwise .todos under the current directory.
func todosDir() string {
	if todosDirFlag != "" {
		return todosDirFlag
	}
	return config.DefaultTodosDir
}

// workspaceRoot is the absolute path credentials are scoped to.
func workspaceRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	abs, err := filepath.Abs(wd)
	if err != nil {
		return wd
	}
	return abs
}

func taskStore() *store.Store {
	return store.New(todosDir())
}

// newOrchestrator wires the sync orchestrator against the real secret store
// and the CLI's output conventions.
func newOrchestrator() (*boardsync.Orchestrator, error) {
	creds, err := secrets.Open()
	if err != nil {
		return nil, err
	}
	o := boardsync.NewOrchestrator(taskStore(), workspaceRoot(), creds)
	o.OnMessage = func(msg string) { debug.Logf("%s\n", msg) }
	o.OnWarning = func(msg string) {
		fmt.Fprintln(os.Stderr, ui.WarnStyle.Render("warning: "+msg))
	}
	return o, nil
}

func fatalf(format string, args ...interface{}) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
		fmt.Println(string(out))
	} else {
		fmt.Fprintln(os.Stderr, ui.FailStyle.Render("Error: "+fmt.Sprintf(format, args...)))
	}
	os.Exit(1)
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("marshaling output: %v", err)
	}
	fmt.Println(string(out))
}
