package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/config"
	"github.com/todosync/todosync/internal/debug"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get or set configuration values",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		value := config.GetString(args[0])
		if jsonOutput {
			printJSON(map[string]string{args[0]: value})
			return
		}
		fmt.Println(value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a config value",
	Long: `Write a value into config.yaml. Keys use dotted paths, for example
trello.enabled, trello.board, trello.list_mapping.Doing.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Set(todosDir(), args[0], args[1]); err != nil {
			fatalf("%v", err)
		}
		if !jsonOutput {
			debug.PrintNormal("set %s = %s\n", args[0], args[1])
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
