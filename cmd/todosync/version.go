package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version and Build are stamped at release time via -ldflags.
var (
	Version = "dev"
	Build   = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			printJSON(map[string]string{"version": Version, "build": Build})
			return
		}
		fmt.Printf("todosync version %s (%s)\n", Version, Build)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
