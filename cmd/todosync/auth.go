package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/todosync/todosync/internal/debug"
	"github.com/todosync/todosync/internal/secrets"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Trello credentials",
	Long: `Store the Trello API key and token outside the workspace, in the user
config directory. Credentials are scoped to this workspace by default;
--global stores a machine-wide fallback. The TRELLO_API_KEY and
TRELLO_TOKEN environment variables override both.`,
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Save API key and token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		key, _ := cmd.Flags().GetString("key")
		token, _ := cmd.Flags().GetString("token")
		global, _ := cmd.Flags().GetBool("global")

		creds := secrets.Credentials{APIKey: key, Token: token}
		if !creds.Present() {
			fatalf("both --key and --token are required")
		}

		st, err := secrets.Open()
		if err != nil {
			fatalf("%v", err)
		}

		scope := workspaceRoot()
		if global {
			scope = ""
		}
		if err := st.Set(scope, creds); err != nil {
			fatalf("saving credentials: %v", err)
		}

		if global {
			debug.PrintNormal("Saved global Trello credentials\n")
		} else {
			debug.PrintNormal("Saved Trello credentials for %s\n", scope)
		}
	},
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove saved credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		global, _ := cmd.Flags().GetBool("global")

		st, err := secrets.Open()
		if err != nil {
			fatalf("%v", err)
		}

		scope := workspaceRoot()
		if global {
			scope = ""
		}
		if err := st.Clear(scope); err != nil {
			fatalf("clearing credentials: %v", err)
		}
		debug.PrintNormal("Cleared Trello credentials\n")
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether credentials are configured",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := secrets.Open()
		if err != nil {
			fatalf("%v", err)
		}

		creds, err := st.Get(workspaceRoot())
		if err != nil {
			fatalf("reading credentials: %v", err)
		}

		if jsonOutput {
			printJSON(map[string]bool{"configured": creds.Present()})
			return
		}
		if creds.Present() {
			fmt.Println("Trello credentials are configured")
		} else {
			fmt.Println("No Trello credentials; run: todosync auth set --key <key> --token <token>")
		}
	},
}

func init() {
	authSetCmd.Flags().String("key", "", "Trello API key")
	authSetCmd.Flags().String("token", "", "Trello API token")
	authSetCmd.Flags().Bool("global", false, "Store machine-wide instead of per-workspace")
	authClearCmd.Flags().Bool("global", false, "Clear the machine-wide credentials")

	authCmd.AddCommand(authSetCmd, authClearCmd, authStatusCmd)
	rootCmd.AddCommand(authCmd)
}
