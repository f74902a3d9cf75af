package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui/format"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List linked mail accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := client.Accounts.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing accounts: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(accounts)
		}

		out := cmd.OutOrStdout()
		if len(accounts) == 0 {
			fmt.Fprintln(out, "No accounts linked.")
			return nil
		}
		for _, a := range accounts {
			status := theme.SuccessStyle.Render(a.SyncStatus)
			if a.NeedsReauth() {
				status = theme.ErrorStyle.Render("needs reconnection")
			}
			fmt.Fprintf(out, "%-6s %-36s %-10s %-20s %s\n",
				a.ID, a.EmailAddress, a.Provider, status,
				theme.DimmedStyle.Render("last sync "+format.LastSync(a.LastSyncAt.Time)))
		}
		return nil
	},
}

var accountsSyncCmd = &cobra.Command{
	Use:   "sync <account-id>",
	Short: "Trigger a sync of one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Accounts.Sync(cmd.Context(), api.ID(args[0])); err != nil {
			return fmt.Errorf("syncing account %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sync started for account %s\n", args[0])
		return nil
	},
}

var accountsFoldersCmd = &cobra.Command{
	Use:   "folders <account-id>",
	Short: "List an account's folders",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folders, err := client.Accounts.Folders(cmd.Context(), api.ID(args[0]))
		if err != nil {
			return fmt.Errorf("listing folders: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(folders)
		}

		for _, f := range folders {
			unread := ""
			if f.UnreadCount > 0 {
				unread = theme.UnreadStyle.Render(fmt.Sprintf("(%d)", f.UnreadCount))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s %s\n", f.ID, f.Name, unread)
		}
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsSyncCmd)
	accountsCmd.AddCommand(accountsFoldersCmd)
}
