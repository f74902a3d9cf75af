package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/theme"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := client.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend at %s is unreachable: %w", cfg.API.BaseURL, err)
		}
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(h)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (user %s)\n",
			theme.SuccessStyle.Render("✓ backend "+h.Status),
			cfg.API.BaseURL, client.UserID())
		return nil
	},
}
