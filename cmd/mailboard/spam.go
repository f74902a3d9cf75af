package main

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/theme"
)

var spamCmd = &cobra.Command{
	Use:   "spam",
	Short: "Look up sender reputation on the Spamhaus blocklists",
}

var spamCheckCmd = &cobra.Command{
	Use:   "check <email>...",
	Short: "Check one or more addresses",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			res, err := client.Spam.CheckEmail(ctx, args[0])
			if err != nil {
				return fmt.Errorf("checking %s: %w", args[0], err)
			}
			if jsonOutput {
				return json.NewEncoder(out).Encode(res)
			}
			fmt.Fprintln(out, spamLine(args[0], *res))
			return nil
		}

		batch, err := client.Spam.CheckEmails(ctx, args)
		if err != nil {
			return fmt.Errorf("checking %d addresses: %w", len(args), err)
		}
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(batch.Results)
		}

		emails := make([]string, 0, len(batch.Results))
		for email := range batch.Results {
			emails = append(emails, email)
		}
		slices.SortFunc(emails, func(a, b string) int {
			la, lb := batch.Results[a].Listed, batch.Results[b].Listed
			switch {
			case la && !lb:
				return -1
			case lb && !la:
				return 1
			}
			if a < b {
				return -1
			}
			if a > b {
				return 1
			}
			return 0
		})
		for _, email := range emails {
			fmt.Fprintln(out, spamLine(email, batch.Results[email]))
		}

		s := batch.Summary
		fmt.Fprintf(out, "\n%s  %s  %d total\n",
			theme.SuccessStyle.Render(fmt.Sprintf("✓ %d clean", s.Clean)),
			theme.ErrorStyle.Render(fmt.Sprintf("⚠ %d listed", s.Listed)),
			s.Total)
		return nil
	},
}

func spamLine(email string, r api.SpamResult) string {
	if !r.Listed {
		return theme.SuccessStyle.Render("✓ "+email) + theme.DimmedStyle.Render(" clean")
	}
	line := theme.ErrorStyle.Render("⚠ "+email) + " listed"
	if r.Reason != "" {
		line += ": " + r.Reason
	}
	return line
}

var spamCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show lookup cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := client.Spam.CacheStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading cache stats: %w", err)
		}
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(stats)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s entries, %s hits, %s misses, %.1f%% hit rate\n",
			humanize.Comma(stats.Size),
			humanize.Comma(stats.Hits),
			humanize.Comma(stats.Misses),
			stats.HitRate*100)
		return nil
	},
}

var spamClearCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Empty the lookup cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Spam.ClearCache(cmd.Context()); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
		return nil
	},
}

func init() {
	spamCmd.AddCommand(spamCheckCmd)
	spamCmd.AddCommand(spamCacheCmd)
	spamCmd.AddCommand(spamClearCmd)
}
