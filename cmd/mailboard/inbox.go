package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/api"
	"github.com/nhle/mailboard/internal/pager"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui/format"
)

var (
	inboxAccount string
	inboxFolder  string
	inboxPage    int
	inboxSort    string
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Print one page of the unified inbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		accounts, err := client.Accounts.List(ctx)
		if err != nil {
			return fmt.Errorf("listing accounts: %w", err)
		}
		if len(accounts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No accounts linked. Run mailboard and add one from the Accounts view.")
			return nil
		}

		p := pager.New(client.Accounts, cfg.Inbox.PageSize, logger)
		p.SetAccounts(accounts)

		var sel pager.Selection = pager.AllAccounts{}
		if inboxAccount != "" {
			sel = pager.SpecificAccount{AccountID: api.ID(inboxAccount), FolderID: inboxFolder}
		}
		p.SetSelection(sel)

		page, err := p.First(ctx)
		for i := 1; err == nil && i < inboxPage; i++ {
			page, err = p.Advance(ctx)
		}
		if errors.Is(err, pager.ErrNoNextPage) {
			return fmt.Errorf("inbox has fewer than %d pages", inboxPage)
		}
		if err != nil {
			return fmt.Errorf("fetching inbox: %w", err)
		}

		col, dir := pager.ColumnDate, pager.Descending
		switch inboxSort {
		case "from":
			col, dir = pager.ColumnFrom, pager.Ascending
		case "subject":
			col, dir = pager.ColumnSubject, pager.Ascending
		}
		rows := pager.SortMessages(page.Messages, col, dir)

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rows)
		}

		out := cmd.OutOrStdout()
		if page.AllFailed() {
			return errors.New("every account failed to respond")
		}
		for _, id := range page.FailedAccounts {
			fmt.Fprintln(out, theme.WarningStyle.Render("⚠ account "+id.String()+" failed to load"))
		}
		if len(rows) == 0 {
			fmt.Fprintln(out, "No messages.")
			return nil
		}

		now := time.Now()
		for _, m := range rows {
			marker := " "
			if m.IsUnread {
				marker = theme.UnreadStyle.Render("●")
			}
			fmt.Fprintf(out, "%s %-24s %-50s %s\n",
				marker,
				ansi.Truncate(pager.SenderName(m.From), 24, "…"),
				ansi.Truncate(m.Subject, 50, "…"),
				theme.DimmedStyle.Render(format.Date(m.Date.Time, now)),
			)
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.DimmedStyle.Render(format.Pagination(
			page.Index, p.PageSize(), len(rows), page.Total, p.HasPrevious(), page.HasNext)))
		return nil
	},
}

func init() {
	inboxCmd.Flags().StringVar(&inboxAccount, "account", "", "Show only this account ID")
	inboxCmd.Flags().StringVar(&inboxFolder, "folder", "", "Folder ID within --account")
	inboxCmd.Flags().IntVar(&inboxPage, "page", 1, "Page number to print")
	inboxCmd.Flags().StringVar(&inboxSort, "sort", "date", "Sort by date, from or subject")
}
