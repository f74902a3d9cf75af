package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/app"
	"github.com/nhle/mailboard/internal/imapprobe"
	"github.com/nhle/mailboard/internal/pager"
	"github.com/nhle/mailboard/internal/state"
	"github.com/nhle/mailboard/internal/store"
	appsync "github.com/nhle/mailboard/internal/sync"
	"github.com/nhle/mailboard/internal/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive dashboard (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

// seedState fills preferences that were never persisted from the config
// file, so the config acts as the first-run default.
func seedState(ctx context.Context, st store.Store) error {
	seeds := map[string]string{
		state.KeyUserID: cfg.API.UserID,
		state.KeyTheme:  cfg.Display.Theme,
	}
	for key, value := range seeds {
		if _, ok, err := st.Get(ctx, key); err != nil {
			return err
		} else if ok || value == "" {
			continue
		}
		if err := st.Set(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

func runTUI(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.NewSQLiteStore(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}
	defer st.Close()

	if err := seedState(ctx, st); err != nil {
		return fmt.Errorf("seeding state: %w", err)
	}

	manager, err := state.NewManager(ctx, st, logger)
	if err != nil {
		return fmt.Errorf("loading view state: %w", err)
	}
	if userFlag != "" {
		if _, err := manager.Dispatch(ctx, state.SwitchUser{UserID: userFlag}); err != nil {
			logger.WithError(err).Warn("Failed to persist user override")
		}
	}

	opts := app.Options{
		Client:  client,
		Pager:   pager.New(client.Accounts, cfg.Inbox.PageSize, logger),
		State:   manager,
		Theme:   theme.DetectMode(manager.State().Theme),
		Monitor: appsync.NewMonitor(client.Analytics, cfg.Polling.SyncStatusInterval(), logger),
		Poller:  appsync.NewNotificationPoller(client.Notifications, cfg.Polling.NotificationInterval(), logger),
		Logger:  logger,
	}
	if cfg.Accounts.ProbeIMAP {
		opts.Prober = imapprobe.New(0)
	}

	logger.WithField("user_id", manager.State().UserID).Info("Starting dashboard")

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
