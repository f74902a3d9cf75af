package main

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/spf13/cobra"

	"github.com/nhle/mailboard/internal/api"
	appsync "github.com/nhle/mailboard/internal/sync"
	"github.com/nhle/mailboard/internal/theme"
	"github.com/nhle/mailboard/internal/ui/format"
)

var syncWait bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Start an analytics sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		job, err := client.Analytics.StartSync(ctx)
		if err != nil {
			return fmt.Errorf("starting sync: %w", err)
		}
		fmt.Fprintf(out, "Sync job %s started\n", job.JobID)
		if !syncWait {
			return nil
		}

		mon := appsync.NewMonitor(client.Analytics, cfg.Polling.SyncStatusInterval(), logger)
		mon.Start()
		defer mon.Stop()
		mon.Watch()

		bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
		for {
			select {
			case <-ctx.Done():
				fmt.Fprintln(out)
				if last, ok := mon.Last(); ok {
					fmt.Fprintf(out, "Stopped following job %s at %s; it keeps running on the backend\n",
						last.JobID, format.Percent(last.Progress))
				}
				return ctx.Err()
			case msg := <-mon.Events():
				switch msg := msg.(type) {
				case appsync.SyncProgressMsg:
					fmt.Fprintf(out, "\r%s %s  %s",
						bar.ViewAs(min(1, max(0, msg.Job.Progress/100))),
						format.Percent(msg.Job.Progress),
						theme.DimmedStyle.Render(format.SyncStats(msg.Job)))
				case appsync.SyncFinishedMsg:
					fmt.Fprintln(out)
					return finished(cmd, msg.Job)
				}
			}
		}
	},
}

func finished(cmd *cobra.Command, job api.SyncJob) error {
	switch job.Status {
	case api.JobCompleted:
		fmt.Fprintln(cmd.OutOrStdout(), theme.SuccessStyle.Render("Sync completed"))
		return nil
	case api.JobCancelled:
		fmt.Fprintln(cmd.OutOrStdout(), theme.WarningStyle.Render("Sync cancelled"))
		return nil
	}
	return fmt.Errorf("sync failed: %s", job.StatusMessage)
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest analytics sync job",
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := client.Analytics.SyncStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading sync status: %w", err)
		}
		if jsonOutput {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(job)
		}
		if job == nil || job.JobID == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No sync has run yet.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Job %s: %s %s\n%s\n",
			job.JobID, job.Status, format.Percent(job.Progress), format.SyncStats(*job))
		return nil
	},
}

var syncCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a running analytics sync",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client.Analytics.CancelSync(cmd.Context(), api.ID(args[0])); err != nil {
			return fmt.Errorf("cancelling sync %s: %w", args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sync job %s cancelled\n", args[0])
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVarP(&syncWait, "wait", "w", false, "Follow progress until the job finishes")
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncCancelCmd)
}
