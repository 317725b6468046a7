package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"myai/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var status model.CoordinatorStatus
		if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		onOff := func(b bool) string {
			if b {
				return "on"
			}
			return "off"
		}

		fmt.Printf("enabled:   %s\n", onOff(status.Enabled))
		fmt.Printf("running:   %s\n", onOff(status.Running))
		fmt.Printf("watcher:   %s\n", onOff(status.WatcherActive))
		fmt.Printf("events:    %d seen, %d jobs submitted\n", status.EventsSeen, status.JobsSubmitted)

		if len(status.PendingTargets) > 0 {
			fmt.Printf("pending:   %v\n", status.PendingTargets)
		}

		if status.LastAutoSync != nil {
			fmt.Printf("last auto sync: %s\n", status.LastAutoSync.Format("2006-01-02 15:04:05"))
		}

		q := status.Queue
		fmt.Printf("\nqueue: %d queued, %d running, %d completed, %d failed\n",
			q.QueueSize, q.Running, q.Completed, q.Failed)
		fmt.Printf("stats: %d completed, %d failed, %d retried, exec time %s\n",
			q.Stats.Completed, q.Stats.Failed, q.Stats.Retried, q.Stats.TotalExecTime.Round(time.Millisecond))

		if q.Stats.LastSuccess != nil {
			fmt.Printf("last success: %s\n", q.Stats.LastSuccess.Format("2006-01-02 15:04:05"))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
