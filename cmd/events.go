package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"myai/internal/model"

	"github.com/spf13/cobra"
)

var eventsLimit int

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent file events",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(fmt.Sprintf("%s?n=%d", daemonURL("/events"), eventsLimit))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var events []model.EventSummary
		if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
			return fmt.Errorf("failed to decode events: %w", err)
		}

		if len(events) == 0 {
			fmt.Println("no recent events")
			return nil
		}

		fmt.Printf("%-20s %-10s %-14s %s\n", "TIME", "TYPE", "TARGET", "PATH")
		for _, ev := range events {
			fmt.Printf("%-20s %-10s %-14s %s\n",
				ev.Timestamp.Format("2006-01-02 15:04:05"),
				ev.Type, ev.Target, ev.Path)
		}

		return nil
	},
}

func init() {
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "number of events to show")
	rootCmd.AddCommand(eventsCmd)
}
