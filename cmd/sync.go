package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var (
	syncPriority int
	syncConfig   bool
	syncAgents   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Trigger a sync now",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/sync"
		switch {
		case syncConfig && syncAgents:
			return fmt.Errorf("--config and --agents are mutually exclusive")
		case syncConfig:
			path = "/sync/config"
		case syncAgents:
			path = "/sync/agents"
		}

		body := fmt.Sprintf(`{"priority":%d}`, syncPriority)
		resp, err := http.Post(daemonURL(path), "application/json", strings.NewReader(body))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&result)

		if resp.StatusCode != http.StatusAccepted {
			return fmt.Errorf("sync not accepted: %s", result["error"])
		}

		fmt.Printf("sync submitted: %s\n", result["job_id"])
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncPriority, "priority", 3, "job priority (lower = more urgent)")
	syncCmd.Flags().BoolVar(&syncConfig, "config", false, "sync tool configurations only")
	syncCmd.Flags().BoolVar(&syncAgents, "agents", false, "sync agents only")
	rootCmd.AddCommand(syncCmd)
}
