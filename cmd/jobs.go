package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"myai/internal/model"

	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the job queue",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show queue status and recent failures",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/jobs"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Queue          model.QueueStatus `json:"queue"`
			RecentFailures []model.SyncJob   `json:"recent_failures"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		q := result.Queue
		fmt.Printf("queued: %d  running: %d  completed: %d  failed: %d\n",
			q.QueueSize, q.Running, q.Completed, q.Failed)

		if len(result.RecentFailures) == 0 {
			return nil
		}

		fmt.Printf("\n%-10s %-20s %-10s %s\n", "ID", "TYPE", "RETRIES", "ERROR")
		for _, j := range result.RecentFailures {
			fmt.Printf("%-10s %-20s %-10d %s\n", j.ID, j.Type, j.RetryCount, j.Error)
		}

		return nil
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/jobs/" + args[0]))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("job %s not found", args[0])
		}

		var job model.SyncJob
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return fmt.Errorf("failed to decode job: %w", err)
		}

		fmt.Printf("id:       %s\n", job.ID)
		fmt.Printf("type:     %s\n", job.Type)
		fmt.Printf("status:   %s\n", job.Status)
		fmt.Printf("priority: %d\n", job.Priority)
		fmt.Printf("retries:  %d/%d\n", job.RetryCount, job.MaxRetries)
		if job.Error != "" {
			fmt.Printf("error:    %s\n", job.Error)
		}

		return nil
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a queued job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, _ := http.NewRequest(http.MethodDelete, daemonURL("/jobs/"+args[0]), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			var result map[string]string
			_ = json.NewDecoder(resp.Body).Decode(&result)
			return fmt.Errorf("cancel failed: %s", result["error"])
		}

		fmt.Printf("job %s cancelled\n", args[0])
		return nil
	},
}

var (
	keepCompleted int
	keepFailed    int
)

var jobsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Trim completed and failed job history",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := fmt.Sprintf(`{"keep_completed":%d,"keep_failed":%d}`, keepCompleted, keepFailed)
		resp, err := http.Post(daemonURL("/jobs/cleanup"), "application/json", strings.NewReader(body))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result map[string]int
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}

		fmt.Printf("removed %d jobs\n", result["removed"])
		return nil
	},
}

func init() {
	jobsCleanupCmd.Flags().IntVar(&keepCompleted, "keep-completed", 20, "completed jobs to keep")
	jobsCleanupCmd.Flags().IntVar(&keepFailed, "keep-failed", 20, "failed jobs to keep")
	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsCancelCmd, jobsCleanupCmd)
	rootCmd.AddCommand(jobsCmd)
}
