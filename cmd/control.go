package cmd

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
)

func postControl(path, done string) error {
	resp, err := http.Post(daemonURL(path), "application/json", nil)
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	fmt.Println(done)
	return nil
}

var enableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Resume automatic syncing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return postControl("/enable", "auto sync enabled")
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Pause automatic syncing (events are still observed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return postControl("/disable", "auto sync disabled")
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return postControl("/stop", "daemon stopping")
	},
}

func init() {
	rootCmd.AddCommand(enableCmd, disableCmd, stopCmd)
}
