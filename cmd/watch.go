package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage extra watched paths",
}

var watchAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Watch an additional path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := json.Marshal(map[string]string{"path": args[0]})
		resp, err := http.Post(daemonURL("/watch"), "application/json", strings.NewReader(string(payload)))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusCreated {
			var result map[string]string
			_ = json.NewDecoder(resp.Body).Decode(&result)
			return fmt.Errorf("failed to add watch path: %s", result["error"])
		}

		fmt.Printf("watching %s\n", args[0])
		return nil
	},
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove [path]",
	Short: "Stop watching a path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := daemonURL("/watch") + "?path=" + url.QueryEscape(args[0])
		req, _ := http.NewRequest(http.MethodDelete, u, nil)
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
			return fmt.Errorf("failed to remove watch path: %s", result["error"])
		}

		fmt.Printf("stopped watching %s\n", args[0])
		return nil
	},
}

func init() {
	watchCmd.AddCommand(watchAddCmd, watchRemoveCmd)
	rootCmd.AddCommand(watchCmd)
}
