package cmd

import (
	"myai/internal/auth"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize cloud backup providers",
}

var authGDriveCmd = &cobra.Command{
	Use:   "gdrive",
	Short: "Authorize the Google Drive backup adapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return auth.Authorize()
	},
}

func init() {
	authCmd.AddCommand(authGDriveCmd)
	rootCmd.AddCommand(authCmd)
}
