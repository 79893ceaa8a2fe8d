package cmd

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the broker pair from the cluster",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager(manifestOptions())
		if err != nil {
			return err
		}
		return manager.Delete(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
