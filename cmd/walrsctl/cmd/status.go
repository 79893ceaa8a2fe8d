package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the rollout state of the broker pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := manifestOptions()
		manager, err := newManager(opts)
		if err != nil {
			return err
		}

		status, err := manager.Status(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Deployment: %s/%s\n", opts.Namespace, opts.Name)
		fmt.Printf("  Replicas: %d desired, %d ready, %d updated\n",
			status.DesiredReplicas, status.ReadyReplicas, status.UpdatedReplicas)
		if status.Ready {
			fmt.Println("  Rollout:  ready")
		} else {
			fmt.Println("  Rollout:  not ready")
		}
		if status.NodePort != 0 {
			fmt.Printf("Service:    %s/%s (nodePort %d)\n", opts.Namespace, opts.ServiceName(), status.NodePort)
		} else {
			fmt.Printf("Service:    %s/%s (not found)\n", opts.Namespace, opts.ServiceName())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
