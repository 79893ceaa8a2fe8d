package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	scaleWait    bool
	scaleTimeout time.Duration
)

var scaleCmd = &cobra.Command{
	Use:   "scale <replicas>",
	Short: "Set the desired replica count of the broker deployment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		count, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid replica count %q: %w", args[0], err)
		}

		manager, err := newManager(manifestOptions())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := manager.Scale(ctx, int32(count)); err != nil {
			return err
		}

		if scaleWait && count > 0 {
			if err := manager.WaitForReady(ctx, scaleTimeout); err != nil {
				return err
			}
			fmt.Println("Rollout complete")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scaleCmd)

	scaleCmd.Flags().BoolVar(&scaleWait, "wait", false, "wait for the rollout to become ready")
	scaleCmd.Flags().DurationVar(&scaleTimeout, "timeout", 2*time.Minute, "how long --wait waits before giving up")
}
