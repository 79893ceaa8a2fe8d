package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/walrs/walrsctl/pkg/lint"
	"github.com/walrs/walrsctl/pkg/manifest"
)

var (
	applyWait    bool
	applyTimeout time.Duration
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Create or update the broker pair on the cluster",
	Long: `Apply the walrs-core Deployment and Service. Existing resources are
updated in place; the Service keeps its allocated ClusterIP.

The pair is linted first and apply refuses to proceed on CRITICAL
findings, since those mean the Service would route no traffic.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := manifestOptions()
		if err := opts.Validate(); err != nil {
			return err
		}

		findings := lint.Check(manifest.Deployment(opts), manifest.Service(opts))
		if lint.AtLeast(findings, lint.SeverityCritical) {
			for _, f := range findings {
				fmt.Printf("[%s] %s: %s\n", f.Severity, f.ID, f.Message)
			}
			return fmt.Errorf("refusing to apply: pair has CRITICAL findings")
		}

		manager, err := newManager(opts)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := manager.Apply(ctx); err != nil {
			return err
		}

		if applyWait {
			fmt.Printf("Waiting up to %v for the rollout...\n", applyTimeout)
			if err := manager.WaitForReady(ctx, applyTimeout); err != nil {
				return err
			}
			fmt.Println("Rollout complete")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyWait, "wait", false, "wait for the rollout to become ready")
	applyCmd.Flags().DurationVar(&applyTimeout, "timeout", 2*time.Minute, "how long --wait waits before giving up")
}
