package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walrs/walrsctl/pkg/lint"
	"github.com/walrs/walrsctl/pkg/manifest"
)

var (
	lintFile   string
	lintFailOn string
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check the broker manifests for structural problems",
	Long: `Run the structural checks the walrs-core deployment depends on:
selector/label agreement, target port resolution, replica count,
resource request/limit sanity, and node port range.

Without -f the built-in manifests (as shaped by the flags) are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, err := lint.ParseSeverity(lintFailOn)
		if err != nil {
			return err
		}

		pair := &manifest.Pair{}
		if lintFile != "" {
			pair, err = manifest.LoadFile(lintFile)
			if err != nil {
				return err
			}
		} else {
			opts := manifestOptions()
			if err := opts.Validate(); err != nil {
				return err
			}
			pair.Deployment = manifest.Deployment(opts)
			pair.Service = manifest.Service(opts)
		}

		findings := lint.Check(pair.Deployment, pair.Service)
		for _, f := range findings {
			fmt.Printf("[%s] %s %s: %s\n", f.Severity, f.ID, f.Resource, f.Message)
			if f.Recommendation != "" {
				fmt.Printf("        %s\n", f.Recommendation)
			}
		}

		if len(findings) == 0 {
			fmt.Println("All checks passed")
			return nil
		}

		fmt.Printf("%d finding(s)\n", len(findings))
		if lint.AtLeast(findings, threshold) {
			return fmt.Errorf("lint failed: findings at or above %s", threshold)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFile, "filename", "f", "", "manifest file to check instead of the built-in pair")
	lintCmd.Flags().StringVar(&lintFailOn, "fail-on", string(lint.SeverityHigh), "minimum severity that fails the command")
}
