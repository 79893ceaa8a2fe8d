package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/walrs/walrsctl/pkg/kube"
	"github.com/walrs/walrsctl/pkg/rbac"
)

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Verify RBAC permissions before applying",
	Long: `Check that the current identity can get, create, update, and delete
deployments and services in the target namespace.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		clientset, err := kube.NewClient(kubeconfig, kubeContext)
		if err != nil {
			return err
		}

		if err := rbac.VerifyPermissions(cmd.Context(), clientset, namespace); err != nil {
			return err
		}
		fmt.Printf("All required permissions granted in namespace %s\n", namespace)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preflightCmd)
}
