package cmd

import (
	"github.com/spf13/cobra"

	"github.com/walrs/walrsctl/pkg/server"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the broker deployment status over HTTP",
	Long: `Start a small HTTP endpoint exposing the broker rollout:

- /healthz    liveness
- /status     live rollout state from the cluster
- /manifests  the rendered canonical YAML
- /lint       structural check results
- /metrics    Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := manifestOptions()
		if err := opts.Validate(); err != nil {
			return err
		}

		manager, err := newManager(opts)
		if err != nil {
			return err
		}

		return server.New(manager, opts).Run(serveListen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", getEnvOrDefault("WALRSCTL_LISTEN", ":9090"), "address to listen on")
}
