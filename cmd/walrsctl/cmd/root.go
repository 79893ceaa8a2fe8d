package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walrs/walrsctl/pkg/kube"
	"github.com/walrs/walrsctl/pkg/manifest"
)

var (
	kubeconfig  string
	kubeContext string

	namespace string
	name      string
	image     string
	replicas  int32
	nodePort  int32
	dataDir   string
)

var rootCmd = &cobra.Command{
	Use:   "walrsctl",
	Short: "Deployment tooling for the walrs-core broker",
	Long: `walrsctl builds, lints, and applies the Kubernetes descriptor pair
for the walrs-core message broker: one Deployment and the NodePort
Service that fronts it.

The canonical manifests are built in, so every command works without
any input files. Cluster commands resolve credentials from --kubeconfig,
KUBECONFIG, or the in-cluster service account.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion wires build-time version information into the CLI.
func SetVersion(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&kubeconfig, "kubeconfig", "", "path to the kubeconfig file")
	rootCmd.PersistentFlags().StringVar(&kubeContext, "context", "", "kubeconfig context to use")
	rootCmd.PersistentFlags().StringVar(&namespace, "namespace", getEnvOrDefault("WALRS_NAMESPACE", "walrs"), "namespace for the broker pair")
	rootCmd.PersistentFlags().StringVar(&name, "name", getEnvOrDefault("WALRS_NAME", "walrs-core"), "deployment name")
	rootCmd.PersistentFlags().StringVar(&image, "image", getEnvOrDefault("WALRS_IMAGE", "walrs_core:latest"), "broker container image")
	rootCmd.PersistentFlags().Int32Var(&replicas, "replicas", 1, "desired replica count")
	rootCmd.PersistentFlags().Int32Var(&nodePort, "node-port", 30080, "node port exposed by the service")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", getEnvOrDefault("WALRS_LOG_DIR", ""), "mount an emptyDir for segment logs at this path (empty disables)")
}

// manifestOptions folds the persistent flags into descriptor options.
func manifestOptions() manifest.Options {
	opts := manifest.Defaults()
	opts.Namespace = namespace
	opts.Name = name
	opts.Image = image
	opts.Replicas = replicas
	opts.NodePort = nodePort
	opts.DataDir = dataDir
	return opts
}

// newManager builds a cluster-backed manager for the configured pair.
func newManager(opts manifest.Options) (*kube.Manager, error) {
	clientset, err := kube.NewClient(kubeconfig, kubeContext)
	if err != nil {
		return nil, err
	}
	return kube.NewManager(clientset, opts), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
