package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/walrs/walrsctl/pkg/manifest"
)

var renderOutput string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the walrs-core manifests as YAML",
	Long: `Render the Deployment and Service manifests for the broker as a
multi-document YAML stream, to stdout or a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := manifest.RenderYAML(manifestOptions())
		if err != nil {
			return err
		}

		if renderOutput == "" {
			fmt.Print(string(out))
			return nil
		}

		if err := os.WriteFile(renderOutput, out, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", renderOutput, err)
		}
		fmt.Printf("Wrote manifests to %s\n", renderOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write the manifests to this file instead of stdout")
}
