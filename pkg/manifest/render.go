package manifest

import (
	"bytes"
	"fmt"

	"sigs.k8s.io/yaml"
)

// RenderYAML encodes the descriptor pair as a multi-document YAML
// stream, Deployment first so apply order matches the stock manifest.
func RenderYAML(opts Options) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	var buf bytes.Buffer
	for i, obj := range []interface{}{Deployment(opts), Service(opts)} {
		if i > 0 {
			buf.WriteString("---\n")
		}
		out, err := yaml.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal manifest: %w", err)
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}
