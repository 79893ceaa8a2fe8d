package manifest

import (
	"fmt"
	"os"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"sigs.k8s.io/yaml"
)

// Pair holds a loaded descriptor pair. Either side may be nil when the
// source stream only contained one of the two kinds.
type Pair struct {
	Deployment *appsv1.Deployment
	Service    *corev1.Service
}

// LoadFile reads a manifest file and decodes its documents into a Pair.
func LoadFile(path string) (*Pair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return Load(data)
}

// Load decodes a multi-document YAML stream, dispatching on kind.
// Kinds other than Deployment and Service are rejected.
func Load(data []byte) (*Pair, error) {
	pair := &Pair{}

	for _, doc := range splitDocuments(data) {
		var head struct {
			APIVersion string `json:"apiVersion"`
			Kind       string `json:"kind"`
		}
		if err := yaml.Unmarshal(doc, &head); err != nil {
			return nil, fmt.Errorf("failed to parse manifest document: %w", err)
		}

		switch head.Kind {
		case "Deployment":
			if pair.Deployment != nil {
				return nil, fmt.Errorf("manifest contains more than one Deployment")
			}
			dep := &appsv1.Deployment{}
			if err := yaml.Unmarshal(doc, dep); err != nil {
				return nil, fmt.Errorf("failed to parse Deployment: %w", err)
			}
			pair.Deployment = dep
		case "Service":
			if pair.Service != nil {
				return nil, fmt.Errorf("manifest contains more than one Service")
			}
			svc := &corev1.Service{}
			if err := yaml.Unmarshal(doc, svc); err != nil {
				return nil, fmt.Errorf("failed to parse Service: %w", err)
			}
			pair.Service = svc
		case "":
			return nil, fmt.Errorf("manifest document has no kind")
		default:
			return nil, fmt.Errorf("unsupported resource kind: %s", head.Kind)
		}
	}

	if pair.Deployment == nil && pair.Service == nil {
		return nil, fmt.Errorf("manifest contains no documents")
	}
	return pair, nil
}

// splitDocuments splits a YAML stream on document separators, dropping
// empty documents.
func splitDocuments(data []byte) [][]byte {
	var docs [][]byte
	for _, chunk := range strings.Split("\n"+string(data), "\n---") {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		docs = append(docs, []byte(chunk))
	}
	return docs
}
