// Package kube talks to the cluster: client construction plus
// create/update/delete/status operations for the walrs-core pair.
package kube

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// pickKubeconfigPath chooses the kubeconfig file to load: the explicit
// flag wins, then the first existing KUBECONFIG entry, then empty so
// the caller falls through to in-cluster and default loading rules.
func pickKubeconfigPath(explicitPath string) string {
	if strings.TrimSpace(explicitPath) != "" {
		return explicitPath
	}

	env := strings.TrimSpace(os.Getenv("KUBECONFIG"))
	if env == "" {
		return ""
	}

	for _, p := range filepath.SplitList(env) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Nothing on disk; return the raw value so the load error names it.
	return env
}

// LoadConfig returns a rest.Config. Explicit kubeconfig paths are
// loaded from file so failures surface as real parse errors instead of
// "no configuration provided".
func LoadConfig(kubeconfigPath, kubeContext string) (*rest.Config, error) {
	chosen := pickKubeconfigPath(kubeconfigPath)

	if chosen != "" {
		raw, err := clientcmd.LoadFromFile(chosen)
		if err != nil {
			return nil, fmt.Errorf("failed to read kubeconfig %q: %w", chosen, err)
		}
		overrides := &clientcmd.ConfigOverrides{}
		if kubeContext != "" {
			overrides.CurrentContext = kubeContext
		}
		cfg, err := clientcmd.NewDefaultClientConfig(*raw, overrides).ClientConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to build client config from %q: %w", chosen, err)
		}
		return cfg, nil
	}

	if cfg, err := rest.InClusterConfig(); err == nil {
		return cfg, nil
	}

	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{CurrentContext: kubeContext}
	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(rules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kube config: %w", err)
	}
	return cfg, nil
}

// NewClient builds a clientset from the resolved config.
func NewClient(kubeconfigPath, kubeContext string) (*kubernetes.Clientset, error) {
	cfg, err := LoadConfig(kubeconfigPath, kubeContext)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return clientset, nil
}
