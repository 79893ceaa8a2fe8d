package kube

import (
	"context"
	"fmt"
	"log"
	"time"

	"k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/walrs/walrsctl/pkg/manifest"
)

const readyPollInterval = 2 * time.Second

// Manager applies and inspects the walrs-core descriptor pair on a
// cluster.
type Manager struct {
	clientset kubernetes.Interface
	opts      manifest.Options
}

// Status is a point-in-time view of the broker rollout.
type Status struct {
	DesiredReplicas int32 `json:"desiredReplicas"`
	ReadyReplicas   int32 `json:"readyReplicas"`
	UpdatedReplicas int32 `json:"updatedReplicas"`
	Ready           bool  `json:"ready"`
	NodePort        int32 `json:"nodePort"`
}

// NewManager creates a Manager for the given descriptor options.
func NewManager(clientset kubernetes.Interface, opts manifest.Options) *Manager {
	return &Manager{
		clientset: clientset,
		opts:      opts,
	}
}

// Apply creates or updates the Deployment and Service.
func (m *Manager) Apply(ctx context.Context) error {
	if err := m.opts.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	if err := m.ensureDeployment(ctx); err != nil {
		recordOperation("apply", "error")
		return fmt.Errorf("failed to ensure deployment: %w", err)
	}
	if err := m.ensureService(ctx); err != nil {
		recordOperation("apply", "error")
		return fmt.Errorf("failed to ensure service: %w", err)
	}

	recordOperation("apply", "success")
	return nil
}

func (m *Manager) ensureDeployment(ctx context.Context) error {
	desired := manifest.Deployment(m.opts)
	deployments := m.clientset.AppsV1().Deployments(m.opts.Namespace)

	existing, err := deployments.Get(ctx, m.opts.Name, metav1.GetOptions{})
	if err != nil {
		if errors.IsNotFound(err) {
			if _, err := deployments.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
				return fmt.Errorf("failed to create deployment: %w", err)
			}
			log.Printf("Created Deployment %s/%s", m.opts.Namespace, m.opts.Name)
			return nil
		}
		return fmt.Errorf("failed to get deployment: %w", err)
	}

	// The selector is immutable; only the rest of the spec follows the
	// desired state.
	existing.Labels = desired.Labels
	existing.Spec.Replicas = desired.Spec.Replicas
	existing.Spec.Template = desired.Spec.Template
	if _, err := deployments.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}
	log.Printf("Updated Deployment %s/%s", m.opts.Namespace, m.opts.Name)
	return nil
}

func (m *Manager) ensureService(ctx context.Context) error {
	desired := manifest.Service(m.opts)
	services := m.clientset.CoreV1().Services(m.opts.Namespace)

	existing, err := services.Get(ctx, m.opts.ServiceName(), metav1.GetOptions{})
	if err != nil {
		if errors.IsNotFound(err) {
			if _, err := services.Create(ctx, desired, metav1.CreateOptions{}); err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			log.Printf("Created Service %s/%s", m.opts.Namespace, m.opts.ServiceName())
			return nil
		}
		return fmt.Errorf("failed to get service: %w", err)
	}

	// Update in place so the allocated ClusterIP survives.
	existing.Labels = desired.Labels
	existing.Spec.Type = desired.Spec.Type
	existing.Spec.Selector = desired.Spec.Selector
	existing.Spec.Ports = desired.Spec.Ports
	if _, err := services.Update(ctx, existing, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	log.Printf("Updated Service %s/%s", m.opts.Namespace, m.opts.ServiceName())
	return nil
}

// Delete removes the pair. Missing resources are not an error so
// delete is idempotent.
func (m *Manager) Delete(ctx context.Context) error {
	err := m.clientset.AppsV1().Deployments(m.opts.Namespace).
		Delete(ctx, m.opts.Name, metav1.DeleteOptions{})
	if err != nil && !errors.IsNotFound(err) {
		recordOperation("delete", "error")
		return fmt.Errorf("failed to delete deployment: %w", err)
	}

	err = m.clientset.CoreV1().Services(m.opts.Namespace).
		Delete(ctx, m.opts.ServiceName(), metav1.DeleteOptions{})
	if err != nil && !errors.IsNotFound(err) {
		recordOperation("delete", "error")
		return fmt.Errorf("failed to delete service: %w", err)
	}

	recordOperation("delete", "success")
	log.Printf("Deleted %s/%s and %s/%s", m.opts.Namespace, m.opts.Name,
		m.opts.Namespace, m.opts.ServiceName())
	return nil
}

// Scale sets the desired replica count on the live Deployment.
func (m *Manager) Scale(ctx context.Context, replicas int32) error {
	if replicas < 0 {
		return fmt.Errorf("replicas cannot be negative")
	}

	deployments := m.clientset.AppsV1().Deployments(m.opts.Namespace)
	dep, err := deployments.Get(ctx, m.opts.Name, metav1.GetOptions{})
	if err != nil {
		recordOperation("scale", "error")
		return fmt.Errorf("failed to get deployment: %w", err)
	}

	dep.Spec.Replicas = &replicas
	if _, err := deployments.Update(ctx, dep, metav1.UpdateOptions{}); err != nil {
		recordOperation("scale", "error")
		return fmt.Errorf("failed to scale deployment: %w", err)
	}

	recordOperation("scale", "success")
	log.Printf("Scaled Deployment %s/%s to %d replicas", m.opts.Namespace, m.opts.Name, replicas)
	return nil
}

// Status reports the current rollout state of the pair.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	dep, err := m.clientset.AppsV1().Deployments(m.opts.Namespace).
		Get(ctx, m.opts.Name, metav1.GetOptions{})
	if err != nil {
		return Status{}, fmt.Errorf("failed to get deployment: %w", err)
	}

	status := Status{
		ReadyReplicas:   dep.Status.ReadyReplicas,
		UpdatedReplicas: dep.Status.UpdatedReplicas,
	}
	if dep.Spec.Replicas != nil {
		status.DesiredReplicas = *dep.Spec.Replicas
	}
	status.Ready = status.DesiredReplicas > 0 && status.ReadyReplicas >= status.DesiredReplicas

	svc, err := m.clientset.CoreV1().Services(m.opts.Namespace).
		Get(ctx, m.opts.ServiceName(), metav1.GetOptions{})
	if err != nil {
		if !errors.IsNotFound(err) {
			return Status{}, fmt.Errorf("failed to get service: %w", err)
		}
		return status, nil
	}
	for _, p := range svc.Spec.Ports {
		if p.NodePort != 0 {
			status.NodePort = p.NodePort
			break
		}
	}

	return status, nil
}

// WaitForReady polls until every desired replica reports ready or the
// timeout elapses.
func (m *Manager) WaitForReady(ctx context.Context, timeout time.Duration) error {
	start := time.Now()
	deadline := start.Add(timeout)
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		status, err := m.Status(ctx)
		if err != nil {
			log.Printf("Waiting for rollout: %v", err)
		} else if status.Ready {
			observeRolloutWait(time.Since(start))
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("deployment %s/%s not ready after %v",
				m.opts.Namespace, m.opts.Name, timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
