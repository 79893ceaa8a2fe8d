// Package manifest builds the Kubernetes descriptor pair for the
// walrs-core broker: one apps/v1 Deployment and the NodePort Service
// that fronts it.
package manifest

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

const (
	// logDirEnv tells the broker where to write its segment logs.
	logDirEnv = "WALRS_LOG_DIR"

	dataVolumeName = "segment-logs"
)

// Options describes the walrs-core descriptor pair. The zero value is
// not usable; start from Defaults and override as needed.
type Options struct {
	Name      string
	Namespace string
	Image     string
	Replicas  int32

	// PortName names the broker container port and is used as the
	// Service targetPort, so routing survives container port renumbering.
	PortName      string
	ContainerPort int32
	ServicePort   int32
	NodePort      int32

	MemoryRequest string
	MemoryLimit   string
	CPURequest    string
	CPULimit      string

	// DataDir, when set, mounts an emptyDir at that path and exports it
	// to the broker via WALRS_LOG_DIR. Empty leaves the pod spec as the
	// stock manifest ships it.
	DataDir string
}

// Defaults returns the canonical walrs-core descriptor options, matching
// the manifest the broker ships with.
func Defaults() Options {
	return Options{
		Name:          "walrs-core",
		Namespace:     "walrs",
		Image:         "walrs_core:latest",
		Replicas:      1,
		PortName:      "walrs-core-svc",
		ContainerPort: 8080,
		ServicePort:   8080,
		NodePort:      30080,
		MemoryRequest: "32Mi",
		MemoryLimit:   "128Mi",
		CPURequest:    "250m",
		CPULimit:      "500m",
	}
}

// ServiceName returns the name of the Service fronting the broker.
func (o Options) ServiceName() string {
	return o.Name + "-svc"
}

// Validate checks that the options can produce a well-formed pair.
func (o Options) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if o.Namespace == "" {
		return fmt.Errorf("namespace cannot be empty")
	}
	if o.Image == "" {
		return fmt.Errorf("image cannot be empty")
	}
	if o.PortName == "" {
		return fmt.Errorf("port name cannot be empty")
	}
	if o.ContainerPort <= 0 || o.ContainerPort > 65535 {
		return fmt.Errorf("invalid container port %d", o.ContainerPort)
	}
	if o.ServicePort <= 0 || o.ServicePort > 65535 {
		return fmt.Errorf("invalid service port %d", o.ServicePort)
	}
	for _, q := range []struct {
		field string
		value string
	}{
		{"memory request", o.MemoryRequest},
		{"memory limit", o.MemoryLimit},
		{"cpu request", o.CPURequest},
		{"cpu limit", o.CPULimit},
	} {
		if _, err := resource.ParseQuantity(q.value); err != nil {
			return fmt.Errorf("invalid %s %q: %w", q.field, q.value, err)
		}
	}
	return nil
}

// selectorLabels are the labels the Service selects on. They must stay
// in sync with the pod template labels or traffic stops routing.
func (o Options) selectorLabels() map[string]string {
	return map[string]string{
		"app": o.Name,
	}
}

func (o Options) metadataLabels() map[string]string {
	return map[string]string{
		"app":        o.Name,
		"managed-by": "walrsctl",
	}
}

// Deployment builds the apps/v1 Deployment for the broker.
func Deployment(opts Options) *appsv1.Deployment {
	replicas := opts.Replicas

	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      opts.Name,
			Namespace: opts.Namespace,
			Labels:    opts.metadataLabels(),
		},
		Spec: appsv1.DeploymentSpec{
			Replicas: &replicas,
			Selector: &metav1.LabelSelector{
				MatchLabels: opts.selectorLabels(),
			},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{
					Labels: opts.selectorLabels(),
				},
				Spec: buildPodSpec(opts),
			},
		},
	}
}

// Service builds the NodePort Service routing to the broker pods. The
// target port is referenced by name so it follows the container port.
func Service(opts Options) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Service",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      opts.ServiceName(),
			Namespace: opts.Namespace,
			Labels:    opts.metadataLabels(),
		},
		Spec: corev1.ServiceSpec{
			Type:     corev1.ServiceTypeNodePort,
			Selector: opts.selectorLabels(),
			Ports: []corev1.ServicePort{
				{
					Name:       opts.PortName,
					Protocol:   corev1.ProtocolTCP,
					Port:       opts.ServicePort,
					NodePort:   opts.NodePort,
					TargetPort: intstr.FromString(opts.PortName),
				},
			},
		},
	}
}

func buildPodSpec(opts Options) corev1.PodSpec {
	container := corev1.Container{
		Name:  opts.Name,
		Image: opts.Image,
		Ports: []corev1.ContainerPort{
			{
				Name:          opts.PortName,
				ContainerPort: opts.ContainerPort,
				Protocol:      corev1.ProtocolTCP,
			},
		},
		Resources: corev1.ResourceRequirements{
			Requests: corev1.ResourceList{
				corev1.ResourceMemory: resource.MustParse(opts.MemoryRequest),
				corev1.ResourceCPU:    resource.MustParse(opts.CPURequest),
			},
			Limits: corev1.ResourceList{
				corev1.ResourceMemory: resource.MustParse(opts.MemoryLimit),
				corev1.ResourceCPU:    resource.MustParse(opts.CPULimit),
			},
		},
	}

	spec := corev1.PodSpec{}

	if opts.DataDir != "" {
		container.VolumeMounts = []corev1.VolumeMount{
			{
				Name:      dataVolumeName,
				MountPath: opts.DataDir,
			},
		}
		container.Env = []corev1.EnvVar{
			{
				Name:  logDirEnv,
				Value: opts.DataDir,
			},
		}
		spec.Volumes = []corev1.Volume{
			{
				Name: dataVolumeName,
				VolumeSource: corev1.VolumeSource{
					EmptyDir: &corev1.EmptyDirVolumeSource{},
				},
			},
		}
	}

	spec.Containers = []corev1.Container{container}
	return spec
}
