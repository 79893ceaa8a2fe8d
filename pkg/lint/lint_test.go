package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/walrs/walrsctl/pkg/manifest"
)

func canonicalPair() (*appsv1.Deployment, *corev1.Service) {
	opts := manifest.Defaults()
	return manifest.Deployment(opts), manifest.Service(opts)
}

func findingIDs(findings []Finding) []string {
	ids := make([]string, 0, len(findings))
	for _, f := range findings {
		ids = append(ids, f.ID)
	}
	return ids
}

func TestCheck_CanonicalPairIsClean(t *testing.T) {
	dep, svc := canonicalPair()
	findings := Check(dep, svc)
	assert.Empty(t, findings, "the stock manifests must pass every rule")
}

func TestCheck_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*appsv1.Deployment, *corev1.Service)
		wantID string
	}{
		{
			name: "service selector mismatch",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.Spec.Selector = map[string]string{"app": "other"}
			},
			wantID: "SELECTOR_MISMATCH",
		},
		{
			name: "deployment selector drifts from template",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Template.Labels = map[string]string{"app": "renamed"}
			},
			wantID: "SELECTOR_TEMPLATE_MISMATCH",
		},
		{
			name: "named target port unresolved",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Template.Spec.Containers[0].Ports[0].Name = "http"
			},
			wantID: "TARGET_PORT_UNRESOLVED",
		},
		{
			name: "numeric target port unresolved",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.Spec.Ports[0].TargetPort = intstr.FromInt32(9999)
			},
			wantID: "TARGET_PORT_UNRESOLVED",
		},
		{
			name: "zero replicas",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				zero := int32(0)
				dep.Spec.Replicas = &zero
			},
			wantID: "REPLICAS_NOT_POSITIVE",
		},
		{
			name: "memory request above limit",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Template.Spec.Containers[0].Resources.Requests[corev1.ResourceMemory] = resource.MustParse("256Mi")
			},
			wantID: "REQUEST_EXCEEDS_LIMIT",
		},
		{
			name: "cpu request above limit",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Template.Spec.Containers[0].Resources.Requests[corev1.ResourceCPU] = resource.MustParse("2")
			},
			wantID: "REQUEST_EXCEEDS_LIMIT",
		},
		{
			name: "node port below range",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.Spec.Ports[0].NodePort = 8080
			},
			wantID: "NODEPORT_OUT_OF_RANGE",
		},
		{
			name: "node port above range",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.Spec.Ports[0].NodePort = 40000
			},
			wantID: "NODEPORT_OUT_OF_RANGE",
		},
		{
			name: "wrong deployment apiVersion",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.APIVersion = "extensions/v1beta1"
			},
			wantID: "DEPLOYMENT_APIVERSION",
		},
		{
			name: "wrong service apiVersion",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.APIVersion = "v2"
			},
			wantID: "SERVICE_APIVERSION",
		},
		{
			name: "namespaces disagree",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.Namespace = "default"
			},
			wantID: "NAMESPACE_MISMATCH",
		},
		{
			name: "service has no selector",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				svc.Spec.Selector = nil
			},
			wantID: "SERVICE_NO_SELECTOR",
		},
		{
			name: "no resource limits",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Template.Spec.Containers[0].Resources.Limits = nil
			},
			wantID: "NO_RESOURCE_LIMITS",
		},
		{
			name: "no resource requests",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Template.Spec.Containers[0].Resources.Requests = nil
			},
			wantID: "NO_RESOURCE_REQUESTS",
		},
		{
			name: "deployment has no selector",
			mutate: func(dep *appsv1.Deployment, svc *corev1.Service) {
				dep.Spec.Selector = nil
			},
			wantID: "SELECTOR_MISSING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep, svc := canonicalPair()
			tt.mutate(dep, svc)
			findings := Check(dep, svc)
			assert.Contains(t, findingIDs(findings), tt.wantID)
		})
	}
}

func TestCheck_SingleResource(t *testing.T) {
	dep, svc := canonicalPair()

	t.Run("deployment only", func(t *testing.T) {
		assert.Empty(t, Check(dep, nil))
	})

	t.Run("service only skips routing rules", func(t *testing.T) {
		svc.Spec.Selector = map[string]string{"app": "other"}
		assert.Empty(t, Check(nil, svc), "routing rules need both resources")
	})
}

func TestAtLeast(t *testing.T) {
	findings := []Finding{
		{ID: "A", Severity: SeverityMedium},
		{ID: "B", Severity: SeverityHigh},
	}

	assert.True(t, AtLeast(findings, SeverityHigh))
	assert.True(t, AtLeast(findings, SeverityMedium))
	assert.False(t, AtLeast(findings, SeverityCritical))
	assert.False(t, AtLeast(nil, SeverityInfo))
}

func TestParseSeverity(t *testing.T) {
	for _, valid := range []string{"CRITICAL", "HIGH", "MEDIUM", "INFO"} {
		sev, err := ParseSeverity(valid)
		assert.NoError(t, err)
		assert.Equal(t, Severity(valid), sev)
	}

	_, err := ParseSeverity("terrible")
	assert.Error(t, err)
}
