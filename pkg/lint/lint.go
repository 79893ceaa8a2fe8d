// Package lint checks a walrs-core descriptor pair against the
// structural rules the deployment depends on to route traffic and
// schedule cleanly.
package lint

import (
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
)

// Severity orders findings by how badly they break the deployment.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityInfo     Severity = "INFO"
)

// NodePort range enforced by the API server's service-node-port-range
// default.
const (
	nodePortMin = 30000
	nodePortMax = 32767
)

// Finding is one violated rule.
type Finding struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"severity"`
	Resource       string   `json:"resource"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// ParseSeverity maps a user-supplied threshold string to a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("unknown severity %q (want CRITICAL, HIGH, MEDIUM, or INFO)", s)
	}
	return sev, nil
}

// AtLeast reports whether any finding is at or above the threshold.
func AtLeast(findings []Finding, threshold Severity) bool {
	for _, f := range findings {
		if severityRank[f.Severity] >= severityRank[threshold] {
			return true
		}
	}
	return false
}

// Check runs every rule against the pair. A nil Deployment or Service
// skips the rules that need it; cross-resource rules need both.
func Check(dep *appsv1.Deployment, svc *corev1.Service) []Finding {
	var findings []Finding
	add := func(id string, sev Severity, resource, msg, rec string) {
		findings = append(findings, Finding{
			ID:             id,
			Severity:       sev,
			Resource:       resource,
			Message:        msg,
			Recommendation: rec,
		})
	}

	if dep != nil {
		checkDeployment(dep, add)
	}
	if svc != nil {
		checkService(svc, add)
	}
	if dep != nil && svc != nil {
		checkRouting(dep, svc, add)
	}

	return findings
}

type addFunc func(id string, sev Severity, resource, msg, rec string)

func checkDeployment(dep *appsv1.Deployment, add addFunc) {
	name := dep.Namespace + "/" + dep.Name

	if dep.APIVersion != "" && dep.APIVersion != "apps/v1" {
		add("DEPLOYMENT_APIVERSION", SeverityHigh, name,
			fmt.Sprintf("Deployment declares apiVersion %s, want apps/v1", dep.APIVersion),
			"Set apiVersion: apps/v1")
	}

	if dep.Spec.Replicas != nil && *dep.Spec.Replicas < 1 {
		add("REPLICAS_NOT_POSITIVE", SeverityHigh, name,
			fmt.Sprintf("Deployment declares %d replicas", *dep.Spec.Replicas),
			"Set spec.replicas to a positive integer")
	}

	if dep.Spec.Selector == nil {
		add("SELECTOR_MISSING", SeverityCritical, name,
			"Deployment has no selector",
			"Set spec.selector.matchLabels to the pod template labels")
	} else if !labelsMatch(dep.Spec.Selector.MatchLabels, dep.Spec.Template.Labels) {
		add("SELECTOR_TEMPLATE_MISMATCH", SeverityCritical, name,
			"Deployment selector does not match the pod template labels",
			"Align spec.selector.matchLabels with spec.template.metadata.labels")
	}

	for _, c := range dep.Spec.Template.Spec.Containers {
		checkResources(name, c, add)
	}
}

func checkResources(name string, c corev1.Container, add addFunc) {
	requests := c.Resources.Requests
	limits := c.Resources.Limits

	if len(requests) == 0 {
		add("NO_RESOURCE_REQUESTS", SeverityMedium, name,
			fmt.Sprintf("container %s declares no resource requests", c.Name),
			"Set resources.requests so the scheduler can place the pod predictably")
	}
	if len(limits) == 0 {
		add("NO_RESOURCE_LIMITS", SeverityMedium, name,
			fmt.Sprintf("container %s declares no resource limits", c.Name),
			"Set resources.limits to bound broker memory and CPU use")
	}

	for resName, limit := range limits {
		req, ok := requests[resName]
		if !ok {
			continue
		}
		if req.Cmp(limit) > 0 {
			add("REQUEST_EXCEEDS_LIMIT", SeverityHigh, name,
				fmt.Sprintf("container %s requests %s %s but limits it to %s",
					c.Name, req.String(), resName, limit.String()),
				"Lower the request or raise the limit; the API server rejects requests above limits")
		}
	}
}

func checkService(svc *corev1.Service, add addFunc) {
	name := svc.Namespace + "/" + svc.Name

	if svc.APIVersion != "" && svc.APIVersion != "v1" {
		add("SERVICE_APIVERSION", SeverityHigh, name,
			fmt.Sprintf("Service declares apiVersion %s, want v1", svc.APIVersion),
			"Set apiVersion: v1")
	}

	if len(svc.Spec.Selector) == 0 {
		add("SERVICE_NO_SELECTOR", SeverityCritical, name,
			"Service has no selector and will route no traffic",
			"Set spec.selector to the broker pod labels")
	}

	for _, p := range svc.Spec.Ports {
		if svc.Spec.Type == corev1.ServiceTypeNodePort && p.NodePort != 0 &&
			(p.NodePort < nodePortMin || p.NodePort > nodePortMax) {
			add("NODEPORT_OUT_OF_RANGE", SeverityHigh, name,
				fmt.Sprintf("nodePort %d is outside %d-%d", p.NodePort, nodePortMin, nodePortMax),
				"Pick a nodePort inside the cluster's service-node-port-range")
		}
	}
}

// checkRouting verifies the cross-resource invariants: the Service
// must select the Deployment's pods and its target port must resolve
// to a container port.
func checkRouting(dep *appsv1.Deployment, svc *corev1.Service, add addFunc) {
	name := svc.Namespace + "/" + svc.Name

	if svc.Namespace != dep.Namespace {
		add("NAMESPACE_MISMATCH", SeverityMedium, name,
			fmt.Sprintf("Service is in namespace %s but Deployment is in %s", svc.Namespace, dep.Namespace),
			"Keep the pair in one namespace; a Service only selects pods in its own namespace")
	}

	if len(svc.Spec.Selector) > 0 && !selectorCovers(svc.Spec.Selector, dep.Spec.Template.Labels) {
		add("SELECTOR_MISMATCH", SeverityCritical, name,
			"Service selector does not match the Deployment's pod template labels",
			"Align spec.selector with the pod template labels or no endpoints will be created")
	}

	portNames := map[string]bool{}
	portNumbers := map[int32]bool{}
	for _, c := range dep.Spec.Template.Spec.Containers {
		for _, p := range c.Ports {
			portNames[p.Name] = true
			portNumbers[p.ContainerPort] = true
		}
	}

	for _, p := range svc.Spec.Ports {
		switch {
		case p.TargetPort.StrVal != "":
			if !portNames[p.TargetPort.StrVal] {
				add("TARGET_PORT_UNRESOLVED", SeverityCritical, name,
					fmt.Sprintf("targetPort %q does not name any container port", p.TargetPort.StrVal),
					"Name a containerPort entry to match, or target the port by number")
			}
		case p.TargetPort.IntVal != 0:
			if !portNumbers[p.TargetPort.IntVal] {
				add("TARGET_PORT_UNRESOLVED", SeverityCritical, name,
					fmt.Sprintf("targetPort %d does not match any container port", p.TargetPort.IntVal),
					"Expose the port on the broker container or fix the targetPort")
			}
		}
	}
}

// labelsMatch reports whether the two label sets are equal.
func labelsMatch(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// selectorCovers reports whether every selector entry appears in labels.
func selectorCovers(selector, labels map[string]string) bool {
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}
