// Package rbac verifies that the current identity holds the
// permissions walrsctl needs before it touches the cluster.
package rbac

import (
	"context"
	"fmt"
	"strings"

	authv1 "k8s.io/api/authorization/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// RequiredPermission represents a permission that needs to be verified.
type RequiredPermission struct {
	APIGroup  string
	Resource  string
	Verb      string
	Namespace string
}

// GetRequiredPermissions returns the permissions walrsctl exercises
// when applying, scaling, and deleting the broker pair.
func GetRequiredPermissions(namespace string) []RequiredPermission {
	var perms []RequiredPermission
	for _, verb := range []string{"get", "create", "update", "delete"} {
		perms = append(perms, RequiredPermission{
			APIGroup: "apps", Resource: "deployments", Verb: verb, Namespace: namespace,
		})
		perms = append(perms, RequiredPermission{
			APIGroup: "", Resource: "services", Verb: verb, Namespace: namespace,
		})
	}
	return perms
}

// VerifyPermissions checks every required permission and returns one
// error naming all that are missing.
func VerifyPermissions(ctx context.Context, clientset kubernetes.Interface, namespace string) error {
	var missing []string

	for _, perm := range GetRequiredPermissions(namespace) {
		allowed, err := CheckPermission(ctx, clientset, perm)
		if err != nil {
			return fmt.Errorf("failed to check permission %s/%s:%s: %w",
				perm.APIGroup, perm.Resource, perm.Verb, err)
		}
		if !allowed {
			missing = append(missing, fmt.Sprintf("  - %s %s.%s (namespace=%s)",
				perm.Verb, perm.Resource, perm.APIGroup, perm.Namespace))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required RBAC permissions:\n%s", strings.Join(missing, "\n"))
	}
	return nil
}

// CheckPermission verifies one permission via SelfSubjectAccessReview.
func CheckPermission(ctx context.Context, clientset kubernetes.Interface, perm RequiredPermission) (bool, error) {
	sar := &authv1.SelfSubjectAccessReview{
		Spec: authv1.SelfSubjectAccessReviewSpec{
			ResourceAttributes: &authv1.ResourceAttributes{
				Verb:      perm.Verb,
				Group:     perm.APIGroup,
				Resource:  perm.Resource,
				Namespace: perm.Namespace,
			},
		},
	}

	result, err := clientset.AuthorizationV1().SelfSubjectAccessReviews().Create(ctx, sar, metav1.CreateOptions{})
	if err != nil {
		return false, err
	}
	return result.Status.Allowed, nil
}
