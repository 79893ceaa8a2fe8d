package rbac_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	authv1 "k8s.io/api/authorization/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	"github.com/walrs/walrsctl/pkg/rbac"
)

func TestRbac(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBAC Verification Suite")
}

// allowAll makes the fake clientset grant every access review.
func allowAll(clientset *fake.Clientset) {
	clientset.PrependReactor("create", "selfsubjectaccessreviews",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			sar := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview)
			sar.Status.Allowed = true
			return true, sar, nil
		})
}

// denyResource denies every review touching the named resource.
func denyResource(clientset *fake.Clientset, resource string) {
	clientset.PrependReactor("create", "selfsubjectaccessreviews",
		func(action k8stesting.Action) (bool, runtime.Object, error) {
			sar := action.(k8stesting.CreateAction).GetObject().(*authv1.SelfSubjectAccessReview)
			sar.Status.Allowed = sar.Spec.ResourceAttributes.Resource != resource
			return true, sar, nil
		})
}

var _ = Describe("RBAC Verification", func() {
	Describe("GetRequiredPermissions", func() {
		It("should scope every permission to the namespace", func() {
			permissions := rbac.GetRequiredPermissions("walrs")
			Expect(permissions).NotTo(BeEmpty())
			for _, perm := range permissions {
				Expect(perm.Namespace).To(Equal("walrs"))
			}
		})

		It("should cover deployments and services for every verb", func() {
			permissions := rbac.GetRequiredPermissions("walrs")

			seen := map[string]bool{}
			for _, perm := range permissions {
				seen[perm.APIGroup+"/"+perm.Resource+":"+perm.Verb] = true
			}

			for _, verb := range []string{"get", "create", "update", "delete"} {
				Expect(seen["apps/deployments:"+verb]).To(BeTrue(), "missing deployments %s", verb)
				Expect(seen["/services:"+verb]).To(BeTrue(), "missing services %s", verb)
			}
		})
	})

	Describe("CheckPermission", func() {
		It("should return allowed for permitted actions", func() {
			clientset := fake.NewSimpleClientset()
			allowAll(clientset)

			allowed, err := rbac.CheckPermission(context.Background(), clientset, rbac.RequiredPermission{
				APIGroup: "apps", Resource: "deployments", Verb: "get", Namespace: "walrs",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeTrue())
		})

		It("should return denied when the review says so", func() {
			clientset := fake.NewSimpleClientset()

			allowed, err := rbac.CheckPermission(context.Background(), clientset, rbac.RequiredPermission{
				APIGroup: "apps", Resource: "deployments", Verb: "get", Namespace: "walrs",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(allowed).To(BeFalse())
		})
	})

	Describe("VerifyPermissions", func() {
		It("should pass when everything is granted", func() {
			clientset := fake.NewSimpleClientset()
			allowAll(clientset)

			err := rbac.VerifyPermissions(context.Background(), clientset, "walrs")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should name every missing permission", func() {
			clientset := fake.NewSimpleClientset()
			denyResource(clientset, "services")

			err := rbac.VerifyPermissions(context.Background(), clientset, "walrs")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("services"))
			Expect(err.Error()).NotTo(ContainSubstring("deployments"))
		})
	})
})
