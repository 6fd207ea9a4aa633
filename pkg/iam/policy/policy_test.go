package policy_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/policy"
)

func TestRegistryResolveUnknown(t *testing.T) {
	r := policy.NewRegistry()

	_, err := r.Resolve("nope")
	if !errx.IsCode(err, policy.CodeUnknownPolicy) {
		t.Fatalf("expected unknown policy error, got %v", err)
	}
}

func TestValidUserPolicy(t *testing.T) {
	r := policy.NewRegistry()
	policy.NewValidUserPolicyHandler(r)

	ctx := context.Background()
	p := policy.ValidUserPolicy{Domain: "example.com"}

	ok := &iam.Principal{Sub: 1, Email: "ada@example.com"}
	if err := r.Check(ctx, p, ok); err != nil {
		t.Fatalf("matching domain: %v", err)
	}

	outsider := &iam.Principal{Sub: 2, Email: "mallory@else.where"}
	err := r.Check(ctx, p, outsider)
	if !errx.IsCode(err, policy.CodePolicyViolation) {
		t.Fatalf("expected policy violation, got %v", err)
	}
}

func TestValidUserPolicyCaseInsensitive(t *testing.T) {
	r := policy.NewRegistry()
	policy.NewValidUserPolicyHandler(r)

	p := policy.ValidUserPolicy{Domain: "Example.COM"}
	principal := &iam.Principal{Sub: 1, Email: "Ada@EXAMPLE.com"}

	if err := r.Check(context.Background(), p, principal); err != nil {
		t.Fatalf("case folding: %v", err)
	}
}
