package policy

import (
	"context"
	"strings"

	"github.com/Abraxas-365/keystone/pkg/iam"
)

// ValidUserPolicy restricts a route to principals whose email belongs to
// the given domain.
type ValidUserPolicy struct {
	Domain string
}

func (ValidUserPolicy) PolicyName() string { return "valid_user" }

// ValidUserPolicyHandler enforces ValidUserPolicy. It registers itself
// in the registry on construction.
type ValidUserPolicyHandler struct{}

func NewValidUserPolicyHandler(registry *Registry) *ValidUserPolicyHandler {
	h := &ValidUserPolicyHandler{}
	registry.Add(ValidUserPolicy{}.PolicyName(), h)
	return h
}

func (h *ValidUserPolicyHandler) Handle(_ context.Context, p iam.Policy, principal *iam.Principal) error {
	vp, ok := p.(ValidUserPolicy)
	if !ok {
		return ErrRegistry.New(CodeUnknownPolicy).WithDetail("policy", p.PolicyName())
	}

	if !strings.HasSuffix(strings.ToLower(principal.Email), "@"+strings.ToLower(vp.Domain)) {
		return ErrRegistry.New(CodePolicyViolation).WithDetail("policy", vp.PolicyName())
	}
	return nil
}
