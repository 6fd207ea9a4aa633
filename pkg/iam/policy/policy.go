// Package policy implements named authorization policies. A policy is a
// value attached to a route's options; its handler is resolved by name
// from the registry and decides whether the principal may proceed.
package policy

import (
	"context"
	"net/http"
	"sync"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
)

var ErrRegistry = errx.NewRegistry("AUTHZ")

var (
	CodeUnknownPolicy   = ErrRegistry.Register("UNKNOWN_POLICY", errx.TypeInternal, http.StatusInternalServerError, "No handler registered for policy")
	CodePolicyViolation = ErrRegistry.Register("POLICY_VIOLATION", errx.TypeAuthorization, http.StatusForbidden, "Policy check failed")
)

// Handler evaluates one kind of policy against a principal.
type Handler interface {
	Handle(ctx context.Context, p iam.Policy, principal *iam.Principal) error
}

// Registry maps policy names to their handlers. Handlers register
// themselves at construction time; the composition root resolves every
// policy it wires at startup so a missing handler fails boot instead of
// a request.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Add(name string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	if !ok {
		return nil, ErrRegistry.New(CodeUnknownPolicy).WithDetail("policy", name)
	}
	return h, nil
}

// Check resolves and runs the handler for p. It satisfies the guard's
// resolver contract.
func (r *Registry) Check(ctx context.Context, p iam.Policy, principal *iam.Principal) error {
	h, err := r.Resolve(p.PolicyName())
	if err != nil {
		return err
	}
	return h.Handle(ctx, p, principal)
}
