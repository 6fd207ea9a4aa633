// Package guard is the fiber middleware that enforces route
// authentication and authorization declarations. Routes declare what
// they accept via Declare (or Protect); Enforce runs after all
// declarations and dispatches to the matching strategy.
package guard

import (
	"context"

	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/gofiber/fiber/v2"
)

// Strategy authenticates a request and produces the principal for it.
type Strategy interface {
	Authenticate(c *fiber.Ctx) (*iam.Principal, error)
}

// Guard dispatches authentication to the strategy registered for each
// declared auth type and then applies the declared authorization rules.
type Guard struct {
	strategies map[iam.AuthType]Strategy
	policies   PolicyResolver
}

// PolicyResolver resolves a policy to its handler and runs it.
type PolicyResolver interface {
	Check(ctx context.Context, p iam.Policy, principal *iam.Principal) error
}

func New(policies PolicyResolver) *Guard {
	return &Guard{
		strategies: make(map[iam.AuthType]Strategy),
		policies:   policies,
	}
}

// RegisterStrategy binds a strategy to an auth type. Declaring a route
// with an unregistered auth type fails authentication for that type.
func (g *Guard) RegisterStrategy(t iam.AuthType, s Strategy) {
	g.strategies[t] = s
}

// Declare attaches route options without enforcing them. Middleware
// registration order means a route-level Declare runs after a
// group-level one and overwrites it, so the most specific declaration
// wins.
func (g *Guard) Declare(opts iam.RouteOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(iam.RouteOptionsKey, &opts)
		return c.Next()
	}
}

// Enforce authenticates the request against the declared auth types and
// then checks roles, permissions and policies. Routes with no
// declaration require bearer authentication.
func (g *Guard) Enforce() fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts := routeOptions(c)

		principal, err := g.authenticate(c, opts.AuthTypes)
		if err != nil {
			return err
		}
		if principal != nil {
			c.Locals(iam.PrincipalKey, principal)
		}

		return g.authorize(c, opts, principal)
	}
}

// Protect declares and enforces in one step, for routes registered
// outside a group.
func (g *Guard) Protect(opts iam.RouteOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(iam.RouteOptionsKey, &opts)
		return g.Enforce()(c)
	}
}

// authenticate tries each declared auth type in order and returns the
// first principal produced. When every strategy fails, the error of the
// last attempt is surfaced.
func (g *Guard) authenticate(c *fiber.Ctx, types []iam.AuthType) (*iam.Principal, error) {
	if len(types) == 0 {
		types = []iam.AuthType{iam.AuthBearer}
	}

	var lastErr error
	for _, t := range types {
		if t == iam.AuthNone {
			return nil, nil
		}

		strategy, ok := g.strategies[t]
		if !ok {
			lastErr = iam.ErrUnauthorized()
			continue
		}

		principal, err := strategy.Authenticate(c)
		if err == nil {
			return principal, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func routeOptions(c *fiber.Ctx) *iam.RouteOptions {
	if opts, ok := c.Locals(iam.RouteOptionsKey).(*iam.RouteOptions); ok {
		return opts
	}
	return &iam.RouteOptions{}
}

// Principal returns the authenticated principal of the request, or nil
// for anonymous requests.
func Principal(c *fiber.Ctx) *iam.Principal {
	if p, ok := c.Locals(iam.PrincipalKey).(*iam.Principal); ok {
		return p
	}
	return nil
}
