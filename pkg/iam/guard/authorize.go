package guard

import (
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/gofiber/fiber/v2"
)

// authorize applies the declared role, permission and policy rules to
// the authenticated principal. Roles are disjunctive: holding any one of
// the declared roles suffices. Permissions are conjunctive: the
// principal must hold every declared permission. Policies must all pass.
func (g *Guard) authorize(c *fiber.Ctx, opts *iam.RouteOptions, principal *iam.Principal) error {
	if len(opts.Roles) == 0 && len(opts.Permissions) == 0 && len(opts.Policies) == 0 {
		return c.Next()
	}

	if principal == nil {
		return iam.ErrUnauthorized()
	}

	if len(opts.Roles) > 0 && !principal.HasRole(opts.Roles...) {
		return iam.ErrAccessDenied()
	}

	if len(opts.Permissions) > 0 && !principal.HasAllPermissions(opts.Permissions...) {
		return iam.ErrAccessDenied()
	}

	for _, p := range opts.Policies {
		if err := g.policies.Check(c.UserContext(), p, principal); err != nil {
			return err
		}
	}

	return c.Next()
}
