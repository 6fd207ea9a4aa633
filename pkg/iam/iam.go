// Package iam holds the shared identity types: roles, permissions,
// authentication types and the request principal. The concrete services
// live in the subpackages (auth, guard, policy, apikey, otp, social,
// session).
package iam

import (
	"net/http"

	"github.com/Abraxas-365/keystone/pkg/errx"
)

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("IAM")

var (
	CodeUnauthorized = ErrRegistry.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	CodeInvalidToken = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or expired token")
	CodeAccessDenied = ErrRegistry.Register("ACCESS_DENIED", errx.TypeAuthorization, http.StatusForbidden, "Access denied")
)

func ErrUnauthorized() *errx.Error {
	return ErrRegistry.New(CodeUnauthorized)
}

func ErrInvalidToken() *errx.Error {
	return ErrRegistry.New(CodeInvalidToken)
}

func ErrAccessDenied() *errx.Error {
	return ErrRegistry.New(CodeAccessDenied)
}

// ============================================================================
// Roles & Permissions
// ============================================================================

// Role is the single coarse-grained role of a user.
type Role string

const (
	RoleRegular Role = "regular"
	RoleAdmin   Role = "admin"
)

// Permission is a fine-grained capability identifier checked via
// set-containment rather than role membership.
type Permission string

// ============================================================================
// Authentication types
// ============================================================================

// AuthType selects an authentication strategy a route accepts.
type AuthType string

const (
	// AuthNone accepts any request without authentication.
	AuthNone AuthType = "none"
	// AuthBearer requires a valid access token.
	AuthBearer AuthType = "bearer"
	// AuthAPIKey requires a valid API key.
	AuthAPIKey AuthType = "api_key"
	// AuthSession requires a valid server-side session.
	AuthSession AuthType = "session"
)

// ============================================================================
// Principal
// ============================================================================

// Principal is the authenticated identity attached to a request. It is
// derived from a verified credential, never persisted, and lives for a
// single request.
type Principal struct {
	Sub         int64        `json:"sub"`
	Email       string       `json:"email"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions,omitempty"`
}

// HasRole reports whether the principal holds any of the given roles.
func (p *Principal) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// HasPermission reports whether the principal holds the given permission.
func (p *Principal) HasPermission(perm Permission) bool {
	for _, have := range p.Permissions {
		if have == perm {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether the principal's permission set is a
// superset of every given permission.
func (p *Principal) HasAllPermissions(perms ...Permission) bool {
	for _, perm := range perms {
		if !p.HasPermission(perm) {
			return false
		}
	}
	return true
}

// ============================================================================
// Route metadata
// ============================================================================

// Policy is a named, pluggable predicate over a Principal, for
// authorization logic too specific for roles or permissions. Handlers are
// looked up by this name in the policy registry.
type Policy interface {
	PolicyName() string
}

// RouteOptions is the declarative metadata attached to a route at
// registration time and read by the guard. A route-level declaration
// overrides a group-level one; a route with no declaration at all
// requires bearer authentication.
type RouteOptions struct {
	AuthTypes   []AuthType
	Roles       []Role
	Permissions []Permission
	Policies    []Policy
}

// Locals keys used to carry request-scoped IAM state through fiber.
const (
	// PrincipalKey stores the *Principal after successful authentication.
	PrincipalKey = "iam_principal"
	// RouteOptionsKey stores the *RouteOptions declared for the route.
	RouteOptionsKey = "iam_route_options"
)
