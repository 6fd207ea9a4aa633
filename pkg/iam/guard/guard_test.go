package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abraxas-365/keystone/pkg/config"
	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/guard"
	"github.com/Abraxas-365/keystone/pkg/iam/policy"
	"github.com/gofiber/fiber/v2"
)

type staticKeyValidator struct {
	key       string
	principal *iam.Principal
}

func (v staticKeyValidator) Validate(_ context.Context, rawKey string) (*iam.Principal, error) {
	if rawKey != v.key {
		return nil, iam.ErrUnauthorized()
	}
	return v.principal, nil
}

func testTokens() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:   "test-secret-at-least-32-characters",
		Issuer:   "keystone",
		Audience: "keystone-api",
	})
}

func newTestApp(t *testing.T) (*fiber.App, *guard.Guard, *auth.JWTService) {
	t.Helper()

	tokens := testTokens()

	policies := policy.NewRegistry()
	policy.NewValidUserPolicyHandler(policies)

	g := guard.New(policies)
	g.RegisterStrategy(iam.AuthBearer, guard.NewBearerStrategy(tokens))
	g.RegisterStrategy(iam.AuthAPIKey, guard.NewAPIKeyStrategy(staticKeyValidator{
		key:       "ks_valid",
		principal: &iam.Principal{Sub: 9, Email: "machine@example.com", Role: iam.RoleRegular},
	}))

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *errx.Error
			if errx.As(err, &e) {
				return c.Status(e.HTTPStatus).JSON(e)
			}
			return fiber.DefaultErrorHandler(c, err)
		},
	})
	return app, g, tokens
}

func accessToken(t *testing.T, tokens *auth.JWTService, role iam.Role, perms []iam.Permission) string {
	t.Helper()
	token, err := tokens.Sign(1, time.Minute, map[string]any{
		"email":       "ada@example.com",
		"role":        role,
		"permissions": perms,
	})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return token
}

func whoami(c *fiber.Ctx) error {
	if p := guard.Principal(c); p != nil {
		return c.SendString(p.Email)
	}
	return c.SendString("anonymous")
}

func TestGuardDefaultsToBearer(t *testing.T) {
	app, g, tokens := newTestApp(t)
	app.Get("/private", g.Enforce(), whoami)

	req := httptest.NewRequest("GET", "/private", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("anonymous: status = %d, want 401", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens, iam.RoleRegular, nil))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("bearer: status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardAuthNone(t *testing.T) {
	app, g, _ := newTestApp(t)
	app.Get("/public", g.Protect(iam.RouteOptions{AuthTypes: []iam.AuthType{iam.AuthNone}}), whoami)

	resp, err := app.Test(httptest.NewRequest("GET", "/public", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardBearerFromCookie(t *testing.T) {
	app, g, tokens := newTestApp(t)
	app.Get("/private", g.Enforce(), whoami)

	req := httptest.NewRequest("GET", "/private", nil)
	req.AddCookie(&http.Cookie{Name: guard.AccessTokenCookie, Value: accessToken(t, tokens, iam.RoleRegular, nil)})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardMultipleAuthTypesFallThrough(t *testing.T) {
	app, g, _ := newTestApp(t)
	opts := iam.RouteOptions{AuthTypes: []iam.AuthType{iam.AuthBearer, iam.AuthAPIKey}}
	app.Get("/either", g.Protect(opts), whoami)

	// No credentials at all.
	resp, err := app.Test(httptest.NewRequest("GET", "/either", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("no creds: status = %d, want 401", resp.StatusCode)
	}

	// Bearer absent, valid API key: the second strategy must win.
	req := httptest.NewRequest("GET", "/either", nil)
	req.Header.Set("X-API-Key", "ks_valid")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("api key: status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardRejectsRefreshTokenAsBearer(t *testing.T) {
	app, g, tokens := newTestApp(t)
	app.Get("/private", g.Enforce(), whoami)

	refresh, err := tokens.Sign(1, time.Minute, map[string]any{"refreshTokenId": "rtid"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGuardRoleIsDisjunctive(t *testing.T) {
	app, g, tokens := newTestApp(t)
	opts := iam.RouteOptions{Roles: []iam.Role{iam.RoleAdmin}}
	app.Delete("/admin", g.Protect(opts), whoami)

	req := httptest.NewRequest("DELETE", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens, iam.RoleRegular, nil))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("regular: status = %d, want 403", resp.StatusCode)
	}

	req = httptest.NewRequest("DELETE", "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens, iam.RoleAdmin, nil))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("admin: status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardPermissionsAreConjunctive(t *testing.T) {
	app, g, tokens := newTestApp(t)
	opts := iam.RouteOptions{Permissions: []iam.Permission{"coffees.create", "coffees.delete"}}
	app.Post("/coffees", g.Protect(opts), whoami)

	req := httptest.NewRequest("POST", "/coffees", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens, iam.RoleRegular, []iam.Permission{"coffees.create"}))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("partial permissions: status = %d, want 403", resp.StatusCode)
	}

	req = httptest.NewRequest("POST", "/coffees", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens, iam.RoleRegular, []iam.Permission{"coffees.create", "coffees.delete", "coffees.update"}))
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("superset: status = %d, want 200", resp.StatusCode)
	}
}

func TestGuardRouteDeclarationOverridesGroup(t *testing.T) {
	app, g, tokens := newTestApp(t)

	group := app.Group("/api", g.Declare(iam.RouteOptions{Roles: []iam.Role{iam.RoleAdmin}}))
	group.Get("/open", g.Declare(iam.RouteOptions{}), g.Enforce(), whoami)
	group.Get("/locked", g.Enforce(), whoami)

	token := accessToken(t, tokens, iam.RoleRegular, nil)

	req := httptest.NewRequest("GET", "/api/open", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("route override: status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/locked", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusForbidden {
		t.Fatalf("group rule: status = %d, want 403", resp.StatusCode)
	}
}

func TestGuardPolicyCheck(t *testing.T) {
	app, g, tokens := newTestApp(t)
	opts := iam.RouteOptions{Policies: []iam.Policy{policy.ValidUserPolicy{Domain: "example.com"}}}
	app.Get("/policied", g.Protect(opts), whoami)

	req := httptest.NewRequest("GET", "/policied", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens, iam.RoleRegular, nil))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("matching domain: status = %d, want 200", resp.StatusCode)
	}
}
