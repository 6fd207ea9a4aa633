// Package iamhttp exposes the identity services over HTTP.
package iamhttp

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/apikey/apikeysrv"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/guard"
	"github.com/Abraxas-365/keystone/pkg/iam/otp"
	"github.com/Abraxas-365/keystone/pkg/iam/session"
	"github.com/Abraxas-365/keystone/pkg/iam/social"
	"github.com/gofiber/fiber/v2"
)

var ErrRegistry = errx.NewRegistry("IAMHTTP")

var CodeBadRequest = ErrRegistry.Register("BAD_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid request body")

// Handlers wires the identity services into fiber routes.
type Handlers struct {
	auth     *auth.Service
	google   *social.GoogleService
	otp      *otp.Service
	sessions *session.Service
	apiKeys  *apikeysrv.Service
}

func NewHandlers(
	authSvc *auth.Service,
	google *social.GoogleService,
	otpSvc *otp.Service,
	sessions *session.Service,
	apiKeys *apikeysrv.Service,
) *Handlers {
	return &Handlers{
		auth:     authSvc,
		google:   google,
		otp:      otpSvc,
		sessions: sessions,
		apiKeys:  apiKeys,
	}
}

// RegisterRoutes mounts all identity endpoints. Public endpoints are
// declared AuthNone explicitly; everything else defaults to bearer.
func (h *Handlers) RegisterRoutes(app *fiber.App, g *guard.Guard) {
	public := iam.RouteOptions{AuthTypes: []iam.AuthType{iam.AuthNone}}

	authn := app.Group("/authentication")
	authn.Post("/sign-up", g.Protect(public), h.signUp)
	authn.Post("/sign-in", g.Protect(public), h.signIn)
	authn.Post("/refresh-tokens", g.Protect(public), h.refreshTokens)
	authn.Post("/google", g.Protect(public), h.googleSignIn)
	authn.Get("/me", g.Enforce(), h.me)
	authn.Post("/otp/generate", g.Enforce(), h.generateOTP)
	authn.Post("/otp/enable", g.Enforce(), h.enableOTP)

	sessions := app.Group("/sessions")
	sessions.Post("/sign-in", g.Protect(public), h.sessionSignIn)
	sessions.Delete("/", g.Protect(iam.RouteOptions{AuthTypes: []iam.AuthType{iam.AuthSession}}), h.sessionSignOut)

	// Machine clients may use either a bearer token or an API key here.
	keyAuth := g.Declare(iam.RouteOptions{AuthTypes: []iam.AuthType{iam.AuthBearer, iam.AuthAPIKey}})
	keys := app.Group("/api-keys", keyAuth)
	keys.Post("/", g.Enforce(), h.createAPIKey)
	keys.Get("/", g.Enforce(), h.listAPIKeys)
	keys.Delete("/:uuid", g.Enforce(), h.revokeAPIKey)
}

// ============================================================================
// Authentication
// ============================================================================

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) signUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}
	if req.Email == "" || req.Password == "" {
		return ErrRegistry.New(CodeBadRequest).WithDetail("reason", "email and password are required")
	}

	if err := h.auth.SignUp(c.UserContext(), req.Email, req.Password); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusCreated)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TFACode  string `json:"tfaCode,omitempty"`
}

func (h *Handlers) signIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}

	pair, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password, req.TFACode)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *Handlers) refreshTokens(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}

	pair, err := h.auth.RefreshTokens(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

type googleSignInRequest struct {
	Token string `json:"token"`
}

func (h *Handlers) googleSignIn(c *fiber.Ctx) error {
	var req googleSignInRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}

	pair, err := h.google.Authenticate(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

func (h *Handlers) me(c *fiber.Ctx) error {
	return c.JSON(guard.Principal(c))
}

// ============================================================================
// Two-factor auth
// ============================================================================

// generateOTP enrolls the authenticated user and streams the
// provisioning QR code.
func (h *Handlers) generateOTP(c *fiber.Ctx) error {
	principal := guard.Principal(c)

	e, err := h.otp.Enroll(c.UserContext(), principal.Sub, principal.Email)
	if err != nil {
		return err
	}

	qr, err := h.otp.QRCode(e)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(qr)
}

type enableOTPRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// enableOTP turns two-factor auth on for a secret the client already
// holds, once a valid code proves possession.
func (h *Handlers) enableOTP(c *fiber.Ctx) error {
	var req enableOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}

	principal := guard.Principal(c)
	if err := h.otp.Enable(c.UserContext(), principal.Sub, req.Secret, req.Code); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================================
// Sessions
// ============================================================================

func (h *Handlers) sessionSignIn(c *fiber.Ctx) error {
	var req signInRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}

	sess, err := h.sessions.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     guard.SessionCookie,
		Value:    sess.ID,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Expires:  time.Now().Add(24 * time.Hour),
	})
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) sessionSignOut(c *fiber.Ctx) error {
	if id := c.Cookies(guard.SessionCookie); id != "" {
		if err := h.sessions.SignOut(c.UserContext(), id); err != nil {
			return err
		}
	}
	c.ClearCookie(guard.SessionCookie)
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================================
// API keys
// ============================================================================

type createAPIKeyRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) createAPIKey(c *fiber.Ctx) error {
	var req createAPIKeyRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrRegistry.NewWithCause(CodeBadRequest, err)
	}
	if req.Name == "" {
		return ErrRegistry.New(CodeBadRequest).WithDetail("reason", "name is required")
	}

	created, err := h.apiKeys.Create(c.UserContext(), guard.Principal(c).Sub, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) listAPIKeys(c *fiber.Ctx) error {
	keys, err := h.apiKeys.List(c.UserContext(), guard.Principal(c).Sub)
	if err != nil {
		return err
	}
	return c.JSON(keys)
}

func (h *Handlers) revokeAPIKey(c *fiber.Ctx) error {
	if err := h.apiKeys.Revoke(c.UserContext(), guard.Principal(c).Sub, c.Params("uuid")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
