package guard

import (
	"context"
	"strings"

	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// AccessTokenCookie is the fallback cookie for the access token when
	// no Authorization header is present.
	AccessTokenCookie = "access_token"
	// APIKeyHeader carries the opaque API key.
	APIKeyHeader = "X-API-Key"
	// SessionCookie carries the server-side session id.
	SessionCookie = "session_id"
)

// BearerStrategy authenticates requests via a signed access token, read
// from the Authorization header or the access token cookie.
type BearerStrategy struct {
	tokens auth.TokenService
}

func NewBearerStrategy(tokens auth.TokenService) *BearerStrategy {
	return &BearerStrategy{tokens: tokens}
}

func (s *BearerStrategy) Authenticate(c *fiber.Ctx) (*iam.Principal, error) {
	token := bearerToken(c)
	if token == "" {
		return nil, iam.ErrUnauthorized()
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.RefreshTokenID != "" {
		// Refresh tokens are not accepted as access credentials.
		return nil, iam.ErrInvalidToken()
	}
	return claims.Principal(), nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok && after != "" {
		return after
	}
	return c.Cookies(AccessTokenCookie)
}

// APIKeyValidator resolves an opaque API key to the principal of its
// owner.
type APIKeyValidator interface {
	Validate(ctx context.Context, rawKey string) (*iam.Principal, error)
}

// APIKeyStrategy authenticates requests via the API key header.
type APIKeyStrategy struct {
	keys APIKeyValidator
}

func NewAPIKeyStrategy(keys APIKeyValidator) *APIKeyStrategy {
	return &APIKeyStrategy{keys: keys}
}

func (s *APIKeyStrategy) Authenticate(c *fiber.Ctx) (*iam.Principal, error) {
	raw := c.Get(APIKeyHeader)
	if raw == "" {
		return nil, iam.ErrUnauthorized()
	}
	return s.keys.Validate(c.UserContext(), raw)
}

// SessionResolver resolves a session id to the principal it was created
// for.
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) (*iam.Principal, error)
}

// SessionStrategy authenticates requests via the session cookie.
type SessionStrategy struct {
	sessions SessionResolver
}

func NewSessionStrategy(sessions SessionResolver) *SessionStrategy {
	return &SessionStrategy{sessions: sessions}
}

func (s *SessionStrategy) Authenticate(c *fiber.Ctx) (*iam.Principal, error) {
	id := c.Cookies(SessionCookie)
	if id == "" {
		return nil, iam.ErrUnauthorized()
	}
	return s.sessions.Resolve(c.UserContext(), id)
}
