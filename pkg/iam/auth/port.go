package auth

import (
	"context"
	"time"

	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
)

// TokenClaims are the verified claims carried by a signed token.
type TokenClaims struct {
	Sub         int64
	Email       string
	Role        iam.Role
	Permissions []iam.Permission

	// RefreshTokenID is present only on refresh tokens.
	RefreshTokenID string
}

// Principal derives the request principal from access-token claims.
func (c *TokenClaims) Principal() *iam.Principal {
	return &iam.Principal{
		Sub:         c.Sub,
		Email:       c.Email,
		Role:        c.Role,
		Permissions: c.Permissions,
	}
}

// TokenService signs and verifies time-bounded tokens. Sign embeds
// sub = userID plus the extra claims; Verify enforces signature, issuer,
// audience and expiry, failing with iam.ErrInvalidToken.
type TokenService interface {
	Sign(userID int64, ttl time.Duration, extra map[string]any) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// RefreshTokenIDStorage tracks the single currently-valid refresh token
// id per user.
//
// Validate returns nil when the presented id matches the stored one, an
// error carrying CodeRefreshReuseDetected when it differs (the theft
// signal), and iam.ErrUnauthorized when no record exists at all.
type RefreshTokenIDStorage interface {
	Insert(ctx context.Context, userID int64, tokenID string) error
	Validate(ctx context.Context, userID int64, tokenID string) error
	Invalidate(ctx context.Context, userID int64) error
}

// AuditService records authentication events for the audit trail.
type AuditService interface {
	LogSignUp(ctx context.Context, userID int64, email string)
	LogSignIn(ctx context.Context, email string, success bool)
	LogTokenRefresh(ctx context.Context, userID int64)
	LogReuseDetected(ctx context.Context, userID int64, email string)
	LogFederatedSignIn(ctx context.Context, userID int64, email, provider string)
}

// SecurityNotifier delivers out-of-band alerts for security-relevant
// events.
type SecurityNotifier interface {
	NotifyReuseDetected(ctx context.Context, u *user.User)
}
