package auth

import (
	"strconv"
	"time"

	"github.com/Abraxas-365/keystone/pkg/config"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/golang-jwt/jwt/v5"
)

// JWTService implements TokenService using HS256-signed JWTs.
type JWTService struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTService creates a new JWT token service from configuration.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// jwtClaims is the wire shape of both token kinds. Access tokens carry
// email/role/permissions; refresh tokens carry only the rotation id.
type jwtClaims struct {
	Email          string   `json:"email,omitempty"`
	Role           string   `json:"role,omitempty"`
	Permissions    []string `json:"permissions,omitempty"`
	RefreshTokenID string   `json:"refreshTokenId,omitempty"`
	jwt.RegisteredClaims
}

// Sign produces a signed token for userID with the given lifetime. Extra
// claims are read from the map keys "email", "role", "permissions" and
// "refreshTokenId".
func (s *JWTService) Sign(userID int64, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{s.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	if email, ok := extra["email"].(string); ok {
		claims.Email = email
	}
	if role, ok := extra["role"].(iam.Role); ok {
		claims.Role = string(role)
	}
	if perms, ok := extra["permissions"].([]iam.Permission); ok {
		claims.Permissions = make([]string, len(perms))
		for i, p := range perms {
			claims.Permissions[i] = string(p)
		}
	}
	if id, ok := extra["refreshTokenId"].(string); ok {
		claims.RefreshTokenID = id
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", iam.ErrRegistry.NewWithCause(iam.CodeInvalidToken, err)
	}
	return signed, nil
}

// Verify parses and validates a token, enforcing signature method,
// issuer, audience and expiry.
func (s *JWTService) Verify(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwtClaims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeInvalidToken, err)
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, iam.ErrInvalidToken()
	}

	sub, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeInvalidToken, err)
	}

	perms := make([]iam.Permission, len(claims.Permissions))
	for i, p := range claims.Permissions {
		perms[i] = iam.Permission(p)
	}

	return &TokenClaims{
		Sub:            sub,
		Email:          claims.Email,
		Role:           iam.Role(claims.Role),
		Permissions:    perms,
		RefreshTokenID: claims.RefreshTokenID,
	}, nil
}
