package auth

import (
	"context"
	"time"

	"github.com/Abraxas-365/keystone/pkg/asyncx"
	"github.com/Abraxas-365/keystone/pkg/config"
	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/hashing"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/google/uuid"
)

// OTPVerifier checks a one-time code against an enrolled secret. Wired
// only when two-factor authentication is enabled for the deployment.
type OTPVerifier interface {
	VerifyCode(code, secret string) bool
}

// Service orchestrates sign-up, sign-in, token generation and refresh
// rotation.
type Service struct {
	users      user.Repository
	hasher     hashing.Hasher
	tokens     TokenService
	refreshIDs RefreshTokenIDStorage
	audit      AuditService
	notifier   SecurityNotifier
	otp        OTPVerifier

	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService creates the authentication service. notifier and otp may be
// nil; reuse alerts and two-factor checks are then skipped.
func NewService(
	users user.Repository,
	hasher hashing.Hasher,
	tokens TokenService,
	refreshIDs RefreshTokenIDStorage,
	audit AuditService,
	notifier SecurityNotifier,
	otp OTPVerifier,
	cfg config.JWTConfig,
) *Service {
	return &Service{
		users:      users,
		hasher:     hasher,
		tokens:     tokens,
		refreshIDs: refreshIDs,
		audit:      audit,
		notifier:   notifier,
		otp:        otp,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
	}
}

// SignUp registers a new user with the default role and no permissions.
// A uniqueness conflict surfaces as user.ErrDuplicateUser; other
// persistence failures propagate unchanged.
func (s *Service) SignUp(ctx context.Context, email, password string) error {
	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return err
	}

	u := user.New(email)
	u.PasswordHash = &digest

	if err := s.users.Create(ctx, u); err != nil {
		return err
	}

	s.audit.LogSignUp(ctx, u.ID, u.Email)
	return nil
}

// SignIn authenticates credentials and issues a token pair. Unknown
// email and wrong password yield the same error so nothing is leaked.
// When the account has two-factor auth enrolled, otpCode must verify.
func (s *Service) SignIn(ctx context.Context, email, password, otpCode string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.audit.LogSignIn(ctx, email, false)
		return nil, ErrInvalidCredentials()
	}

	if u.PasswordHash == nil {
		// Federated-only account; it has no password to sign in with.
		s.audit.LogSignIn(ctx, email, false)
		return nil, ErrInvalidCredentials()
	}

	match, err := s.hasher.Compare(ctx, password, *u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		s.audit.LogSignIn(ctx, email, false)
		return nil, ErrInvalidCredentials()
	}

	if u.IsTFAEnabled {
		if s.otp == nil || u.TFASecret == nil || !s.otp.VerifyCode(otpCode, *u.TFASecret) {
			s.audit.LogSignIn(ctx, email, false)
			return nil, ErrInvalidOTPCode()
		}
	}

	s.audit.LogSignIn(ctx, email, true)
	return s.GenerateTokens(ctx, u)
}

// GenerateTokens issues a fresh token pair for u. The access and refresh
// tokens have no ordering dependency and are signed concurrently; the new
// refresh token id is stored only after both signatures complete,
// superseding any previous id for the user.
func (s *Service) GenerateTokens(ctx context.Context, u *user.User) (*TokenPair, error) {
	refreshTokenID := uuid.NewString()

	tokens, err := asyncx.All(ctx,
		func(context.Context) (string, error) {
			return s.tokens.Sign(u.ID, s.accessTTL, map[string]any{
				"email":       u.Email,
				"role":        u.Role,
				"permissions": u.Permissions,
			})
		},
		func(context.Context) (string, error) {
			return s.tokens.Sign(u.ID, s.refreshTTL, map[string]any{
				"refreshTokenId": refreshTokenID,
			})
		},
	)
	if err != nil {
		return nil, err
	}

	if err := s.refreshIDs.Insert(ctx, u.ID, refreshTokenID); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  tokens[0],
		RefreshToken: tokens[1],
	}, nil
}

// RefreshTokens rotates a refresh token. A presented id that matches the
// stored one yields a fresh pair; a mismatch is treated as a token-theft
// signal: the stored record is invalidated so the account must fully
// re-authenticate, and the distinguishable reuse error is returned. Any
// other failure normalizes to a generic unauthorized error.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeUnauthorized, err)
	}
	if claims.RefreshTokenID == "" {
		return nil, iam.ErrUnauthorized()
	}

	u, err := s.users.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeUnauthorized, err)
	}

	if err := s.refreshIDs.Validate(ctx, u.ID, claims.RefreshTokenID); err != nil {
		if errx.IsCode(err, CodeRefreshReuseDetected) {
			_ = s.refreshIDs.Invalidate(ctx, u.ID)
			s.audit.LogReuseDetected(ctx, u.ID, u.Email)
			if s.notifier != nil {
				s.notifier.NotifyReuseDetected(ctx, u)
			}
			return nil, err
		}
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeUnauthorized, err)
	}

	s.audit.LogTokenRefresh(ctx, u.ID)
	return s.GenerateTokens(ctx, u)
}
