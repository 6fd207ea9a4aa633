// Package social implements sign-in through external identity
// providers.
package social

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/keystone/pkg/config"
	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/Abraxas-365/keystone/pkg/ptrx"
	"google.golang.org/api/idtoken"
)

var ErrRegistry = errx.NewRegistry("SOCIAL")

var CodeProviderConflict = ErrRegistry.Register("PROVIDER_CONFLICT", errx.TypeConflict, http.StatusConflict, "Account already exists for this identity")

// GoogleIdentity is the subset of a verified Google ID token the
// service uses.
type GoogleIdentity struct {
	Subject string
	Email   string
}

// TokenValidator verifies a Google ID token and extracts the identity
// it asserts.
type TokenValidator interface {
	Validate(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// GoogleTokenValidator verifies ID tokens against Google's public keys
// and the configured OAuth client id.
type GoogleTokenValidator struct {
	clientID string
}

func NewGoogleTokenValidator(cfg config.GoogleConfig) *GoogleTokenValidator {
	return &GoogleTokenValidator{clientID: cfg.ClientID}
}

func (v *GoogleTokenValidator) Validate(ctx context.Context, token string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeUnauthorized, err)
	}

	email, _ := payload.Claims["email"].(string)
	return &GoogleIdentity{
		Subject: payload.Subject,
		Email:   email,
	}, nil
}

// GoogleService signs users in with a Google ID token, provisioning an
// account on first sign-in.
type GoogleService struct {
	validator TokenValidator
	users     user.Repository
	auth      *auth.Service
	audit     auth.AuditService
}

func NewGoogleService(validator TokenValidator, users user.Repository, authSvc *auth.Service, audit auth.AuditService) *GoogleService {
	return &GoogleService{
		validator: validator,
		users:     users,
		auth:      authSvc,
		audit:     audit,
	}
}

// Authenticate verifies the ID token, finds or creates the linked
// account, and issues a token pair. A token that fails verification
// yields a generic unauthorized error.
func (s *GoogleService) Authenticate(ctx context.Context, idToken string) (*auth.TokenPair, error) {
	identity, err := s.validator.Validate(ctx, idToken)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeUnauthorized, err)
	}

	u, err := s.users.FindByGoogleID(ctx, identity.Subject)
	if err != nil {
		u, err = s.provision(ctx, identity)
		if err != nil {
			return nil, err
		}
	}

	s.audit.LogFederatedSignIn(ctx, u.ID, u.Email, "google")
	return s.auth.GenerateTokens(ctx, u)
}

func (s *GoogleService) provision(ctx context.Context, identity *GoogleIdentity) (*user.User, error) {
	u := user.New(identity.Email)
	u.GoogleID = ptrx.Ptr(identity.Subject)

	if err := s.users.Create(ctx, u); err != nil {
		// The email may already be registered with a password; linking
		// accounts automatically is not safe, so surface the conflict.
		if errx.IsCode(err, user.CodeDuplicateUser) {
			return nil, ErrRegistry.NewWithCause(CodeProviderConflict, err)
		}
		return nil, err
	}
	return u, nil
}
