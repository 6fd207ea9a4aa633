package session

import (
	"context"
	"time"

	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/Abraxas-365/keystone/pkg/iam/hashing"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/google/uuid"
)

// Service creates and resolves login sessions.
type Service struct {
	store  Store
	users  user.Repository
	hasher hashing.Hasher
}

func NewService(store Store, users user.Repository, hasher hashing.Hasher) *Service {
	return &Service{store: store, users: users, hasher: hasher}
}

// SignIn verifies credentials and opens a session. Credential failures
// collapse into one error so account existence is not leaked.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, auth.ErrInvalidCredentials()
	}
	if u.PasswordHash == nil {
		return nil, auth.ErrInvalidCredentials()
	}

	match, err := s.hasher.Compare(ctx, password, *u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, auth.ErrInvalidCredentials()
	}

	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Email:     u.Email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resolve maps a session id to the principal of its owner. The
// principal is rebuilt from the user record, so role and permission
// changes apply to live sessions immediately.
func (s *Service) Resolve(ctx context.Context, sessionID string) (*iam.Principal, error) {
	sess, err := s.store.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, iam.ErrRegistry.NewWithCause(iam.CodeUnauthorized, err)
	}
	return u.Principal(), nil
}

// SignOut deletes a session. Deleting an unknown id is not an error.
func (s *Service) SignOut(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}
