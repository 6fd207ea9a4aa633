package apikeysrv

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/Abraxas-365/keystone/pkg/asyncx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/apikey"
	"github.com/Abraxas-365/keystone/pkg/iam/user"
	"github.com/Abraxas-365/keystone/pkg/logx"
)

// Service creates and validates API keys.
type Service struct {
	keys  apikey.Repository
	users user.Repository
}

func New(keys apikey.Repository, users user.Repository) *Service {
	return &Service{keys: keys, users: users}
}

// CreatedKey is the Create response. Secret is shown exactly once.
type CreatedKey struct {
	Key    *apikey.APIKey `json:"key"`
	Secret string         `json:"secret"`
}

func (s *Service) Create(ctx context.Context, userID int64, name string) (*CreatedKey, error) {
	secret, id, err := apikey.Generate()
	if err != nil {
		return nil, err
	}

	key := &apikey.APIKey{
		UUID:      id,
		KeyHash:   apikey.Hash(secret),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.keys.Create(ctx, key); err != nil {
		return nil, err
	}

	return &CreatedKey{Key: key, Secret: secret}, nil
}

// Validate resolves a presented secret to the principal of its owner.
// Every failure mode returns the same invalid-key error so the caller
// cannot tell a bad id from a bad secret.
func (s *Service) Validate(ctx context.Context, rawKey string) (*iam.Principal, error) {
	id, err := apikey.ParseID(rawKey)
	if err != nil {
		return nil, apikey.ErrRegistry.New(apikey.CodeInvalidKey)
	}

	key, err := s.keys.FindByUUID(ctx, id)
	if err != nil {
		return nil, apikey.ErrRegistry.New(apikey.CodeInvalidKey)
	}

	if subtle.ConstantTimeCompare([]byte(apikey.Hash(rawKey)), []byte(key.KeyHash)) != 1 {
		return nil, apikey.ErrRegistry.New(apikey.CodeInvalidKey)
	}

	owner, err := s.users.FindByID(ctx, key.UserID)
	if err != nil {
		return nil, apikey.ErrRegistry.New(apikey.CodeInvalidKey)
	}

	// Last-used bookkeeping must not slow down the request.
	touchCtx := context.WithoutCancel(ctx)
	asyncx.Do(func() {
		if err := s.keys.TouchLastUsed(touchCtx, id, time.Now().UTC()); err != nil {
			logx.WithFields(logx.Fields{"key_uuid": id, "error": err.Error()}).Warn("failed to update api key last used")
		}
	})

	return owner.Principal(), nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]apikey.APIKey, error) {
	return s.keys.ListByUser(ctx, userID)
}

func (s *Service) Revoke(ctx context.Context, userID int64, id string) error {
	return s.keys.Delete(ctx, userID, id)
}
