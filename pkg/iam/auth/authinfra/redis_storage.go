package authinfra

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam"
	"github.com/Abraxas-365/keystone/pkg/iam/auth"
	"github.com/redis/go-redis/v9"
)

const refreshTokenKeyPrefix = "iam:refresh-token:"

// RedisRefreshTokenStore keeps the single valid refresh token id per
// user. Inserting a new id supersedes the previous one, so at most one
// refresh token is valid for a user at any time. Entries expire with
// the refresh token itself.
type RedisRefreshTokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRefreshTokenStore(client *redis.Client, ttl time.Duration) *RedisRefreshTokenStore {
	return &RedisRefreshTokenStore{client: client, ttl: ttl}
}

func (s *RedisRefreshTokenStore) Insert(ctx context.Context, userID int64, tokenID string) error {
	if err := s.client.Set(ctx, key(userID), tokenID, s.ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store refresh token id", errx.TypeExternal)
	}
	return nil
}

// Validate checks the presented token id against the stored one. A user
// with no stored id fails with a generic unauthorized error; a stored id
// that differs from the presented one fails with the reuse-detected
// error, since it means an already-rotated token is being replayed.
func (s *RedisRefreshTokenStore) Validate(ctx context.Context, userID int64, tokenID string) error {
	stored, err := s.client.Get(ctx, key(userID)).Result()
	if err == redis.Nil {
		return iam.ErrUnauthorized()
	}
	if err != nil {
		return errx.Wrap(err, "failed to read refresh token id", errx.TypeExternal)
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(tokenID)) != 1 {
		return auth.ErrRefreshReuseDetected()
	}
	return nil
}

func (s *RedisRefreshTokenStore) Invalidate(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return errx.Wrap(err, "failed to invalidate refresh token id", errx.TypeExternal)
	}
	return nil
}

func key(userID int64) string {
	return fmt.Sprintf("%s%d", refreshTokenKeyPrefix, userID)
}
