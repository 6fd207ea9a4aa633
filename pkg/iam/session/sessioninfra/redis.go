package sessioninfra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/Abraxas-365/keystone/pkg/iam/session"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "iam:session:"

// RedisSessionStore keeps sessions as JSON values with a sliding
// expiry set at save time.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func (s *RedisSessionStore) Save(ctx context.Context, sess *session.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return errx.Wrap(err, "failed to encode session", errx.TypeInternal)
	}

	if err := s.client.Set(ctx, key(sess.ID), payload, s.ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store session", errx.TypeExternal)
	}
	return nil
}

func (s *RedisSessionStore) Find(ctx context.Context, id string) (*session.Session, error) {
	payload, err := s.client.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, session.ErrRegistry.New(session.CodeSessionNotFound)
	}
	if err != nil {
		return nil, errx.Wrap(err, "failed to read session", errx.TypeExternal)
	}

	var sess session.Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, errx.Wrap(err, "failed to decode session", errx.TypeInternal)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, key(id)).Err(); err != nil {
		return errx.Wrap(err, "failed to delete session", errx.TypeExternal)
	}
	return nil
}

func key(id string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, id)
}
