// Package apikey implements opaque API keys for machine clients. The
// secret embeds a lookup id so validation is a single indexed read; only
// a hash of the secret is persisted.
package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/Abraxas-365/keystone/pkg/errx"
	"github.com/google/uuid"
)

var ErrRegistry = errx.NewRegistry("APIKEY")

var (
	CodeInvalidKey  = ErrRegistry.Register("INVALID_KEY", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid API key")
	CodeKeyNotFound = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "API key not found")
)

const keyPrefix = "ks_"

// APIKey is a stored API key. The plaintext secret exists only in the
// Create response.
type APIKey struct {
	ID         int64      `db:"id" json:"id"`
	UUID       string     `db:"uuid" json:"uuid"`
	KeyHash    string     `db:"key_hash" json:"-"`
	UserID     int64      `db:"user_id" json:"userId"`
	Name       string     `db:"name" json:"name"`
	LastUsedAt *time.Time `db:"last_used_at" json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
}

// Generate produces a new key secret and its lookup id. The secret is
// the prefixed base64 encoding of "<uuid>.<random>".
func Generate() (secret, id string, err error) {
	id = uuid.NewString()

	entropy := make([]byte, 32)
	if _, err := rand.Read(entropy); err != nil {
		return "", "", errx.Wrap(err, "failed to generate api key", errx.TypeInternal)
	}

	payload := id + "." + hex.EncodeToString(entropy)
	return keyPrefix + base64.RawURLEncoding.EncodeToString([]byte(payload)), id, nil
}

// ParseID extracts the lookup id from a presented secret.
func ParseID(secret string) (string, error) {
	encoded, ok := strings.CutPrefix(secret, keyPrefix)
	if !ok {
		return "", ErrRegistry.New(CodeInvalidKey)
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrRegistry.NewWithCause(CodeInvalidKey, err)
	}

	id, _, found := strings.Cut(string(payload), ".")
	if !found {
		return "", ErrRegistry.New(CodeInvalidKey)
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrRegistry.NewWithCause(CodeInvalidKey, err)
	}
	return id, nil
}

// Hash digests a secret for storage and comparison.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
