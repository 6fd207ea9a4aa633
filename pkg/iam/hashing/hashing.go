// Package hashing provides one-way password hashing behind a small
// interface so the algorithm can be swapped without touching the
// authentication flow.
package hashing

import "context"

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Compare(ctx context.Context, plaintext, digest string) (bool, error)
}
