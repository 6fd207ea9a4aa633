package hashing_test

import (
	"context"
	"testing"

	"github.com/Abraxas-365/keystone/pkg/iam/hashing"
)

func TestBcryptRoundTrip(t *testing.T) {
	h := hashing.NewBcryptHasher(4)
	ctx := context.Background()

	digest, err := h.Hash(ctx, "hunter22")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "hunter22" {
		t.Fatal("digest equals plaintext")
	}

	match, err := h.Compare(ctx, "hunter22", digest)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !match {
		t.Error("correct password rejected")
	}

	match, err = h.Compare(ctx, "wrong", digest)
	if err != nil {
		t.Fatalf("Compare mismatch: %v", err)
	}
	if match {
		t.Error("wrong password accepted")
	}
}

func TestBcryptSaltsDiffer(t *testing.T) {
	h := hashing.NewBcryptHasher(4)
	ctx := context.Background()

	a, err := h.Hash(ctx, "hunter22")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash(ctx, "hunter22")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same input are identical")
	}
}

func TestBcryptCompareMalformedDigest(t *testing.T) {
	h := hashing.NewBcryptHasher(4)

	if _, err := h.Compare(context.Background(), "x", "not-a-bcrypt-digest"); err == nil {
		t.Error("expected an error for a malformed digest")
	}
}
