package apikey_test

import (
	"strings"
	"testing"

	"github.com/Abraxas-365/keystone/pkg/iam/apikey"
	"github.com/google/uuid"
)

func TestGenerateAndParse(t *testing.T) {
	secret, id, err := apikey.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.HasPrefix(secret, "ks_") {
		t.Errorf("secret %q lacks prefix", secret)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a uuid: %v", id, err)
	}

	parsed, err := apikey.ParseID(secret)
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if parsed != id {
		t.Errorf("ParseID = %q, want %q", parsed, id)
	}
}

func TestGenerateIsUnique(t *testing.T) {
	a, _, err := apikey.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _, err := apikey.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if a == b {
		t.Fatal("two generated secrets collide")
	}
}

func TestParseIDRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"ks_",
		"no-prefix",
		"ks_!!!not-base64!!!",
		"ks_" + "bm8tZG90LWhlcmU", // valid base64, no separator
	}
	for _, c := range cases {
		if _, err := apikey.ParseID(c); err == nil {
			t.Errorf("ParseID(%q) accepted malformed input", c)
		}
	}
}

func TestHashIsStable(t *testing.T) {
	secret, _, err := apikey.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if apikey.Hash(secret) != apikey.Hash(secret) {
		t.Error("hash is not deterministic")
	}
	if apikey.Hash(secret) == apikey.Hash(secret+"x") {
		t.Error("distinct inputs hash equal")
	}
	if apikey.Hash(secret) == secret {
		t.Error("hash leaks the plaintext")
	}
}
