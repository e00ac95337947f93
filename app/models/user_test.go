package models

import (
	"strings"
	"testing"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	u := &User{}
	if err := u.SetPassword("correct horse battery"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if u.Password == "correct horse battery" {
		t.Fatal("password stored in plain text")
	}
	if !u.CheckPassword("correct horse battery") {
		t.Fatal("correct password rejected")
	}
	if u.CheckPassword("wrong") {
		t.Fatal("wrong password accepted")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	raw, hash, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	if !strings.HasPrefix(raw, "dbz_") {
		t.Fatalf("expected dbz_ prefix, got %q", raw)
	}
	if len(hash) != 64 {
		t.Fatalf("expected 64-char sha256 hex hash, got %d chars", len(hash))
	}
	if HashAPIKey(raw) != hash {
		t.Fatal("hash is not reproducible from the raw key")
	}
	if HashAPIKey(" "+raw+" ") != hash {
		t.Fatal("hash must ignore surrounding whitespace")
	}

	raw2, _, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	if raw == raw2 {
		t.Fatal("two generated keys are identical")
	}
}

func TestCreateUserValidates(t *testing.T) {
	if _, err := CreateUser("ab", "not-an-email", "123", ROLE_BUYER); err == nil {
		t.Fatal("expected validation error for bad input")
	}

	u, err := CreateUser("Asha Textiles", "asha@example.com", "secret123", ROLE_BUYER)
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.Status != STATUS_INACTIVE {
		t.Fatalf("new users must start inactive, got %s", u.Status)
	}
	if !u.IsBuyer() {
		t.Fatal("expected buyer role")
	}
}
