package auth

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", claims.UserID)
	}
	if claims.Name != "Alice" {
		t.Fatalf("expected Alice, got %s", claims.Name)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret", "user-1", "Alice")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ParseToken("secret", "not.a.token"); err == nil {
		t.Fatal("malformed token should be rejected")
	}
}
