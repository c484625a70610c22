package utils

import (
	"testing"
	"time"
)

func TestIssueAndParseSessionToken(t *testing.T) {
	t.Parallel()

	manager := JWTManager{Secret: []byte("super-secret"), Issuer: "marketauth", SessionTokenTTL: time.Hour}

	token, ttl, err := manager.IssueSessionToken("principal-123", "Ada Buyer", "buyer")
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}
	if ttl != time.Hour {
		t.Fatalf("ttl mismatch: got %v want %v", ttl, time.Hour)
	}

	claims, err := manager.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if claims.PrincipalID != "principal-123" {
		t.Fatalf("principal id mismatch: got %q", claims.PrincipalID)
	}
	if claims.Name != "Ada Buyer" {
		t.Fatalf("name mismatch: got %q", claims.Name)
	}
	if claims.PrincipalType != "buyer" {
		t.Fatalf("type mismatch: got %q", claims.PrincipalType)
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	t.Parallel()

	manager := JWTManager{Secret: []byte("secret"), SessionTokenTTL: -time.Minute}

	token, _, err := manager.IssueSessionToken("p1", "n", "buyer")
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}
	if _, err := manager.ParseSessionToken(token); err == nil {
		t.Fatal("expected error for expired token, got nil")
	}
}

func TestParseSessionTokenWrongSecret(t *testing.T) {
	t.Parallel()

	issuing := JWTManager{Secret: []byte("right-secret"), SessionTokenTTL: time.Hour}
	token, _, err := issuing.IssueSessionToken("p1", "n", "vendor")
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	parsing := JWTManager{Secret: []byte("wrong-secret")}
	if _, err := parsing.ParseSessionToken(token); err == nil {
		t.Fatal("expected error for invalid signature, got nil")
	}
}

func TestParseSessionTokenMalformed(t *testing.T) {
	t.Parallel()

	manager := JWTManager{Secret: []byte("k")}
	if _, err := manager.ParseSessionToken("not.a.jwt"); err == nil {
		t.Fatal("expected error for malformed token, got nil")
	}
}

func TestIssueSessionTokenDefaultTTL(t *testing.T) {
	t.Parallel()

	manager := JWTManager{Secret: []byte("secret")}
	_, ttl, err := manager.IssueSessionToken("p1", "n", "buyer")
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}
	if ttl != 24*time.Hour {
		t.Fatalf("default ttl mismatch: got %v want %v", ttl, 24*time.Hour)
	}
}
