package auth

import (
	"strings"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)

	token, err := signer.Sign(Claims{Sub: "user-1", Username: "alice"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected 3 token segments, got %d", len(parts))
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Sub != "user-1" || claims.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewSigner("secret-a", time.Hour).Sign(Claims{Sub: "user-1"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	if _, err := NewSigner("secret-b", time.Hour).Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	signer := NewSigner("test-secret", time.Hour)
	past := time.Now().UTC().Add(-time.Hour).Unix()

	token, err := signer.Sign(Claims{Sub: "user-1", Exp: past})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signer.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	if _, err := NewSigner("test-secret", time.Hour).Sign(Claims{}); err == nil {
		t.Fatal("expected error for missing sub")
	}
}
