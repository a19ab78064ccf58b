package auth

import (
	"testing"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	supID := "sup1"
	user := &domain.User{ID: "u1", Role: domain.RoleAgent, SupervisorID: &supID}

	token, exp, err := tm.GenerateToken(user)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if exp.Before(time.Now().Add(55 * time.Minute)) {
		t.Fatalf("expiry too early: %v", exp)
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u1" {
		t.Fatalf("subject = %q, want u1", claims.Subject)
	}
	if claims.Role != domain.RoleAgent {
		t.Fatalf("role = %q, want Agent", claims.Role)
	}
	if claims.SupervisorID == nil || *claims.SupervisorID != supID {
		t.Fatalf("supervisor id = %v, want %q", claims.SupervisorID, supID)
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	other := NewTokenManager("secret-b", 60)

	token, _, err := tm.GenerateToken(&domain.User{ID: "u1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("expected parse to fail with a different secret")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	if _, err := tm.ParseToken("not.a.token"); err == nil {
		t.Fatal("expected parse to fail")
	}
}
