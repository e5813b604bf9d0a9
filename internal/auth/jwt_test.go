package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "a@example.com", "ana", "broadcaster")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("user id mismatch: got=%s want=%s", claims.UserID, userID)
	}
	if claims.Username != "ana" || claims.Role != "broadcaster" || claims.Email != "a@example.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).Generate(uuid.New(), "a@example.com", "ana", "viewer")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := NewJWTService("secret-b", 1).Validate(token); err == nil {
		t.Fatal("expected validation failure with wrong secret")
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	svc := NewJWTService("secret", 1)
	if _, err := svc.Validate("not.a.token"); err == nil {
		t.Fatal("expected validation failure")
	}
}
