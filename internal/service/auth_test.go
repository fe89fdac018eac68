package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret, subject, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestVerifyToken(t *testing.T) {
	service := NewAuthService("test-secret")

	token := signToken(t, "test-secret", "user-1", "admin")
	result, err := service.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if result.Subject != "user-1" {
		t.Fatalf("expected subject user-1, got %s", result.Subject)
	}
	if result.Role != "admin" {
		t.Fatalf("expected role admin, got %s", result.Role)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	service := NewAuthService("test-secret")

	token := signToken(t, "other-secret", "user-1", "")
	if _, err := service.VerifyToken(context.Background(), token); err == nil {
		t.Fatalf("expected verification to fail")
	}
}

func TestVerifyTokenRequiresSubject(t *testing.T) {
	service := NewAuthService("test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := service.VerifyToken(context.Background(), signed); err == nil {
		t.Fatalf("expected verification to fail")
	}
}

func TestKindMatches(t *testing.T) {
	if !kindMatches(nil, "datasource") {
		t.Fatalf("empty filter should match everything")
	}
	if !kindMatches([]string{"pipeline", "datasource"}, "datasource") {
		t.Fatalf("expected exact match")
	}
	if !kindMatches([]string{"data"}, "datasource") {
		t.Fatalf("expected prefix match")
	}
	if kindMatches([]string{"pipeline"}, "datasource") {
		t.Fatalf("unexpected match")
	}
}
