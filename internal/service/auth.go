package service

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("auth")

// AuthService verifies bearer tokens issued for the API.
type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

type AuthResult struct {
	Subject string
	Role    string
}

// VerifyToken parses and validates an HS256 JWT and returns its identity
// claims.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.VerifyToken")
	defer span.End()

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "AuthService.VerifyToken: parse failed")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	subject, _ := claims.GetSubject()
	if subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	role, _ := claims["role"].(string)

	return &AuthResult{Subject: subject, Role: role}, nil
}
