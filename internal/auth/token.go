// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/room-reservation/internal/domain"
)

// Claims is the payload of an access token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 access tokens with a shared secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens constructs a Tokens. secret must not be empty.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, errors.New("auth.NewTokens: empty secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth.NewTokens: ttl must be positive, got %s", ttl)
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token for the user and its expiry time.
func (t *Tokens) Issue(email string, role domain.Role) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	claims := Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Tokens.Issue: %w", err)
	}
	return signed, exp, nil
}

// Verify parses a token and returns the caller it was issued to.
// Any malformed, expired or foreign-signed token yields domain.ErrUnauthorized.
func (t *Tokens) Verify(token string) (domain.Caller, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return domain.Caller{}, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}
	if claims.Email == "" {
		return domain.Caller{}, fmt.Errorf("%w: token has no email", domain.ErrUnauthorized)
	}
	return domain.Caller{Email: claims.Email, Role: domain.Role(claims.Role)}, nil
}
