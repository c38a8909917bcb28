// Package auth issues and verifies bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL applies when a caller asks for a non-positive lifetime.
const DefaultTokenTTL = 15 * time.Minute

// TokenService signs and checks HMAC JWTs whose subject is the user's email.
// Tokens are stateless and cannot be revoked.
type TokenService struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	defaultTTL time.Duration
	now        func() time.Time
}

// claims adds the exact expiry instant. The registered exp claim only has
// whole-second precision, so it is rounded up and exp_ns decides.
type claims struct {
	jwt.RegisteredClaims
	ExpiresAtNano int64 `json:"exp_ns,omitempty"`
}

// NewTokenService returns a TokenService for one of HS256, HS384 or HS512.
func NewTokenService(secret, algorithm string, defaultTTL time.Duration) (*TokenService, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	return &TokenService{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}, nil
}

// Issue returns a token for subject expiring ttl from now. A ttl <= 0 uses
// the service default.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := s.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(s.method, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(ceilSecond(expiresAt)),
		},
		ExpiresAtNano: expiresAt.UnixNano(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, algorithm and expiry and returns the subject.
// Every failure except a missing subject is reported as ErrInvalidToken; a
// token is already invalid at its exact expiry instant.
func (s *TokenService) Verify(tokenString string) (string, error) {
	c := &claims{}

	token, err := jwt.ParseWithClaims(tokenString, c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	deadline := c.ExpiresAt.Time
	if c.ExpiresAtNano != 0 {
		deadline = time.Unix(0, c.ExpiresAtNano)
	}
	if !s.now().Before(deadline) {
		return "", fmt.Errorf("%w: token is expired", common.ErrInvalidToken)
	}

	if c.Subject == "" {
		return "", common.ErrMissingSubject
	}

	return c.Subject, nil
}

func ceilSecond(t time.Time) time.Time {
	if r := t.Truncate(time.Second); r.Before(t) {
		return r.Add(time.Second)
	}
	return t
}
