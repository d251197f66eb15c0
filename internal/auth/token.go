// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Proyecta Contributors

// Package auth provides the stateless token authority and the
// authentication gate that front the identity services.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/proyecta/proyecta/internal/fault"
)

// DefaultTokenTTL is the token lifetime when none is configured.
const DefaultTokenTTL = time.Hour

// minKeyLen is the minimum HMAC key length in bytes (256 bits).
const minKeyLen = 32

// ErrTokenInvalid is returned for any malformed, unsigned, tampered, or
// expired token. It deliberately carries no detail about which check
// failed, and it is an authentication failure for taxonomy purposes.
var ErrTokenInvalid = fmt.Errorf("invalid token: %w", fault.ErrUnauthenticated)

// Claims is the signed payload: subject names the principal, Role is
// trusted for the token's lifetime without re-querying the store.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Principal is the authenticated identity reconstructed from a verified token.
type Principal struct {
	Name string
	Role string
}

// TokenAuthority issues and verifies HS256-signed bearer tokens.
type TokenAuthority struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenAuthority creates a TokenAuthority. The key must be at least
// 256 bits; a zero ttl selects DefaultTokenTTL.
func NewTokenAuthority(key []byte, ttl time.Duration) (*TokenAuthority, error) {
	if len(key) < minKeyLen {
		return nil, oops.Code("TOKEN_KEY_TOO_SHORT").
			With("length", len(key)).
			Errorf("signing key must be at least %d bytes", minKeyLen)
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenAuthority{key: key, ttl: ttl, now: time.Now}, nil
}

// Issue signs a token binding the principal name and role claim, valid
// from now until now+ttl.
func (a *TokenAuthority) Issue(principalName, roleClaim string) (string, error) {
	now := a.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Role: roleClaim,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a token and reconstructs the
// principal. Any failure — wrong algorithm, bad signature, expired, junk
// input — yields ErrTokenInvalid wrapping fault.ErrUnauthenticated; a
// token whose signature fails is never partially trusted.
func (a *TokenAuthority) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (any, error) {
		return a.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return a.now() }),
	)
	if err != nil {
		return nil, invalidToken(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, invalidToken(nil)
	}
	if claims.Subject == "" {
		return nil, invalidToken(nil)
	}

	return &Principal{Name: claims.Subject, Role: claims.Role}, nil
}

func invalidToken(cause error) error {
	builder := oops.Code("TOKEN_INVALID")
	if cause != nil {
		builder = builder.With("cause", cause.Error())
	}
	return builder.Wrapf(ErrTokenInvalid, "token rejected")
}
