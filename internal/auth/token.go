// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package auth issues and verifies the signed session tokens handed out
// at login, and provides the bearer middleware that guards protected
// routes.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gravitational/trace"
)

// Claims is the session token payload. UserCode is the opaque external
// user code, never the raw numeric id.
type Claims struct {
	UserCode string `json:"userCode"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies session tokens with a shared HMAC secret.
type Tokens struct {
	secret []byte
	now    func() time.Time // test hook
}

// NewTokens creates a token signer/verifier keyed by secret.
func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

// Issue signs a session token for userCode. Tokens carry an issued-at
// stamp and a unique id but no expiry; sessions live until the secret
// rotates.
func (t *Tokens) Issue(userCode string) (string, error) {
	claims := Claims{
		UserCode: userCode,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(t.now()),
			ID:       uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", trace.Wrap(err, "signing session token")
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
// Any failure surfaces as an access-denied error.
func (t *Tokens) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, trace.AccessDenied("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil {
		return nil, trace.AccessDenied("invalid session token")
	}
	if claims.UserCode == "" {
		return nil, trace.AccessDenied("session token has no user code")
	}
	return claims, nil
}
