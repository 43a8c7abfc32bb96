// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yuno-tw/stb-api/internal/hashid"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userCodeKey
)

// UserID returns the numeric user id resolved by RequireUser.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// UserCode returns the external user code carried by the session token.
func UserCode(ctx context.Context) (string, bool) {
	code, ok := ctx.Value(userCodeKey).(string)
	return code, ok
}

// RequireUser guards a route with bearer session tokens. A missing,
// malformed, or foreign token yields 401 without reaching the handler.
// On success the request context carries the resolved user id and code.
func RequireUser(tokens *Tokens, codec *hashid.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			userID, err := codec.Decode(claims.UserCode)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, userCodeKey, claims.UserCode)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const scheme = "Bearer "
	if len(header) <= len(scheme) || !strings.EqualFold(header[:len(scheme)], scheme) {
		return "", false
	}
	return header[len(scheme):], true
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    "Unauthorized",
	})
}
