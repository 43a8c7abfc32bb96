// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package handler implements the HTTP API: Facebook login, the profile
// read path, and health checks.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/gravitational/trace"

	"github.com/yuno-tw/stb-api/internal/auth"
	"github.com/yuno-tw/stb-api/internal/facebook"
	"github.com/yuno-tw/stb-api/internal/hashid"
	"github.com/yuno-tw/stb-api/internal/logpipe"
	"github.com/yuno-tw/stb-api/internal/model"
	"github.com/yuno-tw/stb-api/internal/usercache"
)

// UserStore is the storage surface the user handlers need.
type UserStore interface {
	GetUserByFacebookID(ctx context.Context, facebookUserID string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) (*model.User, error)
}

// UserHandler handles login and profile requests.
type UserHandler struct {
	store   UserStore
	cache   *usercache.Cache
	codec   *hashid.Codec
	tokens  *auth.Tokens
	fb      *facebook.Client
	fbAppID string
	pipe    *logpipe.Pipeline
}

// NewUserHandler creates a user handler.
func NewUserHandler(store UserStore, cache *usercache.Cache, codec *hashid.Codec,
	tokens *auth.Tokens, fb *facebook.Client, fbAppID string, pipe *logpipe.Pipeline) *UserHandler {
	return &UserHandler{
		store:   store,
		cache:   cache,
		codec:   codec,
		tokens:  tokens,
		fb:      fb,
		fbAppID: fbAppID,
		pipe:    pipe,
	}
}

type loginRequest struct {
	AccessToken string `json:"accessToken"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// LoginFacebook handles POST /user/login/facebook. The access token is
// introspected against the Graph API before any profile data is
// trusted; a token that fails any gate never creates a user row.
func (h *UserHandler) LoginFacebook(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" {
		writeJSONError(w, http.StatusBadRequest, "Could not resolve or token does not exist")
		return
	}

	info, err := h.fb.DebugToken(r.Context(), req.AccessToken)
	if err != nil {
		h.pipe.Error("Error Facebook token introspection:", logpipe.Fields{Err: err})
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if info.AppID != h.fbAppID {
		writeJSONError(w, http.StatusUnauthorized, "Token was issued for another application")
		return
	}
	if !info.IsValid {
		writeJSONError(w, http.StatusUnauthorized, "Token is not valid")
		return
	}
	if !info.HasScope("email") {
		writeJSONError(w, http.StatusUnauthorized, "Token is missing the email scope")
		return
	}
	if info.UserID == "" {
		writeJSONError(w, http.StatusUnauthorized, "Token has no subject")
		return
	}

	user, err := h.findOrCreateUser(r.Context(), req.AccessToken, info.UserID)
	if err != nil {
		h.pipe.Error("Error Facebook login:", logpipe.Fields{Err: err})
		writeError(w, err)
		return
	}

	code, err := h.codec.Encode(user.ID)
	if err != nil {
		h.pipe.Error("Error encoding user code:", logpipe.Fields{Err: err, UserID: user.ID})
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	token, err := h.tokens.Issue(code)
	if err != nil {
		h.pipe.Error("Error issuing session token:", logpipe.Fields{Err: err, UserID: user.ID})
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.pipe.Info(user.Name+" 登入", logpipe.Fields{UserID: user.ID})
	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token})
}

// findOrCreateUser resolves the local user for a verified Facebook id,
// fetching the Graph profile and inserting a row on first login.
func (h *UserHandler) findOrCreateUser(ctx context.Context, accessToken, facebookUserID string) (*model.User, error) {
	user, err := h.store.GetUserByFacebookID(ctx, facebookUserID)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	if user != nil {
		return user, nil
	}

	profile, err := h.fb.FetchUser(ctx, accessToken)
	if err != nil {
		return nil, trace.Wrap(err, "fetching facebook profile")
	}
	if profile.ID != facebookUserID {
		return nil, trace.AccessDenied("token subject mismatch")
	}

	created, err := h.store.CreateUser(ctx, &model.User{
		FacebookUserID: profile.ID,
		Email:          profile.Email,
		Name:           profile.Name,
		ThumbnailURL:   profile.Picture.Data.URL,
		Birthday:       nullString(profile.Birthday),
		Gender:         nullString(profile.Gender),
	})
	if err != nil {
		return nil, trace.Wrap(err)
	}

	h.pipe.System("新用戶註冊", logpipe.Fields{UserID: created.ID})
	return created, nil
}

type profileResponse struct {
	UserCode string `json:"userCode"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// Profile handles GET /user. The user id comes from the bearer
// middleware; the row is served through the single-flight cache.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.cache.Get(r.Context(), userID)
	if err != nil {
		h.pipe.Error("Error loading user profile:", logpipe.Fields{Err: err, UserID: userID})
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	// A token for an id with no row is as good as no token.
	if user == nil {
		writeJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	code, ok := auth.UserCode(r.Context())
	if !ok {
		code, err = h.codec.Encode(user.ID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
	}

	writeJSON(w, http.StatusOK, profileResponse{
		UserCode: code,
		Name:     user.Name,
		Picture:  user.ThumbnailURL,
	})
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
