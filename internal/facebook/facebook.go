// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package facebook is a minimal Graph API client covering token
// introspection and basic profile retrieval.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// DefaultBaseURL is the production Graph API endpoint.
const DefaultBaseURL = "https://graph.facebook.com"

// TokenInfo is the debug_token introspection payload.
type TokenInfo struct {
	AppID               string    `json:"app_id"`
	Type                string    `json:"type"`
	Application         string    `json:"application"`
	DataAccessExpiresAt int64     `json:"data_access_expires_at"`
	ExpiresAt           int64     `json:"expires_at"`
	IsValid             bool      `json:"is_valid"`
	Scopes              []string  `json:"scopes"`
	UserID              string    `json:"user_id"`
	Error               *APIError `json:"error,omitempty"`
}

// HasScope reports whether the token carries the given permission.
func (t *TokenInfo) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// UserInfo is the profile payload consumed from the /me endpoint.
type UserInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Birthday string `json:"birthday"`
	Gender   string `json:"gender"`
	Picture  struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// APIError is the Graph API error envelope.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("facebook: %s (type=%s, code=%d)", e.Message, e.Type, e.Code)
}

// Client calls the Graph API. The HTTP client carries no request
// timeout; callers of the login path accept provider latency as-is.
type Client struct {
	baseURL    string
	apiVersion string
	appToken   string
	http       *http.Client
}

// NewClient creates a Graph API client. baseURL may be empty to use the
// production endpoint; tests point it at a local server.
func NewClient(baseURL, apiVersion, appToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		appToken:   appToken,
		http:       &http.Client{},
	}
}

// DebugToken introspects a user access token with the app token.
func (c *Client) DebugToken(ctx context.Context, inputToken string) (*TokenInfo, error) {
	q := url.Values{}
	q.Set("input_token", inputToken)
	q.Set("access_token", c.appToken)

	var envelope struct {
		Data  *TokenInfo `json:"data"`
		Error *APIError  `json:"error"`
	}
	if err := c.get(ctx, "/debug_token", q, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != nil {
		return nil, envelope.Error
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("facebook: debug_token returned no data")
	}
	return envelope.Data, nil
}

// FetchUser retrieves the basic profile for an access token.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	q := url.Values{}
	q.Set("access_token", accessToken)
	q.Set("fields", "id,name,email,birthday,gender,picture{url}")

	var user UserInfo
	if err := c.get(ctx, "/"+c.apiVersion+"/me", q, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("building graph request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graph request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing graph response from %s: %w", path, err)
	}
	return nil
}
