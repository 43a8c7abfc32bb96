// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package model defines domain models and types used throughout the
// application, including User and the persisted Log row.
package model

import (
	"database/sql"
	"time"
)

// User represents a registered user. Accounts are created on first
// successful third-party registration and are read-mostly thereafter.
type User struct {
	ID             int64          `json:"id"`
	FacebookUserID string         `json:"facebook_user_id"`
	LineUserID     sql.NullString `json:"line_user_id,omitempty"`
	Email          string         `json:"email"`
	Name           string         `json:"name"`
	ThumbnailURL   string         `json:"thumbnail_url"`
	Birthday       sql.NullString `json:"birthday,omitempty"` // YYYY-MM-DD
	Gender         sql.NullString `json:"gender,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
