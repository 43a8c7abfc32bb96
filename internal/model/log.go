// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package model

import (
	"database/sql"
	"time"
)

// Log categories. Admin events are observed only and never persisted,
// so LogTypes lists the persistable categories.
const (
	LogTypeLog    = "log"    // Operational records, kept server-side only
	LogTypeInfo   = "info"   // User-facing records, written in plain language
	LogTypeError  = "error"  // Server-side error records for troubleshooting
	LogTypeSystem = "system" // System records not tied to a single user
	LogTypeAdmin  = "admin"  // Administrator records, observed only
)

// LogTypes lists the categories that reach the database.
var LogTypes = []string{LogTypeLog, LogTypeInfo, LogTypeError, LogTypeSystem}

// Log is a persisted log row produced by the log pipeline.
type Log struct {
	ID             int64         `json:"id"`
	PodName        string        `json:"pod_name"`
	Version        string        `json:"version"`
	TargetUserID   sql.NullInt64 `json:"target_user_id,omitempty"`   // Affected user
	OperatorUserID sql.NullInt64 `json:"operator_user_id,omitempty"` // User that initiated the action
	Type           string        `json:"type"`
	Message        string        `json:"message"`
	CreatedAt      time.Time     `json:"created_at"`
}
