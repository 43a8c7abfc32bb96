// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/yuno-tw/stb-api/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	info      *version.Info
	startTime time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *sql.DB, info *version.Info) *HealthHandler {
	return &HealthHandler{db: db, info: info, startTime: time.Now()}
}

// Health handles GET /healthz. The database ping decides readiness.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.info.String(),
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	})
}
