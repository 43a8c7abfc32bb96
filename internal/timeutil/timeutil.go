// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package timeutil provides the shared time formats used by the console
// log view and request tracing.
package timeutil

import "time"

// DateTimeFormat is the canonical timestamp layout for console output.
const DateTimeFormat = "2006-01-02 15:04:05"

// Now returns the current time rendered with DateTimeFormat.
func Now() string {
	return time.Now().Format(DateTimeFormat)
}

// Format renders t with DateTimeFormat.
func Format(t time.Time) string {
	return t.Format(DateTimeFormat)
}
