// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package logpipe

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gravitational/trace"

	"github.com/yuno-tw/stb-api/internal/model"
)

// normalize turns a raw producer event into a persistable row. Events
// without a message are dropped. Normalization is defensive against
// partial fields and never panics.
func (p *Pipeline) normalize(category, message string, f Fields) *model.Log {
	if message == "" {
		return nil
	}

	l := &model.Log{
		Type:      category,
		Message:   message,
		CreatedAt: f.CreatedAt,
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}

	// Fold the generic user id into the specific ones, then discard it.
	operator, target := f.OperatorUserID, f.TargetUserID
	if f.UserID != 0 {
		if operator == 0 {
			operator = f.UserID
		}
		if target == 0 {
			target = f.UserID
		}
	}
	if operator != 0 {
		l.OperatorUserID = sql.NullInt64{Int64: operator, Valid: true}
	}
	if target != 0 {
		l.TargetUserID = sql.NullInt64{Int64: target, Valid: true}
	}

	if f.Err != nil {
		l.Message += " " + errTrace(f.Err)
	}

	if len(f.Args) > 0 {
		if rendered := renderArgs(f.Args); rendered != "" {
			l.Message += " " + rendered
		}
	}

	l.PodName = f.PodName
	if l.PodName == "" {
		l.PodName = p.cfg.PodName
	}
	l.Version = f.Version
	if l.Version == "" {
		l.Version = p.cfg.Version
	}

	return l
}

// renderArgs strips nil entries, converts error values to their
// descriptive traces (unwrapping wrapped database errors to the
// underlying cause first), and renders the remainder as pretty JSON.
func renderArgs(args map[string]any) string {
	cleaned := make(map[string]any, len(args))
	for key, value := range args {
		if value == nil {
			continue
		}
		if err, ok := value.(error); ok {
			cleaned[key] = errTrace(unwrapCause(err))
			continue
		}
		cleaned[key] = value
	}
	if len(cleaned) == 0 {
		return ""
	}

	b, err := json.MarshalIndent(cleaned, "", " ")
	if err != nil {
		// Unmarshalable payloads still must not break normalization.
		return fmt.Sprintf("%+v", cleaned)
	}
	return string(b)
}

// unwrapCause peels trace wrapping so a wrapped driver error is
// reported as its underlying cause.
func unwrapCause(err error) error {
	if orig := trace.Unwrap(err); orig != nil {
		return orig
	}
	return err
}

// errTrace renders an error with its full debug trace when available.
func errTrace(err error) string {
	if err == nil {
		return ""
	}
	var traceErr *trace.TraceErr
	if errors.As(err, &traceErr) {
		return trace.DebugReport(err)
	}
	return err.Error()
}
