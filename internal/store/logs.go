// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yuno-tw/stb-api/internal/model"
)

// InsertLogBatch persists a batch of normalized log rows in a single
// bulk insert. Rows that violate a uniqueness constraint are skipped
// silently instead of failing the whole statement.
func (s *Store) InsertLogBatch(ctx context.Context, logs []*model.Log) error {
	if len(logs) == 0 {
		return nil
	}

	verb := "INSERT OR IGNORE"
	if s.dialect == DialectMySQL {
		verb = "INSERT IGNORE"
	}

	var sb strings.Builder
	sb.WriteString(verb)
	sb.WriteString(" INTO logs (id, pod_name, version, target_user_id, operator_user_id, type, message, created_at) VALUES ")

	args := make([]any, 0, len(logs)*8)
	for i, l := range logs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")

		// A zero ID defers to the auto-increment sequence.
		var id any
		if l.ID != 0 {
			id = l.ID
		}
		args = append(args, id, l.PodName, l.Version, l.TargetUserID, l.OperatorUserID, l.Type, l.Message, l.CreatedAt)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("inserting log batch of %d: %w", len(logs), err)
	}
	return nil
}

// DeleteLogsBefore removes log rows created before the cutoff and
// returns how many were deleted.
func (s *Store) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM logs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting logs before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted logs: %w", err)
	}
	return n, nil
}

// CountLogs returns the number of persisted log rows.
func (s *Store) CountLogs(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM logs").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting logs: %w", err)
	}
	return n, nil
}

// ListLogsByType returns persisted rows of one category ordered by insertion.
func (s *Store) ListLogsByType(ctx context.Context, logType string) ([]*model.Log, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, pod_name, version, target_user_id, operator_user_id, type, message, created_at FROM logs WHERE type = ? ORDER BY id",
		logType)
	if err != nil {
		return nil, fmt.Errorf("listing %s logs: %w", logType, err)
	}
	defer func() { _ = rows.Close() }()

	var logs []*model.Log
	for rows.Next() {
		l := &model.Log{}
		if err := rows.Scan(&l.ID, &l.PodName, &l.Version, &l.TargetUserID, &l.OperatorUserID, &l.Type, &l.Message, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
