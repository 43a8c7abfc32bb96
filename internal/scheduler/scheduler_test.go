// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package scheduler

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuno-tw/stb-api/internal/logpipe"
	"github.com/yuno-tw/stb-api/internal/model"
	"github.com/yuno-tw/stb-api/internal/testutil"
)

func seedLog(t *testing.T, st interface {
	InsertLogBatch(ctx context.Context, logs []*model.Log) error
}, createdAt time.Time) {
	t.Helper()
	err := st.InsertLogBatch(context.Background(), []*model.Log{{
		PodName:        "test",
		Version:        "dev",
		TargetUserID:   sql.NullInt64{},
		OperatorUserID: sql.NullInt64{},
		Type:           model.LogTypeSystem,
		Message:        "entry",
		CreatedAt:      createdAt,
	}})
	require.NoError(t, err)
}

func TestPurgeOldLogs(t *testing.T) {
	st, cleanup := testutil.TestStore(t)
	defer cleanup()

	pipe := logpipe.New(st, logpipe.Config{Output: io.Discard})

	now := time.Now()
	seedLog(t, st, now.AddDate(0, 0, -91))
	seedLog(t, st, now.AddDate(0, 0, -89))
	seedLog(t, st, now)

	s := New(st, pipe, 90)
	require.NoError(t, s.PurgeOldLogs())

	n, err := st.CountLogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "only rows past the retention window are purged")
}

func TestStartRegistersRetentionJob(t *testing.T) {
	st, cleanup := testutil.TestStore(t)
	defer cleanup()

	pipe := logpipe.New(st, logpipe.Config{Output: io.Discard})

	s := New(st, pipe, 90)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.cron.Entries(), 1)
}
