// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuno-tw/stb-api/internal/model"
	"github.com/yuno-tw/stb-api/internal/testutil"
)

func TestInsertLogBatch(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	batch := make([]*model.Log, 0, 5)
	for i := 0; i < 5; i++ {
		batch = append(batch, &model.Log{
			PodName:        "local",
			Version:        "v1.0.0",
			Type:           model.LogTypeLog,
			Message:        "operation recorded",
			OperatorUserID: sql.NullInt64{Int64: 7, Valid: true},
			TargetUserID:   sql.NullInt64{Int64: 7, Valid: true},
			CreatedAt:      now,
		})
	}

	require.NoError(t, s.InsertLogBatch(ctx, batch))

	count, err := s.CountLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	logs, err := s.ListLogsByType(ctx, model.LogTypeLog)
	require.NoError(t, err)
	require.Len(t, logs, 5)
	assert.Equal(t, "operation recorded", logs[0].Message)
	assert.Equal(t, int64(7), logs[0].OperatorUserID.Int64)
}

func TestInsertLogBatchSkipsDuplicates(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	batch := []*model.Log{
		{ID: 1, PodName: "local", Version: "dev", Type: model.LogTypeInfo, Message: "first", CreatedAt: now},
		{ID: 1, PodName: "local", Version: "dev", Type: model.LogTypeInfo, Message: "duplicate", CreatedAt: now},
		{ID: 2, PodName: "local", Version: "dev", Type: model.LogTypeInfo, Message: "second", CreatedAt: now},
	}

	// The duplicate id must be skipped without failing the whole insert.
	require.NoError(t, s.InsertLogBatch(ctx, batch))

	count, err := s.CountLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	logs, err := s.ListLogsByType(ctx, model.LogTypeInfo)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
}

func TestInsertLogBatchEmpty(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()

	require.NoError(t, s.InsertLogBatch(context.Background(), nil))
}

func TestDeleteLogsBefore(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -100)
	recent := time.Now()
	require.NoError(t, s.InsertLogBatch(ctx, []*model.Log{
		{Type: model.LogTypeSystem, Message: "ancient", CreatedAt: old},
		{Type: model.LogTypeSystem, Message: "fresh", CreatedAt: recent},
	}))

	deleted, err := s.DeleteLogsBefore(ctx, time.Now().AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	count, err := s.CountLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateAndFetchUser(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &model.User{
		FacebookUserID: "fb-123",
		Email:          "ming@example.com",
		Name:           "Wang Ming",
		ThumbnailURL:   "https://example.com/pic.jpg",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	byFB, err := s.GetUserByFacebookID(ctx, "fb-123")
	require.NoError(t, err)
	require.NotNil(t, byFB)
	assert.Equal(t, created.ID, byFB.ID)
	assert.Equal(t, "ming@example.com", byFB.Email)

	profile, err := s.GetUserProfile(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Wang Ming", profile.Name)
	assert.Equal(t, "https://example.com/pic.jpg", profile.ThumbnailURL)
}

func TestGetUserMissing(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()
	ctx := context.Background()

	profile, err := s.GetUserProfile(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, profile)

	byFB, err := s.GetUserByFacebookID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, byFB)
}

func TestCreateUserDuplicateFacebookID(t *testing.T) {
	s, cleanup := testutil.TestStore(t)
	defer cleanup()
	ctx := context.Background()

	_, err := s.CreateUser(ctx, &model.User{FacebookUserID: "fb-dup", Name: "a"})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, &model.User{FacebookUserID: "fb-dup", Name: "b"})
	assert.Error(t, err)
}
