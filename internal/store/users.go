// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/yuno-tw/stb-api/internal/model"
)

// GetUserProfile fetches the minimal projection served on the profile
// read path: id, name and thumbnail URL. A missing id yields (nil, nil).
func (s *Store) GetUserProfile(ctx context.Context, id int64) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, thumbnail_url FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Name, &u.ThumbnailURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %d: %w", id, err)
	}
	return u, nil
}

// GetUserByFacebookID fetches the full user row for a Facebook user id.
// A missing row yields (nil, nil).
func (s *Store) GetUserByFacebookID(ctx context.Context, facebookUserID string) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, facebook_user_id, line_user_id, email, name, thumbnail_url, birthday, gender, created_at, updated_at
		 FROM users WHERE facebook_user_id = ?`, facebookUserID).
		Scan(&u.ID, &u.FacebookUserID, &u.LineUserID, &u.Email, &u.Name, &u.ThumbnailURL,
			&u.Birthday, &u.Gender, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user by facebook id %q: %w", facebookUserID, err)
	}
	return u, nil
}

// CreateUser inserts a new user and returns it with the assigned id.
func (s *Store) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (facebook_user_id, line_user_id, email, name, thumbnail_url, birthday, gender, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.FacebookUserID, u.LineUserID, u.Email, u.Name, u.ThumbnailURL, u.Birthday, u.Gender, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading new user id: %w", err)
	}
	u.ID = id
	return u, nil
}
