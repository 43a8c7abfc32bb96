// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

// Package hashid provides the reversible, salted codec between internal
// numeric user ids and the opaque user codes exposed externally.
package hashid

import (
	"errors"
	"fmt"
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

// ErrInvalidCode is returned by Decode for any string that was not
// produced by Encode with the same salt. Callers branch to an
// authentication failure instead of propagating a fault.
var ErrInvalidCode = errors.New("hashid: invalid user code")

const (
	// prefix marks externally visible user codes.
	prefix = "U"
	// minLength pads codes so sequential ids are not guessable.
	minLength = 5
)

// Codec encodes and decodes user ids. Safe for concurrent use.
type Codec struct {
	h *hashids.HashID
}

// New creates a Codec keyed by the given secret salt.
func New(salt string) (*Codec, error) {
	data := hashids.NewData()
	data.Salt = salt
	data.MinLength = minLength
	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("initializing hashid codec: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode converts an internal numeric id into an opaque external code.
func (c *Codec) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("hashid: cannot encode negative id %d", id)
	}
	s, err := c.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("hashid: encoding id %d: %w", id, err)
	}
	return prefix + s, nil
}

// Decode converts an external code back to the internal numeric id.
// Malformed or foreign codes yield ErrInvalidCode, never a panic.
func (c *Codec) Decode(code string) (int64, error) {
	if !strings.HasPrefix(code, prefix) {
		return 0, ErrInvalidCode
	}
	body := strings.TrimPrefix(code, prefix)
	if body == "" {
		return 0, ErrInvalidCode
	}

	ids, err := c.h.DecodeInt64WithError(body)
	if err != nil || len(ids) != 1 {
		return 0, ErrInvalidCode
	}

	// Hashids decodes some salt-foreign strings without error; a
	// re-encode comparison rejects anything Encode could not have made.
	verify, err := c.Encode(ids[0])
	if err != nil || verify != code {
		return 0, ErrInvalidCode
	}
	return ids[0], nil
}
