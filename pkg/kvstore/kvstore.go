// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package kvstore abstracts the shared key-value store the engine coordinates
// through. Safety of every multi-actor sequence in the engine rests on the
// per-key atomicity of these primitives, in particular SetNX and the
// newly-added count returned by SAdd; no in-process mutex protects multi-step
// sequences above this layer.
package kvstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key or hash field does not exist.
var ErrNotFound = errors.New("kvstore: not found")

// Store is the set of atomic primitives the engine relies on. TTL of zero
// means no expiry.
type Store interface {
	// Get returns the string value at key, ErrNotFound when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set writes the string value at key with an optional TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX writes value only if key is absent. Returns true when the write
	// happened. This is the engine's mutex primitive.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Del removes a key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// HGet returns one hash field, ErrNotFound when absent.
	HGet(ctx context.Context, key, field string) (string, error)

	// HSet writes one hash field.
	HSet(ctx context.Context, key, field, value string) error

	// HDel removes one hash field.
	HDel(ctx context.Context, key, field string) error

	// HGetAll enumerates a hash; an absent key yields an empty map.
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	// SAdd inserts a member and returns the count of newly inserted members
	// (1 on first insertion, 0 when already present).
	SAdd(ctx context.Context, key, member string) (int64, error)

	// SRem removes a member. Removing an absent member is not an error.
	SRem(ctx context.Context, key, member string) error

	// SIsMember reports set membership.
	SIsMember(ctx context.Context, key, member string) (bool, error)

	// SMembers enumerates a set; an absent key yields an empty slice.
	SMembers(ctx context.Context, key string) ([]string, error)

	// Expire attaches a TTL to an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
