// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", "v", 10*time.Second))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	now = now.Add(11 * time.Second)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_SetWithoutTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", "v", 0))

	now = now.Add(24 * time.Hour)
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestMemoryStore_SetNX(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	ok, err := store.SetNX(ctx, "lock", "u1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SetNX(ctx, "lock", "u2", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(ctx, "lock")
	require.NoError(t, err)
	assert.Equal(t, "u1", got)

	// The expired lock is free again.
	now = now.Add(6 * time.Second)
	ok, err = store.SetNX(ctx, "lock", "u2", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_SAddReportsNewlyAdded(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	added, err := store.SAdd(ctx, "s", "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), added)

	added, err = store.SAdd(ctx, "s", "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), added)

	ok, err := store.SIsMember(ctx, "s", "m1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.SRem(ctx, "s", "m1"))
	members, err := store.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestMemoryStore_Hashes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.HSet(ctx, "h", "f1", "v1"))
	require.NoError(t, store.HSet(ctx, "h", "f2", "v2"))

	got, err := store.HGet(ctx, "h", "f1")
	require.NoError(t, err)
	assert.Equal(t, "v1", got)

	_, err = store.HGet(ctx, "h", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := store.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"f1": "v1", "f2": "v2"}, all)

	require.NoError(t, store.HDel(ctx, "h", "f1"))
	_, err = store.HGet(ctx, "h", "f1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expire(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	assert.ErrorIs(t, store.Expire(ctx, "missing", time.Second), ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	require.NoError(t, store.Expire(ctx, "k", 5*time.Second))

	now = now.Add(6 * time.Second)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ExpireCoversHashesAndSets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.HSet(ctx, "h", "f", "v"))
	_, err := store.SAdd(ctx, "s", "m")
	require.NoError(t, err)

	require.NoError(t, store.Expire(ctx, "h", 5*time.Second))
	require.NoError(t, store.Expire(ctx, "s", 5*time.Second))

	now = now.Add(6 * time.Second)

	_, err = store.HGet(ctx, "h", "f")
	assert.ErrorIs(t, err, ErrNotFound)
	fields, err := store.HGetAll(ctx, "h")
	require.NoError(t, err)
	assert.Empty(t, fields)

	member, err := store.SIsMember(ctx, "s", "m")
	require.NoError(t, err)
	assert.False(t, member)
	members, err := store.SMembers(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, members)

	// A new Expire after eviction sees nothing to extend.
	assert.ErrorIs(t, store.Expire(ctx, "h", time.Second), ErrNotFound)
}

func TestMemoryStore_WriteAfterCollectionExpiryStartsFresh(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	_, err := store.SAdd(ctx, "s", "m")
	require.NoError(t, err)
	require.NoError(t, store.Expire(ctx, "s", 5*time.Second))

	now = now.Add(6 * time.Second)

	// The stale member is gone, re-adding reports newly added again.
	added, err := store.SAdd(ctx, "s", "m")
	require.NoError(t, err)
	assert.EqualValues(t, 1, added)
	member, err := store.SIsMember(ctx, "s", "m")
	require.NoError(t, err)
	assert.True(t, member)
}

func TestMemoryStore_DelRemovesAllKinds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Set(ctx, "k", "v", 0))
	require.NoError(t, store.HSet(ctx, "k", "f", "v"))
	_, err := store.SAdd(ctx, "k", "m")
	require.NoError(t, err)

	require.NoError(t, store.Del(ctx, "k"))

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.HGet(ctx, "k", "f")
	assert.ErrorIs(t, err, ErrNotFound)
	members, err := store.SMembers(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, members)
}
