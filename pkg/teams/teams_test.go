// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package teams

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

func TestKVRepository_Roundtrip(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository(kvstore.NewMemoryStore())

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	team := &models.Team{ID: "t1", Members: []string{"u1", "u2"}, Status: models.TeamStatusWaiting}
	require.NoError(t, repo.Save(ctx, team))

	got, err := repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.CurrentSchemaVersion, got.SchemaVersion)
	assert.Equal(t, []string{"u1", "u2"}, got.Members)
	assert.Equal(t, models.TeamStatusWaiting, got.Status)
}

func TestKVRepository_SetStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewKVRepository(kvstore.NewMemoryStore())

	require.NoError(t, repo.Save(ctx, &models.Team{ID: "t1", Status: models.TeamStatusWaiting}))

	got, err := repo.SetStatus(ctx, "t1", models.TeamStatusMatching)
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusMatching, got.Status)

	got, err = repo.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.TeamStatusMatching, got.Status)

	_, err = repo.SetStatus(ctx, "missing", models.TeamStatusMatching)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKVRepository_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	repo := NewKVRepository(kv)

	require.NoError(t, kv.Set(ctx, "team:t1", "{broken", 0))

	_, err := repo.Get(ctx, "t1")
	assert.ErrorIs(t, err, ErrInvalidData)
}
