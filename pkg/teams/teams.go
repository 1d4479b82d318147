// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package teams holds the slice of team state the engine needs: load a team,
// move it through the matchmaking lifecycle. Full membership CRUD lives
// outside the core.
package teams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

// ErrNotFound is returned when a team does not exist.
var ErrNotFound = errors.New("teams: not found")

// ErrInvalidData is returned when a persisted team blob fails decoding.
var ErrInvalidData = errors.New("teams: invalid persisted data")

// Repository loads and persists teams.
type Repository interface {
	Get(ctx context.Context, teamID string) (*models.Team, error)
	Save(ctx context.Context, team *models.Team) error
	// SetStatus loads the team, applies the status and persists it back.
	SetStatus(ctx context.Context, teamID string, status models.TeamStatus) (*models.Team, error)
}

// KVRepository backs Repository with the shared key-value store.
type KVRepository struct {
	kv kvstore.Store
}

// NewKVRepository wraps the given store.
func NewKVRepository(kv kvstore.Store) *KVRepository {
	return &KVRepository{kv: kv}
}

func teamKey(teamID string) string {
	return constants.KeyTeamPrefix + teamID
}

func (r *KVRepository) Get(ctx context.Context, teamID string) (*models.Team, error) {
	raw, err := r.kv.Get(ctx, teamKey(teamID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	team := &models.Team{}
	if err := json.Unmarshal([]byte(raw), team); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return team, nil
}

func (r *KVRepository) Save(ctx context.Context, team *models.Team) error {
	team.SchemaVersion = models.CurrentSchemaVersion
	raw, err := json.Marshal(team)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return r.kv.Set(ctx, teamKey(team.ID), string(raw), 0)
}

func (r *KVRepository) SetStatus(ctx context.Context, teamID string, status models.TeamStatus) (*models.Team, error) {
	team, err := r.Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	team.Status = status
	if err := r.Save(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}
