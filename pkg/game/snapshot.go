// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"errors"
	"sync"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

// SnapshotBuilder composes the canonical reconciliation payload sent to a
// client on (re)join: board, pieces, score, timer and match status read
// concurrently from the store.
type SnapshotBuilder struct {
	store *gamestore.GameStore
}

// NewSnapshotBuilder wraps the store.
func NewSnapshotBuilder(store *gamestore.GameStore) *SnapshotBuilder {
	return &SnapshotBuilder{store: store}
}

// Build fans out the five sub-reads and composes the snapshot. Absent
// sub-records become documented defaults: empty piece list, empty score,
// nil timer, status UNKNOWN, zero board. Store failures propagate.
func (b *SnapshotBuilder) Build(scope *envelope.Scope, matchID string) (*models.StateSyncPayload, error) {
	scope = scope.NewChildScope("SnapshotBuilder.Build")
	defer scope.Finish()

	snapshot := &models.StateSyncPayload{
		Pieces:      []models.Piece{},
		Score:       models.Score{},
		MatchStatus: models.MatchStatusUnknown,
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	read := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, gamestore.ErrNotFound) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	read(func() error {
		match, err := b.store.GetMatch(scope.Ctx, matchID)
		if err != nil {
			return err
		}
		mu.Lock()
		snapshot.MatchStatus = match.Status
		mu.Unlock()
		return nil
	})
	read(func() error {
		board, err := b.store.GetBoard(scope.Ctx, matchID)
		if err != nil {
			return err
		}
		mu.Lock()
		snapshot.Board = board
		mu.Unlock()
		return nil
	})
	read(func() error {
		pieces, err := b.store.ListPieces(scope.Ctx, matchID)
		if err != nil {
			return err
		}
		mu.Lock()
		snapshot.Pieces = pieces
		mu.Unlock()
		return nil
	})
	read(func() error {
		score, err := b.store.GetScore(scope.Ctx, matchID)
		if err != nil {
			return err
		}
		mu.Lock()
		snapshot.Score = score
		mu.Unlock()
		return nil
	})
	read(func() error {
		timer, err := b.store.GetTimer(scope.Ctx, matchID)
		if err != nil {
			return err
		}
		mu.Lock()
		snapshot.Timer = timer
		mu.Unlock()
		return nil
	})

	wg.Wait()
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return snapshot, nil
}
