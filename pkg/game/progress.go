// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"errors"
	"fmt"

	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/metrics"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

// ProgressService aggregates per-team placement counters.
type ProgressService struct {
	store *gamestore.GameStore
}

// NewProgressService wraps the store.
func NewProgressService(store *gamestore.GameStore) *ProgressService {
	return &ProgressService{store: store}
}

// IncrementTeamPlacedAndGetScore bumps teamID's placed counter and returns
// the full score map. Placements are serialized per piece by the piece lock,
// so the store-level read-modify-write is not contended for the same piece.
func (s *ProgressService) IncrementTeamPlacedAndGetScore(scope *envelope.Scope, matchID, teamID string) (models.Score, error) {
	return s.store.IncrTeamPlaced(scope.Ctx, matchID, teamID)
}

// SetPlaced administratively overrides a team's counter.
func (s *ProgressService) SetPlaced(scope *envelope.Scope, matchID, teamID string, count int) error {
	return s.store.SetPlaced(scope.Ctx, matchID, teamID, count)
}

// CheckAllPlaced reports whether every piece of the match is placed. An
// unseeded match (no pieces) reports false so it can never complete.
func (s *ProgressService) CheckAllPlaced(scope *envelope.Scope, matchID string) (bool, error) {
	all := false
	err := s.store.WithPieces(scope.Ctx, matchID, func(pieces []models.Piece) error {
		if len(pieces) == 0 {
			return nil
		}
		for i := range pieces {
			if !pieces[i].Placed {
				return nil
			}
		}
		all = true
		return nil
	})
	return all, err
}

// CompletionResult is the typed outcome of CompleteMatchIfNeeded.
type CompletionResult struct {
	Completed bool
	Match     *models.Match
}

// EndService detects and commits match completion.
type EndService struct {
	store    *gamestore.GameStore
	progress *ProgressService
	metrics  metrics.EngineMetrics
}

// NewEndService builds the end service.
func NewEndService(store *gamestore.GameStore, progress *ProgressService, m metrics.EngineMetrics) *EndService {
	if m == nil {
		m = metrics.Noop()
	}
	return &EndService{store: store, progress: progress, metrics: m}
}

// CompleteMatchIfNeeded marks the match COMPLETED once all pieces are placed.
// Safe to call repeatedly and concurrently: the completion marker is a
// conditional write, so only the first caller that both observes full
// placement and wins the marker reports completed=true. Everyone else gets
// completed=false.
func (s *EndService) CompleteMatchIfNeeded(scope *envelope.Scope, matchID string) (*CompletionResult, error) {
	scope = scope.NewChildScope("EndService.CompleteMatchIfNeeded")
	defer scope.Finish()

	allPlaced, err := s.progress.CheckAllPlaced(scope, matchID)
	if err != nil {
		return nil, err
	}
	if !allPlaced {
		return &CompletionResult{Completed: false}, nil
	}

	match, err := s.store.GetMatch(scope.Ctx, matchID)
	if errors.Is(err, gamestore.ErrNotFound) {
		return nil, fmt.Errorf("complete match %s: %w", matchID, err)
	}
	if err != nil {
		return nil, err
	}
	if match.Status == models.MatchStatusCompleted {
		return &CompletionResult{Completed: false}, nil
	}

	won, err := s.store.ClaimCompletion(scope.Ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !won {
		return &CompletionResult{Completed: false}, nil
	}

	match.Status = models.MatchStatusCompleted
	if err := s.store.SetMatch(scope.Ctx, match); err != nil {
		return nil, err
	}
	s.metrics.AddMatchCompleted(constants.EndReasonCompleted)
	scope.Log.WithField("matchID", matchID).Info("match completed")

	return &CompletionResult{Completed: true, Match: match.Copy()}, nil
}
