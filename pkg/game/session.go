// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"fmt"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/teams"
)

// ConnectResult reports the connection counts after one readiness signal.
type ConnectResult struct {
	// Ready is true once the match is READY, whether this call transitioned
	// it or a previous one did.
	Ready      bool
	ConnectedA int
	ConnectedB int
	ExpectedA  int
	ExpectedB  int
}

// SessionService tracks per-user connection events of a preparing match and
// fires the PREPARING to READY transition when both sides are fully
// connected.
type SessionService struct {
	store             *gamestore.GameStore
	teams             teams.Repository
	requireMembership bool
}

// NewSessionService builds the session service. With requireMembership the
// connecting user must be registered on the team it claims.
func NewSessionService(store *gamestore.GameStore, repo teams.Repository, requireMembership bool) *SessionService {
	return &SessionService{store: store, teams: repo, requireMembership: requireMembership}
}

// SeedMatch writes the board geometry, the initial piece set and zeroed
// scores for both sides. Called once when the match record is created.
func (s *SessionService) SeedMatch(scope *envelope.Scope, matchID string, board models.Board, pieces []models.Piece) error {
	scope = scope.NewChildScope("SessionService.SeedMatch")
	defer scope.Finish()

	match, err := s.store.GetMatch(scope.Ctx, matchID)
	if err != nil {
		return fmt.Errorf("seed match %s: %w", matchID, err)
	}
	if err := s.store.SetBoard(scope.Ctx, matchID, board); err != nil {
		return err
	}
	for i := range pieces {
		if err := s.store.SetPiece(scope.Ctx, matchID, &pieces[i]); err != nil {
			return err
		}
	}
	if err := s.store.SetPlaced(scope.Ctx, matchID, match.TeamA.TeamID, 0); err != nil {
		return err
	}
	return s.store.SetPlaced(scope.Ctx, matchID, match.TeamB.TeamID, 0)
}

// RecordPlayerConnected adds userID to its team's connection set and
// recomputes both sides. The READY transition happens when both sides meet
// their expected member count; the written statuses are idempotent, so a
// racing duplicate write converges on the same state.
func (s *SessionService) RecordPlayerConnected(scope *envelope.Scope, matchID, teamID, userID string) (*ConnectResult, error) {
	scope = scope.NewChildScope("SessionService.RecordPlayerConnected")
	defer scope.Finish()

	match, err := s.store.GetMatch(scope.Ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("load match %s: %w", matchID, err)
	}

	side, ok := match.Side(teamID)
	if !ok {
		return nil, fmt.Errorf("team %s is not part of match %s", teamID, matchID)
	}

	switch match.Status {
	case models.MatchStatusPreparing:
	case models.MatchStatusReady:
		// Counts only grow; a signal after READY is a no-op.
		return s.counts(scope, match, true)
	default:
		return nil, fmt.Errorf("match %s is not joinable (status %s)", matchID, match.Status)
	}

	if s.requireMembership {
		team, err := s.teams.Get(scope.Ctx, teamID)
		if err != nil {
			return nil, fmt.Errorf("load team %s: %w", teamID, err)
		}
		if !team.HasMember(userID) {
			return nil, fmt.Errorf("user %s is not a member of team %s", userID, teamID)
		}
	}

	if _, err := s.store.AddConnected(scope.Ctx, matchID, teamID, userID); err != nil {
		return nil, err
	}
	scope.Log.WithField("matchID", matchID).
		WithField("teamID", side.TeamID).
		WithField("userID", userID).
		Debug("player connected")

	result, err := s.counts(scope, match, false)
	if err != nil {
		return nil, err
	}
	if result.ConnectedA < result.ExpectedA || result.ConnectedB < result.ExpectedB {
		return result, nil
	}

	match.Status = models.MatchStatusReady
	if err := s.store.SetMatch(scope.Ctx, match); err != nil {
		return nil, err
	}
	if _, err := s.teams.SetStatus(scope.Ctx, match.TeamA.TeamID, models.TeamStatusInGame); err != nil {
		return nil, err
	}
	if _, err := s.teams.SetStatus(scope.Ctx, match.TeamB.TeamID, models.TeamStatusInGame); err != nil {
		return nil, err
	}
	scope.Log.WithField("matchID", matchID).Info("match ready")

	result.Ready = true
	return result, nil
}

func (s *SessionService) counts(scope *envelope.Scope, match *models.Match, ready bool) (*ConnectResult, error) {
	membersA, err := s.store.ConnectedMembers(scope.Ctx, match.ID, match.TeamA.TeamID)
	if err != nil {
		return nil, err
	}
	membersB, err := s.store.ConnectedMembers(scope.Ctx, match.ID, match.TeamB.TeamID)
	if err != nil {
		return nil, err
	}
	return &ConnectResult{
		Ready:      ready,
		ConnectedA: len(membersA),
		ConnectedB: len(membersB),
		ExpectedA:  match.TeamA.MemberCount,
		ExpectedB:  match.TeamB.MemberCount,
	}, nil
}
