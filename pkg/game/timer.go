// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"errors"
	"time"

	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/metrics"
	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/publish"
)

// TickStatus is the outcome of one timer tick.
type TickStatus string

const (
	// TickSynced means the countdown is still running (or no timer exists).
	TickSynced TickStatus = "synced"
	// TickTimeout means the countdown has run out; the scheduler stops.
	TickTimeout TickStatus = "timeout"
)

// TimerService owns the match countdown: start, tick, timeout completion.
type TimerService struct {
	store   *gamestore.GameStore
	metrics metrics.EngineMetrics
}

// NewTimerService builds the timer service.
func NewTimerService(store *gamestore.GameStore, m metrics.EngineMetrics) *TimerService {
	if m == nil {
		m = metrics.Noop()
	}
	return &TimerService{store: store, metrics: m}
}

// StartTimer writes the countdown record once. A timer that already exists is
// left untouched; the record is immutable for the life of the match.
func (s *TimerService) StartTimer(scope *envelope.Scope, matchID string, startedAt time.Time, duration time.Duration) error {
	_, err := s.store.GetTimer(scope.Ctx, matchID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gamestore.ErrNotFound) {
		return err
	}
	return s.store.SetTimer(scope.Ctx, matchID, &models.Timer{
		StartedAt:  startedAt.UTC().Format(time.RFC3339),
		DurationMs: duration.Milliseconds(),
	})
}

// ResetTimer administratively overwrites the countdown record.
func (s *TimerService) ResetTimer(scope *envelope.Scope, matchID string, startedAt time.Time, duration time.Duration) error {
	return s.store.SetTimer(scope.Ctx, matchID, &models.Timer{
		StartedAt:  startedAt.UTC().Format(time.RFC3339),
		DurationMs: duration.Milliseconds(),
	})
}

// Tick publishes a TIMER_SYNC for the match and, when the countdown has run
// out, completes the match and publishes GAME_END with reason timeout. A
// match without a timer is a no-op. GAME_END fires only for the tick that
// wins the completion marker, so a match already completed by placement
// never double-fires.
func (s *TimerService) Tick(scope *envelope.Scope, pub publish.Publisher, matchID string, now time.Time) (TickStatus, error) {
	scope = scope.NewChildScope("TimerService.Tick")
	defer scope.Finish()

	timer, err := s.store.GetTimer(scope.Ctx, matchID)
	if errors.Is(err, gamestore.ErrNotFound) {
		return TickSynced, nil
	}
	if err != nil {
		return TickSynced, err
	}

	remaining := timer.Remaining(now)
	pub.ToPublic(matchID).Emit(models.EventTimerSync, models.TimerSyncPayload{
		NowISO:      now.UTC().Format(time.RFC3339),
		StartedAt:   timer.StartedAt,
		DurationMs:  timer.DurationMs,
		RemainingMs: remaining,
	})
	if remaining > 0 {
		return TickSynced, nil
	}

	match, err := s.store.GetMatch(scope.Ctx, matchID)
	if errors.Is(err, gamestore.ErrNotFound) {
		// Timer outlived its match record; nothing left to complete.
		return TickTimeout, nil
	}
	if err != nil {
		return TickTimeout, err
	}
	if match.Status == models.MatchStatusCompleted {
		return TickTimeout, nil
	}

	won, err := s.store.ClaimCompletion(scope.Ctx, matchID)
	if err != nil {
		return TickTimeout, err
	}
	if !won {
		return TickTimeout, nil
	}

	match.Status = models.MatchStatusCompleted
	if err := s.store.SetMatch(scope.Ctx, match); err != nil {
		return TickTimeout, err
	}

	score, err := s.store.GetScore(scope.Ctx, matchID)
	if err != nil {
		scope.Log.WithError(err).Warn("failed to load score for game end")
		score = models.Score{}
	}
	winnerID, _ := score.Winner()
	pub.ToPublic(matchID).Emit(models.EventGameEnd, models.GameEndPayload{
		Reason:       constants.EndReasonTimeout,
		WinnerTeamID: winnerID,
		Scores:       score,
		FinishedAt:   now.UTC().Format(time.RFC3339),
	})
	s.metrics.AddMatchCompleted(constants.EndReasonTimeout)
	scope.Log.WithField("matchID", matchID).Info("match timed out")

	return TickTimeout, nil
}
