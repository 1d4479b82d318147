// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kotek-7/minpuzz-core/pkg/common"
	"github.com/kotek-7/minpuzz-core/pkg/config"
	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/metrics"
	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/teams"
	"github.com/kotek-7/minpuzz-core/pkg/utils"
)

// JoinResultType discriminates the join outcome.
type JoinResultType string

const (
	// JoinResultWaiting means the team is queued and no match was committed.
	JoinResultWaiting JoinResultType = "waiting"
	// JoinResultFound means a pair was committed and a match created.
	JoinResultFound JoinResultType = "found"
)

// JoinResult is the typed outcome of JoinQueue.
type JoinResult struct {
	Type       JoinResultType
	MatchID    string
	Self       models.TeamRef
	Partner    *models.TeamRef
	WaitReason string
}

// Service orchestrates queue membership, partner planning and the pair
// commit. All mutual exclusion comes from the Coordinator; the service never
// holds an in-process lock across store calls.
type Service struct {
	kv       kvstore.Store
	store    *gamestore.GameStore
	teams    teams.Repository
	coord    *Coordinator
	rules    Rules
	lockTTL  time.Duration
	claimTTL time.Duration
	metrics  metrics.EngineMetrics
	now      func() time.Time
}

// NewService builds a matching service from configuration.
func NewService(kv kvstore.Store, store *gamestore.GameStore, repo teams.Repository, cfg *config.Config, m metrics.EngineMetrics) *Service {
	if m == nil {
		m = metrics.Noop()
	}
	return &Service{
		kv:    kv,
		store: store,
		teams: repo,
		coord: NewCoordinator(kv),
		rules: Rules{
			TTL:              cfg.QueueEntryTTL(),
			RequireEqualSize: cfg.RequireEqualSize,
			MaxSizeDelta:     cfg.MaxSizeDelta,
		},
		lockTTL:  cfg.TeamLockTTL(),
		claimTTL: cfg.PairClaimTTL(),
		metrics:  m,
		now:      time.Now,
	}
}

// SetClock overrides the service clock. This is mostly useful for testing.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func entryKey(teamID string) string {
	return constants.KeyMatchingTeam + teamID
}

// StartMatching moves a team from WAITING/READY into MATCHING so it may join
// the queue.
func (s *Service) StartMatching(scope *envelope.Scope, teamID string) error {
	team, err := s.teams.Get(scope.Ctx, teamID)
	if err != nil {
		return err
	}
	switch team.Status {
	case models.TeamStatusWaiting, models.TeamStatusReady:
	case models.TeamStatusMatching:
		return nil
	default:
		return fmt.Errorf("team %s cannot start matching from status %s", teamID, team.Status)
	}
	_, err = s.teams.SetStatus(scope.Ctx, teamID, models.TeamStatusMatching)
	return err
}

// JoinQueue inserts the team into the queue and attempts a pair commit.
//
// The team must already be MATCHING. When a FIFO partner exists the service
// runs the two-phase lock/claim protocol; losing any phase is not an error,
// the team simply stays queued and the result says waiting. Lock and claim
// are always released on return, win or lose.
func (s *Service) JoinQueue(scope *envelope.Scope, teamID string) (*JoinResult, error) {
	scope = scope.NewChildScope("MatchingService.JoinQueue")
	defer scope.Finish()
	start := s.now()
	defer func() {
		s.metrics.AddJoinElapsedTimeMs(s.now().Sub(start))
	}()

	team, err := s.teams.Get(scope.Ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team %s: %w", teamID, err)
	}
	if team.Status != models.TeamStatusMatching {
		return nil, fmt.Errorf("team %s is not in matching state (status %s)", teamID, team.Status)
	}

	self := models.MatchingTeamInfo{
		SchemaVersion: models.CurrentSchemaVersion,
		TeamID:        teamID,
		MemberCount:   len(team.Members),
		JoinedAt:      s.now().UTC().Format(time.RFC3339),
	}
	// A retry while already queued keeps the original joinedAt; a re-join
	// must never reset the team's queue position.
	if prev, ok := s.readEntry(scope, teamID); ok && prev.JoinedAt != "" {
		self.JoinedAt = prev.JoinedAt
	}
	if err := s.writeEntry(scope, self); err != nil {
		return nil, fmt.Errorf("failed to persist queue entry: %w", err)
	}

	queue, staleIDs, err := s.readQueue(scope)
	if err != nil {
		return nil, err
	}

	plan := PlanPartner(self, queue, s.now(), s.rules)
	s.metrics.SetQueueDepth(len(plan.Valid))

	// Pruning is self-healing, never transactional: failures are logged and
	// must not abort the join.
	for _, id := range append(staleIDs, plan.ExpiredIDs...) {
		s.pruneEntry(scope, id)
	}

	if plan.Partner == nil {
		s.metrics.AddJoinWaiting(constants.WaitReasonNoPartner)
		return s.waiting(self, constants.WaitReasonNoPartner), nil
	}
	partner := *plan.Partner

	locked, err := s.coord.AcquireTeamLocks(scope, teamID, partner.TeamID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		s.metrics.AddJoinWaiting(constants.WaitReasonLockBusy)
		return s.waiting(self, constants.WaitReasonLockBusy), nil
	}
	defer s.coord.ReleaseTeamLocks(scope, teamID, partner.TeamID)

	claimed, err := s.coord.ClaimPair(scope, teamID, partner.TeamID, s.claimTTL)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.metrics.AddJoinWaiting(constants.WaitReasonPairClaimed)
		return s.waiting(self, constants.WaitReasonPairClaimed), nil
	}
	defer s.coord.ReleasePairClaim(scope, teamID, partner.TeamID)

	return s.commitPair(scope, self, partner)
}

// commitPair runs with the team locks and pair claim held.
func (s *Service) commitPair(scope *envelope.Scope, self, partner models.MatchingTeamInfo) (*JoinResult, error) {
	if err := s.deleteEntry(scope, self.TeamID); err != nil {
		return nil, err
	}
	if err := s.deleteEntry(scope, partner.TeamID); err != nil {
		return nil, err
	}

	if _, err := s.teams.SetStatus(scope.Ctx, self.TeamID, models.TeamStatusPreparing); err != nil {
		s.requeue(scope, self, partner)
		return nil, fmt.Errorf("failed to transition team %s to preparing: %w", self.TeamID, err)
	}
	if _, err := s.teams.SetStatus(scope.Ctx, partner.TeamID, models.TeamStatusPreparing); err != nil {
		if _, rbErr := s.teams.SetStatus(scope.Ctx, self.TeamID, models.TeamStatusMatching); rbErr != nil {
			scope.Log.WithError(rbErr).Warn("failed to roll back team status")
		}
		s.requeue(scope, self, partner)
		return nil, fmt.Errorf("failed to transition team %s to preparing: %w", partner.TeamID, err)
	}

	now := s.now()
	match := &models.Match{
		ID:        utils.GenerateMatchID(now),
		TeamA:     models.TeamRef{TeamID: self.TeamID, MemberCount: self.MemberCount},
		TeamB:     models.TeamRef{TeamID: partner.TeamID, MemberCount: partner.MemberCount},
		Status:    models.MatchStatusPreparing,
		CreatedAt: now.UTC(),
	}
	if err := s.store.SetMatch(scope.Ctx, match); err != nil {
		return nil, fmt.Errorf("failed to persist match: %w", err)
	}

	s.metrics.AddMatchCreated()
	scope.Log.WithField("matchID", match.ID).
		WithField("teamA", match.TeamA.TeamID).
		WithField("teamB", match.TeamB.TeamID).
		Info("match created")

	partnerRef := match.TeamB
	result := &JoinResult{
		Type:    JoinResultFound,
		MatchID: match.ID,
		Self:    match.TeamA,
		Partner: &partnerRef,
	}
	scope.Log.Debugf("pair committed: %s", common.LogJSONFormatter(result))
	return result, nil
}

// LeaveQueue removes a team's queue entry and resets it to WAITING.
func (s *Service) LeaveQueue(scope *envelope.Scope, teamID string) error {
	scope = scope.NewChildScope("MatchingService.LeaveQueue")
	defer scope.Finish()

	if err := s.deleteEntry(scope, teamID); err != nil {
		return err
	}
	if _, err := s.teams.SetStatus(scope.Ctx, teamID, models.TeamStatusWaiting); err != nil && !errors.Is(err, teams.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) waiting(self models.MatchingTeamInfo, reason string) *JoinResult {
	return &JoinResult{
		Type:       JoinResultWaiting,
		Self:       models.TeamRef{TeamID: self.TeamID, MemberCount: self.MemberCount},
		WaitReason: reason,
	}
}

func (s *Service) writeEntry(scope *envelope.Scope, entry models.MatchingTeamInfo) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.kv.Set(scope.Ctx, entryKey(entry.TeamID), string(raw), s.rules.TTL); err != nil {
		return err
	}
	if _, err := s.kv.SAdd(scope.Ctx, constants.KeyMatchingQueue, entry.TeamID); err != nil {
		return err
	}
	return nil
}

// readEntry loads a team's live queue entry. Missing or undecodable entries
// report false, the caller writes a fresh one.
func (s *Service) readEntry(scope *envelope.Scope, teamID string) (models.MatchingTeamInfo, bool) {
	raw, err := s.kv.Get(scope.Ctx, entryKey(teamID))
	if err != nil {
		return models.MatchingTeamInfo{}, false
	}
	var entry models.MatchingTeamInfo
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return models.MatchingTeamInfo{}, false
	}
	return entry, true
}

func (s *Service) deleteEntry(scope *envelope.Scope, teamID string) error {
	if err := s.kv.Del(scope.Ctx, entryKey(teamID)); err != nil {
		return err
	}
	return s.kv.SRem(scope.Ctx, constants.KeyMatchingQueue, teamID)
}

// pruneEntry is the best-effort variant of deleteEntry used for expired ids.
func (s *Service) pruneEntry(scope *envelope.Scope, teamID string) {
	if err := s.deleteEntry(scope, teamID); err != nil {
		scope.Log.WithError(err).WithField("teamID", teamID).Warn("failed to prune expired queue entry")
	}
}

// requeue restores both queue entries after a failed commit, preserving the
// original joinedAt so neither team loses its place. Best-effort: the commit
// error already aborts the join, a requeue failure only delays re-matching
// until the clients retry.
func (s *Service) requeue(scope *envelope.Scope, entries ...models.MatchingTeamInfo) {
	for _, entry := range entries {
		if err := s.writeEntry(scope, entry); err != nil {
			scope.Log.WithError(err).WithField("teamID", entry.TeamID).Warn("failed to re-enqueue team after aborted commit")
		}
	}
}

// readQueue loads every queue member's entry. Members whose entry is missing
// (TTL fired) or undecodable are returned as stale ids for pruning.
func (s *Service) readQueue(scope *envelope.Scope) ([]models.MatchingTeamInfo, []string, error) {
	ids, err := s.kv.SMembers(scope.Ctx, constants.KeyMatchingQueue)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]models.MatchingTeamInfo, 0, len(ids))
	var staleIDs []string
	for _, id := range ids {
		raw, err := s.kv.Get(scope.Ctx, entryKey(id))
		if errors.Is(err, kvstore.ErrNotFound) {
			staleIDs = append(staleIDs, id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		var entry models.MatchingTeamInfo
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			staleIDs = append(staleIDs, id)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, staleIDs, nil
}
