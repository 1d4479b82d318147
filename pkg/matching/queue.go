// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package matching implements the matchmaking queue: pure FIFO partner
// planning, the two-phase team-lock/pair-claim coordinator and the join
// service that composes them.
package matching

import (
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/kotek-7/minpuzz-core/pkg/models"
)

// Rules configures matchability between two queued teams.
type Rules struct {
	// TTL after which a queue entry is treated as stale.
	TTL time.Duration
	// RequireEqualSize only matches teams with identical member counts.
	RequireEqualSize bool
	// MaxSizeDelta bounds the member count difference when equal size is not
	// required. Zero with RequireEqualSize=false means any sizes match.
	MaxSizeDelta int
}

// Plan is the outcome of one partner-planning pass over the queue.
type Plan struct {
	// Partner is the selected FIFO partner, nil when none is matchable.
	Partner *models.MatchingTeamInfo
	// ExpiredIDs are team ids whose entries should be pruned best-effort.
	ExpiredIDs []string
	// Valid is the cleaned queue in FIFO order, self included.
	Valid []models.MatchingTeamInfo
}

// IsExpired reports whether a queue entry is stale at now. Unparsable and
// future timestamps both count as expired: the queue heals itself instead of
// carrying entries it cannot order.
func IsExpired(entry models.MatchingTeamInfo, now time.Time, ttl time.Duration) bool {
	joinedAt, err := time.Parse(time.RFC3339, entry.JoinedAt)
	if err != nil {
		return true
	}
	if joinedAt.After(now) {
		return true
	}
	return now.Sub(joinedAt) > ttl
}

// CleanupAndSortQueue partitions the queue into valid entries and expired
// team ids. Valid entries are sorted ascending by joinedAt with ties broken
// by teamId ascending, which totally orders the queue under identical
// timestamps. A team id appearing more than once keeps only its oldest entry.
func CleanupAndSortQueue(queue []models.MatchingTeamInfo, now time.Time, ttl time.Duration) (valid []models.MatchingTeamInfo, expiredIDs []string) {
	valid = make([]models.MatchingTeamInfo, 0, len(queue))
	for _, entry := range queue {
		if IsExpired(entry, now, ttl) {
			expiredIDs = append(expiredIDs, entry.TeamID)
			continue
		}
		valid = append(valid, entry)
	}
	expiredIDs = pie.Unique(expiredIDs)

	valid = pie.SortStableUsing(valid, func(a, b models.MatchingTeamInfo) bool {
		ta, _ := time.Parse(time.RFC3339, a.JoinedAt)
		tb, _ := time.Parse(time.RFC3339, b.JoinedAt)
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return a.TeamID < b.TeamID
	})

	seen := make(map[string]struct{}, len(valid))
	deduped := valid[:0]
	for _, entry := range valid {
		if _, dup := seen[entry.TeamID]; dup {
			continue
		}
		seen[entry.TeamID] = struct{}{}
		deduped = append(deduped, entry)
	}
	return deduped, expiredIDs
}

// CanMatch reports whether self and other may be paired under the rules.
func CanMatch(self, other models.MatchingTeamInfo, rules Rules) bool {
	if self.TeamID == other.TeamID {
		return false
	}
	if rules.RequireEqualSize {
		return self.MemberCount == other.MemberCount
	}
	if rules.MaxSizeDelta > 0 {
		delta := self.MemberCount - other.MemberCount
		if delta < 0 {
			delta = -delta
		}
		return delta <= rules.MaxSizeDelta
	}
	return true
}

// SelectPartnerFIFO returns the first candidate in queue order satisfying
// CanMatch, nil when none does.
func SelectPartnerFIFO(self models.MatchingTeamInfo, candidates []models.MatchingTeamInfo, rules Rules) *models.MatchingTeamInfo {
	for i := range candidates {
		if CanMatch(self, candidates[i], rules) {
			partner := candidates[i]
			return &partner
		}
	}
	return nil
}

// PlanPartner is the single source of truth for who matches whom: cleanup,
// self exclusion and FIFO selection composed over one queue read.
func PlanPartner(self models.MatchingTeamInfo, queue []models.MatchingTeamInfo, now time.Time, rules Rules) Plan {
	valid, expiredIDs := CleanupAndSortQueue(queue, now, rules.TTL)
	candidates := pie.Filter(valid, func(entry models.MatchingTeamInfo) bool {
		return entry.TeamID != self.TeamID
	})
	return Plan{
		Partner:    SelectPartnerFIFO(self, candidates, rules),
		ExpiredIDs: expiredIDs,
		Valid:      valid,
	}
}
