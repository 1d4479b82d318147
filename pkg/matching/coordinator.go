// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package matching

import (
	"errors"
	"time"

	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/utils"
)

// Coordinator implements the two-phase team-lock + pair-claim protocol that
// keeps two racing join attempts from committing the same team twice.
//
// A held lock is two records: membership in a lock set (whose SAdd result is
// the atomic "am I first" signal) and an individual TTL key. A crash between
// the two, or a TTL firing on the key alone, leaves a stale set entry; the
// acquire path heals it by checking the TTL key and retrying the add once.
type Coordinator struct {
	kv kvstore.Store
}

// NewCoordinator wraps the raw store.
func NewCoordinator(kv kvstore.Store) *Coordinator {
	return &Coordinator{kv: kv}
}

func teamLockKey(teamID string) string {
	return constants.KeyTeamLockPrefix + teamID
}

func pairClaimKey(a, b string) string {
	return constants.KeyPairClaimPrefix + utils.PairKey(a, b)
}

// acquireEntry inserts member into set and writes the companion TTL key.
// Returns false on contention (a live holder exists).
func (c *Coordinator) acquireEntry(scope *envelope.Scope, set, member, ttlKey string, ttl time.Duration) (bool, error) {
	added, err := c.kv.SAdd(scope.Ctx, set, member)
	if err != nil {
		return false, err
	}
	if added == 0 {
		// Already present: heal if the TTL companion is gone (stale holder).
		_, err := c.kv.Get(scope.Ctx, ttlKey)
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, kvstore.ErrNotFound) {
			return false, err
		}
		scope.Log.WithField("member", member).Warn("healing stale lock set entry")
		if err := c.kv.SRem(scope.Ctx, set, member); err != nil {
			return false, err
		}
		added, err = c.kv.SAdd(scope.Ctx, set, member)
		if err != nil {
			return false, err
		}
		if added == 0 {
			// Someone else re-acquired between the heal and the retry.
			return false, nil
		}
	}
	if err := c.kv.Set(scope.Ctx, ttlKey, "1", ttl); err != nil {
		// Roll the set entry back so the lock is not held without a TTL.
		_ = c.kv.SRem(scope.Ctx, set, member)
		return false, err
	}
	return true, nil
}

func (c *Coordinator) releaseEntry(scope *envelope.Scope, set, member, ttlKey string) {
	// Best-effort; a leak self-heals via the TTL companion check.
	if err := c.kv.Del(scope.Ctx, ttlKey); err != nil {
		scope.Log.WithError(err).WithField("member", member).Warn("failed to delete lock key")
	}
	if err := c.kv.SRem(scope.Ctx, set, member); err != nil {
		scope.Log.WithError(err).WithField("member", member).Warn("failed to remove lock set entry")
	}
}

// AcquireTeamLocks takes both team locks in lexicographic order (the total
// order prevents deadlock between two symmetric attempts). Returns false with
// no partial state held when either lock is busy.
func (c *Coordinator) AcquireTeamLocks(scope *envelope.Scope, a, b string, ttl time.Duration) (bool, error) {
	first, second := a, b
	if second < first {
		first, second = second, first
	}

	ok, err := c.acquireEntry(scope, constants.KeyTeamLockSet, first, teamLockKey(first), ttl)
	if err != nil || !ok {
		return false, err
	}
	ok, err = c.acquireEntry(scope, constants.KeyTeamLockSet, second, teamLockKey(second), ttl)
	if err != nil || !ok {
		c.releaseEntry(scope, constants.KeyTeamLockSet, first, teamLockKey(first))
		return false, err
	}
	return true, nil
}

// ReleaseTeamLocks drops both team locks, best-effort.
func (c *Coordinator) ReleaseTeamLocks(scope *envelope.Scope, a, b string) {
	c.releaseEntry(scope, constants.KeyTeamLockSet, a, teamLockKey(a))
	c.releaseEntry(scope, constants.KeyTeamLockSet, b, teamLockKey(b))
}

// ClaimPair claims the canonical unordered pair key. Only the first claimant
// observes true for the duration of the commit.
func (c *Coordinator) ClaimPair(scope *envelope.Scope, a, b string, ttl time.Duration) (bool, error) {
	return c.acquireEntry(scope, constants.KeyPairClaimSet, utils.PairKey(a, b), pairClaimKey(a, b), ttl)
}

// ReleasePairClaim drops the pair claim, best-effort.
func (c *Coordinator) ReleasePairClaim(scope *envelope.Scope, a, b string) {
	c.releaseEntry(scope, constants.KeyPairClaimSet, utils.PairKey(a, b), pairClaimKey(a, b))
}
