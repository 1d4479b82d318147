// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package matching

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/testsetup"
)

func TestCoordinator_TeamLocksBlockSecondAcquire(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	coord := NewCoordinator(kvstore.NewMemoryStore())
	scope := testsetup.NewTestScope()

	ok, err := coord.AcquireTeamLocks(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	// Any attempt overlapping either team is refused.
	ok, err = coord.AcquireTeamLocks(scope, "b", "c", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	coord.ReleaseTeamLocks(scope, "a", "b")

	ok, err = coord.AcquireTeamLocks(scope, "b", "c", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
}

func TestCoordinator_FailedSecondLockReleasesFirst(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	coord := NewCoordinator(kvstore.NewMemoryStore())
	scope := testsetup.NewTestScope()

	ok, err := coord.AcquireTeamLocks(scope, "b", "x", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	// a sorts before b, so the attempt takes a first, then fails on b and
	// must give a back.
	ok, err = coord.AcquireTeamLocks(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	ok, err = coord.AcquireTeamLocks(scope, "a", "c", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
}

func TestCoordinator_HealsStaleLockSetEntry(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	kv := kvstore.NewMemoryStore()
	coord := NewCoordinator(kv)
	scope := testsetup.NewTestScope()

	// A crashed holder left its set entry behind without the TTL companion.
	_, err := kv.SAdd(scope.Ctx, constants.KeyTeamLockSet, "a")
	g.Expect(err).ToNot(HaveOccurred())

	ok, err := coord.AcquireTeamLocks(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
}

func TestCoordinator_ExpiredLockIsReacquirable(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	kv := kvstore.NewMemoryStore()
	coord := NewCoordinator(kv)
	scope := testsetup.NewTestScope()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	kv.SetClock(func() time.Time { return now })

	ok, err := coord.AcquireTeamLocks(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	now = now.Add(6 * time.Second)

	ok, err = coord.AcquireTeamLocks(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
}

func TestCoordinator_PairClaimIsExclusive(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	coord := NewCoordinator(kvstore.NewMemoryStore())
	scope := testsetup.NewTestScope()

	ok, err := coord.ClaimPair(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	// The claim is unordered; the mirrored pair hits the same key.
	ok, err = coord.ClaimPair(scope, "b", "a", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeFalse())

	coord.ReleasePairClaim(scope, "a", "b")

	ok, err = coord.ClaimPair(scope, "b", "a", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
}

func TestCoordinator_ClaimAfterReleaseCycle(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	coord := NewCoordinator(kvstore.NewMemoryStore())
	scope := testsetup.NewTestScope()

	for i := 0; i < 3; i++ {
		ok, err := coord.ClaimPair(scope, "a", "b", 5*time.Second)
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(ok).To(BeTrue())
		coord.ReleasePairClaim(scope, "a", "b")
	}

	// Distinct pairs never contend with each other.
	ok, err := coord.ClaimPair(scope, "a", "b", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
	ok, err = coord.ClaimPair(scope, "a", "c", 5*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
}
