// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/testsetup"
)

func TestReclaimLocksForUser(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()

	testsetup.SeedMatch(g.TestScope.Ctx, store, "m1",
		models.TeamRef{TeamID: "a", MemberCount: 1},
		models.TeamRef{TeamID: "b", MemberCount: 1},
		2, 2)

	// u1 holds p0 (field and lock), u2 holds p1; p2 carries only a stale
	// lock from u1 whose holder field was never written.
	svc := NewPieceService(store, gameConfig(), nil)
	result, err := svc.Grab(g.TestScope, "m1", "p0", "u1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Denied).To(BeFalse())
	result, err = svc.Grab(g.TestScope, "m1", "p1", "u2")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Denied).To(BeFalse())
	ok, err := store.AcquirePieceLock(g.TestScope.Ctx, "m1", "p2", "u1", 30*time.Second)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())

	ReclaimLocksForUser(g.TestScope, store, []string{"m1", "ghost-match"}, "u1")

	// u1's piece is free again, field and lock both.
	piece, err := store.GetPiece(g.TestScope.Ctx, "m1", "p0")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(piece.Holder).To(BeEmpty())
	_, err = store.PieceLockHolder(g.TestScope.Ctx, "m1", "p0")
	g.Expect(err).To(MatchError(gamestore.ErrNotFound))

	// The stale lock without a holder field is also dropped.
	_, err = store.PieceLockHolder(g.TestScope.Ctx, "m1", "p2")
	g.Expect(err).To(MatchError(gamestore.ErrNotFound))

	// u2's hold is untouched.
	piece, err = store.GetPiece(g.TestScope.Ctx, "m1", "p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(piece.Holder).To(Equal("u2"))
	holder, err := store.PieceLockHolder(g.TestScope.Ctx, "m1", "p1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(holder).To(Equal("u2"))
}
