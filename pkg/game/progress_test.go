// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/testsetup"
)

func TestProgressService_Counters(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	svc := NewProgressService(store)

	score, err := svc.IncrementTeamPlacedAndGetScore(g.TestScope, "m1", "a")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(score["a"]).To(Equal(1))

	score, err = svc.IncrementTeamPlacedAndGetScore(g.TestScope, "m1", "a")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(score["a"]).To(Equal(2))

	g.Expect(svc.SetPlaced(g.TestScope, "m1", "a", 0)).To(Succeed())
	score, err = svc.IncrementTeamPlacedAndGetScore(g.TestScope, "m1", "a")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(score["a"]).To(Equal(1))
}

func TestProgressService_CheckAllPlaced(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	svc := NewProgressService(store)

	// An unseeded match can never report complete.
	all, err := svc.CheckAllPlaced(g.TestScope, "empty")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(all).To(BeFalse())

	g.Expect(store.SetPiece(g.TestScope.Ctx, "m1", &models.Piece{ID: "p0", Placed: true})).To(Succeed())
	g.Expect(store.SetPiece(g.TestScope.Ctx, "m1", &models.Piece{ID: "p1"})).To(Succeed())

	all, err = svc.CheckAllPlaced(g.TestScope, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(all).To(BeFalse())

	g.Expect(store.SetPiece(g.TestScope.Ctx, "m1", &models.Piece{ID: "p1", Placed: true})).To(Succeed())

	all, err = svc.CheckAllPlaced(g.TestScope, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(all).To(BeTrue())
}

func TestEndService_CompletionIsExactlyOnce(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	progress := NewProgressService(store)
	svc := NewEndService(store, progress, nil)

	testsetup.SeedMatch(g.TestScope.Ctx, store, "m1",
		models.TeamRef{TeamID: "a", MemberCount: 1},
		models.TeamRef{TeamID: "b", MemberCount: 1},
		1, 2)

	// Not all pieces placed yet.
	result, err := svc.CompleteMatchIfNeeded(g.TestScope, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Completed).To(BeFalse())

	pieces, err := store.ListPieces(g.TestScope.Ctx, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	for i := range pieces {
		pieces[i].Placed = true
		row, col := 0, i
		pieces[i].Row, pieces[i].Col = &row, &col
		g.Expect(store.SetPiece(g.TestScope.Ctx, "m1", &pieces[i])).To(Succeed())
	}

	result, err = svc.CompleteMatchIfNeeded(g.TestScope, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Completed).To(BeTrue())
	g.Expect(result.Match).ToNot(BeNil())
	g.Expect(result.Match.Status).To(Equal(models.MatchStatusCompleted))

	// Every later call observes the already-completed match.
	for i := 0; i < 3; i++ {
		result, err = svc.CompleteMatchIfNeeded(g.TestScope, "m1")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(result.Completed).To(BeFalse())
	}

	match, err := store.GetMatch(g.TestScope.Ctx, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(match.Status).To(Equal(models.MatchStatusCompleted))
}
