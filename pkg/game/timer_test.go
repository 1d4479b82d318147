// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/publish"
	"github.com/kotek-7/minpuzz-core/pkg/testsetup"
)

var timerNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTimerService_StartIsWriteOnce(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	svc := NewTimerService(store, nil)

	g.Expect(svc.StartTimer(g.TestScope, "m1", timerNow, 5*time.Minute)).To(Succeed())
	g.Expect(svc.StartTimer(g.TestScope, "m1", timerNow.Add(time.Hour), time.Minute)).To(Succeed())

	timer, err := store.GetTimer(g.TestScope.Ctx, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(timer.DurationMs).To(Equal(int64(300000)))
	g.Expect(timer.StartedAt).To(Equal(timerNow.Format(time.RFC3339)))

	// Reset overwrites unconditionally.
	g.Expect(svc.ResetTimer(g.TestScope, "m1", timerNow.Add(time.Hour), time.Minute)).To(Succeed())
	timer, err = store.GetTimer(g.TestScope.Ctx, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(timer.DurationMs).To(Equal(int64(60000)))
}

func TestTimerService_TickWithoutTimerIsSilent(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	svc := NewTimerService(store, nil)
	rec := publish.NewRecorder()

	status, err := svc.Tick(g.TestScope, rec, "m1", timerNow)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(status).To(Equal(TickSynced))
	g.Expect(rec.Events()).To(BeEmpty())
}

func TestTimerService_TickPublishesSync(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	svc := NewTimerService(store, nil)
	rec := publish.NewRecorder()

	g.Expect(svc.StartTimer(g.TestScope, "m1", timerNow, 5*time.Minute)).To(Succeed())

	status, err := svc.Tick(g.TestScope, rec, "m1", timerNow.Add(10*time.Second))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(status).To(Equal(TickSynced))

	syncs := rec.EventsNamed(models.EventTimerSync)
	g.Expect(syncs).To(HaveLen(1))
	payload := syncs[0].Payload.(models.TimerSyncPayload)
	g.Expect(payload.RemainingMs).To(Equal(int64(290000)))
	g.Expect(syncs[0].Audience).To(Equal("public:m1"))
}

func TestTimerService_TimeoutCompletesAndPublishesOnce(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	svc := NewTimerService(store, nil)
	rec := publish.NewRecorder()

	testsetup.SeedMatch(g.TestScope.Ctx, store, "m1",
		models.TeamRef{TeamID: "a", MemberCount: 1},
		models.TeamRef{TeamID: "b", MemberCount: 1},
		1, 1)
	g.Expect(store.SetPlaced(g.TestScope.Ctx, "m1", "a", 1)).To(Succeed())
	g.Expect(svc.StartTimer(g.TestScope, "m1", timerNow, time.Minute)).To(Succeed())

	expired := timerNow.Add(2 * time.Minute)

	status, err := svc.Tick(g.TestScope, rec, "m1", expired)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(status).To(Equal(TickTimeout))

	ends := rec.EventsNamed(models.EventGameEnd)
	g.Expect(ends).To(HaveLen(1))
	payload := ends[0].Payload.(models.GameEndPayload)
	g.Expect(payload.Reason).To(Equal(constants.EndReasonTimeout))
	g.Expect(payload.WinnerTeamID).To(Equal("a"))

	match, err := store.GetMatch(g.TestScope.Ctx, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(match.Status).To(Equal(models.MatchStatusCompleted))

	// A second expired tick stays timeout but never re-fires GAME_END.
	status, err = svc.Tick(g.TestScope, rec, "m1", expired.Add(time.Second))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(status).To(Equal(TickTimeout))
	g.Expect(rec.EventsNamed(models.EventGameEnd)).To(HaveLen(1))
}

func TestTimerService_TimeoutAfterPlacementCompletionIsQuiet(t *testing.T) {
	g := testsetup.ParallelWithGomega(t)
	_, store := testsetup.NewGameStore()
	timerSvc := NewTimerService(store, nil)
	endSvc := NewEndService(store, NewProgressService(store), nil)
	rec := publish.NewRecorder()

	testsetup.SeedMatch(g.TestScope.Ctx, store, "m1",
		models.TeamRef{TeamID: "a", MemberCount: 1},
		models.TeamRef{TeamID: "b", MemberCount: 1},
		1, 1)
	g.Expect(timerSvc.StartTimer(g.TestScope, "m1", timerNow, time.Minute)).To(Succeed())

	pieces, err := store.ListPieces(g.TestScope.Ctx, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	for i := range pieces {
		pieces[i].Placed = true
		row, col := 0, 0
		pieces[i].Row, pieces[i].Col = &row, &col
		g.Expect(store.SetPiece(g.TestScope.Ctx, "m1", &pieces[i])).To(Succeed())
	}
	result, err := endSvc.CompleteMatchIfNeeded(g.TestScope, "m1")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(result.Completed).To(BeTrue())

	// The timeout tick sees the completed match and stops without GAME_END.
	status, err := timerSvc.Tick(g.TestScope, rec, "m1", timerNow.Add(2*time.Minute))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(status).To(Equal(TickTimeout))
	g.Expect(rec.EventsNamed(models.EventGameEnd)).To(BeEmpty())
}
