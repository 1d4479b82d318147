// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"context"
	"sync"
	"time"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/publish"
)

// Scheduler runs one supervised tick goroutine per active match. Start is
// idempotent per match id; a loop stops either explicitly or on the first
// tick that reports timeout.
type Scheduler struct {
	timer    *TimerService
	pub      publish.Publisher
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*tickSession
	wg       sync.WaitGroup
}

type tickSession struct {
	cancel context.CancelFunc
}

// NewScheduler builds a scheduler ticking every interval.
func NewScheduler(timer *TimerService, pub publish.Publisher, interval time.Duration) *Scheduler {
	return &Scheduler{
		timer:    timer,
		pub:      pub,
		interval: interval,
		sessions: make(map[string]*tickSession),
	}
}

// Start launches the tick loop for a match. Starting an already-started
// match is a no-op.
func (s *Scheduler) Start(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, running := s.sessions[matchID]; running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess := &tickSession{cancel: cancel}
	s.sessions[matchID] = sess
	s.wg.Add(1)
	go s.run(ctx, matchID, sess)
}

// Stop cancels the tick loop for a match. Stopping an unknown match is a
// no-op.
func (s *Scheduler) Stop(matchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, running := s.sessions[matchID]; running {
		sess.cancel()
		delete(s.sessions, matchID)
	}
}

// StopAll cancels every tick loop and waits for them to exit.
func (s *Scheduler) StopAll() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.cancel()
	}
	s.sessions = make(map[string]*tickSession)
	s.mu.Unlock()
	s.wg.Wait()
}

// Running reports whether a tick loop is registered for the match.
func (s *Scheduler) Running(matchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, running := s.sessions[matchID]
	return running
}

// deregister drops the session unless the match was already restarted with a
// newer loop.
func (s *Scheduler) deregister(matchID string, sess *tickSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[matchID] == sess {
		sess.cancel()
		delete(s.sessions, matchID)
	}
}

func (s *Scheduler) run(ctx context.Context, matchID string, sess *tickSession) {
	defer s.wg.Done()
	defer s.deregister(matchID, sess)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scope := envelope.NewRootScope(ctx, "Scheduler.tick", "")
			status, err := s.timer.Tick(scope, s.pub, matchID, time.Now())
			if err != nil {
				scope.Log.WithError(err).WithField("matchID", matchID).Warn("timer tick failed")
			}
			scope.Finish()
			if status == TickTimeout {
				return
			}
		}
	}
}
