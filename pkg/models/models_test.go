// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimer_Remaining(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		timer Timer
		want  int64
	}{
		{
			name:  "mid countdown",
			timer: Timer{StartedAt: now.Add(-10 * time.Second).Format(time.RFC3339), DurationMs: 60000},
			want:  50000,
		},
		{
			name:  "just started",
			timer: Timer{StartedAt: now.Format(time.RFC3339), DurationMs: 60000},
			want:  60000,
		},
		{
			name:  "expired clamps to zero",
			timer: Timer{StartedAt: now.Add(-2 * time.Minute).Format(time.RFC3339), DurationMs: 60000},
			want:  0,
		},
		{
			name:  "future startedAt never exceeds duration",
			timer: Timer{StartedAt: now.Add(30 * time.Second).Format(time.RFC3339), DurationMs: 60000},
			want:  60000,
		},
		{
			name:  "malformed startedAt reads as zero",
			timer: Timer{StartedAt: "not-a-timestamp", DurationMs: 60000},
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.timer.Remaining(now))
		})
	}
}

func TestScore_Winner(t *testing.T) {
	tests := []struct {
		name   string
		score  Score
		want   string
		wantOK bool
	}{
		{name: "strict highest", score: Score{"a": 3, "b": 2}, want: "a", wantOK: true},
		{name: "tie has no winner", score: Score{"a": 2, "b": 2}, want: "", wantOK: false},
		{name: "empty has no winner", score: Score{}, want: "", wantOK: false},
		{name: "single team wins", score: Score{"a": 0}, want: "a", wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.score.Winner()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_Side(t *testing.T) {
	match := &Match{
		ID:    "m1",
		TeamA: TeamRef{TeamID: "a", MemberCount: 2},
		TeamB: TeamRef{TeamID: "b", MemberCount: 3},
	}

	side, ok := match.Side("b")
	assert.True(t, ok)
	assert.Equal(t, 3, side.MemberCount)

	_, ok = match.Side("c")
	assert.False(t, ok)

	assert.True(t, match.HasTeam("a"))
	assert.False(t, match.HasTeam("c"))
}

func TestMatch_CopyIsDeep(t *testing.T) {
	match := &Match{ID: "m1", TeamA: TeamRef{TeamID: "a"}, Status: MatchStatusPreparing}

	copied := match.Copy()
	copied.Status = MatchStatusCompleted
	copied.TeamA.TeamID = "z"

	assert.Equal(t, MatchStatusPreparing, match.Status)
	assert.Equal(t, "a", match.TeamA.TeamID)
}

func TestTeam_HasMember(t *testing.T) {
	team := &Team{ID: "t1", Members: []string{"u1", "u2"}}
	assert.True(t, team.HasMember("u2"))
	assert.False(t, team.HasMember("u3"))
}
