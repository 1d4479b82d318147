// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package models contains the persisted domain records and the event payload
// contracts of the minpuzz session-coordination core. Records are stored as
// versioned JSON blobs; SchemaVersion guards against parse-and-hope decoding
// of foreign payloads.
package models

import (
	"time"

	"github.com/mitchellh/copystructure"

	"github.com/kotek-7/minpuzz-core/pkg/utils"
)

// CurrentSchemaVersion is written into every persisted record.
const CurrentSchemaVersion = 1

// MatchStatus is the lifecycle status of a match.
type MatchStatus string

const (
	// MatchStatusPreparing is set when a pair is committed and both teams are
	// expected to connect their members.
	MatchStatusPreparing MatchStatus = "PREPARING"
	// MatchStatusReady is set once both sides are fully connected.
	MatchStatusReady MatchStatus = "READY"
	// MatchStatusCompleted is terminal, reached by full placement or timeout.
	MatchStatusCompleted MatchStatus = "COMPLETED"
	// MatchStatusUnknown is the snapshot default when the record is absent.
	MatchStatusUnknown MatchStatus = "UNKNOWN"
)

// TeamRef identifies one side of a match.
type TeamRef struct {
	TeamID      string `json:"teamId"`
	MemberCount int    `json:"memberCount"`
}

// Match is a paired game session between two teams.
type Match struct {
	SchemaVersion int         `json:"schemaVersion"`
	ID            string      `json:"id"`
	TeamA         TeamRef     `json:"teamA"`
	TeamB         TeamRef     `json:"teamB"`
	Status        MatchStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// HasTeam reports whether teamID is one of the match's two sides.
func (m *Match) HasTeam(teamID string) bool {
	return m.TeamA.TeamID == teamID || m.TeamB.TeamID == teamID
}

// Side returns the TeamRef for teamID, ok=false when the team is not part of
// the match.
func (m *Match) Side(teamID string) (TeamRef, bool) {
	switch teamID {
	case m.TeamA.TeamID:
		return m.TeamA, true
	case m.TeamB.TeamID:
		return m.TeamB, true
	}
	return TeamRef{}, false
}

// Copy returns a deep copy, safe to hand to another goroutine.
func (m *Match) Copy() *Match {
	copied, err := copystructure.Copy(m)
	if err != nil {
		dup := *m
		return &dup
	}
	return copied.(*Match)
}

// Piece is one puzzle piece of a match board. Holder denotes the exclusive
// current claimant; the empty string means unclaimed. Placed implies Row and
// Col are set.
type Piece struct {
	SchemaVersion int     `json:"schemaVersion"`
	ID            string  `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Placed        bool    `json:"placed"`
	Row           *int    `json:"row,omitempty"`
	Col           *int    `json:"col,omitempty"`
	Holder        string  `json:"holder,omitempty"`
	SolRow        *int    `json:"solRow,omitempty"`
	SolCol        *int    `json:"solCol,omitempty"`
}

// Board is the static geometry of a match board.
type Board struct {
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	CellSize float64 `json:"cellSize"`
}

// CellCenter returns the geometric center of a board cell.
func (b Board) CellCenter(row, col int) (x, y float64) {
	return (float64(col) + 0.5) * b.CellSize, (float64(row) + 0.5) * b.CellSize
}

// Timer is the match countdown. It is immutable once set; remaining time is
// always derived from the current clock, never stored.
type Timer struct {
	SchemaVersion int    `json:"schemaVersion"`
	StartedAt     string `json:"startedAt"`
	DurationMs    int64  `json:"durationMs"`
}

// Remaining computes the remaining countdown at now, clamped at zero. Elapsed
// time is also clamped at zero so a startedAt in the future never extends the
// countdown beyond its duration.
func (t Timer) Remaining(now time.Time) int64 {
	startedAt, err := time.Parse(time.RFC3339, t.StartedAt)
	if err != nil {
		return 0
	}
	elapsed := now.Sub(startedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := t.DurationMs - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Score maps teamID to the number of pieces that team has placed.
type Score map[string]int

// Winner returns the team with the strictly highest placed count. A tie, or
// an empty score, yields ok=false.
func (s Score) Winner() (teamID string, ok bool) {
	best := -1
	for id, count := range s {
		switch {
		case count > best:
			best = count
			teamID = id
			ok = true
		case count == best:
			ok = false
		}
	}
	if !ok {
		return "", false
	}
	return teamID, true
}

// MatchingTeamInfo is a team's matchmaking queue entry. JoinedAt is kept as
// the raw persisted string so that malformed timestamps survive decoding and
// can be classified as expired instead of dropped silently.
type MatchingTeamInfo struct {
	SchemaVersion int    `json:"schemaVersion"`
	TeamID        string `json:"teamId"`
	MemberCount   int    `json:"memberCount"`
	JoinedAt      string `json:"joinedAt"`
}

// TeamStatus is the matchmaking lifecycle status of a team.
type TeamStatus string

const (
	TeamStatusWaiting   TeamStatus = "WAITING"
	TeamStatusReady     TeamStatus = "READY"
	TeamStatusMatching  TeamStatus = "MATCHING"
	TeamStatusPreparing TeamStatus = "PREPARING"
	TeamStatusInGame    TeamStatus = "IN_GAME"
)

// Team is the slice of team state this core needs; membership CRUD beyond
// this lives outside the engine.
type Team struct {
	SchemaVersion int        `json:"schemaVersion"`
	ID            string     `json:"id"`
	Members       []string   `json:"members"`
	Status        TeamStatus `json:"status"`
}

// HasMember reports whether userID is registered on the team.
func (t *Team) HasMember(userID string) bool {
	return utils.Contains(t.Members, userID)
}
