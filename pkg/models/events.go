// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"encoding/json"
	"fmt"

	validator "github.com/AccelByte/justice-input-validation-go"
)

// Inbound event names.
const (
	EventJoinMatchingQueue = "join-matching-queue"
	EventJoinGame          = "join-game"
	EventRequestGameInit   = "request-game-init"
	EventPieceGrab         = "piece-grab"
	EventPieceMove         = "piece-move"
	EventPieceRelease      = "piece-release"
	EventPiecePlace        = "piece-place"
)

// Outbound event names.
const (
	EventMatchFound       = "match-found"
	EventGameInit         = "game-init"
	EventStateSync        = "state-sync"
	EventPieceGrabbed     = "piece-grabbed"
	EventPieceGrabDenied  = "piece-grab-denied"
	EventPieceMoved       = "piece-moved"
	EventPieceReleased    = "piece-released"
	EventPiecePlaced      = "piece-placed"
	EventPiecePlaceDenied = "piece-place-denied"
	EventProgressUpdate   = "progress-update"
	EventTimerSync        = "timer-sync"
	EventGameEnd          = "game-end"
)

// JoinMatchingQueuePayload is the inbound request to enter the queue.
type JoinMatchingQueuePayload struct {
	TeamID string `json:"teamId" valid:"required"`
	UserID string `json:"userId" valid:"required"`
}

// JoinGamePayload signals a player connecting to a preparing match.
type JoinGamePayload struct {
	MatchID string `json:"matchId" valid:"required"`
	TeamID  string `json:"teamId"  valid:"required"`
	UserID  string `json:"userId"  valid:"required"`
}

// RequestGameInitPayload asks for a full state snapshot.
type RequestGameInitPayload struct {
	MatchID string `json:"matchId" valid:"required"`
	TeamID  string `json:"teamId"  valid:"required"`
	UserID  string `json:"userId"  valid:"required"`
}

// PieceGrabPayload is the inbound grab request.
type PieceGrabPayload struct {
	MatchID string `json:"matchId" valid:"required"`
	TeamID  string `json:"teamId"  valid:"required"`
	UserID  string `json:"userId"  valid:"required"`
	PieceID string `json:"pieceId" valid:"required"`
}

// PieceMovePayload is the inbound move request. Ts is a client ordering hint;
// the store applies last-write-wins.
type PieceMovePayload struct {
	MatchID string  `json:"matchId" valid:"required"`
	TeamID  string  `json:"teamId"  valid:"required"`
	UserID  string  `json:"userId"  valid:"required"`
	PieceID string  `json:"pieceId" valid:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Ts      int64   `json:"ts"`
}

// PieceReleasePayload is the inbound release request.
type PieceReleasePayload struct {
	MatchID string  `json:"matchId" valid:"required"`
	TeamID  string  `json:"teamId"  valid:"required"`
	UserID  string  `json:"userId"  valid:"required"`
	PieceID string  `json:"pieceId" valid:"required"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// PiecePlacePayload is the inbound place request. X and Y are optional client
// coordinates checked against the snap tolerance when present.
type PiecePlacePayload struct {
	MatchID string   `json:"matchId" valid:"required"`
	TeamID  string   `json:"teamId"  valid:"required"`
	UserID  string   `json:"userId"  valid:"required"`
	PieceID string   `json:"pieceId" valid:"required"`
	Row     int      `json:"row"`
	Col     int      `json:"col"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
}

// ValidatePayload runs schema validation over an inbound payload struct.
func ValidatePayload(payload interface{}) error {
	if ok, err := validator.ValidateStruct(payload); !ok {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

// DecodeInbound decodes and validates a raw inbound payload by event name.
// Unknown events and schema violations are errors; nothing unvalidated
// crosses into the services.
func DecodeInbound(event string, raw json.RawMessage) (interface{}, error) {
	var payload interface{}
	switch event {
	case EventJoinMatchingQueue:
		payload = &JoinMatchingQueuePayload{}
	case EventJoinGame:
		payload = &JoinGamePayload{}
	case EventRequestGameInit:
		payload = &RequestGameInitPayload{}
	case EventPieceGrab:
		payload = &PieceGrabPayload{}
	case EventPieceMove:
		payload = &PieceMovePayload{}
	case EventPieceRelease:
		payload = &PieceReleasePayload{}
	case EventPiecePlace:
		payload = &PiecePlacePayload{}
	default:
		return nil, fmt.Errorf("unknown inbound event %q", event)
	}
	if err := json.Unmarshal(raw, payload); err != nil {
		return nil, fmt.Errorf("decode %s: %w", event, err)
	}
	if err := ValidatePayload(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", event, err)
	}
	return payload, nil
}

// MatchFoundPayload notifies both teams that a pair was committed.
type MatchFoundPayload struct {
	MatchID string  `json:"matchId"`
	Self    TeamRef `json:"self"`
	Partner TeamRef `json:"partner"`
}

// GameInitPayload carries the initial board state for one connecting player.
type GameInitPayload struct {
	MatchID    string  `json:"matchId"`
	TeamID     string  `json:"teamId"`
	UserID     string  `json:"userId"`
	Board      Board   `json:"board"`
	Pieces     []Piece `json:"pieces"`
	StartedAt  string  `json:"startedAt"`
	DurationMs int64   `json:"durationMs"`
}

// StateSyncPayload is the canonical reconciliation snapshot sent on (re)join.
type StateSyncPayload struct {
	Board       Board       `json:"board"`
	Pieces      []Piece     `json:"pieces"`
	Score       Score       `json:"score"`
	Timer       *Timer      `json:"timer"`
	MatchStatus MatchStatus `json:"matchStatus"`
}

// PieceEventPayload covers grabbed/moved/released/placed notifications.
type PieceEventPayload struct {
	PieceID string  `json:"pieceId"`
	UserID  string  `json:"userId,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Row     *int    `json:"row,omitempty"`
	Col     *int    `json:"col,omitempty"`
}

// PieceDeniedPayload carries the denial reason the client renders directly.
type PieceDeniedPayload struct {
	PieceID string `json:"pieceId"`
	Reason  string `json:"reason"`
}

// ProgressUpdatePayload broadcasts the per-team placed counters.
type ProgressUpdatePayload struct {
	PlacedByTeam Score `json:"placedByTeam"`
}

// TimerSyncPayload is published on every scheduler tick.
type TimerSyncPayload struct {
	NowISO      string `json:"nowIso"`
	StartedAt   string `json:"startedAt"`
	DurationMs  int64  `json:"durationMs"`
	RemainingMs int64  `json:"remainingMs"`
}

// GameEndPayload is published exactly when a match completes.
type GameEndPayload struct {
	Reason       string `json:"reason"`
	WinnerTeamID string `json:"winnerTeamId,omitempty"`
	Scores       Score  `json:"scores"`
	FinishedAt   string `json:"finishedAt"`
}
