// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package gamestore is the typed façade over the key-value store for all
// per-match state: match records, pieces, piece locks, scores, timers and
// connection sets. Records are persisted as versioned JSON; a blob that fails
// to decode surfaces ErrInvalidData rather than a bare unmarshal error.
package gamestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("gamestore: not found")

// ErrInvalidData is returned when a persisted blob fails schema decoding.
var ErrInvalidData = errors.New("gamestore: invalid persisted data")

// pool reusable object to reduce garbage collection that can affect performance
var pool = models.NewPool()

// GameStore exposes typed operations over the raw store.
type GameStore struct {
	kv kvstore.Store
}

// New wraps the given key-value store.
func New(kv kvstore.Store) *GameStore {
	return &GameStore{kv: kv}
}

// KV exposes the underlying store for components that need raw primitives.
func (g *GameStore) KV() kvstore.Store {
	return g.kv
}

func decode(raw string, out interface{}) error {
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return nil
}

func encode(in interface{}) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return string(raw), nil
}

// GetMatch loads a match record.
func (g *GameStore) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	raw, err := g.kv.Get(ctx, matchKey(matchID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	match := &models.Match{}
	if err := decode(raw, match); err != nil {
		return nil, err
	}
	return match, nil
}

// SetMatch persists a match record.
func (g *GameStore) SetMatch(ctx context.Context, match *models.Match) error {
	match.SchemaVersion = models.CurrentSchemaVersion
	raw, err := encode(match)
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, matchKey(match.ID), raw, 0)
}

// GetBoard loads the board geometry, ErrNotFound when the match was never
// seeded.
func (g *GameStore) GetBoard(ctx context.Context, matchID string) (models.Board, error) {
	raw, err := g.kv.Get(ctx, boardKey(matchID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.Board{}, ErrNotFound
	}
	if err != nil {
		return models.Board{}, err
	}
	var board models.Board
	if err := decode(raw, &board); err != nil {
		return models.Board{}, err
	}
	return board, nil
}

// SetBoard persists the board geometry.
func (g *GameStore) SetBoard(ctx context.Context, matchID string, board models.Board) error {
	raw, err := encode(board)
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, boardKey(matchID), raw, 0)
}

// GetPiece loads one piece, ErrNotFound when absent.
func (g *GameStore) GetPiece(ctx context.Context, matchID, pieceID string) (*models.Piece, error) {
	raw, err := g.kv.HGet(ctx, piecesKey(matchID), pieceID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	piece := &models.Piece{}
	if err := decode(raw, piece); err != nil {
		return nil, err
	}
	return piece, nil
}

// SetPiece persists one piece.
func (g *GameStore) SetPiece(ctx context.Context, matchID string, piece *models.Piece) error {
	piece.SchemaVersion = models.CurrentSchemaVersion
	raw, err := encode(piece)
	if err != nil {
		return err
	}
	return g.kv.HSet(ctx, piecesKey(matchID), piece.ID, raw)
}

// ListPieces enumerates all pieces of a match. An unseeded match yields an
// empty slice. Corrupt entries surface ErrInvalidData.
func (g *GameStore) ListPieces(ctx context.Context, matchID string) ([]models.Piece, error) {
	raws, err := g.kv.HGetAll(ctx, piecesKey(matchID))
	if err != nil {
		return nil, err
	}
	pieces := make([]models.Piece, 0, len(raws))
	for _, raw := range raws {
		var piece models.Piece
		if err := decode(raw, &piece); err != nil {
			return nil, err
		}
		pieces = append(pieces, piece)
	}
	return pieces, nil
}

// WithPieces runs fn over a pooled scan of the match pieces. The slice is
// recycled after fn returns and must not be retained.
func (g *GameStore) WithPieces(ctx context.Context, matchID string, fn func(pieces []models.Piece) error) error {
	raws, err := g.kv.HGetAll(ctx, piecesKey(matchID))
	if err != nil {
		return err
	}
	pieces := pool.Pieces.Get()
	defer func() {
		pool.Pieces.Put(pieces[:0])
	}()
	for _, raw := range raws {
		var piece models.Piece
		if err := decode(raw, &piece); err != nil {
			return err
		}
		pieces = append(pieces, piece)
	}
	return fn(pieces)
}

// AcquirePieceLock takes the TTL lock for a piece. Returns false on
// contention.
func (g *GameStore) AcquirePieceLock(ctx context.Context, matchID, pieceID, holder string, ttl time.Duration) (bool, error) {
	return g.kv.SetNX(ctx, pieceLockKey(matchID, pieceID), holder, ttl)
}

// PieceLockHolder returns the current lock holder, ErrNotFound when the lock
// does not exist (released or expired).
func (g *GameStore) PieceLockHolder(ctx context.Context, matchID, pieceID string) (string, error) {
	holder, err := g.kv.Get(ctx, pieceLockKey(matchID, pieceID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", ErrNotFound
	}
	return holder, err
}

// RefreshPieceLock extends a live lock's TTL so a long drag does not lose
// the piece mid-hold. ErrNotFound when the lock already expired.
func (g *GameStore) RefreshPieceLock(ctx context.Context, matchID, pieceID string, ttl time.Duration) error {
	err := g.kv.Expire(ctx, pieceLockKey(matchID, pieceID), ttl)
	if errors.Is(err, kvstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ReleasePieceLock drops the piece lock unconditionally.
func (g *GameStore) ReleasePieceLock(ctx context.Context, matchID, pieceID string) error {
	return g.kv.Del(ctx, pieceLockKey(matchID, pieceID))
}

// GetScore loads the per-team placed counters. Counters that fail to parse
// surface ErrInvalidData.
func (g *GameStore) GetScore(ctx context.Context, matchID string) (models.Score, error) {
	raws, err := g.kv.HGetAll(ctx, scoreKey(matchID))
	if err != nil {
		return nil, err
	}
	score := make(models.Score, len(raws))
	for teamID, raw := range raws {
		count, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: score %q=%q", ErrInvalidData, teamID, raw)
		}
		score[teamID] = count
	}
	return score, nil
}

// IncrTeamPlaced bumps a team's placed counter and returns the full score
// map. This is a read-modify-write; on a shared store two true concurrent
// writers can lose an increment. Acceptable here because placements are
// serialized per piece by the piece lock.
func (g *GameStore) IncrTeamPlaced(ctx context.Context, matchID, teamID string) (models.Score, error) {
	current := 0
	raw, err := g.kv.HGet(ctx, scoreKey(matchID), teamID)
	if err == nil {
		current, err = strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: score %q=%q", ErrInvalidData, teamID, raw)
		}
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, err
	}
	if err := g.kv.HSet(ctx, scoreKey(matchID), teamID, strconv.Itoa(current+1)); err != nil {
		return nil, err
	}
	return g.GetScore(ctx, matchID)
}

// SetPlaced administratively overrides a team's placed counter.
func (g *GameStore) SetPlaced(ctx context.Context, matchID, teamID string, count int) error {
	return g.kv.HSet(ctx, scoreKey(matchID), teamID, strconv.Itoa(count))
}

// GetTimer loads the match timer, ErrNotFound when no timer was started.
func (g *GameStore) GetTimer(ctx context.Context, matchID string) (*models.Timer, error) {
	raw, err := g.kv.Get(ctx, timerKey(matchID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	timer := &models.Timer{}
	if err := decode(raw, timer); err != nil {
		return nil, err
	}
	return timer, nil
}

// SetTimer persists the match timer. The timer is immutable for the life of
// the match; callers other than ResetTimer must write it at most once.
func (g *GameStore) SetTimer(ctx context.Context, matchID string, timer *models.Timer) error {
	timer.SchemaVersion = models.CurrentSchemaVersion
	raw, err := encode(timer)
	if err != nil {
		return err
	}
	return g.kv.Set(ctx, timerKey(matchID), raw, 0)
}

// AddConnected records a user's readiness signal. Set semantics make
// re-signaling idempotent; returns true on first insertion.
func (g *GameStore) AddConnected(ctx context.Context, matchID, teamID, userID string) (bool, error) {
	added, err := g.kv.SAdd(ctx, connectedKey(matchID, teamID), userID)
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

// ConnectedMembers enumerates a team's connected users.
func (g *GameStore) ConnectedMembers(ctx context.Context, matchID, teamID string) ([]string, error) {
	return g.kv.SMembers(ctx, connectedKey(matchID, teamID))
}

// ClaimCompletion takes the one-shot completion marker for a match. Only the
// first claimant on a single store observes true; duplicate GAME_END
// publication is suppressed through this.
func (g *GameStore) ClaimCompletion(ctx context.Context, matchID string) (bool, error) {
	return g.kv.SetNX(ctx, completionKey(matchID), "1", 0)
}
