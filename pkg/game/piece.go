// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package game implements the in-match services: piece operations, session
// readiness, progress and completion, the countdown timer with its scheduler,
// and state snapshots. Denials a client can render travel as reason values on
// result structs; errors are reserved for store and data failures.
package game

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kotek-7/minpuzz-core/pkg/config"
	"github.com/kotek-7/minpuzz-core/pkg/constants"
	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/metrics"
	"github.com/kotek-7/minpuzz-core/pkg/models"
)

// PieceResult is the typed outcome of a piece operation. Denied carries the
// reason enum from pkg/constants when the operation was refused.
type PieceResult struct {
	Piece  *models.Piece
	Denied bool
	Reason string
}

func denied(reason string) *PieceResult {
	return &PieceResult{Denied: true, Reason: reason}
}

// PieceService runs grab/move/release/place, each protected by the per-piece
// TTL lock. Exactly one of N concurrent grabs wins the underlying
// conditional set; everyone else observes a locked denial.
type PieceService struct {
	store         *gamestore.GameStore
	lockTTL       time.Duration
	snapTolerance float64
	metrics       metrics.EngineMetrics
}

// NewPieceService builds a piece service from configuration.
func NewPieceService(store *gamestore.GameStore, cfg *config.Config, m metrics.EngineMetrics) *PieceService {
	if m == nil {
		m = metrics.Noop()
	}
	return &PieceService{
		store:         store,
		lockTTL:       cfg.PieceLockTTL(),
		snapTolerance: cfg.SnapTolerance,
		metrics:       m,
	}
}

func (s *PieceService) outcome(op string, result *PieceResult) *PieceResult {
	if result.Denied {
		s.metrics.AddPieceOp(op, result.Reason)
	} else {
		s.metrics.AddPieceOp(op, "ok")
	}
	return result
}

// Grab claims a free piece for userID.
func (s *PieceService) Grab(scope *envelope.Scope, matchID, pieceID, userID string) (*PieceResult, error) {
	scope = scope.NewChildScope("PieceService.Grab")
	defer scope.Finish()

	piece, err := s.store.GetPiece(scope.Ctx, matchID, pieceID)
	if errors.Is(err, gamestore.ErrNotFound) {
		return s.outcome("grab", denied(constants.ReasonNotFound)), nil
	}
	if err != nil {
		return nil, err
	}
	if piece.Placed {
		return s.outcome("grab", denied(constants.ReasonPlaced)), nil
	}

	ok, err := s.store.AcquirePieceLock(scope.Ctx, matchID, pieceID, userID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.outcome("grab", denied(constants.ReasonLocked)), nil
	}

	piece.Holder = userID
	if err := s.store.SetPiece(scope.Ctx, matchID, piece); err != nil {
		// The piece record was not updated; drop the lock so the piece does
		// not stay claimed by a holder the record never saw.
		if relErr := s.store.ReleasePieceLock(scope.Ctx, matchID, pieceID); relErr != nil {
			scope.Log.WithError(relErr).Warn("failed to release piece lock after write failure")
		}
		return nil, err
	}
	return s.outcome("grab", &PieceResult{Piece: piece}), nil
}

// Move updates a held piece's coordinates. The ts hint from the client is
// accepted but the store applies last-write-wins; no server-side reordering.
func (s *PieceService) Move(scope *envelope.Scope, matchID, pieceID, userID string, x, y float64, _ int64) (*PieceResult, error) {
	scope = scope.NewChildScope("PieceService.Move")
	defer scope.Finish()

	piece, err := s.store.GetPiece(scope.Ctx, matchID, pieceID)
	if errors.Is(err, gamestore.ErrNotFound) {
		return s.outcome("move", denied(constants.ReasonNotFound)), nil
	}
	if err != nil {
		return nil, err
	}
	if piece.Placed {
		return s.outcome("move", denied(constants.ReasonPlaced)), nil
	}
	if piece.Holder != userID {
		return s.outcome("move", denied(constants.ReasonNotHolder)), nil
	}

	piece.X, piece.Y = x, y
	if err := s.store.SetPiece(scope.Ctx, matchID, piece); err != nil {
		return nil, err
	}
	// Each move extends the hold, only an idle drag lets the lock lapse.
	if err := s.store.RefreshPieceLock(scope.Ctx, matchID, pieceID, s.lockTTL); err != nil && !errors.Is(err, gamestore.ErrNotFound) {
		return nil, err
	}
	return s.outcome("move", &PieceResult{Piece: piece}), nil
}

// Release gives a held piece back, persisting its final coordinates.
func (s *PieceService) Release(scope *envelope.Scope, matchID, pieceID, userID string, x, y float64) (*PieceResult, error) {
	scope = scope.NewChildScope("PieceService.Release")
	defer scope.Finish()

	piece, err := s.store.GetPiece(scope.Ctx, matchID, pieceID)
	if errors.Is(err, gamestore.ErrNotFound) {
		return s.outcome("release", denied(constants.ReasonNotFound)), nil
	}
	if err != nil {
		return nil, err
	}
	if piece.Placed {
		return s.outcome("release", denied(constants.ReasonPlaced)), nil
	}
	if piece.Holder != userID {
		return s.outcome("release", denied(constants.ReasonNotHolder)), nil
	}

	// Double-check against the lock record; a live lock held by someone else
	// wins over the piece's holder field.
	holder, err := s.store.PieceLockHolder(scope.Ctx, matchID, pieceID)
	if err != nil && !errors.Is(err, gamestore.ErrNotFound) {
		return nil, err
	}
	if err == nil && holder != userID {
		return s.outcome("release", denied(constants.ReasonNotHolder)), nil
	}

	piece.X, piece.Y = x, y
	piece.Holder = ""
	if err := s.store.SetPiece(scope.Ctx, matchID, piece); err != nil {
		return nil, err
	}
	if err := s.store.ReleasePieceLock(scope.Ctx, matchID, pieceID); err != nil {
		return nil, err
	}
	return s.outcome("release", &PieceResult{Piece: piece}), nil
}

// Place commits a piece into a board cell. Two variants coexist:
//
//   - holder-gated placement, when the caller holds the piece: the target
//     cell must be non-negative, must equal the recorded solution cell when
//     one exists, and client coordinates (when supplied) must fall within
//     the snap tolerance of the cell center;
//   - click placement, when the piece is unheld: the target cell only has to
//     be free of other placed pieces.
//
// A piece held by someone else is never placeable by the caller.
func (s *PieceService) Place(scope *envelope.Scope, matchID, pieceID, userID string, row, col int, x, y *float64) (*PieceResult, error) {
	scope = scope.NewChildScope("PieceService.Place")
	defer scope.Finish()

	piece, err := s.store.GetPiece(scope.Ctx, matchID, pieceID)
	if errors.Is(err, gamestore.ErrNotFound) {
		return s.outcome("place", denied(constants.ReasonNotFound)), nil
	}
	if err != nil {
		return nil, err
	}
	if piece.Placed {
		return s.outcome("place", denied(constants.ReasonPlaced)), nil
	}
	if piece.Holder != "" && piece.Holder != userID {
		return s.outcome("place", denied(constants.ReasonNotHolder)), nil
	}

	if row < 0 || col < 0 {
		return s.outcome("place", denied(constants.ReasonInvalidCell)), nil
	}

	if piece.Holder == userID {
		ok, err := s.validateHolderPlacement(scope, matchID, piece, row, col, x, y)
		if err != nil {
			return nil, err
		}
		if !ok {
			return s.outcome("place", denied(constants.ReasonInvalidCell)), nil
		}
	} else {
		occupied, err := s.cellOccupied(scope, matchID, pieceID, row, col)
		if err != nil {
			return nil, err
		}
		if occupied {
			return s.outcome("place", denied(constants.ReasonInvalidCell)), nil
		}
	}

	piece.Placed = true
	piece.Row, piece.Col = &row, &col
	piece.Holder = ""
	if x != nil && y != nil {
		piece.X, piece.Y = *x, *y
	}
	if err := s.store.SetPiece(scope.Ctx, matchID, piece); err != nil {
		return nil, err
	}
	if err := s.store.ReleasePieceLock(scope.Ctx, matchID, pieceID); err != nil {
		return nil, err
	}
	return s.outcome("place", &PieceResult{Piece: piece}), nil
}

func (s *PieceService) validateHolderPlacement(scope *envelope.Scope, matchID string, piece *models.Piece, row, col int, x, y *float64) (bool, error) {
	if piece.SolRow != nil && piece.SolCol != nil {
		if *piece.SolRow != row || *piece.SolCol != col {
			return false, nil
		}
	}
	if x == nil || y == nil {
		return true, nil
	}

	board, err := s.store.GetBoard(scope.Ctx, matchID)
	if errors.Is(err, gamestore.ErrNotFound) {
		// No geometry seeded; the cell checks above are all we can do.
		return true, nil
	}
	if err != nil {
		return false, err
	}
	cx, cy := board.CellCenter(row, col)
	return math.Hypot(*x-cx, *y-cy) <= s.snapTolerance, nil
}

// cellOccupied scans all pieces of the match for another placed piece in the
// same cell. O(n) per placement, fine for bounded board sizes.
func (s *PieceService) cellOccupied(scope *envelope.Scope, matchID, pieceID string, row, col int) (bool, error) {
	occupied := false
	err := s.store.WithPieces(scope.Ctx, matchID, func(pieces []models.Piece) error {
		for i := range pieces {
			p := &pieces[i]
			if p.ID == pieceID || !p.Placed || p.Row == nil || p.Col == nil {
				continue
			}
			if *p.Row == row && *p.Col == col {
				occupied = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("scan pieces of match %s: %w", matchID, err)
	}
	return occupied, nil
}
