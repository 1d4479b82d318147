// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package game

import (
	"errors"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
)

// ReclaimLocksForUser heals the recoverable inconsistency between a piece's
// holder field and its lock record for a disconnected user: every piece held
// by userID in the given matches gets its holder cleared and its lock
// dropped. This is a maintenance operation driven from outside the core
// (typically on disconnect); per-piece failures are logged and skipped so
// one bad record never blocks the rest.
func ReclaimLocksForUser(scope *envelope.Scope, store *gamestore.GameStore, matchIDs []string, userID string) {
	scope = scope.NewChildScope("ReclaimLocksForUser")
	defer scope.Finish()

	for _, matchID := range matchIDs {
		pieces, err := store.ListPieces(scope.Ctx, matchID)
		if err != nil {
			scope.Log.WithError(err).WithField("matchID", matchID).Warn("failed to list pieces for reclaim")
			continue
		}
		for i := range pieces {
			piece := &pieces[i]
			held := piece.Holder == userID
			locked := lockHeldBy(scope, store, matchID, piece.ID, userID)
			if !held && !locked {
				continue
			}
			if held {
				piece.Holder = ""
				if err := store.SetPiece(scope.Ctx, matchID, piece); err != nil {
					scope.Log.WithError(err).WithField("pieceID", piece.ID).Warn("failed to clear holder during reclaim")
					continue
				}
			}
			if err := store.ReleasePieceLock(scope.Ctx, matchID, piece.ID); err != nil {
				scope.Log.WithError(err).WithField("pieceID", piece.ID).Warn("failed to release lock during reclaim")
			}
		}
	}
}

func lockHeldBy(scope *envelope.Scope, store *gamestore.GameStore, matchID, pieceID, userID string) bool {
	holder, err := store.PieceLockHolder(scope.Ctx, matchID, pieceID)
	if err != nil {
		if !errors.Is(err, gamestore.ErrNotFound) {
			scope.Log.WithError(err).WithField("pieceID", pieceID).Warn("failed to read lock holder during reclaim")
		}
		return false
	}
	return holder == userID
}
