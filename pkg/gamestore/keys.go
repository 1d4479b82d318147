// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package gamestore

import "github.com/kotek-7/minpuzz-core/pkg/constants"

// Key builders for the per-match namespaces. The matching coordination keys
// (queue, team locks, pair claims) live in pkg/matching which talks to the
// raw store directly.

func matchKey(matchID string) string {
	return constants.KeyMatchPrefix + matchID
}

func boardKey(matchID string) string {
	return constants.KeyMatchPrefix + matchID + ":board"
}

func piecesKey(matchID string) string {
	return constants.KeyMatchPrefix + matchID + ":pieces"
}

func pieceLockKey(matchID, pieceID string) string {
	return constants.KeyMatchPrefix + matchID + ":piece:" + pieceID + ":lock"
}

func scoreKey(matchID string) string {
	return constants.KeyMatchPrefix + matchID + ":score"
}

func timerKey(matchID string) string {
	return constants.KeyMatchPrefix + matchID + ":timer"
}

func connectedKey(matchID, teamID string) string {
	return constants.KeyMatchPrefix + matchID + ":team:" + teamID + ":connected"
}

func completionKey(matchID string) string {
	return constants.KeyMatchPrefix + matchID + ":completed"
}
