// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package testsetup

import (
	"context"
	"fmt"

	"github.com/kotek-7/minpuzz-core/pkg/gamestore"
	"github.com/kotek-7/minpuzz-core/pkg/kvstore"
	"github.com/kotek-7/minpuzz-core/pkg/models"
	"github.com/kotek-7/minpuzz-core/pkg/teams"
)

// NewGameStore returns a memory-backed game store for test use.
func NewGameStore() (*kvstore.MemoryStore, *gamestore.GameStore) {
	kv := kvstore.NewMemoryStore()
	return kv, gamestore.New(kv)
}

// SeedTeam writes a team with n members named {teamID}-u0..u{n-1}.
func SeedTeam(ctx context.Context, repo teams.Repository, teamID string, n int, status models.TeamStatus) *models.Team {
	team := &models.Team{ID: teamID, Status: status}
	for i := 0; i < n; i++ {
		team.Members = append(team.Members, fmt.Sprintf("%s-u%d", teamID, i))
	}
	if err := repo.Save(ctx, team); err != nil {
		panic(err)
	}
	return team
}

// SeedMatch writes a preparing match with a square board and rows*cols pieces,
// each piece carrying its solution cell.
func SeedMatch(ctx context.Context, store *gamestore.GameStore, matchID string, a, b models.TeamRef, rows, cols int) *models.Match {
	match := &models.Match{
		ID:     matchID,
		TeamA:  a,
		TeamB:  b,
		Status: models.MatchStatusPreparing,
	}
	if err := store.SetMatch(ctx, match); err != nil {
		panic(err)
	}

	board := models.Board{Rows: rows, Cols: cols, CellSize: 100}
	if err := store.SetBoard(ctx, matchID, board); err != nil {
		panic(err)
	}

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			row, col := r, c
			piece := &models.Piece{
				ID:     fmt.Sprintf("p%d", r*cols+c),
				SolRow: &row,
				SolCol: &col,
			}
			if err := store.SetPiece(ctx, matchID, piece); err != nil {
				panic(err)
			}
		}
	}

	for _, teamID := range []string{a.TeamID, b.TeamID} {
		if err := store.SetPlaced(ctx, matchID, teamID, 0); err != nil {
			panic(err)
		}
	}
	return match
}
