// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package models

import (
	"gopkg.in/typ.v4/sync2"
)

// Pool reusable objects to reduce garbage collector
type Pool struct {
	Pieces *sync2.Pool[[]Piece]
}

func NewPool() *Pool {
	return &Pool{
		Pieces: &sync2.Pool[[]Piece]{
			New: func() []Piece {
				return make([]Piece, 0, 64)
			},
		},
	}
}
