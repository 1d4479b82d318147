// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package publish defines the capability the engine uses to deliver events.
// The core never addresses transport sockets directly; pkg/rooms provides a
// websocket-backed implementation and Recorder an in-memory one for tests.
package publish

// Emitter delivers one event to a resolved audience.
type Emitter interface {
	Emit(event string, payload interface{})
}

// Publisher resolves audiences for outbound events.
type Publisher interface {
	// ToTeam addresses every connected member of a team.
	ToTeam(teamID string) Emitter
	// ToPublic addresses everyone watching a match.
	ToPublic(matchID string) Emitter
	// ToUser addresses a single user.
	ToUser(userID string) Emitter
}
