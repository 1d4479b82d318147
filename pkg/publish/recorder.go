// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

package publish

import "sync"

// Recorded is one captured emission.
type Recorded struct {
	Audience string // "team:<id>", "public:<id>" or "user:<id>"
	Event    string
	Payload  interface{}
}

// Recorder is an in-memory Publisher that captures emissions for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) ToTeam(teamID string) Emitter {
	return recorderEmitter{r: r, audience: "team:" + teamID}
}

func (r *Recorder) ToPublic(matchID string) Emitter {
	return recorderEmitter{r: r, audience: "public:" + matchID}
}

func (r *Recorder) ToUser(userID string) Emitter {
	return recorderEmitter{r: r, audience: "user:" + userID}
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Recorded, len(r.events))
	copy(out, r.events)
	return out
}

// EventsNamed filters recorded emissions by event name.
func (r *Recorder) EventsNamed(event string) []Recorded {
	var out []Recorded
	for _, rec := range r.Events() {
		if rec.Event == event {
			out = append(out, rec)
		}
	}
	return out
}

type recorderEmitter struct {
	r        *Recorder
	audience string
}

func (e recorderEmitter) Emit(event string, payload interface{}) {
	e.r.mu.Lock()
	defer e.r.mu.Unlock()
	e.r.events = append(e.r.events, Recorded{Audience: e.audience, Event: event, Payload: payload})
}
