// Copyright (c) 2025 Kotek Games. All Rights Reserved.
// This is licensed software from Kotek Games, for limitations
// and restrictions contact your company contract manager.

// Package rooms is the websocket transport. A Hub tracks connected clients
// and their room memberships and implements publish.Publisher so the engine
// can address teams, match audiences and single users without knowing about
// sockets.
package rooms

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kotek-7/minpuzz-core/pkg/envelope"
	"github.com/kotek-7/minpuzz-core/pkg/publish"
)

// InboundHandler receives decoded, validated inbound events from clients.
type InboundHandler func(scope *envelope.Scope, client *Client, event string, payload interface{})

// Frame is the wire envelope for both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outFrame struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub tracks clients and fans events out to rooms.
type Hub struct {
	mu      sync.RWMutex
	users   map[string]*Client
	rooms   map[string]map[*Client]struct{}
	handler InboundHandler

	upgrader websocket.Upgrader
}

// NewHub returns a hub that routes inbound events through handler.
func NewHub(handler InboundHandler) *Hub {
	return &Hub{
		users:   make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades an HTTP request to a websocket connection. The caller
// identifies with a userId query parameter.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	scope := envelope.NewRootScope(r.Context(), "rooms.ServeWS", "")
	defer scope.Finish()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		scope.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	client := h.Register(conn, userID)
	go client.writePump()
	go client.readPump(scope.TraceID)
}

// Register attaches a connection for userID, replacing any previous one.
func (h *Hub) Register(conn *websocket.Conn, userID string) *Client {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan outFrame, sendBuffer),
		userID: userID,
	}

	h.mu.Lock()
	prev := h.users[userID]
	h.users[userID] = client
	h.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	return client
}

// Unregister detaches a client from the hub and every room it joined.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if h.users[client.userID] == client {
		delete(h.users, client.userID)
	}
	for key, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, key)
		}
	}
	h.mu.Unlock()

	client.close()
}

// JoinTeam subscribes the client to its team's room.
func (h *Hub) JoinTeam(client *Client, teamID string) {
	h.join(teamRoom(teamID), client)
}

// LeaveTeam removes the client from a team room.
func (h *Hub) LeaveTeam(client *Client, teamID string) {
	h.leave(teamRoom(teamID), client)
}

// JoinMatch subscribes the client to a match's public room.
func (h *Hub) JoinMatch(client *Client, matchID string) {
	h.join(matchRoom(matchID), client)
}

// LeaveMatch removes the client from a match's public room.
func (h *Hub) LeaveMatch(client *Client, matchID string) {
	h.leave(matchRoom(matchID), client)
}

func (h *Hub) join(key string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[key]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[key] = members
	}
	members[client] = struct{}{}
}

func (h *Hub) leave(key string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[key]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, key)
	}
}

// RoomSize reports how many clients a room currently holds.
func (h *Hub) RoomSize(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[key])
}

// ToTeam implements publish.Publisher.
func (h *Hub) ToTeam(teamID string) publish.Emitter {
	return roomEmitter{hub: h, key: teamRoom(teamID)}
}

// ToPublic implements publish.Publisher.
func (h *Hub) ToPublic(matchID string) publish.Emitter {
	return roomEmitter{hub: h, key: matchRoom(matchID)}
}

// ToUser implements publish.Publisher.
func (h *Hub) ToUser(userID string) publish.Emitter {
	return userEmitter{hub: h, userID: userID}
}

func (h *Hub) broadcast(key, event string, payload interface{}) {
	frame := outFrame{Event: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.rooms[key] {
		client.enqueue(frame)
	}
}

func (h *Hub) sendToUser(userID, event string, payload interface{}) {
	h.mu.RLock()
	client := h.users[userID]
	h.mu.RUnlock()
	if client != nil {
		client.enqueue(outFrame{Event: event, Payload: payload})
	}
}

type roomEmitter struct {
	hub *Hub
	key string
}

func (e roomEmitter) Emit(event string, payload interface{}) {
	e.hub.broadcast(e.key, event, payload)
}

type userEmitter struct {
	hub    *Hub
	userID string
}

func (e userEmitter) Emit(event string, payload interface{}) {
	e.hub.sendToUser(e.userID, event, payload)
}

func teamRoom(teamID string) string   { return "team:" + teamID }
func matchRoom(matchID string) string { return "match:" + matchID }

var _ publish.Publisher = (*Hub)(nil)
