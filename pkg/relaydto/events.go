package relaydto

import "encoding/json"

// Envelope wraps every frame on the wire, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client-issued events.
const (
	EventCreateRoom = "create_room"
	EventJoinRoom   = "join_room"
	EventMakeMove   = "make_move"
)

// Server-issued events.
const (
	EventRoomList     = "room_list"
	EventErrorMsg     = "error_msg"
	EventGameStart    = "game_start"
	EventPlayerJoined = "player_joined"
	EventReceiveMove  = "receive_move"
	EventOpponentLeft = "opponent_left"
)

// RoomSummary is one lobby entry. Only rooms with fewer than two occupants
// are listed.
type RoomSummary struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// PlayerJoined notifies a room creator that the second seat was taken.
type PlayerJoined struct {
	RoomID string `json:"roomId"`
}
