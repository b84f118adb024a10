package relaydto

import "encoding/json"

// MoveSnapshot is the client-asserted game state carried by make_move and
// re-emitted verbatim on receive_move. Board, economy, graveyard, resHist
// and chimeraTracker are opaque: the relay stores and forwards them unread.
type MoveSnapshot struct {
	RoomID         string          `json:"roomId,omitempty"`
	Board          json.RawMessage `json:"board"`
	Turn           string          `json:"turn"`
	LastMove       json.RawMessage `json:"lastMove,omitempty"`
	Mode           string          `json:"mode,omitempty"`
	MoveCount      int             `json:"moveCount,omitempty"`
	ChimeraTracker json.RawMessage `json:"chimeraTracker,omitempty"`
	Economy        json.RawMessage `json:"economy,omitempty"`
	Graveyard      json.RawMessage `json:"graveyard,omitempty"`
	ResHist        json.RawMessage `json:"resHist,omitempty"`
}

// GameStart seats a player: white on create, black on join. On join the
// snapshot fields carry the room's accumulated state so a late joiner is
// synchronized immediately.
type GameStart struct {
	RoomID         string          `json:"roomId"`
	Color          string          `json:"color"`
	Board          json.RawMessage `json:"board"`
	Turn           string          `json:"turn"`
	Mode           string          `json:"mode"`
	Economy        json.RawMessage `json:"economy"`
	Graveyard      json.RawMessage `json:"graveyard"`
	ResHist        json.RawMessage `json:"resHist"`
	ChimeraTracker json.RawMessage `json:"chimeraTracker"`
}
