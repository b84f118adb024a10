package room

import (
	"encoding/json"
	"errors"
)

// Color identifies a side. Slot 0 always plays white, slot 1 black.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// DefaultMode tags sessions whose creator never asserted a mode.
const DefaultMode = "classic"

// Zero-valued opaque sub-state a fresh session reports until a move
// overwrites it. The relay never parses these values.
var (
	DefaultEconomy        = json.RawMessage(`{"white":0,"black":0}`)
	DefaultGraveyard      = json.RawMessage(`{"white":[],"black":[]}`)
	DefaultResHist        = json.RawMessage(`{"white":[],"black":[]}`)
	DefaultChimeraTracker = json.RawMessage(`{}`)
)

var (
	ErrAlreadyExists = errors.New("room already exists")
	ErrNotFound      = errors.New("room not found")
)

// JoinResult reports the outcome of a seat request.
type JoinResult int

const (
	Joined JoinResult = iota
	AlreadySeated
	Full
	// Closed means the directory deleted the room after the caller resolved
	// its session pointer. The room must be treated as not found.
	Closed
)

// State is a point-in-time copy of a session, safe to use after the
// session lock is released.
type State struct {
	Players        []string
	Board          json.RawMessage
	Turn           Color
	Mode           string
	Economy        json.RawMessage
	Graveyard      json.RawMessage
	ResHist        json.RawMessage
	ChimeraTracker json.RawMessage
}
