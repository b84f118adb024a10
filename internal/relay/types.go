package relay

import "github.com/chimera-chess/relay-server/pkg/relaydto"

// Gateway is the transport surface the relay drives: per-room channel
// membership, liveness, and best-effort delivery. Send primitives must not
// block; a slow peer is the transport's problem, never the protocol's.
type Gateway interface {
	// Subscribe adds the connection to the room's channel so room
	// broadcasts reach it.
	Subscribe(connID, roomID string)
	// LiveInRoom lists the connections currently verified live in the
	// room's channel. Input to ghost reconciliation.
	LiveInRoom(roomID string) []string

	ToConn(connID, event string, data any)
	ToRoom(roomID, event string, data any)
	ToAll(event string, data any)
}

// MoveFilter inspects a move before it is stored and relayed. The relay
// itself performs no legality or turn-order checks; this seam exists so a
// rules engine could be slotted in later without changing the relay
// contract.
type MoveFilter interface {
	Admit(roomID, connID string, move *relaydto.MoveSnapshot) bool
}

type admitAll struct{}

func (admitAll) Admit(string, string, *relaydto.MoveSnapshot) bool { return true }

// LobbyMirror receives each lobby push for out-of-band observation.
// Implementations are best-effort and must tolerate being called often.
type LobbyMirror interface {
	Publish(rooms []relaydto.RoomSummary)
}
