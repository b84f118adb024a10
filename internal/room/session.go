package room

import (
	"encoding/json"
	"sync"

	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

// Session is the per-room state machine: at most two seated connections plus
// the latest client-asserted snapshot. Methods other than Lock/Unlock are NOT
// self-locking: callers serialize every read-modify-write-notify sequence for
// a room through Lock/Unlock so that no other event for the same room can
// observe a half-applied handler.
type Session struct {
	mu sync.Mutex

	id      string
	players []string // slot 0 = creator (white), slot 1 = joiner (black)
	closed  bool     // set by the directory on delete; a closed session never seats again

	board          json.RawMessage // unset until the first move lands
	turn           Color
	mode           string
	economy        json.RawMessage
	graveyard      json.RawMessage
	resHist        json.RawMessage
	chimeraTracker json.RawMessage
}

func newSession(id, creator string) *Session {
	return &Session{
		id:             id,
		players:        []string{creator},
		turn:           White,
		mode:           DefaultMode,
		economy:        DefaultEconomy,
		graveyard:      DefaultGraveyard,
		resHist:        DefaultResHist,
		chimeraTracker: DefaultChimeraTracker,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) ID() string { return s.id }

func (s *Session) Occupancy() int { return len(s.players) }

// Players returns the seated connection IDs in slot order.
func (s *Session) Players() []string {
	out := make([]string, len(s.players))
	copy(out, s.players)
	return out
}

// Seated reports whether the connection holds a slot.
func (s *Session) Seated(connID string) bool {
	for _, p := range s.players {
		if p == connID {
			return true
		}
	}
	return false
}

// Reconcile drops every seated player that is not in the given live set,
// preserving slot order. Idempotent; it performs no notification. This is
// the explicit ghost-occupant purge run before any occupancy-dependent
// decision: a lost or reordered disconnect notification must not leave a
// stale slot blocking a legitimate joiner. Returns the number dropped.
func (s *Session) Reconcile(live []string) int {
	alive := make(map[string]bool, len(live))
	for _, id := range live {
		alive[id] = true
	}
	kept := s.players[:0]
	for _, p := range s.players {
		if alive[p] {
			kept = append(kept, p)
		}
	}
	dropped := len(s.players) - len(kept)
	s.players = kept
	return dropped
}

// Join runs the seat preconditions in order: refuse a session the directory
// already deleted, reconcile against the live set, no-op for an
// already-seated connection, reject when both slots are taken. On success the
// requester is appended and the accumulated state returned so the caller can
// synchronize the joiner. The closed check exists because a joiner may
// resolve the session pointer just before the last disconnect destroys the
// room; seating there would put a player in a room no lookup can ever find.
func (s *Session) Join(connID string, live []string) (JoinResult, State) {
	if s.closed {
		return Closed, State{}
	}
	s.Reconcile(live)
	if s.Seated(connID) {
		return AlreadySeated, State{}
	}
	if len(s.players) >= 2 {
		return Full, State{}
	}
	s.players = append(s.players, connID)
	return Joined, s.State()
}

// ApplyMove folds a client-asserted snapshot into the stored state. Board and
// turn are taken as-is, even when empty or null; every other field keeps its
// previous value unless the client supplied one.
func (s *Session) ApplyMove(m relaydto.MoveSnapshot) {
	s.board = m.Board
	s.turn = Color(m.Turn)
	if m.Mode != "" {
		s.mode = m.Mode
	}
	if present(m.ChimeraTracker) {
		s.chimeraTracker = m.ChimeraTracker
	}
	if present(m.Economy) {
		s.economy = m.Economy
	}
	if present(m.Graveyard) {
		s.graveyard = m.Graveyard
	}
	if present(m.ResHist) {
		s.resHist = m.ResHist
	}
}

// RemovePlayer frees the connection's slot. Reports whether it was seated.
func (s *Session) RemovePlayer(connID string) bool {
	for i, p := range s.players {
		if p == connID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return true
		}
	}
	return false
}

// State copies the accumulated snapshot. Board stays nil until the first
// move is relayed; callers substitute the default layout.
func (s *Session) State() State {
	return State{
		Players:        s.Players(),
		Board:          s.board,
		Turn:           s.turn,
		Mode:           s.mode,
		Economy:        s.economy,
		Graveyard:      s.graveyard,
		ResHist:        s.resHist,
		ChimeraTracker: s.chimeraTracker,
	}
}

// present reports whether an opaque JSON value was actually supplied.
// An absent field and an explicit null both count as missing.
func present(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	return string(raw) != "null"
}
