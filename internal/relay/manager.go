package relay

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/chimera-chess/relay-server/internal/board"
	"github.com/chimera-chess/relay-server/internal/msgcat"
	"github.com/chimera-chess/relay-server/internal/obslog"
	"github.com/chimera-chess/relay-server/internal/room"
	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

// Manager implements the relay protocol: it validates event preconditions,
// mutates the room directory, and decides what to send back. The server
// trusts whatever state a client submits and never inspects board semantics.
//
// Every user-facing failure is a plain error_msg string to the requester;
// everything else malformed or out of context is silently absorbed.
type Manager struct {
	dir    *room.Directory
	gw     Gateway
	cat    *msgcat.Catalog
	filter MoveFilter

	mirror   LobbyMirror
	mirrorCh chan []relaydto.RoomSummary
}

// Option customizes a Manager.
type Option func(*Manager)

// WithMoveFilter installs a validation hook on the move path.
func WithMoveFilter(f MoveFilter) Option {
	return func(m *Manager) {
		if f != nil {
			m.filter = f
		}
	}
}

// WithLobbyMirror forwards every lobby push to an out-of-band observer.
func WithLobbyMirror(lm LobbyMirror) Option {
	return func(m *Manager) { m.mirror = lm }
}

func NewManager(dir *room.Directory, gw Gateway, cat *msgcat.Catalog, opts ...Option) *Manager {
	m := &Manager{dir: dir, gw: gw, cat: cat, filter: admitAll{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.mirror != nil {
		m.mirrorCh = make(chan []relaydto.RoomSummary, 1)
		go m.mirrorLoop()
	}
	return m
}

// mirrorLoop drains queued lobby lists one at a time so mirror writes land in
// push order; a goroutine per push could race an older list over a newer one.
func (m *Manager) mirrorLoop() {
	for rooms := range m.mirrorCh {
		m.mirror.Publish(rooms)
	}
}

// queueMirror hands the list to the mirror worker. When the worker is behind,
// the pending list is replaced rather than queued: only the latest lobby is
// worth mirroring.
func (m *Manager) queueMirror(rooms []relaydto.RoomSummary) {
	for {
		select {
		case m.mirrorCh <- rooms:
			return
		default:
		}
		select {
		case <-m.mirrorCh:
		default:
		}
	}
}

// HandleConnect pushes the current lobby to everyone, the newcomer included.
func (m *Manager) HandleConnect(connID string) {
	obslog.L().Info("conn_open", zap.String("conn_id", connID))
	m.pushLobby()
}

// HandleCreateRoom seats the requester as white in a fresh room, or rejects
// with error_msg when the identifier is taken.
func (m *Manager) HandleCreateRoom(connID, roomID string) {
	if roomID == "" {
		return
	}
	if _, err := m.dir.Create(roomID, connID); err != nil {
		if errors.Is(err, room.ErrAlreadyExists) {
			m.gw.ToConn(connID, relaydto.EventErrorMsg, m.text("relay.room_taken", "Room is already taken!"))
		}
		return
	}
	m.gw.Subscribe(connID, roomID)
	m.gw.ToConn(connID, relaydto.EventGameStart, relaydto.GameStart{
		RoomID:         roomID,
		Color:          string(room.White),
		Board:          mustJSON(board.Default()),
		Turn:           string(room.White),
		Mode:           room.DefaultMode,
		Economy:        room.DefaultEconomy,
		Graveyard:      room.DefaultGraveyard,
		ResHist:        room.DefaultResHist,
		ChimeraTracker: room.DefaultChimeraTracker,
	})
	obslog.L().Info("room_create", zap.String("room_id", roomID), zap.String("conn_id", connID))
	m.pushLobby()
}

// HandleJoinRoom seats the requester as black. Preconditions run in order:
// the room must exist, ghost occupants are reconciled away, a duplicate join
// is a silent no-op, and a room still holding two live players is full.
func (m *Manager) HandleJoinRoom(connID, roomID string) {
	sess, err := m.dir.Lookup(roomID)
	if err != nil {
		m.gw.ToConn(connID, relaydto.EventErrorMsg, m.text("relay.room_not_found", "Room not found!"))
		return
	}

	// Liveness is queried before taking the session lock; the design
	// accepts that membership may be a beat stale (last reconciliation
	// wins) rather than serializing every room operation behind the
	// registry round-trip.
	live := m.gw.LiveInRoom(roomID)

	sess.Lock()
	res, st := sess.Join(connID, live)
	switch res {
	case room.AlreadySeated:
		sess.Unlock()
		return
	case room.Full:
		sess.Unlock()
		m.gw.ToConn(connID, relaydto.EventErrorMsg, m.text("relay.room_full", "Room is full!"))
		return
	case room.Closed:
		// The last occupant's disconnect destroyed the room between our
		// lookup and taking the session lock.
		sess.Unlock()
		m.gw.ToConn(connID, relaydto.EventErrorMsg, m.text("relay.room_not_found", "Room not found!"))
		return
	}
	m.gw.Subscribe(connID, roomID)
	m.gw.ToConn(st.Players[0], relaydto.EventPlayerJoined, relaydto.PlayerJoined{RoomID: roomID})
	m.gw.ToConn(connID, relaydto.EventGameStart, startFromState(roomID, room.Black, st))
	sess.Unlock()

	obslog.L().Info("room_join", zap.String("room_id", roomID), zap.String("conn_id", connID))
	m.pushLobby()
}

// HandleMakeMove merges the submitted snapshot into the room and re-emits it
// to every channel member, the sender included, so the sender stays in sync
// with the relayed view. Unknown rooms are absorbed without a reply.
func (m *Manager) HandleMakeMove(connID string, move relaydto.MoveSnapshot) {
	sess, err := m.dir.Lookup(move.RoomID)
	if err != nil {
		obslog.L().Debug("move_for_unknown_room", zap.String("room_id", move.RoomID), zap.String("conn_id", connID))
		return
	}
	if !m.filter.Admit(move.RoomID, connID, &move) {
		return
	}

	roomID := move.RoomID
	echo := move
	echo.RoomID = ""

	sess.Lock()
	sess.ApplyMove(move)
	m.gw.ToRoom(roomID, relaydto.EventReceiveMove, echo)
	sess.Unlock()
}

// HandleDisconnect frees the connection's slot, if any. The room survives
// with its remaining occupant (who is told the opponent left) so a new
// joiner can claim the open seat; only an emptied room is destroyed.
func (m *Manager) HandleDisconnect(connID string) {
	obslog.L().Info("conn_close", zap.String("conn_id", connID))
	sess := m.dir.FindByPlayer(connID)
	if sess == nil {
		m.pushLobby()
		return
	}

	sess.Lock()
	removed := sess.RemovePlayer(connID)
	var remaining []string
	if removed && sess.Occupancy() > 0 {
		remaining = sess.Players()
		m.gw.ToConn(remaining[0], relaydto.EventOpponentLeft, nil)
	}
	sess.Unlock()

	if removed && len(remaining) == 0 {
		if m.dir.RemoveIfEmpty(sess.ID()) {
			obslog.L().Info("room_destroy", zap.String("room_id", sess.ID()))
		}
	}
	m.pushLobby()
}

// pushLobby recomputes the joinable-room list and pushes it to every
// connection as a full replacement.
func (m *Manager) pushLobby() {
	rooms := m.dir.OpenRooms()
	m.gw.ToAll(relaydto.EventRoomList, rooms)
	if m.mirrorCh != nil {
		m.queueMirror(rooms)
	}
}

func (m *Manager) text(key, fallback string) string {
	if m.cat == nil {
		return fallback
	}
	return m.cat.Text(key, fallback)
}

// startFromState builds the joiner's game_start from the room's accumulated
// snapshot, substituting the default board and zero-valued sub-state for
// anything not yet recorded. Turn is relayed exactly as stored.
func startFromState(roomID string, color room.Color, st room.State) relaydto.GameStart {
	gs := relaydto.GameStart{
		RoomID:         roomID,
		Color:          string(color),
		Board:          st.Board,
		Turn:           string(st.Turn),
		Mode:           st.Mode,
		Economy:        st.Economy,
		Graveyard:      st.Graveyard,
		ResHist:        st.ResHist,
		ChimeraTracker: st.ChimeraTracker,
	}
	if len(gs.Board) == 0 || string(gs.Board) == "null" {
		gs.Board = mustJSON(board.Default())
	}
	if gs.Mode == "" {
		gs.Mode = room.DefaultMode
	}
	if len(gs.Economy) == 0 {
		gs.Economy = room.DefaultEconomy
	}
	if len(gs.Graveyard) == 0 {
		gs.Graveyard = room.DefaultGraveyard
	}
	if len(gs.ResHist) == 0 {
		gs.ResHist = room.DefaultResHist
	}
	if len(gs.ChimeraTracker) == 0 {
		gs.ChimeraTracker = room.DefaultChimeraTracker
	}
	return gs
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		// Only reachable with an unmarshalable type, which would be a
		// programming error in this package.
		panic(err)
	}
	return b
}
