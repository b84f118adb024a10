package room

import (
	"sort"
	"sync"

	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

// Directory is the process-wide room table and the single source of truth
// for room existence. A room is present iff it has at least one seated
// player. Lock order is directory first, session second; no caller may take
// the directory lock while holding a session lock.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*Session
}

func NewDirectory() *Directory {
	return &Directory{rooms: make(map[string]*Session)}
}

// Create inserts a fresh session with the creator in slot 0.
func (d *Directory) Create(roomID, creator string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.rooms[roomID]; exists {
		return nil, ErrAlreadyExists
	}
	s := newSession(roomID, creator)
	d.rooms[roomID] = s
	return s, nil
}

func (d *Directory) Lookup(roomID string) (*Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// RemoveIfEmpty deletes the room when its last slot has been freed. The
// session is marked closed under its own lock before the map entry goes
// away, so a join that resolved the session pointer earlier cannot seat
// into the deleted room: Session.Join reports Closed instead.
func (d *Directory) RemoveIfEmpty(roomID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	s.Lock()
	empty := s.Occupancy() == 0
	if empty {
		s.closed = true
	}
	s.Unlock()
	if empty {
		delete(d.rooms, roomID)
	}
	return empty
}

// FindByPlayer returns the first room seating the connection. A connection
// is never a member of two rooms under this protocol, so stopping at the
// first match is safe.
func (d *Directory) FindByPlayer(connID string) *Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.rooms {
		s.Lock()
		seated := s.Seated(connID)
		s.Unlock()
		if seated {
			return s
		}
	}
	return nil
}

// OpenRooms lists joinable rooms for the lobby: full rooms are invisible.
// Sorted by id so consecutive pushes are stable.
func (d *Directory) OpenRooms() []relaydto.RoomSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]relaydto.RoomSummary, 0, len(d.rooms))
	for id, s := range d.rooms {
		s.Lock()
		n := s.Occupancy()
		s.Unlock()
		if n < 2 {
			out = append(out, relaydto.RoomSummary{ID: id, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len reports how many rooms exist, full ones included.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
