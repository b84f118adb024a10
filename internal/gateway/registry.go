package gateway

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/chimera-chess/relay-server/internal/obslog"
	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

// Registry is the transport's notion of which connections are live and which
// belong to a room's channel. It implements the relay's Gateway interface.
// Channel membership is dropped the moment a connection closes, which is
// what makes it the liveness oracle for ghost reconciliation.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*Conn
	channels map[string]map[string]*Conn // roomID -> connID -> conn
}

func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[string]*Conn),
		channels: make(map[string]map[string]*Conn),
	}
}

func (r *Registry) add(c *Conn) {
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()
}

func (r *Registry) remove(connID string) {
	r.mu.Lock()
	delete(r.conns, connID)
	for roomID, members := range r.channels {
		delete(members, connID)
		if len(members) == 0 {
			delete(r.channels, roomID)
		}
	}
	r.mu.Unlock()
}

// Subscribe adds the connection to the room's channel. No-op for unknown
// connections.
func (r *Registry) Subscribe(connID, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	members, ok := r.channels[roomID]
	if !ok {
		members = make(map[string]*Conn)
		r.channels[roomID] = members
	}
	members[connID] = c
}

// LiveInRoom lists the connections currently live in the room's channel.
func (r *Registry) LiveInRoom(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := r.channels[roomID]
	out := make([]string, 0, len(members))
	for id := range members {
		out = append(out, id)
	}
	return out
}

// ToConn unicasts an event. Unknown connections are ignored.
func (r *Registry) ToConn(connID, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		obslog.L().Warn("encode_error", zap.String("event", event), zap.Error(err))
		return
	}
	r.mu.RLock()
	c := r.conns[connID]
	r.mu.RUnlock()
	if c == nil {
		return
	}
	if !c.Send(frame) {
		obslog.L().Debug("send_dropped", zap.String("conn_id", connID), zap.String("event", event))
	}
}

// ToRoom broadcasts an event to every member of the room's channel.
func (r *Registry) ToRoom(roomID, event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		obslog.L().Warn("encode_error", zap.String("event", event), zap.Error(err))
		return
	}
	r.mu.RLock()
	targets := make([]*Conn, 0, len(r.channels[roomID]))
	for _, c := range r.channels[roomID] {
		targets = append(targets, c)
	}
	r.mu.RUnlock()
	for _, c := range targets {
		if !c.Send(frame) {
			obslog.L().Debug("send_dropped", zap.String("conn_id", c.id), zap.String("event", event))
		}
	}
}

// ToAll broadcasts an event to every live connection.
func (r *Registry) ToAll(event string, data any) {
	frame, err := encode(event, data)
	if err != nil {
		obslog.L().Warn("encode_error", zap.String("event", event), zap.Error(err))
		return
	}
	r.mu.RLock()
	targets := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		targets = append(targets, c)
	}
	r.mu.RUnlock()
	for _, c := range targets {
		c.Send(frame)
	}
}

// Stats reports live connection and active channel counts.
func (r *Registry) Stats() (conns, channels int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns), len(r.channels)
}

func encode(event string, data any) ([]byte, error) {
	env := relaydto.Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
