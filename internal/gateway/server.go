package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/chimera-chess/relay-server/internal/config"
	"github.com/chimera-chess/relay-server/internal/obslog"
	"github.com/chimera-chess/relay-server/pkg/relaydto"
)

// Handler receives decoded protocol events from the transport. Implemented
// by the relay manager.
type Handler interface {
	HandleConnect(connID string)
	HandleCreateRoom(connID, roomID string)
	HandleJoinRoom(connID, roomID string)
	HandleMakeMove(connID string, move relaydto.MoveSnapshot)
	HandleDisconnect(connID string)
}

// Server accepts websocket connections, issues their identifiers, and feeds
// decoded events to the handler. It also exposes /healthz and /stats and can
// serve a static client directory.
type Server struct {
	reg     *Registry
	handler Handler
	httpSrv *http.Server
}

func NewServer(cfg *config.AppConfig, reg *Registry, h Handler) *Server {
	s := &Server{reg: reg, handler: h}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	s.httpSrv = &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	return s
}

// ListenAndServe blocks until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	obslog.L().Info("server_listen", zap.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}

	conn := newConn(uuid.NewString(), sock)
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s.reg.add(conn)
	s.handler.HandleConnect(conn.id)
	go conn.writePump(ctx)

	s.readLoop(ctx, conn)

	s.reg.remove(conn.id)
	s.handler.HandleDisconnect(conn.id)
	conn.close(websocket.StatusNormalClosure, "bye")
}

// readLoop decodes inbound envelopes until the peer goes away. Closing of
// the socket is the only disconnect signal there is; no heartbeat runs on
// top of the protocol.
func (s *Server) readLoop(ctx context.Context, conn *Conn) {
	for {
		var env relaydto.Envelope
		if err := wsjson.Read(ctx, conn.sock, &env); err != nil {
			return
		}
		s.dispatch(conn.id, env)
	}
}

// dispatch routes one envelope. Unknown events and malformed payloads are
// dropped without a reply; the relay performs no schema validation beyond
// what decoding needs.
func (s *Server) dispatch(connID string, env relaydto.Envelope) {
	switch env.Event {
	case relaydto.EventCreateRoom:
		var roomID string
		if err := json.Unmarshal(env.Data, &roomID); err != nil {
			obslog.L().Debug("bad_payload", zap.String("event", env.Event), zap.String("conn_id", connID))
			return
		}
		s.handler.HandleCreateRoom(connID, roomID)
	case relaydto.EventJoinRoom:
		var roomID string
		if err := json.Unmarshal(env.Data, &roomID); err != nil {
			obslog.L().Debug("bad_payload", zap.String("event", env.Event), zap.String("conn_id", connID))
			return
		}
		s.handler.HandleJoinRoom(connID, roomID)
	case relaydto.EventMakeMove:
		var move relaydto.MoveSnapshot
		if err := json.Unmarshal(env.Data, &move); err != nil {
			obslog.L().Debug("bad_payload", zap.String("event", env.Event), zap.String("conn_id", connID))
			return
		}
		s.handler.HandleMakeMove(connID, move)
	default:
		obslog.L().Debug("unknown_event", zap.String("event", env.Event), zap.String("conn_id", connID))
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	conns, channels := s.reg.Stats()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"connections": conns,
		"channels":    channels,
		"time":        time.Now().UTC().Format(time.RFC3339),
	})
}
