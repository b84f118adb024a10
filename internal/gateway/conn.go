package gateway

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
)

// Conn is one accepted websocket connection. Outbound frames go through a
// buffered channel drained by writePump so no sender ever blocks on a slow
// peer; delivery is best-effort with no acknowledgement.
type Conn struct {
	id   string
	sock *websocket.Conn
	send chan []byte

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newConn(id string, sock *websocket.Conn) *Conn {
	return &Conn{
		id:     id,
		sock:   sock,
		send:   make(chan []byte, sendBuffer),
		stopCh: make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues a frame. Reports false when the connection is gone or its
// buffer is full; the frame is dropped either way.
func (c *Conn) Send(data []byte) bool {
	select {
	case <-c.stopCh:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Conn) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case data := <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.sock.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Conn) close(code websocket.StatusCode, reason string) {
	c.stopOnce.Do(func() { close(c.stopCh) })
	if c.sock != nil {
		_ = c.sock.Close(code, reason)
	}
}
