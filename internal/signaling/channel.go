// Package signaling carries negotiation envelopes between a peer and the relay
// over a WebSocket connection.
package signaling

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = time.Second

// Channel is one end of the signaling connection. Sends are serialized by a
// mutex; reads happen on the single goroutine running Watch.
type Channel struct {
	conn *websocket.Conn
	mu   sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

func newChannel(conn *websocket.Conn) *Channel {
	return &Channel{conn: conn}
}

// RemoteAddr returns the address of the other end.
func (c *Channel) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close sends a normal close frame (best-effort) and closes the connection.
// It is safe to call more than once.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		c.mu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// Reject closes the channel with a policy-violation close frame.
func (c *Channel) Reject(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
			time.Now().Add(closeWriteTimeout))
		c.mu.Unlock()
		c.closeErr = c.conn.Close()
	})
}
