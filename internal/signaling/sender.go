package signaling

import (
	"github.com/gorilla/websocket"

	"github.com/1ureka/castlink/internal/protocol"
)

// Send encodes env and writes it to the WebSocket, guarded by a mutex.
func (c *Channel) Send(env *protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
