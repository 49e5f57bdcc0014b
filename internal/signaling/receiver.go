package signaling

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// Watch reads messages until the connection closes, handing each raw
// envelope to fn. A normal close returns nil.
func (c *Channel) Watch(fn func(raw []byte)) error {
	for {
		typ, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("failed to read WS message: %w", err)
		}

		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}
		fn(data)
	}
}
