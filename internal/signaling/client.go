package signaling

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
)

// Dial connects to the relay's WebSocket URL, e.g.:
//
//	ws://localhost:8080/ws
func Dial(ctx context.Context, url string) (*Channel, error) {
	dialer := websocket.DefaultDialer
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WS server: %w", err)
	}
	return newChannel(conn), nil
}
