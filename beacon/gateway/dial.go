package gateway

import (
	"context"
	"fmt"

	"github.com/switchupcb/websocket"

	"github.com/beacon-chat/beacon-go/beacon/internal/wire"
)

// Dialer opens a new websocket connection to url. The default implementation
// wraps github.com/switchupcb/websocket; tests substitute a fake to drive
// the state machine without a live socket.
type Dialer func(ctx context.Context, url string) (wire.Conn, error)

// Dial is the default Dialer, grounded on the teacher's own
// websocket.Dial(s.Context, s.Endpoint, nil) call site.
func Dial(ctx context.Context, url string) (wire.Conn, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("gateway: dial: %w", err)
	}

	return conn, nil
}
