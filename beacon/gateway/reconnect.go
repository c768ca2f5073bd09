package gateway

import (
	"context"
	"time"

	"github.com/switchupcb/websocket"

	"github.com/beacon-chat/beacon-go/beacon"
)

const (
	reconnectInitialDelay = time.Second
	reconnectRetryGap     = time.Second
)

// reconnect implements spec §4.4's Reconnecting state: one sleep, two
// attempts against the known URL, and a final attempt against a freshly
// discovered one before giving up.
func (s *Session) reconnect(ctx context.Context) (Event, error) {
	s.mu.Lock()
	s.state = stateReconnecting
	url := s.url
	s.mu.Unlock()

	if err := sleepCtx(ctx, reconnectInitialDelay); err != nil {
		return Event{}, err
	}

	conn, sender, task, interval, event, err := s.attemptHandshake(ctx, url, false)
	if err != nil {
		if err := sleepCtx(ctx, reconnectRetryGap); err != nil {
			return Event{}, err
		}

		conn, sender, task, interval, event, err = s.attemptHandshake(ctx, url, false)
	}

	if err != nil {
		if s.urls == nil {
			return Event{}, err
		}

		fresh, discErr := s.urls.GatewayURL(ctx)
		if discErr != nil {
			return Event{}, err
		}

		url = fresh

		conn, sender, task, interval, event, err = s.attemptHandshake(ctx, url, false)
		if err != nil {
			return Event{}, err
		}
	}

	s.mu.Lock()
	oldTask := s.heartbeat
	oldSender := s.sender
	oldConn := s.conn

	s.url = url
	s.conn = conn
	s.sender = sender
	s.heartbeat = task
	s.interval = interval
	s.state = stateReadyStreaming
	s.mu.Unlock()

	if oldTask != nil {
		oldTask.Stop()
	}

	if oldSender != nil {
		oldSender.Close()
	}

	if oldConn != nil {
		_ = oldConn.Close(websocket.StatusCode(1000), "reconnecting")
	}

	return event, nil
}

// sleepCtx blocks for d or until ctx is cancelled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return &beacon.TransportError{Op: "gateway.reconnect: sleep", Err: ctx.Err()}
	}
}
