package gateway

import (
	"context"
	"sync"

	"github.com/beacon-chat/beacon-go/beacon/internal/wire"
)

// sendItem is one queued frame plus the slot its completion is reported on.
type sendItem struct {
	frame any
	reply chan error
}

// Sender is an owner-agnostic, cloneable handle onto a single background
// writer goroutine. Many producers (the caller, the heartbeat task, the
// reconnect logic) share one outbound sink without interleaving bytes of
// different frames. The queue is unbuffered: Send blocks until the writer
// goroutine takes the frame. Clones share the queue and the writer; each
// Send gets its own reply channel.
type Sender struct {
	queue chan sendItem

	once   *sync.Once
	closed chan struct{}
}

// NewSender starts the writer goroutine over conn and returns the first
// handle. The goroutine runs until Close is called on any handle sharing
// this queue.
func NewSender(ctx context.Context, conn wire.Conn) *Sender {
	s := &Sender{
		queue:  make(chan sendItem),
		once:   new(sync.Once),
		closed: make(chan struct{}),
	}

	go s.run(ctx, conn)

	return s
}

func (s *Sender) run(ctx context.Context, conn wire.Conn) {
	for {
		select {
		case item, ok := <-s.queue:
			if !ok {
				return
			}

			item.reply <- wire.WriteFrame(ctx, conn, item.frame)

		case <-s.closed:
			s.drain(ctx, conn)

			return
		}
	}
}

// drain writes any frame a concurrent Send is handing over at the moment of
// closing, without blocking. The queue is unbuffered, so there is no backlog
// of earlier frames to flush.
func (s *Sender) drain(ctx context.Context, conn wire.Conn) {
	for {
		select {
		case item, ok := <-s.queue:
			if !ok {
				return
			}

			item.reply <- wire.WriteFrame(ctx, conn, item.frame)
		default:
			return
		}
	}
}

// Send submits v to be written and returns a channel that receives exactly
// one value: the write's result. The caller may discard the channel to
// fire-and-forget, or read it to await completion.
func (s *Sender) Send(ctx context.Context, v any) <-chan error {
	reply := make(chan error, 1)

	select {
	case <-s.closed:
		reply <- wire.ErrTransport

		return reply
	default:
	}

	select {
	case s.queue <- sendItem{frame: v, reply: reply}:
	case <-s.closed:
		reply <- wire.ErrTransport
	case <-ctx.Done():
		reply <- ctx.Err()
	}

	return reply
}

// Clone returns a new handle sharing this Sender's writer goroutine and
// queue. Sends through independent clones are only ordered by channel
// arrival, not by clone identity.
func (s *Sender) Clone() *Sender {
	return &Sender{queue: s.queue, once: s.once, closed: s.closed}
}

// Close signals the writer goroutine to drain and exit. Safe to call from
// any clone; safe to call more than once.
func (s *Sender) Close() {
	s.once.Do(func() { close(s.closed) })
}
