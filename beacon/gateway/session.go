// Package gateway implements the gateway connection's protocol state
// machine: handshake, heartbeat, dispatch, resume, reconnect, and session
// invalidation.
package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/beacon-chat/beacon-go/beacon"
	"github.com/beacon-chat/beacon-go/beacon/internal/wire"
)

// URLDiscoverer is the subset of rest.Client a Session needs to rediscover
// a gateway URL after two failed reconnect attempts against the known one.
type URLDiscoverer interface {
	GatewayURL(ctx context.Context) (string, error)
}

type lifecycle int

const (
	stateHandshaking lifecycle = iota
	stateIdentifying
	stateReadyStreaming
	stateResuming
	stateReconnecting
	stateClosed
)

// Session owns one gateway connection's protocol state: session identity,
// last-observed sequence, the live websocket, and the heartbeat task
// running alongside it. It is driven exclusively by the goroutine calling
// NextEvent; the heartbeat task never touches the Session and receives each
// new sequence through Task.UpdateSequence.
type Session struct {
	cfg      beacon.Config
	identify beacon.Identify
	urls     URLDiscoverer
	dial     Dialer

	mu          sync.RWMutex
	url         string
	sessionID   string
	lastSeq     int64
	interval    time.Duration
	state       lifecycle
	conn        wire.Conn
	sender      *Sender
	heartbeat   *Task

	ctx    context.Context
	cancel context.CancelFunc

	// voice receives a duplicate of every dispatch that seeds the voice
	// subsystem (VOICE_STATE_UPDATE, VOICE_SERVER_UPDATE). Buffered and
	// fed non-blocking: a caller that never reads VoiceEvents never stalls
	// the main dispatch loop.
	voice chan Event
}

// Connect performs the handshake: open a websocket to url, expect Hello,
// spawn the heartbeat task, Identify, and await READY (retrying Identify
// exactly once on Invalidate). It returns a live Session positioned in
// ReadyStreaming along with the READY event.
func Connect(ctx context.Context, cfg beacon.Config, urls URLDiscoverer, url string, dial Dialer) (*Session, Event, error) {
	cfg = cfg.WithDefaults()

	sessCtx, cancel := context.WithCancel(ctx)

	s := &Session{
		cfg:      cfg,
		identify: cfg.Identity(),
		urls:     urls,
		dial:     dial,
		url:      url,
		state:    stateHandshaking,
		ctx:      sessCtx,
		cancel:   cancel,
		voice:    make(chan Event, 16),
	}

	event, err := s.handshake(sessCtx)
	if err != nil {
		cancel()

		return nil, Event{}, err
	}

	return s, event, nil
}

func (s *Session) dialURL(ctx context.Context, url string) (wire.Conn, error) {
	versioned, err := s.cfg.WithProtocolVersion(url)
	if err != nil {
		return nil, err
	}

	correlation := xid.New().String()
	beacon.Logger.Debug().Str(beacon.LogCtxCorrelation, correlation).Str("url", versioned).Msg("gateway: dialing")

	return s.dial(ctx, versioned)
}

// VoiceEvents returns the channel carrying duplicated VOICE_STATE_UPDATE and
// VOICE_SERVER_UPDATE dispatches, for a caller wiring in the voice
// subsystem. Reading it is optional; an unread channel never blocks
// NextEvent.
func (s *Session) VoiceEvents() <-chan Event {
	return s.voice
}

// handshake implements spec §4.4's Identifying state against s.url,
// replacing s.conn/sender/heartbeat on success.
func (s *Session) handshake(ctx context.Context) (Event, error) {
	conn, sender, task, interval, event, err := s.attemptHandshake(ctx, s.url, false)
	if err != nil {
		return Event{}, err
	}

	s.mu.Lock()
	s.conn = conn
	s.sender = sender
	s.heartbeat = task
	s.interval = interval
	s.state = stateReadyStreaming
	s.mu.Unlock()

	return event, nil
}

// attemptHandshake dials url, awaits Hello, spins up a heartbeat task, and
// runs identifyLoop. It leaves s.conn, s.sender and s.heartbeat to the
// caller; the only fields it changes are the session id and last sequence
// that identifyLoop records on READY. Both handshake and reconnect share it.
func (s *Session) attemptHandshake(ctx context.Context, url string, retried bool) (wire.Conn, *Sender, *Task, time.Duration, Event, error) {
	conn, err := s.dialURL(ctx, url)
	if err != nil {
		return nil, nil, nil, 0, Event{}, &beacon.TransportError{Op: "gateway.handshake: dial", Err: err}
	}

	frame, err := wire.ReadFrame(ctx, conn)
	if err != nil {
		return nil, nil, nil, 0, Event{}, &beacon.TransportError{Op: "gateway.handshake: hello", Err: err}
	}

	if frame.Op != beacon.OpHello {
		return nil, nil, nil, 0, Event{}, &beacon.ProtocolError{Detail: fmt.Sprintf("expected Hello, got opcode %d", frame.Op)}
	}

	var hello beacon.Hello
	if err := wire.Unmarshal(frame.Data, &hello); err != nil {
		return nil, nil, nil, 0, Event{}, &beacon.DecodeError{Op: "gateway.handshake: hello", Err: err}
	}

	interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond

	sender := NewSender(ctx, conn)
	task := NewTask(sender, interval)
	task.Start(ctx)

	event, err := s.identifyLoop(ctx, conn, sender, task, retried)
	if err != nil {
		task.Stop()
		sender.Close()

		return nil, nil, nil, 0, Event{}, err
	}

	return conn, sender, task, interval, event, nil
}

// identifyLoop sends Identify and awaits READY, retrying exactly once on
// Invalidate per spec §4.4 step 5. retried marks whether this call is
// already that one retry.
func (s *Session) identifyLoop(ctx context.Context, conn wire.Conn, sender *Sender, task *Task, retried bool) (Event, error) {
	if err := <-sender.Send(ctx, struct {
		Op int              `json:"op"`
		D  beacon.Identify `json:"d"`
	}{Op: beacon.OpIdentify, D: s.identify}); err != nil {
		return Event{}, &beacon.TransportError{Op: "gateway.identify: send", Err: err}
	}

	frame, err := wire.ReadFrame(ctx, conn)
	if err != nil {
		return Event{}, &beacon.TransportError{Op: "gateway.identify: await", Err: err}
	}

	switch frame.Op {
	case beacon.OpDispatch:
		name := ""
		if frame.EventName != nil {
			name = *frame.EventName
		}

		if name != eventReady {
			return Event{}, &beacon.ProtocolError{Detail: fmt.Sprintf("expected READY, got dispatch %q", name)}
		}

		var ready readyPayload
		if err := wire.Unmarshal(frame.Data, &ready); err != nil {
			return Event{}, &beacon.DecodeError{Op: "gateway.identify: ready", Err: err}
		}

		seq := int64(0)
		if frame.Sequence != nil {
			seq = *frame.Sequence
		}

		s.mu.Lock()
		s.sessionID = ready.SessionID
		s.lastSeq = seq
		s.mu.Unlock()

		task.UpdateSequence(seq)

		return Event{Name: name, Sequence: seq, Data: frame.Data}, nil

	case beacon.OpInvalidateSession:
		if retried {
			return Event{}, &beacon.ProtocolError{Detail: "received a second consecutive Invalidate during Identify"}
		}

		return s.identifyLoop(ctx, conn, sender, task, true)

	default:
		return Event{}, &beacon.ProtocolError{Detail: fmt.Sprintf("unexpected opcode %d during Identify", frame.Op)}
	}
}

// SessionID returns the session's currently recorded identity, empty if
// none has been established yet.
func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sessionID
}

// LastSequence returns the most recently observed dispatch sequence.
func (s *Session) LastSequence() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastSeq
}

// Close tears the session down: stops the heartbeat task, drains and
// closes the shared sender, and cancels the session's context.
func (s *Session) Close() {
	s.mu.Lock()
	task := s.heartbeat
	sender := s.sender
	s.state = stateClosed
	s.mu.Unlock()

	if task != nil {
		task.Stop()
	}

	if sender != nil {
		sender.Close()
	}

	s.cancel()
}

// Send submits a caller-driven command frame (presence update, voice-state
// update, member chunk request, or a sync) through the shared sender.
func (s *Session) Send(ctx context.Context, op int, data any) error {
	s.mu.RLock()
	sender := s.sender
	s.mu.RUnlock()

	if sender == nil {
		return &beacon.ProtocolError{Detail: "session has no live sender"}
	}

	return <-sender.Send(ctx, struct {
		Op int `json:"op"`
		D  any `json:"d"`
	}{Op: op, D: data})
}
