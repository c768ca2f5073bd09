package gateway

import (
	"context"
	"errors"

	"github.com/beacon-chat/beacon-go/beacon"
	"github.com/beacon-chat/beacon-go/beacon/internal/wire"
)

// NextEvent yields one semantic event per call, processing opcodes
// internally per spec §4.4's ReadyStreaming pull-loop. It suspends the
// calling goroutine, not the process.
func (s *Session) NextEvent(ctx context.Context) (Event, error) {
	for {
		s.mu.RLock()
		conn := s.conn
		sender := s.sender
		task := s.heartbeat
		s.mu.RUnlock()

		frame, err := wire.ReadFrame(ctx, conn)
		if err != nil {
			return s.handleTransportFailure(ctx, err)
		}

		switch frame.Op {
		case beacon.OpDispatch:
			return s.handleDispatch(task, frame), nil

		case beacon.OpHeartbeat:
			if err := <-sender.Send(ctx, beacon.Heartbeat{Seq: s.seqPtr()}); err != nil {
				return Event{}, &beacon.TransportError{Op: "gateway.NextEvent: server-requested heartbeat", Err: err}
			}

		case beacon.OpHeartbeatAck:
			// no-op.

		case beacon.OpHello:
			beacon.Logger.Debug().Msg("gateway: ignoring mid-stream Hello")

		case beacon.OpReconnect:
			return s.reconnect(ctx)

		case beacon.OpInvalidateSession:
			s.mu.Lock()
			s.sessionID = ""
			s.mu.Unlock()

			if err := s.sendIdentify(ctx, sender); err != nil {
				return Event{}, err
			}

		default:
			beacon.Logger.Debug().Int(beacon.LogCtxPayloadOp, frame.Op).Msg("gateway: ignoring unrecognized opcode")
		}
	}
}

func (s *Session) sendIdentify(ctx context.Context, sender *Sender) error {
	if err := <-sender.Send(ctx, struct {
		Op int              `json:"op"`
		D  beacon.Identify `json:"d"`
	}{Op: beacon.OpIdentify, D: s.identify}); err != nil {
		return &beacon.TransportError{Op: "gateway.NextEvent: reidentify", Err: err}
	}

	return nil
}

func (s *Session) handleDispatch(task *Task, frame wire.Frame) Event {
	name := ""
	if frame.EventName != nil {
		name = *frame.EventName
	}

	var seq int64
	if frame.Sequence != nil {
		seq = *frame.Sequence
	}

	s.mu.Lock()
	if seq > s.lastSeq {
		s.lastSeq = seq
	}

	if name == eventReady {
		var ready readyPayload
		if err := wire.Unmarshal(frame.Data, &ready); err == nil {
			s.sessionID = ready.SessionID
		}
	}
	s.mu.Unlock()

	task.UpdateSequence(s.LastSequence())

	event := Event{Name: name, Sequence: seq, Data: frame.Data}

	if name == eventVoiceStateUpdate || name == eventVoiceServerUpdate {
		select {
		case s.voice <- event:
		default:
			beacon.Logger.Debug().Str(beacon.LogCtxEvent, name).Msg("gateway: voice event channel full, dropping duplicate")
		}
	}

	return event
}

func (s *Session) seqPtr() *int64 {
	seq := s.LastSequence()

	return &seq
}

// handleTransportFailure implements the transport-failure and close-frame
// branches of spec §4.4's ReadyStreaming: resume when a session exists and
// the close code (if any) doesn't forbid it, otherwise reconnect directly.
func (s *Session) handleTransportFailure(ctx context.Context, err error) (Event, error) {
	var closeErr *wire.CloseError

	forbidsResume := false
	if errors.As(err, &closeErr) {
		forbidsResume = !resumable(int(closeErr.Code))
	}

	if !forbidsResume && s.SessionID() != "" {
		if event, rerr := s.resume(ctx); rerr == nil {
			return event, nil
		}
	}

	return s.reconnect(ctx)
}
