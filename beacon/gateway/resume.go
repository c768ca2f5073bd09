package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/switchupcb/websocket"

	"github.com/beacon-chat/beacon-go/beacon"
	"github.com/beacon-chat/beacon-go/beacon/internal/wire"
)

// resume implements spec §4.4's Resuming state: stop the dead heartbeat,
// open a fresh socket to the same URL, and replay opcode 6. A Hello on the
// new socket reprograms the heartbeat task in place rather than restarting
// the handshake's Identify path; a dispatch ends the resume.
func (s *Session) resume(ctx context.Context) (Event, error) {
	s.mu.Lock()
	oldTask := s.heartbeat
	oldSender := s.sender
	oldConn := s.conn
	url := s.url
	sessionID := s.sessionID
	seq := s.lastSeq
	interval := s.interval
	s.state = stateResuming
	s.mu.Unlock()

	if oldTask != nil {
		oldTask.Stop()
	}

	if oldSender != nil {
		oldSender.Close()
	}

	if oldConn != nil {
		_ = oldConn.Close(websocket.StatusCode(1000), "resuming")
	}

	conn, err := s.dialURL(ctx, url)
	if err != nil {
		return Event{}, &beacon.TransportError{Op: "gateway.resume: dial", Err: err}
	}

	sender := NewSender(ctx, conn)
	task := NewTask(sender, interval)
	task.Start(ctx)

	if err := <-sender.Send(ctx, struct {
		Op int           `json:"op"`
		D  beacon.Resume `json:"d"`
	}{Op: beacon.OpResume, D: beacon.Resume{Token: s.identify.Token, SessionID: sessionID, Seq: seq}}); err != nil {
		task.Stop()
		sender.Close()

		return Event{}, &beacon.TransportError{Op: "gateway.resume: send", Err: err}
	}

	event, err := s.resumeLoop(ctx, conn, sender, task)
	if err != nil {
		task.Stop()
		sender.Close()

		return Event{}, err
	}

	s.mu.Lock()
	s.conn = conn
	s.sender = sender
	s.heartbeat = task
	s.state = stateReadyStreaming
	s.mu.Unlock()

	return event, nil
}

// resumeLoop processes frames following a Resume request until a dispatch
// ends the attempt, per spec §4.4's Resuming bullet.
func (s *Session) resumeLoop(ctx context.Context, conn wire.Conn, sender *Sender, task *Task) (Event, error) {
	for {
		frame, err := wire.ReadFrame(ctx, conn)
		if err != nil {
			return Event{}, &beacon.TransportError{Op: "gateway.resume: await", Err: err}
		}

		switch frame.Op {
		case beacon.OpHello:
			var hello beacon.Hello
			if err := wire.Unmarshal(frame.Data, &hello); err != nil {
				return Event{}, &beacon.DecodeError{Op: "gateway.resume: hello", Err: err}
			}

			interval := time.Duration(hello.HeartbeatInterval) * time.Millisecond
			task.UpdateInterval(interval)

			s.mu.Lock()
			s.interval = interval
			s.mu.Unlock()

		case beacon.OpDispatch:
			name := ""
			if frame.EventName != nil {
				name = *frame.EventName
			}

			seq := int64(0)
			if frame.Sequence != nil {
				seq = *frame.Sequence
			}

			s.mu.Lock()
			if seq > s.lastSeq {
				s.lastSeq = seq
			}

			switch name {
			case eventResumed:
			case eventReady:
				var ready readyPayload
				if err := wire.Unmarshal(frame.Data, &ready); err == nil {
					s.sessionID = ready.SessionID
				}
			}
			s.mu.Unlock()

			task.UpdateSequence(s.LastSequence())

			return Event{Name: name, Sequence: seq, Data: frame.Data}, nil

		case beacon.OpInvalidateSession:
			s.mu.Lock()
			s.sessionID = ""
			s.mu.Unlock()

			if err := s.sendIdentify(ctx, sender); err != nil {
				return Event{}, err
			}

		default:
			return Event{}, &beacon.ProtocolError{Detail: fmt.Sprintf("unexpected opcode %d during Resume", frame.Op)}
		}
	}
}
