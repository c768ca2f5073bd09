package gateway

import (
	"context"
	"testing"

	"github.com/beacon-chat/beacon-go/beacon"
)

// TestNextEventServerRequestedHeartbeatRepliesAndContinues drives opcode 1:
// NextEvent must reply on the sender and keep pulling frames rather than
// returning.
func TestNextEventServerRequestedHeartbeatRepliesAndContinues(t *testing.T) {
	hello := buildFrame(t, beacon.OpHello, beacon.Hello{HeartbeatInterval: 40000}, nil, nil)
	ready := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S1"}, seqOf(1), nameOf("READY"))
	heartbeatReq := buildFrame(t, beacon.OpHeartbeat, int64(1), nil, nil)
	next := buildFrame(t, beacon.OpDispatch, struct{}{}, seqOf(2), nameOf("MESSAGE_CREATE"))

	conn := newFakeConn(hello, ready, heartbeatReq, next)

	sess, event, err := Connect(context.Background(), testConfig(), nil, "wss://example", dialerFor(conn))
	if err != nil {
		t.Fatalf("unexpected handshake error: %v", err)
	}
	defer sess.Close()

	if event.Name != "READY" {
		t.Fatalf("expected READY from handshake, got %q", event.Name)
	}

	writesBeforeLoop := conn.writeCount()

	got, err := sess.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("unexpected NextEvent error: %v", err)
	}

	if got.Name != "MESSAGE_CREATE" {
		t.Fatalf("expected NextEvent to skip past the heartbeat request, got %q", got.Name)
	}

	if conn.writeCount() <= writesBeforeLoop {
		t.Fatalf("expected a heartbeat reply write, writes stayed at %d", writesBeforeLoop)
	}
}

// TestNextEventHeartbeatAckIsNoOpAndContinues drives opcode 11: it must not
// write anything and must keep pulling frames.
func TestNextEventHeartbeatAckIsNoOpAndContinues(t *testing.T) {
	hello := buildFrame(t, beacon.OpHello, beacon.Hello{HeartbeatInterval: 40000}, nil, nil)
	ready := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S1"}, seqOf(1), nameOf("READY"))
	ack := buildFrame(t, beacon.OpHeartbeatAck, nil, nil, nil)
	next := buildFrame(t, beacon.OpDispatch, struct{}{}, seqOf(2), nameOf("MESSAGE_CREATE"))

	conn := newFakeConn(hello, ready, ack, next)

	sess, _, err := Connect(context.Background(), testConfig(), nil, "wss://example", dialerFor(conn))
	if err != nil {
		t.Fatalf("unexpected handshake error: %v", err)
	}
	defer sess.Close()

	writesBeforeLoop := conn.writeCount()

	got, err := sess.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("unexpected NextEvent error: %v", err)
	}

	if got.Name != "MESSAGE_CREATE" {
		t.Fatalf("expected NextEvent to skip past the ack, got %q", got.Name)
	}

	if conn.writeCount() != writesBeforeLoop {
		t.Fatalf("expected heartbeat ack to be a no-op write-wise, writes went from %d to %d", writesBeforeLoop, conn.writeCount())
	}
}

// TestNextEventInvalidateDuringStreamingReidentifies drives opcode 9: it
// must clear the session id, resend Identify, and keep streaming until the
// next dispatch arrives.
func TestNextEventInvalidateDuringStreamingReidentifies(t *testing.T) {
	hello := buildFrame(t, beacon.OpHello, beacon.Hello{HeartbeatInterval: 40000}, nil, nil)
	ready := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S1"}, seqOf(1), nameOf("READY"))
	invalidate := buildFrame(t, beacon.OpInvalidateSession, false, nil, nil)
	reready := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S1-new"}, seqOf(2), nameOf("READY"))

	conn := newFakeConn(hello, ready, invalidate, reready)

	sess, _, err := Connect(context.Background(), testConfig(), nil, "wss://example", dialerFor(conn))
	if err != nil {
		t.Fatalf("unexpected handshake error: %v", err)
	}
	defer sess.Close()

	writesBeforeLoop := conn.writeCount()

	got, err := sess.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("unexpected NextEvent error: %v", err)
	}

	if got.Name != "READY" {
		t.Fatalf("expected the re-identified READY, got %q", got.Name)
	}

	if sess.SessionID() != "S1-new" {
		t.Fatalf("expected session id S1-new after reidentify, got %q", sess.SessionID())
	}

	if conn.writeCount() <= writesBeforeLoop {
		t.Fatalf("expected a re-Identify write, writes stayed at %d", writesBeforeLoop)
	}
}

// TestNextEventReconnectTriggersReconnectAndReturnsReady drives opcode 7:
// NextEvent must hand off to reconnect and surface its synthesized READY.
func TestNextEventReconnectTriggersReconnectAndReturnsReady(t *testing.T) {
	hello := buildFrame(t, beacon.OpHello, beacon.Hello{HeartbeatInterval: 40000}, nil, nil)
	ready := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S1"}, seqOf(1), nameOf("READY"))
	reconnectFrame := buildFrame(t, beacon.OpReconnect, nil, nil, nil)
	handshakeConn := newFakeConn(hello, ready, reconnectFrame)

	reconnectHello := buildFrame(t, beacon.OpHello, beacon.Hello{HeartbeatInterval: 40000}, nil, nil)
	reconnectReady := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S2"}, seqOf(1), nameOf("READY"))
	reconnectConn := newFakeConn(reconnectHello, reconnectReady)

	sess, _, err := Connect(context.Background(), testConfig(), nil, "wss://example", dialSequence(handshakeConn, reconnectConn))
	if err != nil {
		t.Fatalf("unexpected handshake error: %v", err)
	}
	defer sess.Close()

	got, err := sess.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("unexpected NextEvent error: %v", err)
	}

	if got.Name != "READY" {
		t.Fatalf("expected the reconnect's synthesized READY, got %q", got.Name)
	}

	if sess.SessionID() != "S2" {
		t.Fatalf("expected session id S2 after reconnect via NextEvent, got %q", sess.SessionID())
	}

	if !handshakeConn.closed {
		t.Fatalf("expected the original connection to be closed after reconnect")
	}
}

// TestNextEventDuplicatesVoiceSeedEvents verifies that VOICE_STATE_UPDATE
// and VOICE_SERVER_UPDATE dispatches are delivered both to the regular
// caller and to VoiceEvents.
func TestNextEventDuplicatesVoiceSeedEvents(t *testing.T) {
	hello := buildFrame(t, beacon.OpHello, beacon.Hello{HeartbeatInterval: 40000}, nil, nil)
	ready := buildFrame(t, beacon.OpDispatch, struct {
		SessionID string `json:"session_id"`
	}{SessionID: "S1"}, seqOf(1), nameOf("READY"))
	voiceState := buildFrame(t, beacon.OpDispatch, struct{}{}, seqOf(2), nameOf("VOICE_STATE_UPDATE"))

	conn := newFakeConn(hello, ready, voiceState)

	sess, _, err := Connect(context.Background(), testConfig(), nil, "wss://example", dialerFor(conn))
	if err != nil {
		t.Fatalf("unexpected handshake error: %v", err)
	}
	defer sess.Close()

	got, err := sess.NextEvent(context.Background())
	if err != nil {
		t.Fatalf("unexpected NextEvent error: %v", err)
	}

	if got.Name != "VOICE_STATE_UPDATE" {
		t.Fatalf("expected VOICE_STATE_UPDATE from NextEvent, got %q", got.Name)
	}

	select {
	case dup := <-sess.VoiceEvents():
		if dup.Name != "VOICE_STATE_UPDATE" {
			t.Fatalf("expected duplicated VOICE_STATE_UPDATE, got %q", dup.Name)
		}
	default:
		t.Fatalf("expected a duplicate event on VoiceEvents")
	}
}
