// Package wire decodes and encodes the single JSON frame exchanged over a
// gateway websocket connection.
package wire

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/switchupcb/websocket"
)

// ErrTransport and ErrDecode are the sentinel causes behind TransportError
// and DecodeError, for errors.Is comparisons that don't need the wrapped detail.
var (
	ErrTransport = errors.New("wire: transport error")
	ErrDecode    = errors.New("wire: decode error")
)

// Conn is the subset of *websocket.Conn the frame codec depends on, so the
// gateway package can be driven by a fake in tests without a live socket.
type Conn interface {
	Reader(ctx context.Context) (websocket.MessageType, io.Reader, error)
	Writer(ctx context.Context, typ websocket.MessageType) (io.WriteCloser, error)
	Close(code websocket.StatusCode, reason string) error
}

// Frame is exactly one JSON object exchanged over the connection.
type Frame struct {
	Op        int             `json:"op"`
	Data      json.RawMessage `json:"d,omitempty"`
	Sequence  *int64          `json:"s,omitempty"`
	EventName *string         `json:"t,omitempty"`
}

// TransportError wraps a failure reading or writing the underlying socket.
type TransportError struct{ Err error }

func (e *TransportError) Error() string { return fmt.Sprintf("wire: transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// DecodeError wraps a JSON decode failure on an otherwise delivered message.
type DecodeError struct{ Err error }

func (e *DecodeError) Error() string { return fmt.Sprintf("wire: decode: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// CloseError reports a close frame received in place of a message.
type CloseError struct {
	Code   websocket.StatusCode
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("wire: closed (code %d): %s", e.Code, e.Reason)
}

// ReadFrame decodes the next frame off conn. Both text and binary message
// kinds are accepted and decoded identically; the gateway does not rely on
// the distinction.
func ReadFrame(ctx context.Context, conn Conn) (Frame, error) {
	var frame Frame

	_, r, err := conn.Reader(ctx)
	if err != nil {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			return frame, &CloseError{Code: closeErr.Code, Reason: closeErr.Reason}
		}

		return frame, &TransportError{Err: err}
	}

	if err := json.NewDecoder(r).Decode(&frame); err != nil {
		return frame, &DecodeError{Err: err}
	}

	return frame, nil
}

// WriteFrame encodes v as JSON and sends it as a single binary message.
func WriteFrame(ctx context.Context, conn Conn, v any) error {
	w, err := conn.Writer(ctx, websocket.MessageBinary)
	if err != nil {
		return &TransportError{Err: err}
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		_ = w.Close()

		return &TransportError{Err: err}
	}

	if err := w.Close(); err != nil {
		return &TransportError{Err: err}
	}

	return nil
}

// Marshal and Unmarshal expose the frame codec's JSON library to callers
// that need to encode/decode a Frame's Data payload (identify, dispatch
// events, heartbeat acks) without importing goccy/go-json directly.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal: %w", err)
	}

	return b, nil
}

func Unmarshal(data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return &DecodeError{Err: err}
	}

	return nil
}
