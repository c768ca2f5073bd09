package beacon

import (
	"fmt"
)

// The error taxonomy every public operation returns through. The types that
// carry a cause (TransportError, DecodeError, OtherError) unwrap to it, so
// errors.As/errors.Is see through to the underlying failure; ProtocolError,
// ClosedError, StatusError and RateLimitedError carry no cause.

// TransportError represents a failure reading from or writing to a gateway
// or REST connection at the I/O level, below the protocol.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Errorf("TRANSPORT ERROR: %s: %w", e.Op, e.Err).Error()
}
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError represents a well-formed transport delivery that failed to
// decode as JSON or didn't match the shape an operation expected.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Errorf("DECODE ERROR: %s: %w", e.Op, e.Err).Error()
}
func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolError represents a message that decoded fine but violated the
// gateway's expected sequencing (an opcode out of turn, a missing Hello).
type ProtocolError struct {
	SessionID string
	Detail    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("PROTOCOL ERROR: session %q: %s", e.SessionID, e.Detail)
}

// ClosedError represents a terminal gateway session: the peer sent a close
// code that forbids resume, or the caller tore the session down.
type ClosedError struct {
	SessionID string
	Code      int
	Reason    string
}

func (e *ClosedError) Error() string {
	return fmt.Sprintf("CLOSED: session %q: code %d: %s", e.SessionID, e.Code, e.Reason)
}

// StatusError represents a non-2xx REST response with no rate-limit
// semantics attached. Decoded holds the response body unmarshaled as JSON,
// nil if the body wasn't a JSON value.
type StatusError struct {
	Route   string
	Status  int
	Body    string
	Decoded any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("STATUS ERROR: route %q: status %d: %s", e.Route, e.Status, e.Body)
}

// RateLimitedError represents a REST response that exhausted the retry
// budget still rate limited (HTTP 429 after the single permitted retry).
type RateLimitedError struct {
	Route      string
	RetryAfter float64
	Global     bool
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("RATE LIMITED: route %q: retry after %.3fs (global=%v)",
		e.Route, e.RetryAfter, e.Global)
}

// OtherError wraps a failure this taxonomy has no dedicated category for,
// preserving the original error via %w.
type OtherError struct {
	Op  string
	Err error
}

func (e *OtherError) Error() string {
	return fmt.Errorf("ERROR: %s: %w", e.Op, e.Err).Error()
}
func (e *OtherError) Unwrap() error { return e.Err }
