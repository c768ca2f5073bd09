package gateway

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/switchupcb/websocket"
)

// fakeConn drives gateway tests without a live socket: Reader serves a
// queued sequence of pre-built frames (or a terminal error), Writer
// captures everything sent through it.
type fakeConn struct {
	mu      sync.Mutex
	reads   [][]byte
	readErr error

	writes [][]byte

	closeCode   websocket.StatusCode
	closeReason string
	closed      bool
}

func newFakeConn(frames ...[]byte) *fakeConn {
	return &fakeConn{reads: frames}
}

func (f *fakeConn) Reader(ctx context.Context) (websocket.MessageType, io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.reads) == 0 {
		if f.readErr != nil {
			return 0, nil, f.readErr
		}

		return 0, nil, errors.New("fakeConn: no more queued reads")
	}

	next := f.reads[0]
	f.reads = f.reads[1:]

	return websocket.MessageBinary, bytes.NewReader(next), nil
}

type fakeWriteCloser struct {
	buf *bytes.Buffer
	f   *fakeConn
}

func (w *fakeWriteCloser) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *fakeWriteCloser) Close() error {
	w.f.mu.Lock()
	w.f.writes = append(w.f.writes, w.buf.Bytes())
	w.f.mu.Unlock()

	return nil
}

func (f *fakeConn) Writer(ctx context.Context, typ websocket.MessageType) (io.WriteCloser, error) {
	return &fakeWriteCloser{buf: &bytes.Buffer{}, f: f}, nil
}

func (f *fakeConn) Close(code websocket.StatusCode, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.closeCode = code
	f.closeReason = reason

	return nil
}

func (f *fakeConn) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.writes)
}
