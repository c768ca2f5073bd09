package wire

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/switchupcb/websocket"
)

// fakeConn feeds ReadFrame from a queue of pre-built messages and captures
// everything WriteFrame sends, so the codec can be exercised without a
// socket.
type fakeConn struct {
	reads   [][]byte
	readErr error

	writes [][]byte
}

func (f *fakeConn) Reader(ctx context.Context) (websocket.MessageType, io.Reader, error) {
	if f.readErr != nil {
		return 0, nil, f.readErr
	}

	if len(f.reads) == 0 {
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
	w.f.writes = append(w.f.writes, w.buf.Bytes())

	return nil
}

func (f *fakeConn) Writer(ctx context.Context, typ websocket.MessageType) (io.WriteCloser, error) {
	return &fakeWriteCloser{buf: &bytes.Buffer{}, f: f}, nil
}

func (f *fakeConn) Close(code websocket.StatusCode, reason string) error { return nil }
