package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/beacon-chat/beacon-go/beacon"
)

// Task is the periodic heartbeat sender: emits {op:1, d:last_sequence}
// every interval using a monotonic ticker, observes sequence updates
// written from the gateway's read loop, and shuts down cooperatively.
// Go's time.Ticker already drops a tick it couldn't deliver in time rather
// than queuing a backlog, which is exactly the "skip missed ticks" policy
// the task needs — no extra bookkeeping required.
//
// Missed acks are not this task's concern; the gateway state machine owns
// liveness decisions (opcode 11 is a no-op at this layer, per design).
type Task struct {
	sender *Sender

	mu       sync.Mutex
	interval time.Duration

	seq    atomic.Int64
	hasSeq atomic.Bool

	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewTask builds a Task that will send through sender at interval once
// Start is called.
func NewTask(sender *Sender, interval time.Duration) *Task {
	return &Task{
		sender:  sender,
		interval: interval,
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start runs the ticking loop in a new goroutine until Stop is called or ctx
// is cancelled.
func (t *Task) Start(ctx context.Context) {
	go t.run(ctx)
}

func (t *Task) run(ctx context.Context) {
	defer close(t.stopped)

	ticker := time.NewTicker(t.currentInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.beat(ctx)
			ticker.Reset(t.currentInterval())

		case <-t.stop:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (t *Task) beat(ctx context.Context) {
	var seq *int64
	if t.hasSeq.Load() {
		s := t.seq.Load()
		seq = &s
	}

	reply := t.sender.Send(ctx, beacon.Heartbeat{Seq: seq})

	go func() {
		if err := <-reply; err != nil {
			beacon.Logger.Debug().Err(err).Msg("gateway: heartbeat send failed")
		}
	}()
}

// UpdateSequence records the most recently observed dispatch sequence,
// which the next tick's heartbeat will carry.
func (t *Task) UpdateSequence(seq int64) {
	t.seq.Store(seq)
	t.hasSeq.Store(true)
}

// UpdateInterval reprograms the ticker, taking effect from the next tick —
// used when a Hello arrives mid-resume with a new heartbeat_interval.
func (t *Task) UpdateInterval(d time.Duration) {
	t.mu.Lock()
	t.interval = d
	t.mu.Unlock()
}

func (t *Task) currentInterval() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.interval
}

// Stop signals the ticking loop to exit and blocks until it has. Safe to
// call more than once.
func (t *Task) Stop() {
	t.once.Do(func() { close(t.stop) })
	<-t.stopped
}
