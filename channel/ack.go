package channel

import (
	"sync"
	"sync/atomic"

	"github.com/lattice-sim/dam-sim/simtime"
)

// ackStream is the reverse channel a bounded receiver uses to report, to the
// sender, the timestamp at which it took delivery of an element. It exists
// only for the two bounded flavors; unbounded channels have no ackStream.
type ackStream struct {
	ch        chan simtime.Time
	closeOnce sync.Once
	closed    atomic.Bool
}

func newAckStream(capacity uint64) *ackStream {
	n := capacity
	if n == 0 {
		n = 1
	}
	return &ackStream{ch: make(chan simtime.Time, n)}
}

// send reports an ack. The receiver is the sole writer, so a send can never
// race with this stream's own close.
func (a *ackStream) send(t simtime.Time) {
	select {
	case a.ch <- t:
	default:
		// Capacity bounds the number of outstanding acks; register_send and
		// register_recv accounting keeps this from ever overflowing.
	}
}

func (a *ackStream) close() {
	a.closeOnce.Do(func() {
		a.closed.Store(true)
		close(a.ch)
	})
}

// recv blocks until an ack arrives or the stream is closed.
func (a *ackStream) recv() (simtime.Time, bool) {
	t, ok := <-a.ch
	return t, ok
}

func (a *ackStream) tryRecv() (simtime.Time, popStatus) {
	select {
	case t, ok := <-a.ch:
		if !ok {
			return simtime.Time{}, popDisconnected
		}
		return t, popOK
	default:
		return simtime.Time{}, popEmpty
	}
}
