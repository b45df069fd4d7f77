// Package channel implements the time-stamped channel substrate: shared
// per-channel metadata (Spec), the generic Element/PeekResult/DequeueResult
// types, the void sender, and the four sender/receiver flavor pairs
// (unbounded-acyclic, unbounded-cyclic, bounded-acyclic, bounded-cyclic) that use a channel's
// Spec and a pair of clock.View handles to decide when a send can proceed,
// when a receive has observed everything that could possibly arrive
// earlier, and when either side may advance simulated time.
package channel

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/lattice-sim/dam-sim/clock"
	"github.com/lattice-sim/dam-sim/simtime"
)

// Flavor classifies how a channel's sender/receiver pair behaves. It is
// decided once, during program initialization, and read many times
// thereafter by the Sender/Receiver methods.
type Flavor int32

const (
	// FlavorUnset means initialization hasn't classified this channel yet.
	// Sender/Receiver treat it the same as FlavorCyclic, the safe default.
	FlavorUnset Flavor = iota
	FlavorVoid
	FlavorAcyclic
	FlavorCyclic
)

func (f Flavor) String() string {
	switch f {
	case FlavorVoid:
		return "void"
	case FlavorAcyclic:
		return "acyclic"
	case FlavorCyclic:
		return "cyclic"
	default:
		return "unset"
	}
}

// Spec is the metadata two channel endpoints share: capacity, latencies,
// each other's late-bound identity and clock view, and the running
// send/receive counters used to enforce the capacity invariant. It is safe
// for concurrent use; the view/identity fields follow a write-once (during
// attach) / read-many (during run) discipline enforced by a mutex, and the
// counters are lock-free atomics on the hot enqueue/dequeue path.
type Spec struct {
	id Identifier

	capacity        *uint64
	sendLatency     uint64
	responseLatency uint64

	flavor atomic.Int32

	mu           sync.RWMutex
	senderID     Identifier
	receiverID   Identifier
	senderView   clock.View
	receiverView clock.View
	metrics      MetricsSink

	totalSent     atomic.Uint64
	totalReceived atomic.Uint64
	currentDelta  atomic.Int64
}

func newSpec(name string, capacity *uint64, sendLatency, responseLatency uint64) *Spec {
	return &Spec{
		id:              NewIdentifier(name),
		capacity:        capacity,
		sendLatency:     sendLatency,
		responseLatency: responseLatency,
	}
}

// ID is this channel's own diagnostic identifier (distinct from the sender
// and receiver context identifiers attached via AttachSender/AttachReceiver).
func (s *Spec) ID() Identifier { return s.id }

func (s *Spec) SendLatency() uint64     { return s.sendLatency }
func (s *Spec) ResponseLatency() uint64 { return s.responseLatency }

// Capacity returns the channel's capacity and whether it is bounded at all.
func (s *Spec) Capacity() (uint64, bool) {
	if s.capacity == nil {
		return 0, false
	}
	return *s.capacity, true
}

// SetFlavor is called exactly once by program initialization, after cycle
// detection has classified the channel.
func (s *Spec) SetFlavor(f Flavor) { s.flavor.Store(int32(f)) }

// FlavorOf reads the classification, defaulting to Cyclic (the documented
// safe default) if initialization hasn't run yet.
func (s *Spec) FlavorOf() Flavor {
	f := Flavor(s.flavor.Load())
	if f == FlavorUnset {
		return FlavorCyclic
	}
	return f
}

// AttachSender late-binds the sending endpoint's context identifier and
// clock view. Must be called exactly once, before the channel is used.
func (s *Spec) AttachSender(id Identifier, view clock.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.senderView != nil {
		return fmt.Errorf("channel %s: attach sender: %w", s.id, ErrAlreadyAttached)
	}
	s.senderID = id
	s.senderView = view
	return nil
}

// AttachReceiver late-binds the receiving endpoint's context identifier and
// clock view. Must be called exactly once, before the channel is used.
func (s *Spec) AttachReceiver(id Identifier, view clock.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.receiverView != nil {
		return fmt.Errorf("channel %s: attach receiver: %w", s.id, ErrAlreadyAttached)
	}
	s.receiverID = id
	s.receiverView = view
	return nil
}

func (s *Spec) SenderID() Identifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.senderID
}

func (s *Spec) ReceiverID() Identifier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receiverID
}

func (s *Spec) senderViewSnapshot() clock.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.senderView
}

func (s *Spec) receiverViewSnapshot() clock.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.receiverView
}

// SenderTLB forwards to the sender's view's TickLowerBound, or tick 0 if the
// sender hasn't attached yet.
func (s *Spec) SenderTLB() simtime.Time {
	if v := s.senderViewSnapshot(); v != nil {
		return v.TickLowerBound()
	}
	return simtime.New(0)
}

// ReceiverTLB forwards to the receiver's view's TickLowerBound, or tick 0 if
// the receiver hasn't attached yet.
func (s *Spec) ReceiverTLB() simtime.Time {
	if v := s.receiverViewSnapshot(); v != nil {
		return v.TickLowerBound()
	}
	return simtime.New(0)
}

// WaitUntilSender blocks until the sender's clock reaches t. If the sender
// hasn't attached, it returns Infinite immediately.
func (s *Spec) WaitUntilSender(t simtime.Time) simtime.Time {
	if v := s.senderViewSnapshot(); v != nil {
		return v.WaitUntil(t)
	}
	return simtime.Infinite()
}

// WaitUntilReceiver blocks until the receiver's clock reaches t. If the
// receiver hasn't attached, it returns Infinite immediately.
func (s *Spec) WaitUntilReceiver(t simtime.Time) simtime.Time {
	if v := s.receiverViewSnapshot(); v != nil {
		return v.WaitUntil(t)
	}
	return simtime.Infinite()
}

// RegisterSend bumps the monotone sent counter and the in-flight delta,
// returning the delta observed just before this send.
func (s *Spec) RegisterSend() int64 {
	s.totalSent.Add(1)
	before := s.currentDelta.Add(1) - 1
	if sink := s.metricsSnapshot(); sink != nil {
		sink.RecordSend(s.id.String(), s.FlavorOf().String(), before+1)
	}
	return before
}

// RegisterRecv bumps the monotone received counter and drops the in-flight
// delta, returning the delta observed just before this receive.
func (s *Spec) RegisterRecv() int64 {
	s.totalReceived.Add(1)
	before := s.currentDelta.Add(-1) + 1
	if sink := s.metricsSnapshot(); sink != nil {
		sink.RecordReceive(s.id.String(), s.FlavorOf().String(), before-1)
	}
	return before
}

// CurrentSRD is the acquire-load of the in-flight send/receive delta.
func (s *Spec) CurrentSRD() int64 { return s.currentDelta.Load() }

func (s *Spec) TotalSent() uint64     { return s.totalSent.Load() }
func (s *Spec) TotalReceived() uint64 { return s.totalReceived.Load() }
