package channel

import (
	"fmt"

	"github.com/lattice-sim/dam-sim/clock"
)

// Sender is the enqueue-side endpoint of a channel. One Sender value backs
// all four non-void flavors; FlavorOf() on the shared Spec decides which
// wait_until_available policy Enqueue applies.
type Sender[T any] struct {
	spec *Spec
	void bool
	q    queue[Element[T]]
	ack  *ackStream // nil for the unbounded flavors and void

	// localDelta mirrors the shared Spec's send/receive delta, but only ever
	// drops when this sender itself has drained the matching ack and
	// advanced its own clock to the timestamp the ack reports. Gating the
	// bounded flavors' capacity checks on this instead of Spec.CurrentSRD
	// keeps a slot from looking free before this sender's clock has reached
	// the time the receiver actually freed it.
	localDelta uint64
	// nextAvailable caches the outcome of the last ack this sender looked at
	// but could not yet act on: AvailableAt(t) when an ack's timestamp lies
	// in this sender's future, CheckBackAt(t) after parking on the
	// receiver's clock, Never once the ack stream is known closed.
	nextAvailable SendOptions
}

// NewVoid builds a no-op sender: every send succeeds immediately and is
// discarded. There is no corresponding receiver.
func NewVoid[T any](name string) *Sender[T] {
	spec := newSpec(name, nil, 0, 0)
	spec.SetFlavor(FlavorVoid)
	return &Sender[T]{spec: spec, void: true}
}

// NewUnbounded builds an unbounded channel's sender/receiver pair. Flavor
// defaults to Cyclic until program initialization proves it Acyclic.
func NewUnbounded[T any](name string, sendLatency, responseLatency uint64) (*Sender[T], *Receiver[T]) {
	spec := newSpec(name, nil, sendLatency, responseLatency)
	q := newUnboundedQueue[Element[T]]()
	return &Sender[T]{spec: spec, q: q}, &Receiver[T]{spec: spec, q: q}
}

// NewBounded builds a bounded channel's sender/receiver pair. capacity must
// be at least 1; callers (engine.ProgramBuilder) are responsible for
// rejecting capacity 0 before calling this.
func NewBounded[T any](name string, capacity, sendLatency, responseLatency uint64) (*Sender[T], *Receiver[T]) {
	cap := capacity
	spec := newSpec(name, &cap, sendLatency, responseLatency)
	q := newBoundedQueue[Element[T]](capacity)
	ack := newAckStream(capacity)
	return &Sender[T]{spec: spec, q: q, ack: ack}, &Receiver[T]{spec: spec, q: q, ack: ack}
}

// ID is this channel's diagnostic identifier.
func (s *Sender[T]) ID() Identifier { return s.spec.ID() }

// AttachSender late-binds the owning context's identity and clock view.
func (s *Sender[T]) AttachSender(ctx Identifier, view clock.View) error {
	return s.spec.AttachSender(ctx, view)
}

// SenderID and ReceiverID report the attached endpoint identifiers, used by
// program initialization to build the context dependency graph for flavor
// inference. Zero until the corresponding Attach call has run.
func (s *Sender[T]) SenderID() Identifier   { return s.spec.SenderID() }
func (s *Sender[T]) ReceiverID() Identifier { return s.spec.ReceiverID() }

// SetFlavor and Flavor read/write the classification program initialization
// assigns to this channel.
func (s *Sender[T]) SetFlavor(f Flavor) { s.spec.SetFlavor(f) }
func (s *Sender[T]) Flavor() Flavor     { return s.spec.FlavorOf() }

// CurrentSRD, TotalSent and TotalReceived expose this channel's running
// counters, e.g. for metrics export or invariant checks in tests.
func (s *Sender[T]) CurrentSRD() int64        { return s.spec.CurrentSRD() }
func (s *Sender[T]) TotalSent() uint64        { return s.spec.TotalSent() }
func (s *Sender[T]) TotalReceived() uint64    { return s.spec.TotalReceived() }
func (s *Sender[T]) Capacity() (uint64, bool) { return s.spec.Capacity() }

// Close disconnects the underlying queue, surfacing Closed to the receiver.
// Safe to call more than once. A void sender has nothing to close.
func (s *Sender[T]) Close() {
	if s.void {
		return
	}
	s.q.close()
}

// TrySend attempts a non-blocking enqueue. It does not adjust elem's
// timestamp and does not wait for capacity; callers that need the send-floor
// invariant and blocking back-pressure should use Enqueue.
func (s *Sender[T]) TrySend(elem Element[T]) (bool, SendOptions) {
	if s.void {
		return true, UnknownOptions()
	}
	switch s.q.tryPush(elem) {
	case pushOK:
		s.spec.RegisterSend()
		if s.ack != nil {
			s.localDelta++
		}
		return true, UnknownOptions()
	case pushFull:
		return false, UnknownOptions()
	default:
		return false, NeverOptions()
	}
}

// Enqueue blocks until elem has been placed on the underlying queue (with
// its timestamp raised to the send floor and, for bounded flavors, after
// capacity has become available) or the channel is known Closed.
func (s *Sender[T]) Enqueue(tm *clock.TimeManager, elem Element[T]) error {
	if s.void {
		return nil
	}

	if err := s.waitUntilAvailable(tm); err != nil {
		return err
	}

	elem = elem.UpdateTime(tm.Tick().AddTicks(s.spec.SendLatency()))

	switch s.q.tryPush(elem) {
	case pushOK:
		s.spec.RegisterSend()
		if s.ack != nil {
			s.localDelta++
		}
		return nil
	default:
		return fmt.Errorf("enqueue on channel %s: %w", s.spec.ID(), ErrClosed)
	}
}

func (s *Sender[T]) waitUntilAvailable(tm *clock.TimeManager) error {
	capacity, bounded := s.spec.Capacity()
	if !bounded {
		return nil
	}
	if s.spec.FlavorOf() == FlavorAcyclic {
		return s.waitAvailableAcyclic(tm, capacity)
	}
	return s.waitAvailableCyclic(tm, capacity)
}

// waitAvailableAcyclic blocks directly on the ack stream: since the sender
// cannot be part of a cycle through the receiver, a plain blocking receive
// is safe and simpler than the cyclic flavor's probing loop.
func (s *Sender[T]) waitAvailableAcyclic(tm *clock.TimeManager, capacity uint64) error {
	if s.localDelta < capacity {
		return nil
	}
	ackTime, ok := s.ack.recv()
	if !ok {
		return fmt.Errorf("enqueue on channel %s: %w", s.spec.ID(), ErrClosed)
	}
	s.localDelta--
	tm.Advance(ackTime)
	return nil
}

// waitAvailableCyclic loops on localDelta, the slot count this sender has
// itself confirmed freed: first consult any cached advice left over from the
// previous iteration (an ack already known to apply once this clock catches
// up to it, one known still in this sender's future, or a known-closed
// stream), then try to drain fresh acks, and only park on the receiver's
// view -- which keeps moving even with nothing to dequeue, via its own
// Nothing(t) probing, so this can never wait forever on a live receiver --
// once draining produced nothing to act on.
func (s *Sender[T]) waitAvailableCyclic(tm *clock.TimeManager, capacity uint64) error {
	for {
		if s.localDelta < capacity {
			return nil
		}

		if t, ok := s.nextAvailable.AvailableAt(); ok {
			tm.Advance(t)
			s.localDelta--
			s.nextAvailable = UnknownOptions()
			return nil
		}
		if s.nextAvailable.IsNever() {
			return fmt.Errorf("enqueue on channel %s: %w", s.spec.ID(), ErrClosed)
		}
		if t, ok := s.nextAvailable.CheckBackAt(); ok {
			tm.Advance(t)
			s.nextAvailable = UnknownOptions()
		}

		if s.updateLocalDelta(tm) {
			continue
		}

		receiverTick := s.spec.WaitUntilReceiver(tm.Tick())
		if !s.updateLocalDelta(tm) {
			s.nextAvailable = CheckBackAtOptions(receiverTick.AddTicks(s.spec.ResponseLatency()))
		}
	}
}

// updateLocalDelta drains every ack currently queued without blocking,
// measured against this sender's own clock: an ack whose timestamp this
// clock has already reached frees a slot immediately (localDelta drops and
// draining continues), while an ack timestamped in this sender's future
// halts draining and is cached as AvailableAt so the next iteration can
// advance straight to it instead of re-deriving it. Reports whether it made
// any progress (freed a slot or learned the stream is closed).
func (s *Sender[T]) updateLocalDelta(tm *clock.TimeManager) bool {
	sendTime := tm.Tick()
	progressed := false
	for {
		ackTime, status := s.ack.tryRecv()
		switch status {
		case popDisconnected:
			s.nextAvailable = NeverOptions()
			return true
		case popEmpty:
			return progressed
		default: // popOK
			if sendTime.Less(ackTime) {
				s.nextAvailable = AvailableAtOptions(ackTime)
				return true
			}
			s.localDelta--
			progressed = true
		}
	}
}
