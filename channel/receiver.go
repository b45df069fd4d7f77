package channel

import (
	"sync"

	"github.com/lattice-sim/dam-sim/clock"
	"github.com/lattice-sim/dam-sim/simtime"
)

type headKind int

const (
	headEmpty headKind = iota
	headSomething
	headNothing
	headClosed
)

type headState[T any] struct {
	kind  headKind
	elem  Element[T]
	until simtime.Time
}

// Receiver is the dequeue-side endpoint of a channel. One Receiver value
// backs both the acyclic and cyclic policies; FlavorOf() on the shared Spec
// decides which peek algorithm applies. It owns a one-element "head" cache
// so peek followed by dequeue observes a consistent element.
type Receiver[T any] struct {
	spec *Spec
	q    queue[Element[T]]
	ack  *ackStream // nil for the unbounded flavors

	mu   sync.Mutex
	head headState[T]
}

// ID is this channel's diagnostic identifier.
func (r *Receiver[T]) ID() Identifier { return r.spec.ID() }

// AttachReceiver late-binds the owning context's identity and clock view.
func (r *Receiver[T]) AttachReceiver(ctx Identifier, view clock.View) error {
	return r.spec.AttachReceiver(ctx, view)
}

// SenderID and ReceiverID report the attached endpoint identifiers, used by
// program initialization to build the context dependency graph for flavor
// inference. Zero until the corresponding Attach call has run.
func (r *Receiver[T]) SenderID() Identifier   { return r.spec.SenderID() }
func (r *Receiver[T]) ReceiverID() Identifier { return r.spec.ReceiverID() }

// SetFlavor and Flavor read/write the classification program initialization
// assigns to this channel.
func (r *Receiver[T]) SetFlavor(f Flavor) { r.spec.SetFlavor(f) }
func (r *Receiver[T]) Flavor() Flavor     { return r.spec.FlavorOf() }

// Close disconnects the ack stream (bounded flavors only), surfacing Closed
// to the sender's next wait_until_available check. Safe to call more than
// once; a no-op for the unbounded flavors, which have no ack stream.
func (r *Receiver[T]) Close() {
	if r.ack != nil {
		r.ack.close()
	}
}

// Peek inspects the next element without consuming it. tm supplies the
// receiving context's own clock, needed to decide whether a cached Nothing
// probe is still valid and, for the cyclic policy, to drive wait_until_sender.
func (r *Receiver[T]) Peek(tm *clock.TimeManager) PeekResult[T] {
	if r.spec.FlavorOf() == FlavorAcyclic {
		return r.peekAcyclic()
	}
	return r.peekCyclic(tm)
}

// PeekNext blocks until the next element is observed (advancing tm to its
// timestamp) or the channel is closed, but does not consume it.
func (r *Receiver[T]) PeekNext(tm *clock.TimeManager) DequeueResult[T] {
	for {
		res := r.Peek(tm)
		if elem, ok := res.Something(); ok {
			tm.Advance(elem.Time)
			return someDequeue(elem)
		}
		if res.IsClosed() {
			return closedDequeue[T]()
		}
		until, _ := res.Nothing()
		tm.Advance(until.AddTicks(1))
	}
}

// Dequeue blocks until an element is consumed or the channel is closed. On
// success it advances tm to the element's timestamp and, for bounded
// flavors, acknowledges delivery to the sender.
func (r *Receiver[T]) Dequeue(tm *clock.TimeManager) DequeueResult[T] {
	if r.spec.FlavorOf() == FlavorAcyclic {
		return r.dequeueOnce(tm, r.peekAcyclic())
	}
	for {
		res := r.peekCyclic(tm)
		if _, ok := res.Something(); ok {
			return r.dequeueOnce(tm, res)
		}
		if res.IsClosed() {
			return closedDequeue[T]()
		}
		until, _ := res.Nothing()
		tm.Advance(until.AddTicks(1))
	}
}

func (r *Receiver[T]) dequeueOnce(tm *clock.TimeManager, res PeekResult[T]) DequeueResult[T] {
	elem, ok := res.Something()
	if !ok {
		return closedDequeue[T]()
	}
	r.clearHead()
	r.spec.RegisterRecv()
	if r.ack != nil {
		r.ack.send(simtime.Max(tm.Tick(), elem.Time))
	}
	tm.Advance(elem.Time)
	return someDequeue(elem)
}

// peekAcyclic implements the acyclic policy: the sender cannot be waiting on
// this receiver, so a genuine blocking pop on the underlying queue is safe
// and Nothing is never a useful answer.
func (r *Receiver[T]) peekAcyclic() PeekResult[T] {
	r.mu.Lock()
	switch r.head.kind {
	case headSomething:
		res := somethingPeek(r.head.elem)
		r.mu.Unlock()
		return res
	case headClosed:
		r.mu.Unlock()
		return closedPeek[T]()
	}
	r.mu.Unlock()

	elem, ok := r.q.pop()
	if !ok {
		r.mu.Lock()
		r.head = headState[T]{kind: headClosed}
		r.mu.Unlock()
		return closedPeek[T]()
	}
	r.mu.Lock()
	r.head = headState[T]{kind: headSomething, elem: elem}
	r.mu.Unlock()
	return somethingPeek(elem)
}

// peekCyclic implements the cyclic policy: a peek that might otherwise block
// indefinitely on the queue can form a cycle, so an empty queue yields a
// Nothing(t) probe (the sender has reached t without sending) instead of
// blocking, letting the caller advance simulated time and retry.
func (r *Receiver[T]) peekCyclic(tm *clock.TimeManager) PeekResult[T] {
	r.mu.Lock()
	switch r.head.kind {
	case headSomething:
		res := somethingPeek(r.head.elem)
		r.mu.Unlock()
		return res
	case headClosed:
		r.mu.Unlock()
		return closedPeek[T]()
	case headNothing:
		if !r.head.until.Less(tm.Tick()) {
			res := nothingPeek[T](r.head.until)
			r.mu.Unlock()
			return res
		}
	}
	r.mu.Unlock()

	if elem, status := r.q.tryPop(); status == popOK {
		r.cacheSomething(elem)
		return somethingPeek(elem)
	} else if status == popDisconnected {
		r.cacheClosed()
		return closedPeek[T]()
	}

	t := r.spec.WaitUntilSender(tm.Tick())

	if elem, status := r.q.tryPop(); status == popOK {
		r.cacheSomething(elem)
		return somethingPeek(elem)
	} else if status == popDisconnected || t.IsInfinite() {
		r.cacheClosed()
		return closedPeek[T]()
	}

	r.mu.Lock()
	r.head = headState[T]{kind: headNothing, until: t}
	r.mu.Unlock()
	return nothingPeek[T](t)
}

func (r *Receiver[T]) cacheSomething(elem Element[T]) {
	r.mu.Lock()
	r.head = headState[T]{kind: headSomething, elem: elem}
	r.mu.Unlock()
}

func (r *Receiver[T]) cacheClosed() {
	r.mu.Lock()
	r.head = headState[T]{kind: headClosed}
	r.mu.Unlock()
}

func (r *Receiver[T]) clearHead() {
	r.mu.Lock()
	r.head = headState[T]{}
	r.mu.Unlock()
}
