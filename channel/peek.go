package channel

import "github.com/lattice-sim/dam-sim/simtime"

type peekKind int

const (
	peekNone peekKind = iota
	peekSomething
	peekNothing
	peekClosed
)

// PeekResult is the outcome of inspecting a receiver's next element without
// consuming it.
type PeekResult[T any] struct {
	kind  peekKind
	elem  Element[T]
	until simtime.Time
}

func somethingPeek[T any](e Element[T]) PeekResult[T] {
	return PeekResult[T]{kind: peekSomething, elem: e}
}

func nothingPeek[T any](until simtime.Time) PeekResult[T] {
	return PeekResult[T]{kind: peekNothing, until: until}
}

func closedPeek[T any]() PeekResult[T] {
	return PeekResult[T]{kind: peekClosed}
}

// Something returns the peeked element and true if one is cached.
func (p PeekResult[T]) Something() (Element[T], bool) {
	return p.elem, p.kind == peekSomething
}

// Nothing returns the "no message before until" probe time, if that's what
// this result holds. Only produced by cyclic receivers.
func (p PeekResult[T]) Nothing() (simtime.Time, bool) {
	return p.until, p.kind == peekNothing
}

func (p PeekResult[T]) IsClosed() bool { return p.kind == peekClosed }

// DequeueResult is the blocking outcome of PeekNext/Dequeue: either an
// element was observed, or the channel is definitively closed. Unlike
// PeekResult it never holds a Nothing probe — callers of the blocking ops
// never see one, since the receiver loops through Nothing internally.
type DequeueResult[T any] struct {
	elem   Element[T]
	closed bool
}

func someDequeue[T any](e Element[T]) DequeueResult[T] {
	return DequeueResult[T]{elem: e}
}

func closedDequeue[T any]() DequeueResult[T] {
	return DequeueResult[T]{closed: true}
}

func (d DequeueResult[T]) Something() (Element[T], bool) {
	return d.elem, !d.closed
}

func (d DequeueResult[T]) IsClosed() bool { return d.closed }
