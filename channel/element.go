package channel

import "github.com/lattice-sim/dam-sim/simtime"

// Element pairs a logical timestamp with the payload flowing on a channel.
type Element[T any] struct {
	Time simtime.Time
	Data T
}

// NewElement constructs an Element carrying t and data.
func NewElement[T any](t simtime.Time, data T) Element[T] {
	return Element[T]{Time: t, Data: data}
}

// UpdateTime returns a copy of e with Time advanced to max(e.Time, t).
func (e Element[T]) UpdateTime(t simtime.Time) Element[T] {
	e.Time = simtime.Max(e.Time, t)
	return e
}
