package contexts

import (
	"fmt"

	"github.com/lattice-sim/dam-sim/channel"
	"github.com/lattice-sim/dam-sim/engine"
)

// Checker validates input against the values seq produces, in order. A
// mismatch or premature end of input is reported as an error wrapping
// engine.ErrValidationFailure rather than a panic, so a checker failure
// surfaces through Initialized.Run like any other context fault.
type Checker[T comparable] struct {
	engine.BaseContext
	seq   func(yield func(T) bool)
	input *channel.Receiver[T]
	ran   bool
}

func NewChecker[T comparable](name string, seq func(yield func(T) bool), input *channel.Receiver[T]) *Checker[T] {
	return &Checker[T]{BaseContext: engine.NewBaseContext(name), seq: seq, input: input}
}

func (c *Checker[T]) Init() error {
	return c.input.AttachReceiver(c.ID(), c.View())
}

func (c *Checker[T]) Run() error {
	defer c.Clock().Cleanup()
	if c.ran {
		return fmt.Errorf("checker %s: %w", c.ID(), engine.ErrDuplicateExecution)
	}
	c.ran = true

	tm := c.Clock()
	ind := 0
	var failure error
	c.seq(func(want T) bool {
		res := c.input.Dequeue(tm)
		elem, ok := res.Something()
		if !ok {
			failure = fmt.Errorf("checker %s: ran out of input at iteration %d, expected %v: %w", c.ID(), ind, want, engine.ErrValidationFailure)
			return false
		}
		if elem.Data != want {
			failure = fmt.Errorf("checker %s: mismatch at iteration %d (time %v): expected %v, got %v: %w", c.ID(), ind, elem.Time, want, elem.Data, engine.ErrValidationFailure)
			return false
		}
		ind++
		return true
	})
	return failure
}
