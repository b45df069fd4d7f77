// Package contexts provides small, generic engine.Context implementations
// used to drive end-to-end simulation scenarios: feeding a sequence onto a
// channel, validating a channel against an expected sequence, fanning one
// channel out to many, and wrapping an arbitrary closure as a one-shot
// context. None of these model a hardware operator; they are plumbing used
// to exercise the channel substrate itself.
package contexts

import (
	"fmt"

	"github.com/lattice-sim/dam-sim/channel"
	"github.com/lattice-sim/dam-sim/engine"
)

// Generator drains seq onto output, one element per cycle, raising each
// element's timestamp to tick+1 before enqueuing it and incrementing its own
// clock by one cycle per send. It may Run exactly once.
type Generator[T any] struct {
	engine.BaseContext
	seq    func(yield func(T) bool)
	output *channel.Sender[T]
	ran    bool
}

// NewGenerator builds a Generator over seq (an iter.Seq[T]-shaped sequence,
// accepted here as its underlying function type so callers on older toolchain
// configurations can still pass a plain closure).
func NewGenerator[T any](name string, seq func(yield func(T) bool), output *channel.Sender[T]) *Generator[T] {
	return &Generator[T]{BaseContext: engine.NewBaseContext(name), seq: seq, output: output}
}

func (g *Generator[T]) Init() error {
	return g.output.AttachSender(g.ID(), g.View())
}

func (g *Generator[T]) Run() error {
	defer g.Clock().Cleanup()
	defer g.output.Close()
	if g.ran {
		return fmt.Errorf("generator %s: %w", g.ID(), engine.ErrDuplicateExecution)
	}
	g.ran = true

	tm := g.Clock()
	var sendErr error
	g.seq(func(v T) bool {
		current := tm.Tick()
		if err := g.output.Enqueue(tm, channel.NewElement(current.AddTicks(1), v)); err != nil {
			sendErr = fmt.Errorf("generator %s: %w", g.ID(), err)
			return false
		}
		tm.IncrCycles(1)
		return true
	})
	return sendErr
}
