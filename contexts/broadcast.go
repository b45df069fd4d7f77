package contexts

import (
	"fmt"

	"github.com/lattice-sim/dam-sim/channel"
	"github.com/lattice-sim/dam-sim/clock"
	"github.com/lattice-sim/dam-sim/engine"
)

// Broadcast fans one Receiver out to N Senders: channels are single-producer
// single-consumer, so this is the only way to deliver the same element to
// multiple downstream contexts.
type Broadcast[T any] struct {
	engine.BaseContext
	input      *channel.Receiver[T]
	targets    []*channel.Sender[T]
	downstream []clock.View
}

// NewBroadcast builds a broadcast context reading from input. Call AddTarget
// for every fan-out destination before the program is Initialized.
func NewBroadcast[T any](name string, input *channel.Receiver[T]) *Broadcast[T] {
	return &Broadcast[T]{BaseContext: engine.NewBaseContext(name), input: input}
}

// AddTarget registers a fan-out destination. downstreamView is the clock view
// of the context that owns target's receiving end, used only to build
// DownstreamView's aggregate; it plays no part in Broadcast's own Enqueue/
// Dequeue loop.
func (b *Broadcast[T]) AddTarget(target *channel.Sender[T], downstreamView clock.View) {
	b.targets = append(b.targets, target)
	b.downstream = append(b.downstream, downstreamView)
}

// DownstreamView aggregates every target's downstream clock view into one:
// its TickLowerBound/WaitUntil report the slowest (minimum) progress across
// all fan-out consumers. Useful for a supervising context that wants to know
// whether every consumer of this broadcast has caught up, without depending
// on any single one of them.
func (b *Broadcast[T]) DownstreamView() clock.View {
	children := make([]clock.View, len(b.downstream))
	copy(children, b.downstream)
	return &clock.ParentView{Children: children}
}

func (b *Broadcast[T]) Init() error {
	if err := b.input.AttachReceiver(b.ID(), b.View()); err != nil {
		return err
	}
	for _, target := range b.targets {
		if err := target.AttachSender(b.ID(), b.View()); err != nil {
			return err
		}
	}
	return nil
}

func (b *Broadcast[T]) Run() error {
	defer b.Clock().Cleanup()
	defer b.closeTargets()
	tm := b.Clock()
	for {
		res := b.input.Dequeue(tm)
		elem, ok := res.Something()
		if !ok {
			return nil
		}
		out := elem.UpdateTime(tm.Tick().AddTicks(1))
		for _, target := range b.targets {
			if err := target.Enqueue(tm, out); err != nil {
				return fmt.Errorf("broadcast %s: %w", b.ID(), err)
			}
		}
		tm.IncrCycles(1)
	}
}

// closeTargets closes every fan-out destination so each downstream receiver
// observes Closed once this broadcast stops reading, rather than blocking
// forever on a channel no context will ever send on again.
func (b *Broadcast[T]) closeTargets() {
	for _, target := range b.targets {
		target.Close()
	}
}
