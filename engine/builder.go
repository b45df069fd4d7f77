package engine

import (
	"fmt"
	"sync"

	"github.com/lattice-sim/dam-sim/channel"
)

// channelHandle is the subset of *channel.Sender[T] (for any T) ProgramBuilder
// needs for flavor inference, kept non-generic so heterogeneous channels can
// share one registry slice. channel.Sender[T]'s existing ID/SenderID/
// ReceiverID/SetFlavor methods satisfy this structurally for every T.
type channelHandle interface {
	ID() channel.Identifier
	SenderID() channel.Identifier
	ReceiverID() channel.Identifier
	SetFlavor(channel.Flavor)
	SetMetrics(channel.MetricsSink)
}

// ProgramBuilder assembles a program: a set of contexts and the channels
// wiring them together. Channel constructors are free functions, not methods,
// because Go methods cannot carry their own type parameters; Bounded/
// Unbounded/Void take the builder as their first argument instead.
type ProgramBuilder struct {
	mu       sync.Mutex
	contexts []Context
	channels []channelHandle
	metrics  channel.MetricsSink
}

// NewProgramBuilder starts an empty program.
func NewProgramBuilder() *ProgramBuilder {
	return &ProgramBuilder{}
}

// WithMetrics attaches a sink that every channel registered with this builder
// will report its send/receive events to once Initialize runs. Returns the
// builder for chaining.
func (b *ProgramBuilder) WithMetrics(sink channel.MetricsSink) *ProgramBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metrics = sink
	return b
}

func (b *ProgramBuilder) registerChannel(h channelHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, h)
}

// AddChild registers a context with the program. Every context that will
// attach to a channel endpoint must be added before Initialize runs.
func (b *ProgramBuilder) AddChild(ctx Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contexts = append(b.contexts, ctx)
}

// Bounded creates a capacity-limited channel's sender/receiver pair and
// registers it for flavor inference. capacity must be at least 1.
func Bounded[T any](b *ProgramBuilder, name string, capacity, sendLatency, responseLatency uint64) (*channel.Sender[T], *channel.Receiver[T], error) {
	if capacity < 1 {
		return nil, nil, fmt.Errorf("engine: bounded channel %q: capacity must be >= 1: %w", name, ErrValidationFailure)
	}
	sender, receiver := channel.NewBounded[T](name, capacity, sendLatency, responseLatency)
	b.registerChannel(sender)
	return sender, receiver, nil
}

// Unbounded creates an unbounded channel's sender/receiver pair and registers
// it for flavor inference.
func Unbounded[T any](b *ProgramBuilder, name string, sendLatency, responseLatency uint64) (*channel.Sender[T], *channel.Receiver[T]) {
	sender, receiver := channel.NewUnbounded[T](name, sendLatency, responseLatency)
	b.registerChannel(sender)
	return sender, receiver
}

// Void creates a no-op sink sender. There is no corresponding receiver (per
// spec.md's own API surface: void<T>() returns only a Sender), so a void
// channel never participates in the context dependency graph and is not
// registered for flavor inference.
func Void[T any](name string) *channel.Sender[T] {
	return channel.NewVoid[T](name)
}

// Initialize runs every context's Init, then classifies each registered
// channel Acyclic or Cyclic by finding strongly connected components of the
// context dependency graph (an edge A -> B for every channel whose sender
// attached to A and receiver attached to B). A channel whose endpoints sit in
// the same component participates in some cycle and is classified Cyclic;
// otherwise it is provably Acyclic. Any channel with an endpoint that never
// attached, or attached to an identifier unknown to this builder, fails
// initialization with ErrEndpointUnregistered.
func (b *ProgramBuilder) Initialize(opts InitializationOptions) (*Initialized, error) {
	for _, ctx := range b.contexts {
		if err := ctx.Init(); err != nil {
			return nil, fmt.Errorf("engine: init context %s: %w", ctx.ID(), err)
		}
	}

	known := make(map[uint64]struct{}, len(b.contexts))
	nodes := make([]uint64, 0, len(b.contexts))
	for _, ctx := range b.contexts {
		id := ctx.ID().ID()
		known[id] = struct{}{}
		nodes = append(nodes, id)
	}

	adj := make(map[uint64][]uint64, len(b.channels))
	for _, ch := range b.channels {
		sid, rid := ch.SenderID(), ch.ReceiverID()
		if sid.IsZero() {
			return nil, fmt.Errorf("engine: channel %s: sender never attached: %w", ch.ID(), ErrEndpointUnregistered)
		}
		if rid.IsZero() {
			return nil, fmt.Errorf("engine: channel %s: receiver never attached: %w", ch.ID(), ErrEndpointUnregistered)
		}
		if _, ok := known[sid.ID()]; !ok {
			return nil, fmt.Errorf("engine: channel %s: sender %s is not a registered context: %w", ch.ID(), sid, ErrEndpointUnregistered)
		}
		if _, ok := known[rid.ID()]; !ok {
			return nil, fmt.Errorf("engine: channel %s: receiver %s is not a registered context: %w", ch.ID(), rid, ErrEndpointUnregistered)
		}
		adj[sid.ID()] = append(adj[sid.ID()], rid.ID())
	}

	comp := tarjanSCC(nodes, adj)
	for _, ch := range b.channels {
		sid, rid := ch.SenderID().ID(), ch.ReceiverID().ID()
		if comp[sid] == comp[rid] {
			ch.SetFlavor(channel.FlavorCyclic)
		} else {
			ch.SetFlavor(channel.FlavorAcyclic)
		}
		if b.metrics != nil {
			ch.SetMetrics(b.metrics)
		}
	}

	return &Initialized{contexts: b.contexts}, nil
}

// InitializationOptions is reserved for future flavor-inference policy knobs
// (e.g. forcing every channel Cyclic for debugging); empty for now.
type InitializationOptions struct{}
