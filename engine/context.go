package engine

import (
	"github.com/lattice-sim/dam-sim/channel"
	"github.com/lattice-sim/dam-sim/clock"
)

// Context is one independently scheduled unit of simulation: it owns exactly
// one logical clock and some number of channel endpoints, and runs on its own
// goroutine once a ProgramBuilder is Initialized and Run.
type Context interface {
	// ID is this context's diagnostic identifier, also used as the node
	// identity in the dependency graph flavor inference builds over the
	// channels registered with a ProgramBuilder.
	ID() channel.Identifier

	// View returns a read-only handle onto this context's own clock, handed
	// to channels and sibling contexts that need to wait on its progress.
	View() clock.View

	// Init runs once, before any context's Run starts, giving a context a
	// chance to attach its channel endpoints and validate its configuration.
	Init() error

	// Run is the context's main loop. It returns nil on a clean finish (the
	// context drained everything it expected and its channels closed), or a
	// non-nil error that is recorded as a fault and returned from
	// Initialized.Run; other contexts keep running. Run must leave its own
	// clock marked done (via TimeManager.Cleanup) before returning, including
	// on an error path or a panic — contexts built on BaseContext do this
	// with a deferred Clock().Cleanup() at the top of Run.
	Run() error
}

// BaseContext is embedded by concrete Context implementations (see the
// contexts package) to provide the identifier/clock plumbing every context
// needs, so each concrete type only has to implement Init and Run.
type BaseContext struct {
	id    channel.Identifier
	clock *clock.TimeManager
}

// NewBaseContext mints a fresh identifier and clock for an embedding context.
func NewBaseContext(name string) BaseContext {
	return BaseContext{id: channel.NewIdentifier(name), clock: clock.New()}
}

func (b *BaseContext) ID() channel.Identifier { return b.id }
func (b *BaseContext) View() clock.View       { return b.clock.View() }

// Clock exposes the owned TimeManager so an embedding context's Run method
// can drive its own clock (Tick/Advance/IncrCycles) and arrange cleanup.
func (b *BaseContext) Clock() *clock.TimeManager { return b.clock }
