package contexts

import (
	"fmt"

	"github.com/lattice-sim/dam-sim/clock"
	"github.com/lattice-sim/dam-sim/engine"
)

// Function wraps an arbitrary closure as a one-shot context, mostly useful
// for test drivers and glue logic that doesn't warrant its own named type.
type Function struct {
	engine.BaseContext
	runFn func(*clock.TimeManager) error
	ran   bool
}

// NewFunction builds a Function context; runFn may be nil, in which case Run
// is a no-op beyond marking its clock done.
func NewFunction(name string, runFn func(*clock.TimeManager) error) *Function {
	return &Function{BaseContext: engine.NewBaseContext(name), runFn: runFn}
}

func (f *Function) Init() error { return nil }

func (f *Function) Run() error {
	defer f.Clock().Cleanup()
	if f.ran {
		return fmt.Errorf("function %s: %w", f.ID(), engine.ErrDuplicateExecution)
	}
	f.ran = true
	if f.runFn == nil {
		return nil
	}
	return f.runFn(f.Clock())
}
