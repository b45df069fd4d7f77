package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lattice-sim/dam-sim/internal/logging"
	"github.com/lattice-sim/dam-sim/simtime"
)

var tracer = otel.Tracer("github.com/lattice-sim/dam-sim/engine")

// Mode selects how a context's goroutine is scheduled.
type Mode int

const (
	// ModeSimple is the default: the context's goroutine runs like any other.
	ModeSimple Mode = iota
	// ModeFIFO calls runtime.LockOSThread before running the context, which
	// at least prevents the Go scheduler from migrating it between OS
	// threads. This is advisory, not a real SCHED_FIFO elevation.
	ModeFIFO
)

// LoggingMode selects the event-log backend for a run.
type LoggingMode int

const (
	// LoggingNone is the only backend this repo implements.
	LoggingNone LoggingMode = iota
	// LoggingMongo is a placeholder for a replay/query event log; out of
	// scope here (see SPEC_FULL.md §6).
	LoggingMongo
)

// ContextMetricsSink observes per-context run events: how many ticks a
// context's clock advanced over the course of its Run. Parking (a context
// blocked inside clock.View.WaitUntil) is not observed here; the clock
// package is deliberately metrics-agnostic, the same way its condition
// variable wakeup path carries no caller identity.
type ContextMetricsSink interface {
	RecordAdvance(ticks uint64)
}

// RunOptions configures a single Run of an Initialized program.
type RunOptions struct {
	Mode    Mode
	Logging LoggingMode
	Logger  logging.Logger     // defaults to logging.Noop() if nil
	Metrics ContextMetricsSink // optional; nil disables per-context tick metrics
}

// Initialized is a program whose contexts have been Init'd and whose channels
// have been classified. It supports exactly one Run.
type Initialized struct {
	contexts []Context

	mu  sync.Mutex
	ran bool
}

// Run spawns one goroutine per context under an errgroup.Group, waits for all
// of them to finish, and reports the result as an Executed summary. A panic
// in any context's Run is recovered, attributed to that context's identifier,
// and surfaces as the returned error (and in Executed.Faults); other contexts
// already in flight are allowed to finish naturally since canceling them
// would require cooperative cancellation this package does not impose on
// Context implementations.
func (in *Initialized) Run(opts RunOptions) (*Executed, error) {
	in.mu.Lock()
	if in.ran {
		in.mu.Unlock()
		return nil, ErrDuplicateExecution
	}
	in.ran = true
	in.mu.Unlock()

	logger := opts.Logger
	if logger == nil {
		logger = logging.Noop()
	}

	g, gctx := errgroup.WithContext(context.Background())
	var faultsMu sync.Mutex
	var faults []string

	for _, ctx := range in.contexts {
		ctx := ctx
		g.Go(func() (err error) {
			if opts.Mode == ModeFIFO {
				runtime.LockOSThread()
				defer runtime.UnlockOSThread()
			}
			_, span := tracer.Start(gctx, "context.run", trace.WithAttributes(
				attribute.String("dam_sim.context_id", ctx.ID().String()),
			))
			defer span.End()

			defer func() {
				if r := recover(); r != nil {
					faultsMu.Lock()
					faults = append(faults, fmt.Sprintf("%s: %v", ctx.ID(), r))
					faultsMu.Unlock()
					err = fmt.Errorf("engine: context %s panicked: %v", ctx.ID(), r)
					span.RecordError(err)
					logger.Error(gctx, "context panicked", logging.String("context", ctx.ID().String()), logging.Any("panic", r))
				}
			}()

			logger.Debug(gctx, "context starting", logging.String("context", ctx.ID().String()))
			runErr := ctx.Run()
			if runErr != nil {
				span.RecordError(runErr)
				logger.Warn(gctx, "context finished with error", logging.String("context", ctx.ID().String()), logging.Any("error", runErr))
				faultsMu.Lock()
				faults = append(faults, fmt.Sprintf("%s: %v", ctx.ID(), runErr))
				faultsMu.Unlock()
			} else {
				logger.Debug(gctx, "context finished", logging.String("context", ctx.ID().String()))
			}
			if opts.Metrics != nil {
				opts.Metrics.RecordAdvance(ctx.View().TickLowerBound().Tick())
			}
			return runErr
		})
	}

	runErr := g.Wait()

	elapsed := simtime.New(0)
	for _, ctx := range in.contexts {
		tlb := ctx.View().TickLowerBound()
		// Done times all compare equal, so break that tie on the tick.
		if elapsed.Less(tlb) || (tlb.IsInfinite() && tlb.Tick() > elapsed.Tick()) {
			elapsed = tlb
		}
	}

	return &Executed{elapsedCycles: elapsed, faults: faults}, runErr
}

// Executed is the summary of a completed Run.
type Executed struct {
	elapsedCycles simtime.Time
	faults        []string
}

// ElapsedCycles is the highest tick-lower-bound observed across every
// context once Run returned.
func (e *Executed) ElapsedCycles() simtime.Time { return e.elapsedCycles }

// Faults lists every context that finished with a non-nil error or panic,
// formatted as "<context>: <cause>". Empty on a fully clean run.
func (e *Executed) Faults() []string { return e.faults }
