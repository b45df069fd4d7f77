// Package clock implements the per-context logical clock (TimeManager) and
// the read-only handle other contexts use to observe it (View). A
// context owns exactly one TimeManager; every other context that needs to
// synchronize against it holds a View obtained from it.
package clock

import (
	"sync"

	"github.com/lattice-sim/dam-sim/simtime"
)

// View is a read-only handle onto another context's clock.
type View interface {
	// WaitUntil blocks the caller until the viewed context's tick reaches at
	// least when, or the viewed context finishes (done) before reaching it.
	// It never busy-spins.
	WaitUntil(when simtime.Time) simtime.Time

	// TickLowerBound returns a tick known to be <= the viewed context's
	// actual current tick. The viewed context may have progressed since this
	// value was read.
	TickLowerBound() simtime.Time
}

// TimeManager owns one context's logical clock. Only the owning goroutine may
// call Tick, IncrCycles, and Cleanup; View and the View's methods are safe
// for concurrent use by any number of other goroutines.
type TimeManager struct {
	mu   sync.Mutex
	cond *sync.Cond
	time simtime.AtomicTime
}

// New constructs a TimeManager starting at tick 0.
func New() *TimeManager {
	tm := &TimeManager{}
	tm.cond = sync.NewCond(&tm.mu)
	return tm
}

// Tick reads the current tick. Safe only from the owning goroutine (it is a
// relaxed, same-thread fast path); other goroutines must go through a View.
func (tm *TimeManager) Tick() simtime.Time {
	return tm.time.LoadRelaxed()
}

// IncrCycles advances the clock by n ticks unconditionally and wakes any
// waiter whose threshold has now been crossed. Must only be called by the
// owning context.
func (tm *TimeManager) IncrCycles(n uint64) {
	tm.time.IncrCycles(n)
	tm.signal()
}

// Advance moves the clock forward to max(current, t), waking waiters only if
// the stored time actually changed.
func (tm *TimeManager) Advance(t simtime.Time) {
	if tm.time.TryAdvance(t) {
		tm.signal()
	}
}

// Cleanup marks the clock done and wakes every waiter. Idempotent; safe to
// call more than once (e.g. once explicitly at the end of Context.Run, and
// once more via a defer as a safety net).
func (tm *TimeManager) Cleanup() {
	tm.time.SetInfinite()
	tm.signal()
}

func (tm *TimeManager) signal() {
	tm.mu.Lock()
	tm.cond.Broadcast()
	tm.mu.Unlock()
}

// View returns a read-only handle sharing this TimeManager's underlying
// clock. Safe to call concurrently with the owner's use of tm.
func (tm *TimeManager) View() View {
	return &basicView{tm: tm}
}

// basicView implements View by delegating to the owning TimeManager's
// condition variable. wait_until in the original source registers a
// targeted wakeup in a signal list keyed by the threshold tick and parks the
// calling OS thread; sync.Cond.Broadcast + a loop achieves the same effect
// (every waiter re-checks its own threshold against the now-current tick)
// without hand-rolling a park/unpark primitive the standard library already
// provides for this exact purpose.
type basicView struct {
	tm *TimeManager
}

func (v *basicView) TickLowerBound() simtime.Time {
	return v.tm.time.Load()
}

func (v *basicView) WaitUntil(when simtime.Time) simtime.Time {
	// Fast path: avoid the mutex entirely if we already satisfy when.
	if cur := v.tm.time.Load(); !cur.Less(when) {
		return cur
	}

	v.tm.mu.Lock()
	defer v.tm.mu.Unlock()
	for {
		cur := v.tm.time.Load()
		if !cur.Less(when) {
			return cur
		}
		v.tm.cond.Wait()
	}
}

// ParentView aggregates several child views into one: WaitUntil and
// TickLowerBound both report the minimum across all children, i.e. "the
// slowest of my children". Used by fan-out contexts (contexts.Broadcast) that
// need a single view representing every downstream consumer at once.
type ParentView struct {
	Children []View
}

func (p *ParentView) TickLowerBound() simtime.Time {
	if len(p.Children) == 0 {
		return simtime.Infinite()
	}
	min := simtime.Infinite()
	for _, c := range p.Children {
		min = simtime.Min(min, c.TickLowerBound())
	}
	return min
}

func (p *ParentView) WaitUntil(when simtime.Time) simtime.Time {
	if len(p.Children) == 0 {
		return when
	}
	min := simtime.Infinite()
	for _, c := range p.Children {
		min = simtime.Min(min, c.WaitUntil(when))
	}
	return min
}
