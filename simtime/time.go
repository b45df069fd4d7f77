// Package simtime implements the logical timestamp used throughout the
// simulator: a monotonically ordered (tick, done) pair, plus a lock-free
// concurrent container for it.
package simtime

import (
	"fmt"
	"sync/atomic"
)

// Time is an immutable logical timestamp. A context that has finished is
// represented with done set to true; the underlying tick is preserved even
// when done, purely for diagnostics (so a "finished at tick 42" can still be
// logged).
type Time struct {
	tick uint64
	done bool
}

// New constructs a non-done timestamp at the given tick.
func New(tick uint64) Time {
	return Time{tick: tick}
}

// Infinite constructs a done timestamp. Its tick is zero; use Tick() on the
// value you marked done if you need the tick it was done at.
func Infinite() Time {
	return Time{done: true}
}

// Tick returns the underlying tick count, regardless of whether Time is done.
func (t Time) Tick() uint64 { return t.tick }

// IsInfinite reports whether this timestamp represents a finished context.
func (t Time) IsInfinite() bool { return t.done }

// SetInfinite returns a copy of t marked done, preserving the tick.
func (t Time) SetInfinite() Time {
	t.done = true
	return t
}

// Equal reports equality per the spec: two done times are always equal to
// each other; otherwise equality requires equal ticks.
func (t Time) Equal(o Time) bool {
	if t.done && o.done {
		return true
	}
	if t.done != o.done {
		return false
	}
	return t.tick == o.tick
}

// Less reports whether t sorts strictly before o. done sorts strictly
// greater than any non-done value.
func (t Time) Less(o Time) bool {
	if t.Equal(o) {
		return false
	}
	if t.done {
		return false
	}
	if o.done {
		return true
	}
	return t.tick < o.tick
}

// Compare returns -1, 0, or 1 following the usual comparator contract.
func (t Time) Compare(o Time) int {
	switch {
	case t.Equal(o):
		return 0
	case t.Less(o):
		return -1
	default:
		return 1
	}
}

// Max returns whichever of t, o sorts greater.
func Max(t, o Time) Time {
	if t.Less(o) {
		return o
	}
	return t
}

// Min returns whichever of t, o sorts lesser.
func Min(t, o Time) Time {
	if o.Less(t) {
		return o
	}
	return t
}

// AddTicks adds a u64 cycle count to the tick, preserving done.
func (t Time) AddTicks(n uint64) Time {
	t.tick += n
	return t
}

// Add sums two Times: ticks add, done is OR'd.
func (t Time) Add(o Time) Time {
	return Time{tick: t.tick + o.tick, done: t.done || o.done}
}

// SubTicks subtracts a u64 cycle count from the tick. Panics if n > t.Tick(),
// mirroring the original's debug-assert — callers in this package never
// subtract past zero.
func (t Time) SubTicks(n uint64) Time {
	if n > t.tick {
		panic(fmt.Sprintf("simtime: cannot subtract %d from tick %d", n, t.tick))
	}
	t.tick -= n
	return t
}

func (t Time) String() string {
	if t.done {
		return fmt.Sprintf("done@%d", t.tick)
	}
	return fmt.Sprintf("%d", t.tick)
}

// AtomicTime is a concurrent container for Time. The tick is monotonically
// non-decreasing and done is sticky: once set it is never cleared. Reads from
// outside the owning goroutine should use Load (acquire semantics via
// atomic.Value-style load ordering); the owner may use LoadRelaxed as a fast
// path.
type AtomicTime struct {
	tick atomic.Uint64
	done atomic.Bool
}

// Load reads the current time with acquire-like semantics: the done flag is
// read before the tick, so a caller that observes done=true is guaranteed to
// see a tick at least as large as the one set before done was flipped.
func (a *AtomicTime) Load() Time {
	done := a.done.Load()
	tick := a.tick.Load()
	return Time{tick: tick, done: done}
}

// LoadRelaxed is identical to Load on the memory model Go's atomics provide
// (there is no weaker ordering exposed by sync/atomic), but documents call
// sites that only need a same-goroutine fast-path read.
func (a *AtomicTime) LoadRelaxed() Time {
	return a.Load()
}

// SetInfinite marks the container done. Idempotent.
func (a *AtomicTime) SetInfinite() {
	a.done.Store(true)
}

// TryAdvance advances the stored time to rhs if rhs is strictly greater,
// honoring the sticky-done rule (once done, never un-done; becoming done is
// itself a valid advance). Reports whether the stored state changed.
func (a *AtomicTime) TryAdvance(rhs Time) bool {
	if a.done.Load() {
		return false
	}
	if rhs.done {
		// The underlying tick is left as-is: a context that goes done
		// retains whatever tick it last advanced to, not rhs's.
		a.done.Store(true)
		return true
	}
	for {
		old := a.tick.Load()
		if old >= rhs.tick {
			return false
		}
		if a.tick.CompareAndSwap(old, rhs.tick) {
			return true
		}
	}
}

// IncrCycles advances the tick by n unconditionally. Only the owning context
// may call this.
func (a *AtomicTime) IncrCycles(n uint64) {
	a.tick.Add(n)
}
