package clock

import (
	"testing"
	"time"

	"github.com/lattice-sim/dam-sim/simtime"
)

func TestWaitUntilFastPath(t *testing.T) {
	tm := New()
	tm.IncrCycles(5)
	v := tm.View()
	got := v.WaitUntil(simtime.New(3))
	if got.Tick() != 5 {
		t.Fatalf("got %v, want tick 5", got)
	}
}

func TestWaitUntilBlocksUntilAdvance(t *testing.T) {
	tm := New()
	v := tm.View()

	done := make(chan simtime.Time, 1)
	go func() {
		done <- v.WaitUntil(simtime.New(10))
	}()

	select {
	case <-done:
		t.Fatalf("expected WaitUntil to block before the clock advances")
	case <-time.After(20 * time.Millisecond):
	}

	tm.IncrCycles(10)

	select {
	case got := <-done:
		if got.Tick() != 10 {
			t.Fatalf("got %v, want tick 10", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("WaitUntil did not unblock after the clock advanced")
	}
}

func TestCleanupUnblocksWaiters(t *testing.T) {
	tm := New()
	v := tm.View()

	done := make(chan simtime.Time, 1)
	go func() { done <- v.WaitUntil(simtime.New(1000)) }()

	time.Sleep(10 * time.Millisecond)
	tm.Cleanup()

	select {
	case got := <-done:
		if !got.IsInfinite() {
			t.Fatalf("expected an infinite time after Cleanup, got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("Cleanup did not unblock a waiter")
	}
}

func TestAdvanceOnlySignalsOnChange(t *testing.T) {
	tm := New()
	tm.IncrCycles(5)
	// Advancing backwards should be a no-op and must not panic or deadlock.
	tm.Advance(simtime.New(1))
	if tm.Tick().Tick() != 5 {
		t.Fatalf("expected tick to remain 5, got %v", tm.Tick())
	}
}

func TestParentViewReportsMinimum(t *testing.T) {
	a, b := New(), New()
	a.IncrCycles(10)
	b.IncrCycles(3)

	p := &ParentView{Children: []View{a.View(), b.View()}}
	if got := p.TickLowerBound(); got.Tick() != 3 {
		t.Fatalf("got %v, want min tick 3", got)
	}
}

func TestParentViewWaitUntilWaitsForSlowestChild(t *testing.T) {
	a, b := New(), New()
	p := &ParentView{Children: []View{a.View(), b.View()}}

	done := make(chan simtime.Time, 1)
	go func() { done <- p.WaitUntil(simtime.New(5)) }()

	a.IncrCycles(5)
	select {
	case <-done:
		t.Fatalf("expected ParentView.WaitUntil to still be blocked on b")
	case <-time.After(20 * time.Millisecond):
	}

	b.IncrCycles(5)
	select {
	case got := <-done:
		if got.Tick() != 5 {
			t.Fatalf("got %v, want tick 5", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("ParentView.WaitUntil did not unblock")
	}
}

func TestParentViewEmptyIsInfinite(t *testing.T) {
	p := &ParentView{}
	if !p.TickLowerBound().IsInfinite() {
		t.Fatalf("expected an empty ParentView to report infinite tick lower bound")
	}
}
