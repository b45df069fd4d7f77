package engine

import (
	"fmt"
	"testing"

	"github.com/lattice-sim/dam-sim/channel"
	"github.com/lattice-sim/dam-sim/clock"
)

// fakeContext is the minimal Context implementation used to exercise the
// builder/runner without depending on the contexts package.
type fakeContext struct {
	BaseContext
	run func(*clock.TimeManager) error
}

func newFakeContext(name string, run func(*clock.TimeManager) error) *fakeContext {
	return &fakeContext{BaseContext: NewBaseContext(name), run: run}
}

func (f *fakeContext) Init() error { return nil }

func (f *fakeContext) Run() error {
	defer f.Clock().Cleanup()
	if f.run == nil {
		return nil
	}
	return f.run(f.Clock())
}

func TestFlavorInferenceLinearIsAcyclic(t *testing.T) {
	b := NewProgramBuilder()

	a := newFakeContext("a", nil)
	c := newFakeContext("c", nil)
	sender, receiver, err := Bounded[int](b, "a-to-c", 4, 1, 1)
	if err != nil {
		t.Fatalf("Bounded: %v", err)
	}
	if err := sender.AttachSender(a.ID(), a.View()); err != nil {
		t.Fatal(err)
	}
	if err := receiver.AttachReceiver(c.ID(), c.View()); err != nil {
		t.Fatal(err)
	}
	b.AddChild(a)
	b.AddChild(c)

	if _, err := b.Initialize(InitializationOptions{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := sender.Flavor(); got != channel.FlavorAcyclic {
		t.Fatalf("got flavor %v, want Acyclic", got)
	}
}

func TestFlavorInferenceLoopIsCyclic(t *testing.T) {
	b := NewProgramBuilder()

	a := newFakeContext("a", nil)
	bee := newFakeContext("b", nil)

	fwdSender, fwdReceiver, err := Bounded[int](b, "a-to-b", 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	backSender, backReceiver, err := Bounded[int](b, "b-to-a", 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := fwdSender.AttachSender(a.ID(), a.View()); err != nil {
		t.Fatal(err)
	}
	if err := fwdReceiver.AttachReceiver(bee.ID(), bee.View()); err != nil {
		t.Fatal(err)
	}
	if err := backSender.AttachSender(bee.ID(), bee.View()); err != nil {
		t.Fatal(err)
	}
	if err := backReceiver.AttachReceiver(a.ID(), a.View()); err != nil {
		t.Fatal(err)
	}

	b.AddChild(a)
	b.AddChild(bee)

	if _, err := b.Initialize(InitializationOptions{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := fwdSender.Flavor(); got != channel.FlavorCyclic {
		t.Fatalf("got flavor %v, want Cyclic", got)
	}
	if got := backSender.Flavor(); got != channel.FlavorCyclic {
		t.Fatalf("got flavor %v, want Cyclic", got)
	}
}

func TestInitializeFailsOnUnregisteredEndpoint(t *testing.T) {
	b := NewProgramBuilder()
	a := newFakeContext("a", nil)

	sender, receiver, err := Bounded[int](b, "orphan", 1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.AttachSender(a.ID(), a.View()); err != nil {
		t.Fatal(err)
	}
	// receiver attaches to an identifier never added via AddChild.
	if err := receiver.AttachReceiver(channel.NewIdentifier("ghost"), a.View()); err != nil {
		t.Fatal(err)
	}
	b.AddChild(a)

	if _, err := b.Initialize(InitializationOptions{}); err == nil {
		t.Fatalf("expected Initialize to fail on an unregistered receiver endpoint")
	}
}

func TestBoundedRejectsZeroCapacity(t *testing.T) {
	b := NewProgramBuilder()
	if _, _, err := Bounded[int](b, "bad", 0, 1, 1); err == nil {
		t.Fatalf("expected an error for capacity 0")
	}
}

func TestRunRejectsSecondExecution(t *testing.T) {
	b := NewProgramBuilder()
	a := newFakeContext("a", func(tm *clock.TimeManager) error { return nil })
	b.AddChild(a)

	init, err := b.Initialize(InitializationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := init.Run(RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := init.Run(RunOptions{}); err != ErrDuplicateExecution {
		t.Fatalf("got %v, want ErrDuplicateExecution", err)
	}
}

func TestRunCapturesPanicWithContextIdentity(t *testing.T) {
	b := NewProgramBuilder()
	boom := newFakeContext("boom", func(tm *clock.TimeManager) error {
		panic("kaboom")
	})
	calm := newFakeContext("calm", func(tm *clock.TimeManager) error {
		tm.IncrCycles(3)
		return nil
	})
	b.AddChild(boom)
	b.AddChild(calm)

	init, err := b.Initialize(InitializationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	executed, runErr := init.Run(RunOptions{})
	if runErr == nil {
		t.Fatalf("expected Run to surface the panic as an error")
	}
	if len(executed.Faults()) == 0 {
		t.Fatalf("expected at least one fault recorded")
	}
	found := false
	for _, f := range executed.Faults() {
		if f == fmt.Sprintf("%s: kaboom", boom.ID()) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected fault attributed to %s, got %v", boom.ID(), executed.Faults())
	}
}

func TestRunReportsElapsedCycles(t *testing.T) {
	b := NewProgramBuilder()
	a := newFakeContext("a", func(tm *clock.TimeManager) error {
		tm.IncrCycles(7)
		return nil
	})
	b.AddChild(a)

	init, err := b.Initialize(InitializationOptions{})
	if err != nil {
		t.Fatal(err)
	}
	executed, err := init.Run(RunOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if executed.ElapsedCycles().IsInfinite() {
		// Run() marks the clock done via Cleanup, so IsInfinite is
		// expected; the diagnostic tick must still be at least 7.
	}
	if got := executed.ElapsedCycles().Tick(); got < 7 {
		t.Fatalf("got elapsed tick %d, want >= 7", got)
	}
}
