package main

import (
	"testing"

	"github.com/lattice-sim/dam-sim/contexts"
	"github.com/lattice-sim/dam-sim/engine"
)

// TestIntegration_GeneratorBroadcastFanOut exercises the same generator ->
// broadcast -> N checkers wiring main assembles, end to end.
func TestIntegration_GeneratorBroadcastFanOut(t *testing.T) {
	const elements = 64
	const fanout = 3

	builder := engine.NewProgramBuilder()
	producerSend, producerRecv := engine.Unbounded[int](builder, "producer-to-broadcast", 1, 1)
	producer := contexts.NewGenerator("producer", rangeSeq(elements), producerSend)
	builder.AddChild(producer)

	fanOut := contexts.NewBroadcast("broadcast", producerRecv)
	builder.AddChild(fanOut)

	for i := 0; i < fanout; i++ {
		send, recv, err := engine.Bounded[int](builder, "leg", 8, 1, 1)
		if err != nil {
			t.Fatalf("build leg %d: %v", i, err)
		}
		fanOut.AddTarget(send, nil)
		consumer := contexts.NewChecker("consumer", rangeSeq(elements), recv)
		builder.AddChild(consumer)
	}

	init, err := builder.Initialize(engine.InitializationOptions{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	executed, err := init.Run(engine.RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v (faults %v)", err, executed.Faults())
	}
	if executed.ElapsedCycles().Tick() < elements {
		t.Fatalf("elapsed cycles %d, want >= %d", executed.ElapsedCycles().Tick(), elements)
	}
	if len(executed.Faults()) != 0 {
		t.Fatalf("unexpected faults: %v", executed.Faults())
	}
	if producerSend.TotalSent() != elements {
		t.Fatalf("producer sent %d elements, want %d", producerSend.TotalSent(), elements)
	}
}

func TestRangeSeqStopsEarlyOnFalseYield(t *testing.T) {
	var seen []int
	rangeSeq(10)(func(v int) bool {
		seen = append(seen, v)
		return v < 2
	})
	if len(seen) != 3 {
		t.Fatalf("expected the sequence to stop after the yield returning false, got %v", seen)
	}
}
