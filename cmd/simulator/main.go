package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/lattice-sim/dam-sim/contexts"
	"github.com/lattice-sim/dam-sim/engine"
	"github.com/lattice-sim/dam-sim/internal/logging"
	"github.com/lattice-sim/dam-sim/internal/observability"
)

func main() {
	elements := flag.Int("elements", 1000, "number of elements the generator produces")
	fanout := flag.Int("fanout", 4, "number of downstream consumer contexts fed by the broadcast")
	capacity := flag.Uint64("capacity", 32, "capacity of each bounded leg feeding a consumer")
	sendLatency := flag.Uint64("send-latency", 1, "ticks added to an element's timestamp on enqueue")
	responseLatency := flag.Uint64("response-latency", 1, "ticks added to the receiver's tick when a full cyclic sender schedules its next check")
	metricsAddr := flag.String("metrics-addr", ":9090", "address to serve Prometheus /metrics on; empty disables it")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")

	flag.Parse()

	log := logging.New(logging.Config{Level: *logLevel})
	ctx := context.Background()

	tracingShutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init tracing: %v\n", err)
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, tracingShutdown, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init metrics: %v\n", err)
		os.Exit(1)
	}
	var metricsServer *http.Server
	if *metricsAddr != "" {
		metricsServer = serveMetrics(*metricsAddr, collector, log)
		defer metricsServer.Close()
	}

	builder := engine.NewProgramBuilder().WithMetrics(collector)

	producerSend, producerRecv := engine.Unbounded[int](builder, "producer-to-broadcast", *sendLatency, *responseLatency)
	producer := contexts.NewGenerator("producer", rangeSeq(*elements), producerSend)
	builder.AddChild(producer)

	fanOut := contexts.NewBroadcast("broadcast", producerRecv)
	builder.AddChild(fanOut)

	for i := 0; i < *fanout; i++ {
		send, recv, err := engine.Bounded[int](builder, fmt.Sprintf("leg-%d", i), *capacity, *sendLatency, *responseLatency)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build leg %d: %v\n", i, err)
			os.Exit(1)
		}
		fanOut.AddTarget(send, nil)
		consumer := contexts.NewChecker(fmt.Sprintf("consumer-%d", i), rangeSeq(*elements), recv)
		builder.AddChild(consumer)
	}

	init, err := builder.Initialize(engine.InitializationOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "initialize program: %v\n", err)
		os.Exit(1)
	}

	log.Info(ctx, "starting simulation",
		logging.Int("elements", *elements),
		logging.Int("fanout", *fanout),
	)

	start := time.Now()
	executed, err := init.Run(engine.RunOptions{Logger: log, Metrics: collector})
	wall := time.Since(start)

	if err != nil {
		log.Error(ctx, "simulation finished with faults",
			logging.Any("error", err),
			logging.Any("faults", executed.Faults()),
		)
		os.Exit(1)
	}

	fmt.Printf(
		"Simulation complete: elapsed=%d ticks wall=%s elements=%d fanout=%d faults=%d\n",
		executed.ElapsedCycles().Tick(), wall, *elements, *fanout, len(executed.Faults()),
	)
}

// rangeSeq yields 0..n-1, the shape both contexts.Generator and
// contexts.Checker expect for their element sequences.
func rangeSeq(n int) func(yield func(int) bool) {
	return func(yield func(int) bool) {
		for i := 0; i < n; i++ {
			if !yield(i) {
				return
			}
		}
	}
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server stopped", logging.String("error", err.Error()))
		}
	}()
	return srv
}
