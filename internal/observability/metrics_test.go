package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSimCollectorRecordSendUpdatesCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.RecordSend("nums", "acyclic", 1)
	collector.RecordSend("nums", "acyclic", 2)

	if got := testutil.ToFloat64(collector.ChannelSent.WithLabelValues("nums", "acyclic")); got != 2 {
		t.Fatalf("sim_channel_sent_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.ChannelInflight.WithLabelValues("nums")); got != 2 {
		t.Fatalf("sim_channel_inflight = %v, want 2", got)
	}
}

func TestSimCollectorRecordReceiveUpdatesCountersAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.RecordReceive("nums", "cyclic", 0)

	if got := testutil.ToFloat64(collector.ChannelReceived.WithLabelValues("nums", "cyclic")); got != 1 {
		t.Fatalf("sim_channel_received_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.ChannelInflight.WithLabelValues("nums")); got != 0 {
		t.Fatalf("sim_channel_inflight = %v, want 0", got)
	}
}

func TestSimCollectorRecordParkAndAdvance(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}

	collector.RecordPark("consumer")
	collector.RecordPark("consumer")
	collector.RecordAdvance(4)

	if got := testutil.ToFloat64(collector.ContextParks.WithLabelValues("consumer")); got != 2 {
		t.Fatalf("sim_context_parks_total = %v, want 2", got)
	}
}

func TestSimCollectorNilReceiverIsSafe(t *testing.T) {
	var collector *SimCollector
	collector.RecordSend("x", "acyclic", 1)
	collector.RecordReceive("x", "acyclic", 0)
	collector.RecordPark("x")
	collector.RecordAdvance(1)
}

func TestSimCollectorHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	collector.RecordSend("legA", "acyclic", 3)
	collector.RecordReceive("legA", "acyclic", 2)
	collector.RecordPark("consumer")
	collector.RecordAdvance(8)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"sim_channel_sent_total",
		"sim_channel_received_total",
		"sim_channel_inflight",
		"sim_context_parks_total",
		"sim_tick_advance_ticks",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestNewSimCollectorReusesAlreadyRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("first NewSimCollector: %v", err)
	}
	second, err := NewSimCollector(reg)
	if err != nil {
		t.Fatalf("second NewSimCollector against the same registerer: %v", err)
	}
	second.RecordSend("dup", "acyclic", 1)
	if got := testutil.ToFloat64(first.ChannelSent.WithLabelValues("dup", "acyclic")); got != 1 {
		t.Fatalf("expected the second collector to share the first's registered vector, got %v", got)
	}
}
