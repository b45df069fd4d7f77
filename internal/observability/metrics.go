package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SimCollector bundles the Prometheus metrics exported around a simulation
// run: per-channel traffic and in-flight depth, per-context parking events,
// and a histogram of how many ticks each context's clock advanced over its
// whole Run.
type SimCollector struct {
	gatherer prometheus.Gatherer

	ChannelSent     *prometheus.CounterVec
	ChannelReceived *prometheus.CounterVec
	ChannelInflight *prometheus.GaugeVec
	ContextParks    *prometheus.CounterVec
	TickAdvance     prometheus.Histogram
}

// NewSimCollector registers the simulator's Prometheus metrics against reg,
// defaulting to the global registry when reg is nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_channel_sent_total",
		Help: "Total number of elements enqueued, labeled by channel id and flavor.",
	}, []string{"channel", "flavor"})
	sent, err := registerCounterVec(reg, sent, "sim_channel_sent_total")
	if err != nil {
		return nil, err
	}

	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_channel_received_total",
		Help: "Total number of elements dequeued, labeled by channel id and flavor.",
	}, []string{"channel", "flavor"})
	received, err = registerCounterVec(reg, received, "sim_channel_received_total")
	if err != nil {
		return nil, err
	}

	inflight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sim_channel_inflight",
		Help: "Current in-flight (sent - received) element count per channel.",
	}, []string{"channel"})
	inflight, err = registerGaugeVec(reg, inflight, "sim_channel_inflight")
	if err != nil {
		return nil, err
	}

	parks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_context_parks_total",
		Help: "Total number of times a context parked waiting on another context's clock, labeled by context id.",
	}, []string{"context"})
	parks, err = registerCounterVec(reg, parks, "sim_context_parks_total")
	if err != nil {
		return nil, err
	}

	advance := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sim_tick_advance_ticks",
		Help:    "Distribution of tick counts each context's clock advanced over its whole Run.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	advance, err = registerHistogram(reg, advance, "sim_tick_advance_ticks")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:        gatherer,
		ChannelSent:     sent,
		ChannelReceived: received,
		ChannelInflight: inflight,
		ContextParks:    parks,
		TickAdvance:     advance,
	}, nil
}

// RecordSend increments the sent counter and sets the in-flight gauge for a
// channel to its current delta (spec's currentSRD).
func (c *SimCollector) RecordSend(channelID, flavor string, inflight int64) {
	if c == nil {
		return
	}
	if c.ChannelSent != nil {
		c.ChannelSent.WithLabelValues(channelID, flavor).Inc()
	}
	if c.ChannelInflight != nil {
		c.ChannelInflight.WithLabelValues(channelID).Set(float64(inflight))
	}
}

// RecordReceive mirrors RecordSend for the dequeue side.
func (c *SimCollector) RecordReceive(channelID, flavor string, inflight int64) {
	if c == nil {
		return
	}
	if c.ChannelReceived != nil {
		c.ChannelReceived.WithLabelValues(channelID, flavor).Inc()
	}
	if c.ChannelInflight != nil {
		c.ChannelInflight.WithLabelValues(channelID).Set(float64(inflight))
	}
}

// RecordPark increments the park counter for a context.
func (c *SimCollector) RecordPark(contextID string) {
	if c == nil || c.ContextParks == nil {
		return
	}
	c.ContextParks.WithLabelValues(contextID).Inc()
}

// RecordAdvance observes how many ticks a context's clock advanced over its
// whole Run (engine.Initialized.Run reports each context's final tick).
func (c *SimCollector) RecordAdvance(ticks uint64) {
	if c == nil || c.TickAdvance == nil {
		return
	}
	c.TickAdvance.Observe(float64(ticks))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
