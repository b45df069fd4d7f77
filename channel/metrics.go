package channel

// MetricsSink receives send/receive events as they are registered on a
// Spec's counters. Implementations must be safe for concurrent use; the hot
// enqueue/dequeue path calls these methods directly, so they should not
// block.
type MetricsSink interface {
	RecordSend(channelID, flavor string, inflight int64)
	RecordReceive(channelID, flavor string, inflight int64)
}

// SetMetrics attaches a sink that observes every future RegisterSend/
// RegisterRecv call on this channel. Passing nil detaches it.
func (s *Spec) SetMetrics(sink MetricsSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = sink
}

func (s *Spec) metricsSnapshot() MetricsSink {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metrics
}

// SetMetrics attaches a sink to this channel's shared Spec; see Spec.SetMetrics.
func (s *Sender[T]) SetMetrics(sink MetricsSink) { s.spec.SetMetrics(sink) }
