package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type eventMetrics struct {
	engineEvents *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured engine events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			engineEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "synthpool",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of engine events segmented by type and pool.",
			}, []string{"type", "pool"}),
		}
		prometheus.MustRegister(eventRegistry.engineEvents)
	})
	return eventRegistry
}

// RecordEvent increments the event counter for the supplied type and pool.
func (m *eventMetrics) RecordEvent(eventType, pool string) {
	if m == nil {
		return
	}
	if strings.TrimSpace(eventType) == "" {
		eventType = "unknown"
	}
	if strings.TrimSpace(pool) == "" {
		pool = "unknown"
	}
	m.engineEvents.WithLabelValues(eventType, pool).Inc()
}
