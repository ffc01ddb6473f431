// Copyright (c) 2026 Michael D Henderson. All rights reserved.

package sqlseed

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records population activity as Prometheus metrics.
// A nil *Metrics records nothing.
type Metrics struct {
	populations *prometheus.CounterVec
	duration    prometheus.Histogram
	sessions    prometheus.Counter
}

// NewMetrics creates the population metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		populations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sqlseed",
			Name:      "populations_total",
			Help:      "Population attempts by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sqlseed",
			Name:      "population_duration_seconds",
			Help:      "Time spent populating a database, rollback included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sqlseed",
			Name:      "sessions_total",
			Help:      "Sessions handed out by population gates.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.populations, m.duration, m.sessions} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) observe(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.populations.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) sessionReleased() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}
