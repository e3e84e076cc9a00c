package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds extraction metrics for direct instrumentation in the service layer.
type Metrics struct {
	Extractions        *prometheus.CounterVec // label: outcome
	Strategies         *prometheus.CounterVec // label: strategy
	ExtractionDuration prometheus.Histogram
	BytesScanned       prometheus.Counter
	InFlight           prometheus.Gauge
	CacheLookups       *prometheus.CounterVec // label: result
}

// New creates and registers extraction metrics with the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livephoto",
			Subsystem: "extract",
			Name:      "total",
			Help:      "Extractions by outcome (ok or failure kind).",
		}, []string{"outcome"}),
		Strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livephoto",
			Subsystem: "extract",
			Name:      "validations_total",
			Help:      "Successful extractions by the validation strategy that accepted them.",
		}, []string{"strategy"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "livephoto",
			Subsystem: "extract",
			Name:      "duration_seconds",
			Help:      "Duration of extractions, cache lookups included.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		BytesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livephoto",
			Subsystem: "extract",
			Name:      "source_bytes_total",
			Help:      "Total bytes of source assets submitted for extraction.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "livephoto",
			Subsystem: "extract",
			Name:      "in_flight",
			Help:      "Extractions currently running.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livephoto",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Split-point cache lookups by result (hit, miss, stale, error).",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.Extractions,
		m.Strategies,
		m.ExtractionDuration,
		m.BytesScanned,
		m.InFlight,
		m.CacheLookups,
	)

	return m
}
