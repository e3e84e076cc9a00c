package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/IceyWu/live-photo/internal/handle"
)

// HandleCollector implements prometheus.Collector for segment handle stats.
// It reads handle.Registry.Stats() lazily on each Prometheus scrape
// rather than maintaining duplicate state.
type HandleCollector struct {
	registry *handle.Registry

	openByMIME *prometheus.Desc // label: mime
	openBytes  *prometheus.Desc
	groups     *prometheus.Desc
	released   *prometheus.Desc
	swept      *prometheus.Desc
}

// NewHandleCollector creates a collector that scrapes registry stats on demand.
func NewHandleCollector(r *handle.Registry) *HandleCollector {
	return &HandleCollector{
		registry: r,

		openByMIME: prometheus.NewDesc(
			"livephoto_handles_open",
			"Segment handles currently open, by MIME type.",
			[]string{"mime"}, nil,
		),
		openBytes: prometheus.NewDesc(
			"livephoto_handles_open_bytes",
			"Bytes referenced by open segment handles.",
			nil, nil,
		),
		groups: prometheus.NewDesc(
			"livephoto_handle_groups_open",
			"Extractions with at least one open handle.",
			nil, nil,
		),
		released: prometheus.NewDesc(
			"livephoto_handles_released_total",
			"Handles released explicitly.",
			nil, nil,
		),
		swept: prometheus.NewDesc(
			"livephoto_handles_swept_total",
			"Handles released by the idle sweep.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *HandleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openByMIME
	ch <- c.openBytes
	ch <- c.groups
	ch <- c.released
	ch <- c.swept
}

// Collect implements prometheus.Collector.
func (c *HandleCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.registry.Stats()

	for mime, n := range s.ByMIME {
		ch <- prometheus.MustNewConstMetric(c.openByMIME, prometheus.GaugeValue, float64(n), mime)
	}
	ch <- prometheus.MustNewConstMetric(c.openBytes, prometheus.GaugeValue, float64(s.Bytes))
	ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(s.Groups))
	ch <- prometheus.MustNewConstMetric(c.released, prometheus.CounterValue, float64(s.Released))
	ch <- prometheus.MustNewConstMetric(c.swept, prometheus.CounterValue, float64(s.Swept))
}
