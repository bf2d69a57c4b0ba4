package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/playok/resmon/internal/model"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Resource metrics
	ResourceLevel     *prometheus.GaugeVec
	ResourceStatus    *prometheus.GaugeVec
	ResourceSupported *prometheus.GaugeVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Check metrics
	ChecksTotal   prometheus.Counter
	CheckDuration prometheus.Histogram

	// Alert metrics
	AlertsRecorded *prometheus.CounterVec
	AlertsEvicted  prometheus.Counter

	// Notification metrics
	NotificationsSent   prometheus.Counter
	NotificationsFailed prometheus.Counter
}

// NewMetrics creates the metrics on a private registry that also carries
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ResourceLevel: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resmon_resource_level",
				Help: "Last sampled level: percent for memory and disk, load average for cpu",
			},
			[]string{"resource"},
		),

		ResourceStatus: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resmon_resource_status",
				Help: "Display severity of the last reading (0 normal, 1 warning, 2 critical)",
			},
			[]string{"resource"},
		),

		ResourceSupported: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resmon_resource_supported",
				Help: "Whether the resource can be measured on this host",
			},
			[]string{"resource"},
		),

		CacheHits: f.NewCounter(
			prometheus.CounterOpts{
				Name: "resmon_snapshot_cache_hits_total",
				Help: "Total number of snapshot reads served from cache",
			},
		),

		CacheMisses: f.NewCounter(
			prometheus.CounterOpts{
				Name: "resmon_snapshot_cache_misses_total",
				Help: "Total number of snapshot reads that sampled the host",
			},
		),

		ChecksTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "resmon_checks_total",
				Help: "Total number of resource checks run",
			},
		),

		CheckDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "resmon_check_duration_seconds",
				Help:    "Duration of resource checks",
				Buckets: prometheus.DefBuckets,
			},
		),

		AlertsRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resmon_alerts_recorded_total",
				Help: "Total number of alert records appended",
			},
			[]string{"resource"},
		),

		AlertsEvicted: f.NewCounter(
			prometheus.CounterOpts{
				Name: "resmon_alerts_evicted_total",
				Help: "Total number of alert records removed by retention",
			},
		),

		NotificationsSent: f.NewCounter(
			prometheus.CounterOpts{
				Name: "resmon_notifications_sent_total",
				Help: "Total number of notification e-mails delivered",
			},
		),

		NotificationsFailed: f.NewCounter(
			prometheus.CounterOpts{
				Name: "resmon_notifications_failed_total",
				Help: "Total number of notification e-mails that failed",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// CacheLookup records a snapshot cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// ObserveSnapshot updates the per-resource gauges.
func (m *Metrics) ObserveSnapshot(s *model.Snapshot) {
	if m == nil || s == nil {
		return
	}
	for _, t := range model.ResourceTypes {
		r := s.Reading(t)
		label := string(t)
		if r.Supported {
			m.ResourceSupported.WithLabelValues(label).Set(1)
		} else {
			m.ResourceSupported.WithLabelValues(label).Set(0)
		}
		m.ResourceLevel.WithLabelValues(label).Set(r.Level)
		m.ResourceStatus.WithLabelValues(label).Set(statusValue(r.Status))
	}
}

// RecordCheck records one completed check.
func (m *Metrics) RecordCheck(d time.Duration) {
	if m == nil {
		return
	}
	m.ChecksTotal.Inc()
	m.CheckDuration.Observe(d.Seconds())
}

// RecordAlert records an appended alert and the records it evicted.
func (m *Metrics) RecordAlert(t model.ResourceType, evicted int64) {
	if m == nil {
		return
	}
	m.AlertsRecorded.WithLabelValues(string(t)).Inc()
	if evicted > 0 {
		m.AlertsEvicted.Add(float64(evicted))
	}
}

// RecordNotification records one dispatch attempt.
func (m *Metrics) RecordNotification(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.NotificationsSent.Inc()
	} else {
		m.NotificationsFailed.Inc()
	}
}

func statusValue(s model.Status) float64 {
	switch s {
	case model.StatusCritical:
		return 2
	case model.StatusWarning:
		return 1
	default:
		return 0
	}
}
