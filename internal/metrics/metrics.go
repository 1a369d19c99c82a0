// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates the pipeline counters scraped at /metrics.
type Collector struct {
	cycles        prometheus.Counter
	itemsScanned  *prometheus.CounterVec
	viralSignals  *prometheus.CounterVec
	duplicates    prometheus.Counter
	published     prometheus.Counter
	publishFailed prometheus.Counter
	pending       prometheus.Gauge
	historySize   prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// NewCollector registers every metric with the given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reciperadar_cycles_total",
			Help: "Completed monitoring cycles.",
		}),
		itemsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reciperadar_items_scanned_total",
			Help: "Content items scanned, by platform.",
		}, []string{"platform"}),
		viralSignals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reciperadar_viral_signals_total",
			Help: "Viral signals detected, by platform.",
		}, []string{"platform"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reciperadar_duplicates_total",
			Help: "Recipes flagged as duplicates.",
		}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reciperadar_published_total",
			Help: "Recipes published to the CMS.",
		}),
		publishFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reciperadar_publish_failed_total",
			Help: "Recipe publish attempts that failed.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reciperadar_pending_approval",
			Help: "Recipes waiting for manual approval.",
		}),
		historySize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reciperadar_history_size",
			Help: "Records currently held in the dedup history.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reciperadar_cycle_duration_seconds",
			Help:    "Wall-clock duration of one full cycle.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.cycles,
		c.itemsScanned,
		c.viralSignals,
		c.duplicates,
		c.published,
		c.publishFailed,
		c.pending,
		c.historySize,
		c.cycleDuration,
	)

	return c
}

// RecordCycle observes one finished cycle.
func (c *Collector) RecordCycle(duration time.Duration) {
	c.cycles.Inc()
	c.cycleDuration.Observe(duration.Seconds())
}

// RecordScanned adds scanned item counts for a platform.
func (c *Collector) RecordScanned(platform string, count int) {
	c.itemsScanned.WithLabelValues(platform).Add(float64(count))
}

// RecordViral adds detected viral signal counts for a platform.
func (c *Collector) RecordViral(platform string, count int) {
	c.viralSignals.WithLabelValues(platform).Add(float64(count))
}

// RecordDuplicate counts a flagged duplicate.
func (c *Collector) RecordDuplicate() {
	c.duplicates.Inc()
}

// RecordPublished counts a successful publish.
func (c *Collector) RecordPublished() {
	c.published.Inc()
}

// RecordPublishFailure counts a failed publish attempt.
func (c *Collector) RecordPublishFailure() {
	c.publishFailed.Inc()
}

// SetPending records the current approval queue length.
func (c *Collector) SetPending(count int) {
	c.pending.Set(float64(count))
}

// SetHistorySize records the current dedup history length.
func (c *Collector) SetHistorySize(size int) {
	c.historySize.Set(float64(size))
}

// Handler returns the scrape endpoint for the registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
