package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry            *prometheus.Registry
	UnitsTotal          *prometheus.CounterVec
	UnitDuration        prometheus.Histogram
	ScrollCyclesTotal   prometheus.Counter
	ItemsExtractedTotal prometheus.Counter
	ExtractionFailures  prometheus.Counter
	NavigationFailures  *prometheus.CounterVec
	ImagesTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	units := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_work_units_total",
			Help: "Work units processed, by terminal status.",
		},
		[]string{"status"},
	)
	unitDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_work_unit_duration_seconds",
			Help:    "Wall-clock time spent per work unit.",
			Buckets: prometheus.DefBuckets,
		},
	)
	scrollCycles := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_scroll_cycles_total",
			Help: "Total scroll cycles issued across all work units.",
		},
	)
	itemsExtracted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_items_extracted_total",
			Help: "Total records accepted into the pipeline.",
		},
	)
	extractionFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_extraction_failures_total",
			Help: "Raw items dropped for lacking a product name.",
		},
	)
	navigationFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_navigation_failures_total",
			Help: "Work units skipped because navigation failed, by error type.",
		},
		[]string{"error_type"},
	)
	images := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_images_total",
			Help: "Image download outcomes.",
		},
		[]string{"status"},
	)

	registry.MustRegister(units, unitDuration, scrollCycles, itemsExtracted, extractionFailures, navigationFailures, images)

	return &Metrics{
		Registry:            registry,
		UnitsTotal:          units,
		UnitDuration:        unitDuration,
		ScrollCyclesTotal:   scrollCycles,
		ItemsExtractedTotal: itemsExtracted,
		ExtractionFailures:  extractionFailures,
		NavigationFailures:  navigationFailures,
		ImagesTotal:         images,
	}
}

// IncUnit increments the work-unit counter for a terminal status.
func (m *Metrics) IncUnit(status string) {
	if m == nil {
		return
	}
	m.UnitsTotal.WithLabelValues(status).Inc()
}

// ObserveUnitDuration records how long one work unit took.
func (m *Metrics) ObserveUnitDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.UnitDuration.Observe(d.Seconds())
}

// IncScrollCycles increments the scroll cycle counter.
func (m *Metrics) IncScrollCycles() {
	if m == nil {
		return
	}
	m.ScrollCyclesTotal.Inc()
}

// IncItems increments the accepted-record counter.
func (m *Metrics) IncItems() {
	if m == nil {
		return
	}
	m.ItemsExtractedTotal.Inc()
}

// IncExtractionFailure increments the dropped-item counter.
func (m *Metrics) IncExtractionFailure() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

// IncNavigationFailure increments the skipped-unit counter for a type label.
func (m *Metrics) IncNavigationFailure(errorType string) {
	if m == nil {
		return
	}
	m.NavigationFailures.WithLabelValues(errorType).Inc()
}

// IncImage increments the image outcome counter.
func (m *Metrics) IncImage(status string) {
	if m == nil {
		return
	}
	m.ImagesTotal.WithLabelValues(status).Inc()
}
