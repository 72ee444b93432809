// Package telemetry registers the server's Prometheus collectors.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "insights"

var recomputeCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recomputes_total",
		Help:      "Number of dashboard pipeline runs by triggering event",
	},
	[]string{"event"},
)

var recomputeFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recompute_failures_total",
		Help:      "Number of pipeline runs that failed to read the data source",
	},
	[]string{"event"},
)

var recomputeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recompute_duration_seconds",
		Help:      "Time spent filtering, aggregating and building views",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"event"},
)

var filteredRecords = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "filtered_records",
		Help:      "Number of records in the currently published view",
	},
)

var exportedRows = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exported_rows_total",
		Help:      "Number of data rows written to CSV exports",
	},
)

var connectedClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "websocket_clients",
		Help:      "Number of connected dashboard WebSocket clients",
	},
)

// RecordRecompute records one successful pipeline run.
func RecordRecompute(event string, records int, duration time.Duration) {
	recomputeCounter.WithLabelValues(event).Inc()
	recomputeDuration.WithLabelValues(event).Observe(duration.Seconds())
	if event != "export_requested" {
		filteredRecords.Set(float64(records))
	}
}

// RecordFailure records a pipeline run that could not complete.
func RecordFailure(event string) {
	recomputeFailures.WithLabelValues(event).Inc()
}

// RecordExport counts exported data rows.
func RecordExport(rows int) {
	exportedRows.Add(float64(rows))
}

// SetClients reports the current WebSocket client count.
func SetClients(n int) {
	connectedClients.Set(float64(n))
}
