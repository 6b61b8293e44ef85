// Package metrics exposes the Prometheus instruments for the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPDuration observes request latency per route and status class.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gestor",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})

	// ImportedRows counts CSV rows committed to the ledger.
	ImportedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gestor",
		Name:      "csv_rows_imported_total",
		Help:      "CSV rows successfully imported.",
	}, []string{"kind"})

	// RejectedRows counts CSV rows that failed validation or insertion.
	RejectedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gestor",
		Name:      "csv_rows_rejected_total",
		Help:      "CSV rows rejected during preview or commit.",
	}, []string{"kind"})

	// RecurringGenerated counts records created by the projector.
	RecurringGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gestor",
		Name:      "recurring_records_generated_total",
		Help:      "Recurring records created by projection runs.",
	})

	// AlertEmailsSent counts daily alert emails delivered.
	AlertEmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gestor",
		Name:      "alert_emails_sent_total",
		Help:      "Daily alert emails sent.",
	})
)
