// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger metrics
	CollectionsCreated prometheus.Counter
	TokensMinted       prometheus.Counter
	TokensTransferred  prometheus.Counter
	LedgerErrors       *prometheus.CounterVec

	// Purchase workflow metrics
	PurchasesTotal *prometheus.CounterVec

	// Pinning metrics
	PinPublishes *prometheus.CounterVec

	// Reconciler metrics
	ReconcilerRuns      *prometheus.CounterVec
	PendingTransfers    prometheus.Gauge
	TransfersReconciled prometheus.Counter

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "hivemint"
	}

	return &Metrics{
		CollectionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "collections_created_total",
			Help:      "Total number of token collections created",
		}),
		TokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_minted_total",
			Help:      "Total number of tokens minted",
		}),
		TokensTransferred: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_transferred_total",
			Help:      "Total number of token ownership transfers",
		}),
		LedgerErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "errors_total",
			Help:      "Total number of ledger transaction rejections by operation",
		}, []string{"operation"}),

		PurchasesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "purchases_total",
			Help:      "Total number of purchase attempts by outcome",
		}, []string{"outcome"}),

		PinPublishes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pinning",
			Name:      "publishes_total",
			Help:      "Total number of metadata publishes by result",
		}, []string{"result"}),

		ReconcilerRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "runs_total",
			Help:      "Total number of reconciler passes by status",
		}, []string{"status"}),
		PendingTransfers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "pending_transfers",
			Help:      "Number of hives stuck in pending_transfer at last pass",
		}),
		TransfersReconciled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconciler",
			Name:      "transfers_reconciled_total",
			Help:      "Total number of pending transfers completed by the reconciler",
		}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "status"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCollectionCreated increments the collections created counter.
func RecordCollectionCreated() {
	DefaultMetrics.CollectionsCreated.Inc()
}

// RecordMint increments the tokens minted counter.
func RecordMint() {
	DefaultMetrics.TokensMinted.Inc()
}

// RecordTransfer increments the tokens transferred counter.
func RecordTransfer() {
	DefaultMetrics.TokensTransferred.Inc()
}

// RecordLedgerError records a ledger rejection for an operation.
func RecordLedgerError(operation string) {
	DefaultMetrics.LedgerErrors.WithLabelValues(operation).Inc()
}

// RecordPurchase records a purchase attempt outcome.
func RecordPurchase(outcome string) {
	DefaultMetrics.PurchasesTotal.WithLabelValues(outcome).Inc()
}

// RecordPinPublish records a metadata publish result ("pinned" or "fallback").
func RecordPinPublish(result string) {
	DefaultMetrics.PinPublishes.WithLabelValues(result).Inc()
}

// RecordReconcilerRun records one reconciler pass.
func RecordReconcilerRun(status string, pending int) {
	DefaultMetrics.ReconcilerRuns.WithLabelValues(status).Inc()
	DefaultMetrics.PendingTransfers.Set(float64(pending))
}

// RecordTransferReconciled increments the reconciled transfers counter.
func RecordTransferReconciled() {
	DefaultMetrics.TransfersReconciled.Inc()
}

// RecordRequest records HTTP request duration.
func RecordRequest(path, status string, seconds float64) {
	DefaultMetrics.RequestDuration.WithLabelValues(path, status).Observe(seconds)
}
