// Package metrics provides Prometheus metrics for the dashboard: poll cycle
// outcomes, backend request latency, operator commands and connected clients.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors exported by botdash.
type Metrics struct {
	// Synchronizer
	PollCycles         prometheus.Counter   // Completed poll cycles, any outcome
	PollStatusFailures prometheus.Counter   // Cycles aborted because /bot/status failed
	PollBatchFailures  prometheus.Counter   // Cycles whose secondary batch was discarded
	PollSuperseded     prometheus.Counter   // Cycles cancelled or discarded as stale
	PollTicksSkipped   prometheus.Counter   // Ticks skipped because a cycle was in flight
	PollCycleDuration  prometheus.Histogram // Wall time of one full cycle
	BackendLatency     *prometheus.HistogramVec
	BackendErrors      *prometheus.CounterVec

	// Operator actions
	Commands *prometheus.CounterVec

	// Presentation
	DashboardClients prometheus.Gauge
	PnLTotal         prometheus.Gauge
	PortfolioValue   prometheus.Gauge
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PollCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_cycles_total",
			Help: "Total number of completed poll cycles",
		}),
		PollStatusFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_status_failures_total",
			Help: "Poll cycles aborted because the status fetch failed",
		}),
		PollBatchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_batch_failures_total",
			Help: "Poll cycles whose secondary batch failed and was discarded",
		}),
		PollSuperseded: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_cycles_superseded_total",
			Help: "Poll cycles cancelled or discarded because a newer cycle started",
		}),
		PollTicksSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "poll_ticks_skipped_total",
			Help: "Timer ticks skipped because a cycle was still in flight",
		}),
		PollCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "poll_cycle_duration_seconds",
			Help:    "Duration of one poll cycle in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		BackendLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backend_request_duration_seconds",
			Help:    "Backend request latency in seconds by endpoint",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		BackendErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "backend_request_errors_total",
			Help: "Failed backend requests by endpoint",
		}, []string{"endpoint"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "commands_total",
			Help: "Operator commands by command and result",
		}, []string{"command", "result"}),
		DashboardClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_clients",
			Help: "Number of connected dashboard WebSocket clients",
		}),
		PnLTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "account_pnl_total",
			Help: "Total profit and loss reported by the backend",
		}),
		PortfolioValue: factory.NewGauge(prometheus.GaugeOpts{
			Name: "account_portfolio_value",
			Help: "Portfolio value reported by the backend",
		}),
	}
}
