package metrics

import "time"

// MetricsWrapper adapts Metrics to the small interfaces the synchronizer,
// dispatcher, backend client and dashboard accept, so those packages
// never import prometheus.
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) CycleDone(elapsed time.Duration) {
	w.m.PollCycles.Inc()
	w.m.PollCycleDuration.Observe(elapsed.Seconds())
}

func (w *MetricsWrapper) StatusFailed() {
	w.m.PollStatusFailures.Inc()
}

func (w *MetricsWrapper) BatchFailed() {
	w.m.PollBatchFailures.Inc()
}

func (w *MetricsWrapper) CycleSuperseded() {
	w.m.PollSuperseded.Inc()
}

func (w *MetricsWrapper) TickSkipped() {
	w.m.PollTicksSkipped.Inc()
}

func (w *MetricsWrapper) AccountUpdated(pnl, portfolio float64) {
	w.m.PnLTotal.Set(pnl)
	w.m.PortfolioValue.Set(portfolio)
}

// ObserveRequest implements backend.Observer.
func (w *MetricsWrapper) ObserveRequest(endpoint string, elapsed time.Duration, err error) {
	w.m.BackendLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	if err != nil {
		w.m.BackendErrors.WithLabelValues(endpoint).Inc()
	}
}

func (w *MetricsWrapper) CommandDone(command, result string) {
	w.m.Commands.WithLabelValues(command, result).Inc()
}

func (w *MetricsWrapper) ClientsChanged(n int) {
	w.m.DashboardClients.Set(float64(n))
}
