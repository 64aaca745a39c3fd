package services

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	operationsTotal       *prometheus.CounterVec
	repairsTotal          *prometheus.CounterVec
	driftAmount           prometheus.Histogram
	sweepLastRunUnix      prometheus.Gauge
	displayFallbacksTotal prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sessionpass",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger write operations partitioned by kind and result.",
			},
			[]string{"kind", "result"},
		),
		repairsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sessionpass",
				Subsystem: "ledger",
				Name:      "repairs_total",
				Help:      "Balance repairs partitioned by result.",
			},
			[]string{"result"},
		),
		driftAmount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sessionpass",
				Subsystem: "ledger",
				Name:      "drift_amount",
				Help:      "Absolute difference between stored and replayed balances when a repair changes a balance.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
		),
		sweepLastRunUnix: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sessionpass",
				Subsystem: "ledger",
				Name:      "sweep_last_run_unix",
				Help:      "Unix time of the most recent reconciliation sweep.",
			},
		),
		displayFallbacksTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "sessionpass",
				Name:      "balance_display_fallbacks_total",
				Help:      "Display balance reads that fell back to an unavailable zero.",
			},
		),
	}
}

func (m *Metrics) ObserveOperation(kind, result string) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveRepair(result string, drift int64) {
	if m == nil {
		return
	}
	m.repairsTotal.WithLabelValues(result).Inc()
	if drift != 0 {
		if drift < 0 {
			drift = -drift
		}
		m.driftAmount.Observe(float64(drift))
	}
}

func (m *Metrics) SweepCompleted(at time.Time) {
	if m == nil {
		return
	}
	m.sweepLastRunUnix.Set(float64(at.Unix()))
}

func (m *Metrics) DisplayFallback() {
	if m == nil {
		return
	}
	m.displayFallbacksTotal.Inc()
}

func operationResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
