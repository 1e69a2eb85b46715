package core

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// blockHeight prometheus metric.
	blockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Current index of processed block",
			Name:      "current_block_height",
			Namespace: "fracnft",
		},
	)
	// txExecuted prometheus metric.
	txExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of executed transactions",
			Name:      "executed_transactions_total",
			Namespace: "fracnft",
		},
	)
	// txFaulted prometheus metric.
	txFaulted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of transactions that ended in FAULT state",
			Name:      "faulted_transactions_total",
			Namespace: "fracnft",
		},
	)
)

func init() {
	prometheus.MustRegister(
		blockHeight,
		txExecuted,
		txFaulted,
	)
}

func updateBlockHeightMetric(bHeight uint64) {
	blockHeight.Set(float64(bHeight))
}

func updateTxMetrics(executed, faulted int) {
	txExecuted.Add(float64(executed))
	txFaulted.Add(float64(faulted))
}
