package rpcsrv

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// rpcCalls counts handled requests per JSON-RPC method, unknown
	// methods are not counted.
	rpcCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fracnft",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "Number of handled JSON-RPC calls",
		},
		[]string{"method"},
	)
	rpcDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fracnft",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "JSON-RPC call handling time",
		},
		[]string{"method"},
	)
	// txRejected counts transactions the pool refused to accept.
	txRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fracnft",
			Subsystem: "rpc",
			Name:      "rejected_transactions_total",
			Help:      "Number of transactions rejected by the pool",
		},
	)
	wsClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fracnft",
			Subsystem: "rpc",
			Name:      "websocket_clients",
			Help:      "Number of connected websocket clients",
		},
	)
)

func addReqTimeMetric(method string, t time.Duration) {
	if !isKnownMethod(method) {
		return
	}
	rpcCalls.WithLabelValues(method).Inc()
	rpcDuration.WithLabelValues(method).Observe(t.Seconds())
}

func isKnownMethod(method string) bool {
	if _, ok := rpcHandlers[method]; ok {
		return true
	}
	_, ok := rpcWsHandlers[method]
	return ok
}

func init() {
	prometheus.MustRegister(rpcCalls, rpcDuration, txRejected, wsClients)
}
