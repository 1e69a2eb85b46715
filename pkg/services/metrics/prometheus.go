package metrics

import (
	"github.com/fracnft/fracnft/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewPrometheusService creates a new service for gathering prometheus metrics
// (https://prometheus.io/docs/guides/go-application). Metrics of the chain
// and the RPC server are registered in the default registry.
func NewPrometheusService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}
	// Single handler shares metrics between multiple listeners.
	return NewService("Prometheus", promhttp.Handler(), cfg, log)
}
