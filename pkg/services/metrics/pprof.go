package metrics

import (
	"net/http"
	"net/http/pprof"

	"github.com/fracnft/fracnft/pkg/config"
	"go.uber.org/zap"
)

// pprofRoutes maps debug endpoints to net/http/pprof handlers, named
// profiles (heap, goroutine and others) are served by the index handler.
var pprofRoutes = map[string]http.HandlerFunc{
	"/debug/pprof/":        pprof.Index,
	"/debug/pprof/cmdline": pprof.Cmdline,
	"/debug/pprof/profile": pprof.Profile,
	"/debug/pprof/symbol":  pprof.Symbol,
	"/debug/pprof/trace":   pprof.Trace,
}

// NewPprofService returns a profiling service for a node, nil logger means
// no service.
func NewPprofService(cfg config.BasicService, log *zap.Logger) *Service {
	if log == nil {
		return nil
	}
	mux := http.NewServeMux()
	for path, h := range pprofRoutes {
		mux.HandleFunc(path, h)
	}
	return NewService("Pprof", mux, cfg, log)
}
