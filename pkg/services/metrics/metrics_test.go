package metrics

import (
	"io"
	"net/http"
	"testing"

	"github.com/fracnft/fracnft/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func get(t *testing.T, url string) (int, string) {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestPrometheusService(t *testing.T) {
	ctr := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fracnft",
		Name:      "metrics_test_total",
		Help:      "Test counter",
	})
	require.NoError(t, prometheus.Register(ctr))
	t.Cleanup(func() { prometheus.Unregister(ctr) })
	ctr.Add(3)

	s := NewPrometheusService(config.BasicService{
		Enabled:   true,
		Addresses: []string{"localhost:0", "localhost:0"},
	}, zaptest.NewLogger(t))
	require.Equal(t, "Prometheus", s.Name())
	// Duplicates are dropped.
	require.Len(t, s.Addresses(), 1)

	require.NoError(t, s.Start())
	t.Cleanup(s.ShutDown)
	// Second start is no-op.
	require.NoError(t, s.Start())

	addr := s.Addresses()[0]
	require.NotEqual(t, "localhost:0", addr)
	code, body := get(t, "http://"+addr+"/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "fracnft_metrics_test_total 3")
}

func TestPprofService(t *testing.T) {
	s := NewPprofService(config.BasicService{
		Enabled:   true,
		Addresses: []string{"localhost:0"},
	}, zaptest.NewLogger(t))
	require.Equal(t, "Pprof", s.Name())
	require.NoError(t, s.Start())

	code, _ := get(t, "http://"+s.Addresses()[0]+"/debug/pprof/cmdline")
	require.Equal(t, http.StatusOK, code)

	s.ShutDown()
	_, err := http.Get("http://" + s.Addresses()[0] + "/debug/pprof/cmdline")
	require.Error(t, err)
	// Second shutdown is no-op.
	s.ShutDown()
}

func TestService_Disabled(t *testing.T) {
	s := NewPrometheusService(config.BasicService{
		Addresses: []string{"localhost:0"},
	}, zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	require.Equal(t, []string{"localhost:0"}, s.Addresses())
	s.ShutDown()

	require.Nil(t, NewPrometheusService(config.BasicService{}, nil))
	require.Nil(t, NewPprofService(config.BasicService{}, nil))
}

func TestService_BadAddress(t *testing.T) {
	s := NewPprofService(config.BasicService{
		Enabled:   true,
		Addresses: []string{"localhost:0", "bad address"},
	}, zaptest.NewLogger(t))
	require.Error(t, s.Start())
	// Listeners started before the failure are closed.
	_, err := http.Get("http://" + s.Addresses()[0] + "/debug/pprof/cmdline")
	require.Error(t, err)
}
