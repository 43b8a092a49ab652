// Package metrics exposes Prometheus-compatible metrics for the auction
// service.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	vmetrics "github.com/VictoriaMetrics/metrics"
)

// MetricsServer serves the /metrics endpoint on its own listener so the
// metrics port can stay off the public surface.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server for the given service name and address.
// An empty address yields a server that is never started.
func New(name, addr string) (*MetricsServer, error) {
	vmetrics.GetOrCreateGauge(fmt.Sprintf("%s_up", name), func() float64 { return 1 })

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		vmetrics.WritePrometheus(w, true)
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
	}, nil
}

// ListenAndServe starts the metrics listener.
func (s *MetricsServer) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// IncOperation counts one auction API operation with its outcome.
func IncOperation(op string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	vmetrics.GetOrCreateCounter(
		fmt.Sprintf(`escrownet_operations_total{op=%q,outcome=%q}`, op, outcome)).Inc()
}
