// Package metrics exposes the hammering session's live counters over
// Prometheus exposition format, for the rare case where a caller wants
// to watch a long session progress externally instead of waiting for the
// final report.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the gauges and counters one hammering session updates.
type Registry struct {
	reg *prometheus.Registry

	FlipsFound    prometheus.Counter
	RoundsRun     prometheus.Counter
	CurrentThresh prometheus.Gauge
}

// NewRegistry builds a fresh, process-local registry. A fresh registry
// per session (rather than the global default one) keeps repeated runs
// in the same process from accumulating stale series.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		FlipsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rowhammer_flips_found_total",
			Help: "Total bit flips observed across all victim scans so far.",
		}),
		RoundsRun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rowhammer_rounds_run_total",
			Help: "Total aggressor-pair hammering rounds run so far.",
		}),
		CurrentThresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rowhammer_timing_threshold_cycles",
			Help: "Most recently calibrated same-bank/same-row timing threshold, in reference cycles.",
		}),
	}

	reg.MustRegister(r.FlipsFound, r.RoundsRun, r.CurrentThresh)
	return r
}

// Serve starts an HTTP listener exposing /metrics on addr and blocks
// until ctx is canceled, at which point it shuts the listener down.
func (r *Registry) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
