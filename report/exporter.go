// SPDX-License-Identifier: GPL-3.0
// Copyright 2024 Pete Heist

package report

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heistp/ccphase/sim"
)

// Exporter serves live per-flow gauges on /metrics for long-running
// comparative simulations, an optional companion to Sink's CSV output
// (spec section 6 only requires the CSV surface; this is additive).
type Exporter struct {
	cwnd       *prometheus.GaugeVec
	bdp        *prometheus.GaugeVec
	pacingRate *prometheus.GaugeVec
	minRTT     *prometheus.GaugeVec
	losses     *prometheus.GaugeVec

	srv *http.Server
}

// NewExporter registers the gauge vectors under the given
// namespace.
func NewExporter(namespace string) *Exporter {
	labels := []string{"flow"}
	return &Exporter{
		cwnd: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cwnd_segments",
			Help:      "Current congestion window, in segments",
		}, labels),
		bdp: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bdp_segments",
			Help:      "Current bandwidth-delay-product estimate, in segments",
		}, labels),
		pacingRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pacing_rate_bytes_per_second",
			Help:      "Current pacing rate hint, 0 if unrestricted",
		}, labels),
		minRTT: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "min_rtt_seconds",
			Help:      "Current minimum observed RTT",
		}, labels),
		losses: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "losses_total",
			Help:      "Total losses observed so far",
		}, labels),
	}
}

// Update records one flow's report-tick sample.
func (e *Exporter) Update(f sim.FlowRecord) {
	label := prometheus.Labels{"flow": strconv.Itoa(int(f.Flow))}
	e.cwnd.With(label).Set(float64(f.CWND))
	e.bdp.With(label).Set(float64(f.BDP))
	e.pacingRate.With(label).Set(f.PacingRate)
	e.minRTT.With(label).Set(f.MinRTT.Seconds())
	e.losses.With(label).Set(float64(f.Losses))
}

// Serve starts the /metrics HTTP endpoint on addr and blocks until ctx
// is canceled or the server fails.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	e.srv = &http.Server{Addr: addr, Handler: mux}

	errc := make(chan error, 1)
	go func() { errc <- e.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return e.srv.Shutdown(context.Background())
	case err := <-errc:
		return err
	}
}
