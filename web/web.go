// Copyright (c) 2025, The RANSIM Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package web exports simulation metrics over HTTP in Prometheus format.
package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ransim/ransim/logger"
	"github.com/ransim/ransim/progctx"
	"github.com/ransim/ransim/simulation"
)

// MetricsServer implements simulation.MetricsSink and serves the collected
// metrics on /metrics.
type MetricsServer struct {
	registry *prometheus.Registry
	server   *http.Server

	simTime          prometheus.Gauge
	handoverResults  *prometheus.CounterVec
	pingPongs        prometheus.Counter
	handoverDuration prometheus.Histogram
	cellUtilization  *prometheus.GaugeVec
	cellAttached     *prometheus.GaugeVec
	terminalDlMbps   *prometheus.GaugeVec
	terminalUlMbps   *prometheus.GaugeVec
}

// NewMetricsServer creates the metrics sink with its own registry.
func NewMetricsServer(addr string) *MetricsServer {
	ms := &MetricsServer{
		registry: prometheus.NewRegistry(),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ransim_time_seconds",
			Help: "Simulated time.",
		}),
		handoverResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ransim_handovers_total",
			Help: "Completed handover procedures by result and cause.",
		}, []string{"result", "cause"}),
		pingPongs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ransim_handover_ping_pongs_total",
			Help: "Successful handovers that reversed a recent handover.",
		}),
		handoverDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ransim_handover_duration_seconds",
			Help:    "Simulated duration of completed handover procedures.",
			Buckets: prometheus.ExponentialBuckets(0.02, 1.5, 10),
		}),
		cellUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ransim_cell_utilization",
			Help: "Fraction of cell resource units held by flows.",
		}, []string{"cell"}),
		cellAttached: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ransim_cell_attached_terminals",
			Help: "Terminals attached per cell.",
		}, []string{"cell"}),
		terminalDlMbps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ransim_terminal_throughput_dl_mbps",
			Help: "Downlink throughput per terminal.",
		}, []string{"terminal"}),
		terminalUlMbps: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ransim_terminal_throughput_ul_mbps",
			Help: "Uplink throughput per terminal.",
		}, []string{"terminal"}),
	}

	ms.registry.MustRegister(ms.simTime, ms.handoverResults, ms.pingPongs,
		ms.handoverDuration, ms.cellUtilization, ms.cellAttached,
		ms.terminalDlMbps, ms.terminalUlMbps)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(ms.registry, promhttp.HandlerOpts{}))
	ms.server = &http.Server{Addr: addr, Handler: mux}
	return ms
}

// ObserveTick implements simulation.MetricsSink. Called on the simulation
// goroutine after each tick; gauges and counters only, no blocking work.
func (ms *MetricsServer) ObserveTick(snap *simulation.TickSnapshot) {
	ms.simTime.Set(float64(snap.Timestamp) / 1e6)

	for _, ev := range snap.Events {
		result := "success"
		if !ev.Success {
			result = "failure"
		}
		ms.handoverResults.WithLabelValues(result, ev.Cause.String()).Inc()
		ms.handoverDuration.Observe(ev.Duration.Seconds())
		if ev.PingPong {
			ms.pingPongs.Inc()
		}
	}

	for _, c := range snap.Cells {
		label := strconv.Itoa(c.Id)
		ms.cellUtilization.WithLabelValues(label).Set(c.Utilization)
		ms.cellAttached.WithLabelValues(label).Set(float64(c.Attached))
	}

	ms.terminalDlMbps.Reset()
	ms.terminalUlMbps.Reset()
	for _, t := range snap.Terminals {
		label := strconv.Itoa(t.Id)
		ms.terminalDlMbps.WithLabelValues(label).Set(t.ThroughputDl)
		ms.terminalUlMbps.WithLabelValues(label).Set(t.ThroughputUl)
	}
}

// Serve runs the HTTP endpoint until the program context is cancelled.
func (ms *MetricsServer) Serve(ctx *progctx.ProgCtx) {
	ctx.WaitAdd("web", 1)
	go func() {
		defer ctx.WaitDone("web")
		logger.Infof("metrics endpoint listening on %s/metrics", ms.server.Addr)
		if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("metrics endpoint failed: %v", err)
		}
	}()

	ctx.WaitAdd("web-shutdown", 1)
	go func() {
		defer ctx.WaitDone("web-shutdown")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = ms.server.Shutdown(shutdownCtx)
	}()
}
