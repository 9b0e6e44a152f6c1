/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ppsreport

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/gnsstime/ppsmond/pps"
)

// MetricsExporter is the daemon-wide Prometheus registry: per-device
// vectors for accepted pulses, rejected pulses by reason, the last
// offset/timestamp, and whether the kernel backend is active, fed by
// each device's PPS/Reject hooks and by the daemon after Activate.
type MetricsExporter struct {
	registry *prometheus.Registry

	pulseCount          *prometheus.CounterVec
	pulseRejected       *prometheus.CounterVec
	lastOffsetSeconds   *prometheus.GaugeVec
	lastPulseUnixSec    *prometheus.GaugeVec
	kernelBackendActive *prometheus.GaugeVec
}

// NewMetricsExporter builds an exporter with a fresh registry; call
// Start to serve /metrics.
func NewMetricsExporter() *MetricsExporter {
	e := &MetricsExporter{
		registry: prometheus.NewRegistry(),
		pulseCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppsmond_pulses_total",
			Help: "accepted pulses published since activation, by device",
		}, []string{"device"}),
		pulseRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppsmond_pulses_rejected_total",
			Help: "rejected edges since activation, by device and reason",
		}, []string{"device", "reason"}),
		lastOffsetSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ppsmond_last_offset_seconds",
			Help: "host clock minus GPS real time for the last accepted pulse, by device",
		}, []string{"device"}),
		lastPulseUnixSec: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ppsmond_last_pulse_unix_seconds",
			Help: "GPS real time of the last accepted pulse, by device",
		}, []string{"device"}),
		kernelBackendActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ppsmond_kernel_backend_active",
			Help: "1 if the RFC2783 kernel backend is in use for the device, else 0",
		}, []string{"device"}),
	}
	e.registry.MustRegister(e.pulseCount, e.pulseRejected, e.lastOffsetSeconds, e.lastPulseUnixSec, e.kernelBackendActive)
	return e
}

// Start serves the registry's /metrics endpoint on listenPort. It
// blocks, so callers run it in its own goroutine, the same way
// sptp/stats.PrometheusExporter.Start does.
func (e *MetricsExporter) Start(listenPort int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", listenPort), mux))
}

// HookFor returns a pps.Hooks.PPS closure that updates this exporter's
// vectors for one device; wire the same *MetricsExporter into every
// device's Hooks so all devices land in one registry.
func (e *MetricsExporter) HookFor(device string) func(pps.TimeDelta) {
	return func(delta pps.TimeDelta) {
		e.pulseCount.WithLabelValues(device).Inc()
		offset := float64(delta.Clock.Sec-delta.Real.Sec) + float64(delta.Clock.Nsec-delta.Real.Nsec)/1e9
		e.lastOffsetSeconds.WithLabelValues(device).Set(offset)
		e.lastPulseUnixSec.WithLabelValues(device).Set(float64(delta.Real.Sec))
	}
}

// RejectHookFor returns a pps.Hooks.Reject closure counting rejected
// edges for one device, by reason label.
func (e *MetricsExporter) RejectHookFor(device string) func(reason string) {
	return func(reason string) {
		e.pulseRejected.WithLabelValues(device, reason).Inc()
	}
}

// SetKernelActive records whether the kernel backend is in use for a
// device. Called once, right after pps.Activate returns.
func (e *MetricsExporter) SetKernelActive(device string, active bool) {
	value := 0.0
	if active {
		value = 1.0
	}
	e.kernelBackendActive.WithLabelValues(device).Set(value)
}
