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

package ppsdaemon

import (
	"context"
	"fmt"

	serial "github.com/daedaluz/goserial"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/gnsstime/ppsmond/pps"
	"github.com/gnsstime/ppsmond/ppsreport"
)

// device is one opened, activated monitor and its attached ports.
type device struct {
	cfg  DeviceConfig
	port *serial.Port
	ctx  *pps.Ctx
}

// Daemon owns every configured device's monitor and the shared
// reporting/metrics surface.
type Daemon struct {
	cfg     *Config
	devices []*device
	metrics *ppsreport.MetricsExporter
	stats   *Stats
}

// New opens every configured device and prepares (but does not yet
// activate) its monitor context.
func New(cfg *Config) (*Daemon, error) {
	d := &Daemon{
		cfg:     cfg,
		metrics: ppsreport.NewMetricsExporter(),
		stats:   NewStats(),
	}
	for _, dc := range cfg.Devices {
		port, err := serial.Open(dc.Path, nil)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("open %s: %w", dc.Path, err)
		}
		d.devices = append(d.devices, &device{
			cfg:  dc,
			port: port,
			ctx:  pps.NewCtx(dc.Path, port.Fd()),
		})
	}
	return d, nil
}

// Close releases every opened device port.
func (d *Daemon) Close() {
	for _, dev := range d.devices {
		if dev.port != nil {
			dev.port.Close()
		}
	}
}

// Run activates every device's monitor and blocks until ctx is
// cancelled or any device's monitor exits unexpectedly, the same
// errgroup-based lifecycle fbclock's daemon.Run uses for its worker
// goroutines.
func (d *Daemon) Run(ctx context.Context) error {
	group, gctx := errgroup.WithContext(ctx)

	for _, dev := range d.devices {
		dev := dev
		hooks := d.buildHooks(dev)
		pps.Activate(dev.ctx, hooks)
		d.metrics.SetKernelActive(dev.cfg.Path, dev.ctx.KernelActive())
		group.Go(func() error {
			select {
			case <-gctx.Done():
				pps.Deactivate(dev.ctx)
				<-dev.ctx.Done()
				return nil
			case <-dev.ctx.Done():
				return fmt.Errorf("monitor for %s exited", dev.cfg.Path)
			}
		})
	}

	// The HTTP servers block for the life of the process, so they run
	// outside the group; otherwise Wait could never return.
	go d.stats.Start(d.cfg.MonitoringPort)
	if d.cfg.MetricsPort > 0 {
		go d.metrics.Start(d.cfg.MetricsPort)
	}

	return group.Wait()
}

// buildHooks assembles one device's Hooks: structured logging through
// logrus, reporting through the configured NTP SHM / chrony SOCK
// writers (chained so every configured sink sees every pulse), and
// Prometheus metrics, mirroring the way gpsd wires ntpshm, chrony_send
// and the per-device status line off the same pulse.
func (d *Daemon) buildHooks(dev *device) pps.Hooks {
	var reporters []func(pps.TimeDelta) string

	if dev.cfg.NTPSHMUnit >= 0 {
		if w, err := ppsreport.NewNTPSHMWriter(dev.cfg.NTPSHMUnit); err != nil {
			log.Warnf("ppsmond: %s: ntpshm disabled: %v", dev.cfg.Path, err)
		} else {
			reporters = append(reporters, w.Report)
		}
	}
	if dev.cfg.ChronySockPath != "" {
		sender := ppsreport.NewChronySockSender(dev.cfg.ChronySockPath, false)
		reporters = append(reporters, sender.Report)
	}

	metricsHook := d.metrics.HookFor(dev.cfg.Path)
	statsHook := d.stats.HookFor(dev.cfg.Path)
	rejectHook := d.metrics.RejectHookFor(dev.cfg.Path)

	return pps.Hooks{
		Log: func(level pps.LogLevel, format string, args ...interface{}) {
			entry := log.WithField("device", dev.cfg.Path)
			msg := fmt.Sprintf(format, args...)
			switch level {
			case pps.LogError:
				entry.Error(msg)
			case pps.LogWarn:
				entry.Warn(msg)
			case pps.LogInfo:
				entry.Info(msg)
			default:
				entry.Debug(msg)
			}
		},
		Report: func(delta pps.TimeDelta) string {
			label := "none"
			for _, r := range reporters {
				label = r(delta)
			}
			return label
		},
		PPS: func(delta pps.TimeDelta) {
			metricsHook(delta)
			statsHook(delta)
		},
		Reject: rejectHook,
		Wrap: func() {
			log.WithField("device", dev.cfg.Path).Info("ppsmond: monitor stopped")
		},
	}
}
