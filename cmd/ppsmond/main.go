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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/gnsstime/ppsmond/ppsdaemon"
)

func main() {
	var (
		cfgPath        string
		device         string
		ntpshmUnit     int
		chronySockPath string
		monitoringPort int
		metricsPort    int
		verbose        bool
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "ppsmond: GNSS PPS monitor daemon\n\nFlags:\n")
		flag.PrintDefaults()
	}

	flag.StringVar(&cfgPath, "cfg", "", "Path to YAML config; when set, overrides all other device flags")
	flag.StringVar(&device, "device", "/dev/ttyS0", "Path to serial device carrying PPS, used when -cfg is not set")
	flag.IntVar(&ntpshmUnit, "ntpshmUnit", 0, "NTP SHM unit to publish to; negative disables")
	flag.StringVar(&chronySockPath, "chronySock", "", "chronyd SOCK refclock path; empty disables")
	flag.IntVar(&monitoringPort, "monitoringport", 21039, "Port to serve JSON device status on")
	flag.IntVar(&metricsPort, "metricsport", 0, "Port to serve Prometheus metrics on; 0 disables")
	flag.BoolVar(&verbose, "verbose", false, "Verbose logging")
	flag.Parse()

	log.SetReportCaller(true)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	var cfg *ppsdaemon.Config
	var err error
	if cfgPath != "" {
		log.Warningf("using config from %s, device flags are ignored", cfgPath)
		cfg, err = ppsdaemon.ReadConfig(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		cfg = &ppsdaemon.Config{
			Devices: []ppsdaemon.DeviceConfig{{
				Path:           device,
				NTPSHMUnit:     ntpshmUnit,
				ChronySockPath: chronySockPath,
			}},
			MonitoringPort: monitoringPort,
			MetricsPort:    metricsPort,
		}
	}
	if err := cfg.EvalAndValidate(); err != nil {
		log.Fatal(err)
	}
	log.Debugf("config: %+v", *cfg)

	d, err := ppsdaemon.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer d.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := d.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
