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

// Package ppsdaemon wires the pps engine, the ppsreport hooks and the
// monitoring endpoints together into one long-running process: what
// cmd/ppsmond actually runs.
package ppsdaemon

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// DeviceConfig describes one PPS-producing serial device to monitor.
type DeviceConfig struct {
	// Path is the tty device node, e.g. /dev/ttyS0 or /dev/pps0.
	Path string `yaml:"path"`
	// NTPSHMUnit selects the NTP SHM segment this device publishes to.
	// Negative disables the SHM writer for this device.
	NTPSHMUnit int `yaml:"ntpshmUnit"`
	// ChronySockPath, when set, also publishes to chronyd's SOCK
	// refclock at this path.
	ChronySockPath string `yaml:"chronySockPath"`
}

// Config is the top-level ppsmond configuration.
type Config struct {
	Devices        []DeviceConfig `yaml:"devices"`
	MonitoringPort int            `yaml:"monitoringPort"`
	MetricsPort    int            `yaml:"metricsPort"`
}

// EvalAndValidate checks the config is internally consistent.
func (c *Config) EvalAndValidate() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("bad config: at least one device required")
	}
	for i, d := range c.Devices {
		if d.Path == "" {
			return fmt.Errorf("bad config: devices[%d].path is empty", i)
		}
	}
	if c.MonitoringPort <= 0 {
		return fmt.Errorf("bad config: 'monitoringPort' must be >0")
	}
	return nil
}

// ReadConfig reads and unmarshals a ppsmond config file.
func ReadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := &Config{}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
