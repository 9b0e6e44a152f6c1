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
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/gnsstime/ppsmond/pps"
)

// DeviceStatus is the last published pulse for one device, as exposed
// over the JSON status endpoint ppsctl polls.
type DeviceStatus struct {
	RealSec   int64  `json:"realSec"`
	ClockSec  int64  `json:"clockSec"`
	ClockNsec int32  `json:"clockNsec"`
	Count     uint64 `json:"count"`
}

// Stats is the JSON status server: a per-device snapshot updated by
// each monitor's PPS hook, served the same way fbclock's JSONStats
// serves its counters over plain net/http.
type Stats struct {
	mu      sync.Mutex
	devices map[string]DeviceStatus
}

// NewStats builds an empty status table.
func NewStats() *Stats {
	return &Stats{devices: make(map[string]DeviceStatus)}
}

// HookFor returns a pps.Hooks.PPS closure that updates one device's
// status entry.
func (s *Stats) HookFor(device string) func(pps.TimeDelta) {
	count := uint64(0)
	return func(delta pps.TimeDelta) {
		count++
		s.mu.Lock()
		s.devices[device] = DeviceStatus{
			RealSec:   delta.Real.Sec,
			ClockSec:  delta.Clock.Sec,
			ClockNsec: delta.Clock.Nsec,
			Count:     count,
		}
		s.mu.Unlock()
	}
}

// Start runs the JSON status HTTP server; blocks.
func (s *Stats) Start(monitoringPort int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	addr := fmt.Sprintf(":%d", monitoringPort)
	log.Infof("ppsmond: starting status server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("ppsmond: status server failed: %v", err)
	}
}

func (s *Stats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snapshot := make(map[string]DeviceStatus, len(s.devices))
	for k, v := range s.devices {
		snapshot[k] = v
	}
	s.mu.Unlock()

	js, err := json.Marshal(snapshot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Errorf("ppsmond: failed to reply: %v", err)
	}
}
