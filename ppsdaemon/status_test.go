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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnsstime/ppsmond/pps"
)

func TestStatsHandleRequestReflectsLatestPulse(t *testing.T) {
	s := NewStats()
	hook := s.HookFor("ttyS0")

	hook(pps.TimeDelta{Real: pps.HiResTime{Sec: 100}, Clock: pps.HiResTime{Sec: 1000, Nsec: 1}})
	hook(pps.TimeDelta{Real: pps.HiResTime{Sec: 101}, Clock: pps.HiResTime{Sec: 1001, Nsec: 2}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	s.handleRequest(rr, req)

	var got map[string]DeviceStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Equal(t, uint64(2), got["ttyS0"].Count)
	require.Equal(t, int64(101), got["ttyS0"].RealSec)
}
