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

package pps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noopLog(LogLevel, string, ...interface{}) {}

func TestStepDetectsEdgeOnLineChange(t *testing.T) {
	s := newSerialState(nil)
	s.stateLast = 0

	res := s.step(HiResTime{Sec: 1000}, lineDCD, noopLog, "test0")
	require.Equal(t, 1, res.edge)
	require.False(t, res.skip)
	require.Equal(t, 0, s.unchanged)
}

func TestStepInvisiblePulseClearsUnchangedWithoutSkip(t *testing.T) {
	s := newSerialState(nil)
	s.stateLast = lineDCD
	// state == stateLast forces edge = 0, so the "invisible pulse"
	// window is checked against edges.last[0].
	s.edges.last[0] = HiResTime{Sec: 999}

	res := s.step(HiResTime{Sec: 1000}, lineDCD, noopLog, "test0")
	require.False(t, res.skip)
	require.Equal(t, int64(0), res.durationUs)
}

func TestStepStuckLineSkipsEveryIntermediateIteration(t *testing.T) {
	s := newSerialState(nil)
	s.stateLast = lineDCD
	// Each step's clock moves 5s from the last recorded edge[0], well
	// outside the "invisible 1Hz pulse" window, so unchanged grows
	// every iteration instead of resetting.
	clock := int64(2000)
	for i := 1; i <= 9; i++ {
		res := s.step(HiResTime{Sec: clock}, lineDCD, noopLog, "test0")
		require.Truef(t, res.skip, "iteration %d should be skipped", i)
		require.False(t, res.sleepTenSeconds)
		clock += 5
	}
	res := s.step(HiResTime{Sec: clock}, lineDCD, noopLog, "test0")
	require.True(t, res.skip)
	require.True(t, res.sleepTenSeconds)
	require.Equal(t, 1, s.unchanged)
}
