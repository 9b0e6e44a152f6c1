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

// serialLines is the "wait for modem-status line change, then read
// the line word" capability the monitor loop consumes. Implementations
// are platform-specific (serialbackend_linux.go); wait and read are
// split into two calls so the caller can sample the clock in between,
// matching the time-critical section in spec.md §4.3.
//
// newSerialLines returns nil on platforms with no such primitive
// (serialbackend_other.go, serialbackend_unsupported.go); Activate
// leaves Ctx.serial nil in that case and the monitor loop runs its
// kernel-only or no-backend path instead of treating the absence as a
// runtime wait failure.
type serialLines interface {
	// Wait blocks until any monitored modem-status line toggles.
	Wait() error
	// State reads the current modem-status word.
	State() (int, error)
}

// monitoredLines is the union of control lines gpsd treats as
// carrying a PPS signal: no receiver is assumed to drive more than
// one, so observing any change is equivalent to observing an edge.
const monitoredLines = lineDCD | lineCAR | lineRI | lineCTS

// serialState is the mutable, platform-agnostic bookkeeping the
// serial backend carries across iterations: the masked previous line
// word, the stuck-line counter, and per-polarity edge timestamps.
type serialState struct {
	lines serialLines

	stateLast int
	unchanged int
	edges     pulseEdges
}

func newSerialState(lines serialLines) *serialState {
	return &serialState{lines: lines}
}

// serialResult is what one serial-backend iteration contributes to
// the monitor: the detected edge polarity, the cycle/duration pair in
// microseconds, and whether the iteration should be skipped (the
// "unchanged, retry" case) and whether the caller should sleep ten
// seconds before the next wait.
type serialResult struct {
	edge            int
	cycleUs         int64
	durationUs      int64
	skip            bool
	sleepTenSeconds bool
}

// step performs one "time-critical section already done" update:
// given the freshly-sampled clock and line word, it updates the
// stuck-line counter and the pulse[2] cache and returns the
// cycle/duration the classifier needs.
//
// Mirrors the original's "if (unchanged) continue;": any iteration
// where the masked word did not change, and the cycle wasn't
// recognized as an invisible 1 Hz pulse, is skipped — whether or not
// the stuck-line counter happened to also hit 10 that iteration.
func (s *serialState) step(clockTS HiResTime, state int, logf func(LogLevel, string, ...interface{}), deviceName string) serialResult {
	state &= monitoredLines
	edge := 0
	if state > s.stateLast {
		edge = 1
	}

	cycleUs := clockTS.DiffMicros(s.edges.last[edge])
	durationUs := clockTS.DiffMicros(s.edges.last[1-edge])

	res := serialResult{edge: edge, cycleUs: cycleUs, durationUs: durationUs}

	if state == s.stateLast {
		if cycleUs > 999000 && cycleUs < 1001000 {
			res.durationUs = 0
			s.unchanged = 0
			logf(LogRaw, "PPS pps-detect on %s invisible pulse", deviceName)
		} else {
			s.unchanged++
			if s.unchanged == 10 {
				s.unchanged = 1
				logf(LogWarn, "PPS TIOCMIWAIT returns unchanged state, ppsmonitor sleeps 10")
				res.sleepTenSeconds = true
			}
		}
	} else {
		logf(LogRaw, "PPS pps-detect on %s changed to %d", deviceName, state)
		s.unchanged = 0
	}

	s.stateLast = state
	s.edges.last[edge] = clockTS
	res.skip = s.unchanged != 0

	return res
}
