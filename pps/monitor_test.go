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

func newTestCtx() *Ctx {
	return &Ctx{
		DeviceName: "test0",
		clockFn:    func() (HiResTime, error) { return HiResTime{}, nil },
		done:       make(chan struct{}),
	}
}

func recordingHooks(rejected *[]string) Hooks {
	return Hooks{
		Log: func(level LogLevel, format string, args ...interface{}) {
			if level == LogRaw {
				*rejected = append(*rejected, format)
			}
		},
	}
}

// Scenario A: cold start, no prior fix — ten accepted 1Hz edges all
// fail correlation because no fix has ever arrived.
func TestScenarioAColdStart(t *testing.T) {
	c := newTestCtx()
	var rejections []string
	hooks := recordingHooks(&rejections)

	var lastSecondUsed int64 = -1
	for i := 0; i < 10; i++ {
		v := Classify(1000000, 900000, 0)
		require.True(t, v.Accepted)
		c.correlate(hooks, FixIn{}, HiResTime{Sec: 1700000000}, &lastSecondUsed)
	}

	_, count := c.LastPulse()
	require.Equal(t, uint64(0), count)
}

// Scenario B: steady 1Hz with a fresh fix accepts and publishes.
func TestScenarioBSteady1Hz(t *testing.T) {
	c := newTestCtx()
	var lastSecondUsed int64 = -1
	hooks := Hooks{Log: func(LogLevel, string, ...interface{}) {}}

	fix := FixIn{FixReal: HiResTime{Sec: 100}, FixClock: HiResTime{Sec: 1000}}
	c.correlate(hooks, fix, HiResTime{Sec: 1001}, &lastSecondUsed)

	last, count := c.LastPulse()
	require.Equal(t, uint64(1), count)
	require.Equal(t, HiResTime{Sec: 101}, last.Real)
	require.Equal(t, HiResTime{Sec: 1001}, last.Clock)
}

// Scenario C: a duplicate second (no new stash_fix) is rejected and
// the count does not move.
func TestScenarioCDuplicateSecond(t *testing.T) {
	c := newTestCtx()
	var lastSecondUsed int64 = -1
	hooks := Hooks{Log: func(LogLevel, string, ...interface{}) {}}
	fix := FixIn{FixReal: HiResTime{Sec: 100}, FixClock: HiResTime{Sec: 1000}}

	c.correlate(hooks, fix, HiResTime{Sec: 1001}, &lastSecondUsed)
	_, firstCount := c.LastPulse()

	c.correlate(hooks, fix, HiResTime{Sec: 1002}, &lastSecondUsed)
	_, secondCount := c.LastPulse()

	require.Equal(t, firstCount, secondCount)
}

// Scenario D: clock regression is rejected.
func TestScenarioDClockRegression(t *testing.T) {
	c := newTestCtx()
	var lastSecondUsed int64 = -1
	var rejections []string
	hooks := recordingHooks(&rejections)

	fix := FixIn{FixReal: HiResTime{Sec: 200}, FixClock: HiResTime{Sec: 1010}}
	c.correlate(hooks, fix, HiResTime{Sec: 1009}, &lastSecondUsed)

	_, count := c.LastPulse()
	require.Equal(t, uint64(0), count)
	require.Contains(t, rejections[len(rejections)-1], "system clock went backwards")
}

// Scenario E: a stale fix (delay beyond 1.1s) is rejected.
func TestScenarioEStaleFix(t *testing.T) {
	c := newTestCtx()
	var lastSecondUsed int64 = -1
	var rejections []string
	hooks := recordingHooks(&rejections)

	fix := FixIn{FixReal: HiResTime{Sec: 300}, FixClock: HiResTime{Sec: 1000}}
	c.correlate(hooks, fix, HiResTime{Sec: 1003}, &lastSecondUsed)

	_, count := c.LastPulse()
	require.Equal(t, uint64(0), count)
	require.Contains(t, rejections[len(rejections)-1], "timestamp out of range")
}

// Within-tolerance delay (up to 1.1s) must still be accepted.
func TestCorrelateToleratesSlewingClock(t *testing.T) {
	c := newTestCtx()
	var lastSecondUsed int64 = -1
	hooks := Hooks{Log: func(LogLevel, string, ...interface{}) {}}

	fix := FixIn{FixReal: HiResTime{Sec: 400}, FixClock: HiResTime{Sec: 1000}}
	c.correlate(hooks, fix, HiResTime{Sec: 1001, Nsec: 100000000}, &lastSecondUsed)

	_, count := c.LastPulse()
	require.Equal(t, uint64(1), count)
}

// correlate's reject branches must also drive Hooks.Reject, not only
// Hooks.Log, so a daemon can count rejections by reason without
// parsing log strings.
func TestCorrelateInvokesRejectHookWithStableReason(t *testing.T) {
	c := newTestCtx()
	var lastSecondUsed int64 = -1
	var reasons []string
	hooks := Hooks{
		Log:    func(LogLevel, string, ...interface{}) {},
		Reject: func(reason string) { reasons = append(reasons, reason) },
	}

	backwardsFix := FixIn{FixReal: HiResTime{Sec: 200}, FixClock: HiResTime{Sec: 1010}}
	c.correlate(hooks, backwardsFix, HiResTime{Sec: 1009}, &lastSecondUsed)
	require.Equal(t, []string{"system clock went backwards"}, reasons)

	acceptedFix := FixIn{FixReal: HiResTime{Sec: 500}, FixClock: HiResTime{Sec: 1010}}
	c.correlate(hooks, acceptedFix, HiResTime{Sec: 1011}, &lastSecondUsed)
	require.Equal(t, []string{"system clock went backwards"}, reasons)

	c.correlate(hooks, acceptedFix, HiResTime{Sec: 1012}, &lastSecondUsed)
	require.Equal(t, []string{"system clock went backwards", "this second already handled"}, reasons)
}

// Scenario F: when both backends produce a timestamp in the same
// iteration, the kernel's timestamp must win.
func TestScenarioFKernelPreference(t *testing.T) {
	c := newTestCtx()
	c.kernel = &fakeKernelBackend{
		record: captureRecord{
			AssertTS: HiResTime{Sec: 5000, Nsec: 0},
			ClearTS:  HiResTime{Sec: 4999, Nsec: 500000000},
		},
	}
	// prime the kernel pulse cache so the fetched edge looks like a
	// sane ~1Hz cycle relative to the previous assert.
	c.kernelEdges().last[1] = HiResTime{Sec: 4999, Nsec: 0}

	hooks := Hooks{Log: func(LogLevel, string, ...interface{}) {}}
	serialClock := HiResTime{Sec: 5000, Nsec: 20000000} // 20ms of jitter vs kernel ts

	selected := c.preferKernelClock(hooks, serialClock)
	require.Equal(t, HiResTime{Sec: 5000, Nsec: 0}, selected)
}

type fakeKernelBackend struct {
	record captureRecord
	err    error
}

func (f *fakeKernelBackend) Fetch(nonBlocking bool) (captureRecord, bool, error) {
	if f.err != nil {
		return captureRecord{}, false, f.err
	}
	return f.record, true, nil
}

func (f *fakeKernelBackend) Close() {}
