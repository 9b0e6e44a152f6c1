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

import "sync"

// LogLevel mirrors gpsd's THREAD_* logging levels, from least to most
// severe.
type LogLevel int

// Log levels used by Hooks.Log.
const (
	LogRaw LogLevel = iota
	LogProg
	LogInfo
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogRaw:
		return "RAW"
	case LogProg:
		return "PROG"
	case LogInfo:
		return "INF"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TimeDelta is one observed or published pulse: the wall time it
// represents, paired with the host clock reading taken right after
// the edge was observed.
type TimeDelta struct {
	Real  HiResTime
	Clock HiResTime
}

// FixIn is the last in-band fix the GNSS decoder reported. It is
// written by the decoder and consumed by the monitor, both under
// Ctx.mu.
type FixIn struct {
	FixReal  HiResTime
	FixClock HiResTime
}

// PulseOut is the last accepted pulse and a monotonically increasing
// count of pulses accepted since activation.
type PulseOut struct {
	Last  TimeDelta
	Count uint64
}

// Hooks is the capability record a caller supplies at Activate time.
// Each field is independently present (non-nil) or absent; an absent
// field is meaningful, not an error. Setting both Report and PPS to
// nil is the loop's termination signal — Deactivate relies
// on exactly this.
type Hooks struct {
	// Log receives every diagnostic line the monitor produces. Must
	// never block for long and must be safe to call from the monitor
	// goroutine concurrently with the rest of the daemon.
	Log func(level LogLevel, format string, args ...interface{})

	// Report is invoked once per accepted pulse and returns a short
	// human-readable summary of what it did (e.g. "chrony+ntpshm"),
	// which the monitor logs at LogInfo.
	Report func(delta TimeDelta) string

	// PPS is invoked once per accepted pulse, after Report, for
	// driver-specific publication.
	PPS func(delta TimeDelta)

	// Reject is invoked once per rejected edge, classifier rejections
	// and correlation rejections alike, with the same short label
	// Log already receives at LogRaw. Optional instrumentation hook,
	// not part of the loop's termination signal.
	Reject func(reason string)

	// Wrap is invoked exactly once, at worker exit, for teardown.
	Wrap func()
}

// active reports whether the loop should keep running: dual absence
// of Report and PPS is the termination signal.
func (h Hooks) active() bool {
	return h.Report != nil || h.PPS != nil
}

func (h Hooks) log(level LogLevel, format string, args ...interface{}) {
	if h.Log != nil {
		h.Log(level, format, args...)
	}
}

func (h Hooks) reject(reason string) {
	if h.Reject != nil {
		h.Reject(reason)
	}
}

// Ctx is the per-device monitor context: the state shared between the
// spawned monitor goroutine and the rest of the daemon. Callers obtain
// one with NewCtx(name, fd), which sets DeviceName and DeviceFD, and
// pass it to Activate.
type Ctx struct {
	DeviceName string
	DeviceFD   int

	mu       sync.Mutex
	fixIn    FixIn
	pulseOut PulseOut

	kernel      kernelBackend
	kernelPulse *pulseEdges
	serial      *serialState

	hooksMu sync.Mutex
	hooks   Hooks

	// clockFn reads the realtime clock; overridden in tests to drive
	// the scenarios in spec.md §8 without real hardware.
	clockFn func() (HiResTime, error)

	done chan struct{}
}

// NewCtx builds a monitor context for the given device. fd must be an
// already-open, blocking file descriptor for the serial device; name
// is used both for logging and for RFC2783 device-path matching.
func NewCtx(name string, fd int) *Ctx {
	return &Ctx{
		DeviceName: name,
		DeviceFD:   fd,
		clockFn:    readRealtimeClock,
		done:       make(chan struct{}),
	}
}
