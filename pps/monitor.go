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

import "time"

// Activate attempts kernel-backend initialization and spawns the
// monitor goroutine. It always returns immediately; kernel-backend
// failure is logged but never prevents the worker from starting on
// the serial backend alone.
func Activate(ctx *Ctx, hooks Hooks) {
	ctx.setHooks(hooks)

	kernel, err := newKernelBackend(ctx, hooks.log)
	if err == nil {
		hooks.log(LogWarn, "KPPS kernel PPS will be used")
		ctx.kernel = kernel
	} else {
		ctx.kernel = nil
	}

	if lines := newSerialLines(ctx.DeviceFD); lines != nil {
		ctx.serial = newSerialState(lines)
	}

	switch {
	case ctx.serial != nil && ctx.kernel != nil:
		hooks.log(LogInfo, "PPS: serial backend driving, kernel backend arbitrating")
	case ctx.serial != nil:
		hooks.log(LogInfo, "PPS: serial backend driving, no kernel backend")
	case ctx.kernel != nil:
		hooks.log(LogInfo, "PPS: no serial backend on this platform, kernel backend driving alone")
	default:
		hooks.log(LogWarn, "PPS: neither kernel nor serial backend available on %s", ctx.DeviceName)
	}

	go runMonitor(ctx)
	hooks.log(LogProg, "PPS thread launched")
}

// Deactivate clears both hooks; the worker observes this at the top
// of its next iteration and exits. A blocked line-change wait is only
// broken by the next edge or by closing the device — this is a known
// limitation (spec.md §9) and is not worked around here.
func Deactivate(ctx *Ctx) {
	ctx.setHooks(Hooks{})
}

// Done returns a channel that is closed once the monitor goroutine
// has returned, for callers that want to wait for clean shutdown.
func (c *Ctx) Done() <-chan struct{} {
	return c.done
}

// runMonitor is the per-device worker loop: spec.md §4.6's
// activate/loop/deactivate lifecycle. Which of the three loop shapes
// below drives it depends entirely on what Activate found available on
// this platform and this device — the lifecycle and teardown are the
// same regardless.
func runMonitor(ctx *Ctx) {
	defer close(ctx.done)

	var lastSecondUsed int64 = -1 // sentinel: "no second handled yet"

	switch {
	case ctx.serial != nil:
		ctx.runSerialLoop(&lastSecondUsed)
	case ctx.kernel != nil:
		ctx.runKernelOnlyLoop(&lastSecondUsed)
	default:
		ctx.runNoBackendLoop()
	}

	if ctx.kernel != nil {
		ctx.currentHooks().log(LogProg, "PPS descriptor cleaned up")
		ctx.kernel.Close()
	}
	if w := ctx.currentHooks().Wrap; w != nil {
		w()
	}
	ctx.currentHooks().log(LogProg, "PPS gpsd_ppsmonitor exited")
}

// runSerialLoop is the ordinary Linux-shaped loop: block on the serial
// line-change wait, sample the clock, classify on the serial edge, and
// let the kernel backend (if any) arbitrate the clock value per
// spec.md §4.4.
func (c *Ctx) runSerialLoop(lastSecondUsed *int64) {
	for {
		hooks := c.currentHooks()
		if !hooks.active() {
			return
		}

		if err := c.serial.lines.Wait(); err != nil {
			hooks.log(LogWarn, "PPS ioctl(TIOCMIWAIT) on %s failed: %v", c.DeviceName, err)
			return
		}

		fix := c.readFix()

		clockTS, err := c.clockFn()
		if err != nil {
			hooks.log(LogError, "PPS clock_gettime() failed")
			return
		}

		state, err := c.serial.lines.State()
		if err != nil {
			hooks.log(LogError, "PPS ioctl(TIOCMGET) on %s failed", c.DeviceName)
			return
		}
		hooks.log(LogProg, "PPS ioctl(TIOCMIWAIT) on %s succeeded", c.DeviceName)

		result := c.serial.step(clockTS, state, hooks.log, c.DeviceName)
		if result.sleepTenSeconds {
			time.Sleep(10 * time.Second)
		}
		if result.skip {
			continue
		}

		selectedClock := clockTS
		if c.kernel != nil {
			selectedClock = c.preferKernelClock(hooks, clockTS)
		}

		verdict := Classify(result.cycleUs, result.durationUs, result.edge)
		if verdict.Accepted {
			hooks.log(LogRaw, "PPS edge accepted %s", verdict.Label)
		} else {
			hooks.log(LogRaw, "PPS edge rejected %s", verdict.Label)
			hooks.reject(verdict.Label)
			continue
		}

		c.correlate(hooks, fix, selectedClock, lastSecondUsed)
	}
}

// runKernelOnlyLoop drives the monitor from the kernel RFC2783 backend
// alone, for platforms and configurations with no serial-line
// primitive (spec.md §4.3's "on platforms where serial and PPS share
// the same file descriptor, use device_fd directly" and §4.4's "when
// only the kernel backend is active, it classifies on the kernel edge
// using the kernel backend's own cycle/duration"). The blocking Fetch
// is this loop's suspension point, bounded to one second per spec.md
// §5, so hooks are rechecked at least that often.
func (c *Ctx) runKernelOnlyLoop(lastSecondUsed *int64) {
	for {
		hooks := c.currentHooks()
		if !hooks.active() {
			return
		}

		rec, ok, err := c.kernel.Fetch(false)
		if err != nil {
			hooks.log(LogWarn, "KPPS fetch on %s failed: %v", c.DeviceName, err)
			return
		}
		if !ok {
			continue // bounded timeout elapsed with no new edge
		}

		fix := c.readFix()
		edgeTS, edgePolarity := rec.selectEdge()
		cycleUs, durationUs := c.kernelEdges().observe(edgeTS, edgePolarity)
		hooks.log(LogProg, "KPPS cycle: %7d uSec, duration: %7d uSec @ %s", cycleUs, durationUs, edgeTS)

		verdict := Classify(cycleUs, durationUs, edgePolarity)
		if verdict.Accepted {
			hooks.log(LogRaw, "PPS edge accepted %s", verdict.Label)
		} else {
			hooks.log(LogRaw, "PPS edge rejected %s", verdict.Label)
			hooks.reject(verdict.Label)
			continue
		}

		c.correlate(hooks, fix, edgeTS, lastSecondUsed)
	}
}

// runNoBackendLoop covers spec.md §7's "device absent / not a tty"
// clause when neither backend is usable: the loop still runs, rejects
// every iteration, and exits cleanly once Deactivate clears the hooks.
func (c *Ctx) runNoBackendLoop() {
	for {
		hooks := c.currentHooks()
		if !hooks.active() {
			return
		}
		const reason = "no kernel or serial backend available"
		hooks.log(LogRaw, "PPS: %s on %s", reason, c.DeviceName)
		hooks.reject(reason)
		time.Sleep(time.Second)
	}
}

// preferKernelClock fetches the kernel backend's own capture record
// (non-blocking — the serial wait already woke us this iteration) and
// returns its edge timestamp when it passes a basic 1 Hz sanity check,
// per spec.md §4.4's backend-arbitration rule that the kernel
// timestamp, being lower latency and lower jitter, wins when both
// backends produced one in the same iteration.
func (c *Ctx) preferKernelClock(hooks Hooks, fallback HiResTime) HiResTime {
	rec, ok, err := c.kernel.Fetch(true)
	if err != nil {
		hooks.log(LogError, "KPPS kernel PPS failed")
		return fallback
	}
	if !ok {
		return fallback
	}
	edgeTS, edgePolarity := rec.selectEdge()
	cycleUs, durationUs := c.kernelEdges().observe(edgeTS, edgePolarity)
	hooks.log(LogProg, "KPPS cycle: %7d uSec, duration: %7d uSec @ %s", cycleUs, durationUs, edgeTS)
	if cycleUs > 990000 && cycleUs < 1010000 {
		return edgeTS
	}
	return fallback
}

// correlate implements spec.md §4.4's "correlation with last fix"
// step for one already-accepted edge: it rejects edges that arrive
// before any fix was stashed, applies de-duplication and clock-sanity
// rejections, and on acceptance dispatches hooks and
// updates the published pulse. Kept separate from runMonitor's I/O so
// it is directly unit-testable against the scenarios in spec.md §8.
func (c *Ctx) correlate(hooks Hooks, fix FixIn, selectedClock HiResTime, lastSecondUsed *int64) {
	if fix.FixReal.IsZero() {
		hooks.log(LogRaw, "PPS: no current GPS seconds")
		hooks.reject("no current GPS seconds")
		return
	}
	if *lastSecondUsed >= fix.FixReal.Sec {
		hooks.log(LogRaw, "PPS: this second already handled")
		hooks.reject("this second already handled")
		return
	}

	delta := TimeDelta{
		Real:  HiResTime{Sec: fix.FixReal.Sec + 1, Nsec: 0},
		Clock: selectedClock,
	}
	delay := delta.Clock.Sub(fix.FixClock)

	switch {
	case delay.Sec < 0 || delay.Nsec < 0:
		hooks.log(LogRaw, "PPS: system clock went backwards: %s", delay)
		hooks.reject("system clock went backwards")
		return
	case delay.Sec > 1 || (delay.Sec == 1 && delay.Nsec > 100000000):
		hooks.log(LogRaw, "PPS: timestamp out of range: %s", delay)
		hooks.reject("timestamp out of range")
		return
	}

	*lastSecondUsed = fix.FixReal.Sec

	label := "no report hook"
	if hooks.Report != nil {
		label = hooks.Report(delta)
	}
	if hooks.PPS != nil {
		hooks.PPS(delta)
	}
	c.publishPulse(delta)
	hooks.log(LogInfo, "PPS hooks called with %s clock: %s real: %s", label, delta.Clock, delta.Real)
}

// kernelEdges lazily owns the kernel backend's own pulse[2] cache,
// kept separate from the serial backend's per spec.md §4.4 (each
// backend tracks its own cycle/duration when both are active).
func (c *Ctx) kernelEdges() *pulseEdges {
	if c.kernelPulse == nil {
		c.kernelPulse = &pulseEdges{}
	}
	return c.kernelPulse
}
