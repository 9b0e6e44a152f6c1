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

// sync.Mutex never returns a lock error the way pthread_mutex_lock
// can; there is nothing here to abort on, so the "abort the iteration
// on lock failure" redesign collapses to simply using the mutex.

// StashFix records the GNSS decoder's most recent in-band fix. Safe
// to call from any goroutine; the monitor reads it back under the
// same mutex on the next iteration.
func (c *Ctx) StashFix(real, clock HiResTime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fixIn = FixIn{FixReal: real, FixClock: clock}
}

func (c *Ctx) readFix() FixIn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fixIn
}

// LastPulse returns the most recently accepted pulse and the running
// acceptance count, so callers can detect missed pulses by comparing
// counts across calls.
func (c *Ctx) LastPulse() (TimeDelta, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulseOut.Last, c.pulseOut.Count
}

func (c *Ctx) publishPulse(delta TimeDelta) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pulseOut.Last = delta
	c.pulseOut.Count++
	return c.pulseOut.Count
}

// KernelActive reports whether Activate acquired a kernel RFC2783
// backend for this device. Stable once Activate returns: the monitor
// never acquires or drops the kernel handle afterwards.
func (c *Ctx) KernelActive() bool {
	return c.kernel != nil
}

func (c *Ctx) setHooks(h Hooks) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.hooks = h
}

func (c *Ctx) currentHooks() Hooks {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	return c.hooks
}
