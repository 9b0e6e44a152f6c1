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

import "testing"

func TestStashFixThenReadFix(t *testing.T) {
	c := newTestCtx()
	c.StashFix(HiResTime{Sec: 42}, HiResTime{Sec: 1000})

	got := c.readFix()
	if got.FixReal.Sec != 42 || got.FixClock.Sec != 1000 {
		t.Fatalf("readFix() = %+v, want fix stashed above", got)
	}
}

func TestPublishPulseIncrementsCount(t *testing.T) {
	c := newTestCtx()
	delta := TimeDelta{Real: HiResTime{Sec: 1}, Clock: HiResTime{Sec: 2}}

	if n := c.publishPulse(delta); n != 1 {
		t.Fatalf("first publishPulse() = %d, want 1", n)
	}
	if n := c.publishPulse(delta); n != 2 {
		t.Fatalf("second publishPulse() = %d, want 2", n)
	}

	last, count := c.LastPulse()
	if count != 2 || last != delta {
		t.Fatalf("LastPulse() = %+v, %d; want %+v, 2", last, count, delta)
	}
}

func TestSetHooksThenCurrentHooks(t *testing.T) {
	c := newTestCtx()
	if c.currentHooks().active() {
		t.Fatalf("fresh Ctx should have inactive hooks")
	}

	h := Hooks{PPS: func(TimeDelta) {}}
	c.setHooks(h)
	if !c.currentHooks().active() {
		t.Fatalf("hooks should be active after setHooks with a PPS hook")
	}

	c.setHooks(Hooks{})
	if c.currentHooks().active() {
		t.Fatalf("hooks should be inactive after clearing")
	}
}
