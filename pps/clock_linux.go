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

//go:build linux

package pps

import "golang.org/x/sys/unix"

// readRealtimeClock samples CLOCK_REALTIME with nanosecond resolution,
// the same way facebook-time/clock and facebook-time/phc read the
// system clock via unix.ClockGettime rather than the coarser time.Now.
func readRealtimeClock() (HiResTime, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return HiResTime{}, err
	}
	return HiResTime{Sec: int64(ts.Sec), Nsec: int32(ts.Nsec)}, nil
}
