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

//go:build !linux

package pps

import "time"

// readRealtimeClock falls back to the standard library clock on
// platforms without a CLOCK_REALTIME syscall wrapper exercised
// elsewhere in this tree.
func readRealtimeClock() (HiResTime, error) {
	now := time.Now()
	return HiResTime{Sec: now.Unix(), Nsec: int32(now.Nanosecond())}, nil
}
