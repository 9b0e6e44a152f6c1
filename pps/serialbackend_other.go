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

//go:build !linux && unix

package pps

// TIOCMIWAIT is a Linux-ism; BSD-like platforms have no analogous
// "wait for modem-status line change" ioctl in this tree; per spec.md
// §4.2 step 3 they reach PPS edges through the kernel RFC2783 handle
// shared with the serial fd instead (kernelbackend_other.go). These
// line bits are unused outside serialbackend.go's monitoredLines const
// on this platform.
const (
	lineDCD = 0
	lineCAR = 0
	lineRI  = 0
	lineCTS = 0
)

// newSerialLines reports the serial-line backend as unavailable on
// this platform: nil, not a stub that fails its first call. runMonitor
// uses the nil to pick the kernel-only loop instead of treating a
// transient wait failure as fatal.
func newSerialLines(fd int) serialLines {
	return nil
}
