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

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// Modem-status line bits, matching linux/termios.h (and the same
// values Daedaluz-goserial's ModemLine enum uses for TIOCMGET/TIOCMSET).
const (
	lineDCD = unix.TIOCM_CD
	lineCAR = unix.TIOCM_CAR
	lineRI  = unix.TIOCM_RI
	lineCTS = unix.TIOCM_CTS
)

// fdSerialLines implements serialLines directly against a raw file
// descriptor via TIOCMIWAIT/TIOCMGET, the same ioctls
// Daedaluz-goserial's port_linux.go issues through its own wrapper —
// reimplemented here because the pps package holds a bare fd, never a
// goserial.Port.
type fdSerialLines struct {
	fd int
}

func newSerialLines(fd int) serialLines {
	return &fdSerialLines{fd: fd}
}

func (f *fdSerialLines) Wait() error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(f.fd), uintptr(unix.TIOCMIWAIT), uintptr(monitoredLines))
	if errno != 0 {
		return errno
	}
	return nil
}

func (f *fdSerialLines) State() (int, error) {
	var state int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(f.fd), uintptr(unix.TIOCMGET), uintptr(unsafe.Pointer(&state)))
	if errno != 0 {
		return 0, errno
	}
	return int(state), nil
}
