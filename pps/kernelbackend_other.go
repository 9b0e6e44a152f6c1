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

import (
	"fmt"
	"unsafe"

	ioctl "github.com/vtolstov/go-ioctl"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// RFC2783 struct layout, mirrored from kernelbackend_linux.go's
// uapi/linux/pps.h transcription: this tree has no access to real BSD
// hardware to derive native <sys/timepps.h> bindings from, so the
// Linux wire layout is reused verbatim rather than guessed at.
const (
	bsdPPSIOCMagic    = '1'
	bsdPPSCaptureBoth = 0x01 | 0x02
)

type bsdPPSKtime struct {
	Sec   int64
	Nsec  int32
	Flags uint32
}

type bsdPPSKinfo struct {
	AssertSeq uint32
	ClearSeq  uint32
	AssertTu  bsdPPSKtime
	ClearTu   bsdPPSKtime
	Mode      int32
}

type bsdPPSKparams struct {
	APIVersion int32
	Mode       int32
	AssertOff  bsdPPSKtime
	ClearOff   bsdPPSKtime
}

type bsdPPSFdata struct {
	Info    bsdPPSKinfo
	Timeout bsdPPSKtime
}

var (
	bsdPPSIOCGetCap    = ioctl.IOR(bsdPPSIOCMagic, 0xa3, unsafe.Sizeof(int32(0)))
	bsdPPSIOCSetParams = ioctl.IOW(bsdPPSIOCMagic, 0xa2, unsafe.Sizeof(bsdPPSKparams{}))
	bsdPPSIOCFetch     = ioctl.IOWR(bsdPPSIOCMagic, 0xa4, unsafe.Sizeof(bsdPPSFdata{}))
)

func bsdPPSIoctl(fd int, req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// bsdKernelBackend implements kernelBackend directly on the serial
// file descriptor: per spec.md §4.2 step 3, BSD-like platforms expose
// RFC2783 on the same descriptor as the serial line, so there is no
// line-discipline attach and no /sys binding registry to resolve — the
// entire discovery dance kernelbackend_linux.go does for Linux
// collapses to "open an RFC2783 handle on device_fd".
type bsdKernelBackend struct {
	fd int
}

// newKernelBackend sets up the kernel PPS backend directly on
// ctx.DeviceFD. A non-nil error means the caller should fall back to
// the serial backend (if any) or run with neither; never fatal to the
// monitor, per spec.md §7.
func newKernelBackend(ctx *Ctx, logf func(LogLevel, string, ...interface{})) (kernelBackend, error) {
	if !term.IsTerminal(ctx.DeviceFD) {
		logf(LogInfo, "KPPS gps_fd not a tty")
		return nil, fmt.Errorf("device fd is not a tty")
	}

	logf(LogInfo, "KPPS RFC2783 fd is %d (shared with serial device)", ctx.DeviceFD)

	var caps int32
	if err := bsdPPSIoctl(ctx.DeviceFD, bsdPPSIOCGetCap, unsafe.Pointer(&caps)); err != nil {
		logf(LogError, "KPPS time_pps_getcap() failed")
	} else {
		logf(LogInfo, "KPPS caps %#x", caps)
	}

	params := bsdPPSKparams{Mode: bsdPPSCaptureBoth}
	if err := bsdPPSIoctl(ctx.DeviceFD, bsdPPSIOCSetParams, unsafe.Pointer(&params)); err != nil {
		logf(LogError, "KPPS time_pps_setparams() failed: %v", err)
		return nil, err
	}

	return &bsdKernelBackend{fd: ctx.DeviceFD}, nil
}

func (b *bsdKernelBackend) Fetch(nonBlocking bool) (captureRecord, bool, error) {
	data := bsdPPSFdata{}
	if !nonBlocking {
		data.Timeout = bsdPPSKtime{Sec: 1}
	}
	if err := bsdPPSIoctl(b.fd, bsdPPSIOCFetch, unsafe.Pointer(&data)); err != nil {
		if !nonBlocking && err == unix.ETIMEDOUT {
			return captureRecord{}, false, nil
		}
		return captureRecord{}, false, err
	}
	return captureRecord{
		AssertTS:  HiResTime{Sec: data.Info.AssertTu.Sec, Nsec: data.Info.AssertTu.Nsec},
		ClearTS:   HiResTime{Sec: data.Info.ClearTu.Sec, Nsec: data.Info.ClearTu.Nsec},
		AssertSeq: data.Info.AssertSeq,
		ClearSeq:  data.Info.ClearSeq,
	}, true, nil
}

// Close is a no-op: the fd is the shared serial descriptor, owned and
// closed by whoever opened the device, not by this backend.
func (b *bsdKernelBackend) Close() {}
