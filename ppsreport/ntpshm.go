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

// Package ppsreport holds the report/PPS hook implementations wired
// into pps.Activate: writers that turn an accepted pulse into
// something downstream time daemons consume.
package ppsreport

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gnsstime/ppsmond/pps"
)

// ntpBase is the key of the first NTPD SHM segment.
// http://doc.ntp.org/current-stable/drivers/driver28.html
const ntpBase = 0x4e545030

const ipcCreat = 00001000

// ntpshmSize is the size of the NTPD SHM layout, ntpd/refclock_shm.c.
const ntpshmSize = 96

// ntpSHM mirrors ntpd's struct shmTime. Field order and sizes must
// match the C layout exactly: this is read by ntpd/chronyd, not by
// anything else in this module.
type ntpSHM struct {
	Mode                 int32
	Count                int32
	ClockTimeStampSec    int64
	ClockTimeStampUSec   int32
	ReceiveTimeStampSec  int64
	ReceiveTimeStampUSec int32
	Leap                 int32
	Precision            int32
	Nsamples             int32
	Valid                int32
	ClockTimeStampNSec   int32
	ReceiveTimeStampNSec int32
	Dummy                [8]int32
}

// NTPSHMWriter owns one attached SHM segment and writes one sample to
// it per accepted pulse, using the classic count/valid handshake: bump
// count and clear valid before writing, write the sample, bump count
// and set valid again. A reader that observes count change mid-read
// discards the sample instead of racing it.
type NTPSHMWriter struct {
	unit int
	shm  *ntpSHM
}

// NewNTPSHMWriter attaches (creating if necessary) the SHM segment for
// the given NTP SHM unit, the same key scheme gpsd's ntpshm.c and
// ntpd's refclock_shm.c use: ntpBase + unit.
func NewNTPSHMWriter(unit int) (*NTPSHMWriter, error) {
	key := uintptr(ntpBase + unit)
	shmID, _, errno := unix.Syscall(unix.SYS_SHMGET, key, ntpshmSize, uintptr(ipcCreat|0600))
	if errno != 0 {
		return nil, fmt.Errorf("shmget(NTP%d): %s", unit, unix.ErrnoName(errno))
	}
	shmptr, _, errno := unix.Syscall(unix.SYS_SHMAT, shmID, 0, 0)
	if errno != 0 {
		return nil, fmt.Errorf("shmat(NTP%d): %s", unit, unix.ErrnoName(errno))
	}
	return &NTPSHMWriter{unit: unit, shm: (*ntpSHM)(unsafe.Pointer(shmptr))}, nil
}

// Report implements pps.Hooks.Report: one accepted pulse becomes one
// SHM sample, clock time taken from the host clock reading and
// receive time taken from the GPS-reported real time.
func (w *NTPSHMWriter) Report(delta pps.TimeDelta) string {
	shm := w.shm
	shm.Valid = 0
	shm.Count++

	shm.ClockTimeStampSec = delta.Clock.Sec
	shm.ClockTimeStampNSec = delta.Clock.Nsec
	shm.ClockTimeStampUSec = delta.Clock.Nsec / 1000
	shm.ReceiveTimeStampSec = delta.Real.Sec
	shm.ReceiveTimeStampNSec = delta.Real.Nsec
	shm.ReceiveTimeStampUSec = delta.Real.Nsec / 1000
	shm.Leap = 0
	shm.Precision = -20
	shm.Mode = 1

	shm.Count++
	shm.Valid = 1

	return fmt.Sprintf("ntpshm[%d]", w.unit)
}
