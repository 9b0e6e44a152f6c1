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

package ppsreport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gnsstime/ppsmond/pps"
)

// sockMagic is the fixed value chrony's SOCK refclock driver requires
// in the last field of every sample, refclock_sock.c's SOCK_MAGIC.
const sockMagic = 0x534f434b

// sockSample is chrony's wire layout for the SOCK refclock protocol,
// one fixed-size datagram per sample.
type sockSample struct {
	Sec    int64
	Usec   int64
	Offset float64
	Pulse  int32
	Leap   int32
	_      int32 // pad, ignored by chronyd
	Magic  int32
}

// ChronySockSender reports each accepted pulse to chronyd's SOCK
// refclock driver over an AF_UNIX SOCK_DGRAM socket. One sender per
// device, serialized by mu the way Client.Communicate serializes a
// single chrony command-socket connection.
type ChronySockSender struct {
	mu       sync.Mutex
	sockPath string
	pulse    bool
}

// NewChronySockSender builds a sender that writes to sockPath, the
// Unix datagram socket chronyd's "refclock SOCK" directive listens on.
// When pulse is true, samples are tagged as PPS-only (no time payload,
// offset discipline only); gpsd sets this whenever the pulse has no
// accompanying in-band fix to correlate against.
func NewChronySockSender(sockPath string, pulse bool) *ChronySockSender {
	return &ChronySockSender{sockPath: sockPath, pulse: pulse}
}

// Report implements pps.Hooks.Report.
func (s *ChronySockSender) Report(delta pps.TimeDelta) string {
	offsetSeconds := float64(delta.Clock.Sec-delta.Real.Sec) + float64(delta.Clock.Nsec-delta.Real.Nsec)/1e9

	sample := sockSample{
		Sec:    delta.Real.Sec,
		Usec:   int64(delta.Real.Nsec) / 1000,
		Offset: offsetSeconds,
		Magic:  sockMagic,
	}
	if s.pulse {
		sample.Pulse = 1
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, sample); err != nil {
		return fmt.Sprintf("chronysock: encode failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	conn, err := net.Dial("unixgram", s.sockPath)
	if err != nil {
		return fmt.Sprintf("chronysock: dial %s failed: %v", s.sockPath, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(2 * time.Second)); err != nil {
		return fmt.Sprintf("chronysock: set deadline failed: %v", err)
	}
	if _, err := conn.Write(buf.Bytes()); err != nil {
		return fmt.Sprintf("chronysock: write failed: %v", err)
	}
	return "chronysock"
}
