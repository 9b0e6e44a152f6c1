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
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gnsstime/ppsmond/pps"
)

func TestChronySockSenderWritesMagicSample(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "chrony.sock")
	listener, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: sockPath, Net: "unixgram"})
	require.NoError(t, err)
	defer listener.Close()

	sender := NewChronySockSender(sockPath, false)
	label := sender.Report(pps.TimeDelta{
		Real:  pps.HiResTime{Sec: 1000, Nsec: 0},
		Clock: pps.HiResTime{Sec: 1000, Nsec: 200000000},
	})
	require.Equal(t, "chronysock", label)

	buf := make([]byte, 64)
	n, err := listener.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 40, n)

	var got sockSample
	require.NoError(t, binary.Read(bytes.NewReader(buf[:n]), binary.LittleEndian, &got))
	require.Equal(t, int32(sockMagic), got.Magic)
	require.Equal(t, int64(1000), got.Sec)
	require.InDelta(t, 0.2, got.Offset, 1e-9)
}
