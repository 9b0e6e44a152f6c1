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

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeBorrowCarry(t *testing.T) {
	require.Equal(t, HiResTime{Sec: 2, Nsec: 1}, HiResTime{Sec: 1, Nsec: 1000000001}.Normalize())
	require.Equal(t, HiResTime{Sec: 0, Nsec: 999999999}, HiResTime{Sec: 1, Nsec: -1}.Normalize())
	require.Equal(t, HiResTime{Sec: -2, Nsec: -1}, HiResTime{Sec: -1, Nsec: -1000000001}.Normalize())
	require.Equal(t, HiResTime{Sec: 0, Nsec: -999999999}, HiResTime{Sec: -1, Nsec: 1}.Normalize())
	require.Equal(t, HiResTime{Sec: 0, Nsec: 5}, HiResTime{Sec: 0, Nsec: 5}.Normalize())
	require.Equal(t, HiResTime{Sec: 0, Nsec: -5}, HiResTime{Sec: 0, Nsec: -5}.Normalize())
}

func TestSubSelfIsZero(t *testing.T) {
	a := HiResTime{Sec: 1234567890, Nsec: 123456789}
	require.Equal(t, HiResTime{}, a.Sub(a))
}

func TestSubAntisymmetric(t *testing.T) {
	a := HiResTime{Sec: 100, Nsec: 500000000}
	b := HiResTime{Sec: 99, Nsec: 750000000}
	ab := a.Sub(b)
	ba := b.Sub(a)
	require.Equal(t, ab, HiResTime{Sec: -ba.Sec, Nsec: -ba.Nsec}.Normalize())
}

func TestDiffMicros(t *testing.T) {
	a := HiResTime{Sec: 10, Nsec: 500000}
	b := HiResTime{Sec: 9, Nsec: 0}
	require.Equal(t, int64(1000500), a.DiffMicros(b))
	require.Equal(t, int64(-1000500), b.DiffMicros(a))
}

func TestStringRoundTrips(t *testing.T) {
	ht := HiResTime{Sec: 1700000000, Nsec: 123456789}
	require.Equal(t, "1700000000.123456789", ht.String())
}

func TestIsZero(t *testing.T) {
	require.True(t, HiResTime{}.IsZero())
	require.False(t, HiResTime{Sec: 1}.IsZero())
}
