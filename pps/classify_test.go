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

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		name       string
		cycleUs    int64
		durationUs int64
		edge       int
		accepted   bool
		label      string
	}{
		{"5Hz accept either edge", 200000, 99999, 0, true, "5 Hz PPS pulse"},
		{"5Hz duration too long", 200000, 100000, 0, false, "5 Hz, duration out of spec"},
		{"invisible pulse", 1000000, 0, 0, true, "invisible pulse"},
		{"1Hz square accept assert", 1000000, 500000, 1, true, "1 Hz square wave"},
		{"1Hz square reject clear", 1000000, 500000, 0, false, "1 Hz square, wrong polarity"},
		{"1Hz leading edge", 1050000, 900000, 0, true, "1 Hz leading edge"},
		{"0.5Hz square accept", 2000000, 1000000, 0, true, "0.5 Hz square wave"},
		{"too long rejected", 2100000, 0, 0, false, "too long"},
		{"negative cycle rejected", -1, 0, 0, false, "negative cycle"},
		{"too short for 5Hz", 198999, 0, 0, false, "too short even for 5 Hz"},
		{"between 5Hz and 1Hz", 500000, 0, 0, false, "between 5 Hz and 1 Hz"},
		{"1Hz trailing edge rejected", 1000000, 498999, 0, false, "1 Hz trailing edge"},
		{"between 1Hz and 0.5Hz", 1500000, 0, 0, false, "between 1 Hz and 0.5 Hz"},
		{"0.5Hz duration out of spec", 2000000, 990000, 0, false, "0.5 Hz, duration out of spec"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := Classify(c.cycleUs, c.durationUs, c.edge)
			require.Equal(t, c.accepted, v.Accepted)
			require.Equal(t, c.label, v.Label)
		})
	}
}

func TestClassify1HzToleranceBand(t *testing.T) {
	// anything in [900000, 1100000) cycle is within the 1Hz window;
	// exercise both ends of that band.
	v := Classify(900000, 0, 0)
	require.True(t, v.Accepted)
	require.Equal(t, "invisible pulse", v.Label)

	v = Classify(1099999, 999999, 0)
	require.True(t, v.Accepted)
	require.Equal(t, "1 Hz leading edge", v.Label)
}
