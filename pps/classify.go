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

// Verdict is the outcome of classifying one edge.
type Verdict struct {
	Accepted bool
	Label    string
}

// Classify applies the cycle/duration ladder to one edge. cycleUs is
// the elapsed time since the previous edge of the same polarity;
// durationUs is the elapsed time since the opposite-polarity edge
// (the length of the just-completed pulse half). edge is 1 for an
// assert (rising) edge, 0 for a clear (falling) edge.
//
// The first matching branch wins. This function deliberately has no
// side effects and no dependency on anything but its arguments, so it
// can be exercised without a device.
func Classify(cycleUs, durationUs int64, edge int) Verdict {
	switch {
	case cycleUs < 0:
		return Verdict{false, "negative cycle"}
	case cycleUs < 199000:
		return Verdict{false, "too short even for 5 Hz"}
	case cycleUs < 201000:
		// A 5 Hz edge is accepted, but nothing here tells which fifth
		// of the second it marks; correlate attributes every accepted
		// edge to the top of a whole second.
		if durationUs < 100000 {
			return Verdict{true, "5 Hz PPS pulse"}
		}
		return Verdict{false, "5 Hz, duration out of spec"}
	case cycleUs < 900000:
		return Verdict{false, "between 5 Hz and 1 Hz"}
	case cycleUs < 1100000:
		switch {
		case durationUs == 0:
			return Verdict{true, "invisible pulse"}
		case durationUs < 499000:
			return Verdict{false, "1 Hz trailing edge"}
		case durationUs < 501000:
			if edge == 1 {
				return Verdict{true, "1 Hz square wave"}
			}
			return Verdict{false, "1 Hz square, wrong polarity"}
		default:
			return Verdict{true, "1 Hz leading edge"}
		}
	case cycleUs < 1999000:
		return Verdict{false, "between 1 Hz and 0.5 Hz"}
	case cycleUs < 2001000:
		if durationUs >= 999000 && durationUs <= 1001000 {
			return Verdict{true, "0.5 Hz square wave"}
		}
		return Verdict{false, "0.5 Hz, duration out of spec"}
	default:
		return Verdict{false, "too long"}
	}
}
