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

// captureRecord is one RFC2783 fetch result: the two most recent
// half-cycle timestamps and their sequence numbers. Platform backends
// populate this; the edge-selection logic below is platform-agnostic.
type captureRecord struct {
	AssertTS  HiResTime
	ClearTS   HiResTime
	AssertSeq uint32
	ClearSeq  uint32
}

// selectEdge picks "this pulse's edge" out of one capture record:
// whichever of assert/clear is later (seconds first, then
// nanoseconds) is the edge; edgePolarity is 1 if assert won, 0 if
// clear won.
func (r captureRecord) selectEdge() (ts HiResTime, edgePolarity int) {
	a, c := r.AssertTS, r.ClearTS
	switch {
	case a.Sec > c.Sec:
		return a, 1
	case a.Sec < c.Sec:
		return c, 0
	case a.Nsec > c.Nsec:
		return a, 1
	default:
		return c, 0
	}
}

// kernelBackend is the RFC2783-shaped capability the monitor loop
// consumes. Implementations are platform-specific (kernelbackend_linux.go,
// kernelbackend_other.go); the classifier and monitor loop never see a
// raw ioctl or file descriptor.
type kernelBackend interface {
	// Fetch returns the most recent capture record. nonBlocking
	// requests an immediate return (used when the serial backend just
	// woke the monitor and the kernel timestamp is already latched);
	// otherwise the call blocks up to one second. ok is false with a
	// nil error when a blocking call's timeout simply elapsed with no
	// new edge — not a failure, just nothing to report yet; err is
	// non-nil only for a genuine I/O failure.
	Fetch(nonBlocking bool) (rec captureRecord, ok bool, err error)
	// Close releases the kernel handle. Called once, at worker exit,
	// whenever the backend was acquired, whether or not Fetch ever
	// succeeded.
	Close()
}

// pulseEdges tracks, per polarity, the timestamp of the most recent
// edge seen by one backend — the pulse[2] array of the original
// implementation.
type pulseEdges struct {
	last [2]HiResTime
}

// observe records ts as the latest edge of the given polarity and
// returns the cycle/duration pair (in microseconds) the classifier
// needs, using the *previous* contents of last before overwriting.
func (p *pulseEdges) observe(ts HiResTime, edge int) (cycleUs, durationUs int64) {
	cycleUs = ts.DiffMicros(p.last[edge])
	durationUs = ts.DiffMicros(p.last[1-edge])
	p.last[edge] = ts
	return cycleUs, durationUs
}
