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

//go:build !unix

package pps

import "fmt"

// Neither RFC2783 nor any ioctl surface exists on a non-unix target in
// this tree, so the kernel backend disables itself unconditionally;
// the monitor falls back to whatever the serial backend offers on this
// platform (also typically nothing, in which case runMonitor's
// no-backend path takes over — see monitor.go).
func newKernelBackend(ctx *Ctx, logf func(LogLevel, string, ...interface{})) (kernelBackend, error) {
	logf(LogInfo, "KPPS not implemented on this platform")
	return nil, fmt.Errorf("kernel PPS backend not implemented on this platform")
}
