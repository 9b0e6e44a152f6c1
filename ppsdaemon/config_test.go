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

package ppsdaemon

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvalAndValidate(t *testing.T) {
	c := &Config{}
	require.Equal(t, fmt.Errorf("bad config: at least one device required"), c.EvalAndValidate())

	c.Devices = []DeviceConfig{{}}
	require.Equal(t, fmt.Errorf("bad config: devices[0].path is empty"), c.EvalAndValidate())

	c.Devices[0].Path = "/dev/ttyS0"
	require.Equal(t, fmt.Errorf("bad config: 'monitoringPort' must be >0"), c.EvalAndValidate())

	c.MonitoringPort = 21039
	require.NoError(t, c.EvalAndValidate())
}
