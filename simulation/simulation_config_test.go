// Copyright (c) 2025, The RANSIM Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package simulation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.Nil(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFileTickStep(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfigFile(t, "tick_step: 50ms\n"))
	require.Nil(t, err)
	assert.Equal(t, 50*time.Millisecond, cfg.TickStep)

	cfg, err = LoadConfigFile(writeConfigFile(t, "tick_step: 1s\n"))
	require.Nil(t, err)
	assert.Equal(t, time.Second, cfg.TickStep)

	// a bare number is taken as nanoseconds
	cfg, err = LoadConfigFile(writeConfigFile(t, "tick_step: 100000000\n"))
	require.Nil(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.TickStep)

	_, err = LoadConfigFile(writeConfigFile(t, "tick_step: shortly\n"))
	assert.NotNil(t, err)

	// absent tick_step keeps the default
	cfg, err = LoadConfigFile(writeConfigFile(t, "seed: 3\n"))
	require.Nil(t, err)
	assert.Equal(t, DefaultTickStep, cfg.TickStep)
	assert.Equal(t, int64(3), cfg.Seed)
}

func TestLoadConfigFileDefaults(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfigFile(t, "seed: 7\nspeed: -1\n"))
	require.Nil(t, err)
	assert.Equal(t, 3, len(cfg.Cells))
	assert.True(t, cfg.Speed > 1e9) // invalid speed falls back to unthrottled

	cfg, err = LoadConfigFile(writeConfigFile(t, `
cells:
  - id: 1
    x: 0
    y: 0
    tx_power_dbm: 43
    frequency_mhz: 2600
    bandwidth_mhz: 40
`))
	require.Nil(t, err)
	require.Equal(t, 1, len(cfg.Cells))
	assert.Equal(t, 43.0, float64(cfg.Cells[0].TxPowerDbm))
	assert.Equal(t, 40.0, cfg.Cells[0].BandwidthMhz)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NotNil(t, err)
}
