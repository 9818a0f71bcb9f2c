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
	"math"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ransim/ransim/logger"
	. "github.com/ransim/ransim/types"
)

// DefaultTickStep is the simulated duration of one tick.
const DefaultTickStep = 100 * time.Millisecond

// MaxSimulateSpeed is the simulation speed value at which real-time pacing is
// fully disabled.
const MaxSimulateSpeed = 1000000

// placementRangeM bounds random placement of terminals configured without
// explicit coordinates.
const placementRangeM = 1000.0

// CellConfig describes one cell in a simulation config file.
type CellConfig struct {
	Id           CellId  `yaml:"id"`
	X            float64 `yaml:"x"`
	Y            float64 `yaml:"y"`
	TxPowerDbm   DbValue `yaml:"tx_power_dbm"`
	FrequencyMhz float64 `yaml:"frequency_mhz"`
	BandwidthMhz float64 `yaml:"bandwidth_mhz"`
	MaxTerminals int     `yaml:"max_terminals"`
}

// TerminalConfig describes one terminal in a simulation config file.
type TerminalConfig struct {
	Id       TerminalId `yaml:"id"`
	X        float64    `yaml:"x"`
	Y        float64    `yaml:"y"`
	Mobility string     `yaml:"mobility"`
	SpeedMps float64    `yaml:"speed_mps"`
	Class    ClassId    `yaml:"class"`
	AttachTo CellId     `yaml:"attach_to"`
}

// Config holds the startup configuration of a simulation.
type Config struct {
	Seed int64 `yaml:"seed"`

	// TickStep is read from "tick_step" as a duration string like "100ms",
	// see LoadConfigFile.
	TickStep time.Duration `yaml:"-"`

	Speed       float64       `yaml:"speed"`
	Environment string        `yaml:"environment"`
	AutoGo      bool          `yaml:"autogo"`

	// DefaultClass is the 5QI of the default flow created for each new
	// terminal.
	DefaultClass ClassId `yaml:"default_class"`

	KpiFile  string `yaml:"kpi_file"`
	PromAddr string `yaml:"prom_addr"`

	Cells     []CellConfig     `yaml:"cells"`
	Terminals []TerminalConfig `yaml:"terminals"`

	LogLevel logger.Level `yaml:"-"`
}

// DefaultConfig returns the standard three-cell configuration.
func DefaultConfig() *Config {
	return &Config{
		Seed:         0,
		TickStep:     DefaultTickStep,
		Speed:        math.MaxFloat64,
		Environment:  "urban_macro",
		DefaultClass: 9,
		Cells:        DefaultCellLayout(3),
		LogLevel:     logger.InfoLevel,
	}
}

// DefaultCellLayout returns the standard positions for n cells: a single
// cell at the origin, a facing pair, or an equilateral triangle.
func DefaultCellLayout(n int) []CellConfig {
	positions := []Position{{X: 0, Y: 0}}
	switch {
	case n == 2:
		positions = []Position{{X: -500, Y: 0}, {X: 500, Y: 0}}
	case n >= 3:
		positions = []Position{{X: -500, Y: 0}, {X: 500, Y: 0}, {X: 0, Y: 866}}
	}

	cells := make([]CellConfig, 0, len(positions))
	for i, p := range positions {
		cells = append(cells, CellConfig{
			Id:           i + 1,
			X:            p.X,
			Y:            p.Y,
			TxPowerDbm:   46.0,
			FrequencyMhz: 3500.0,
			BandwidthMhz: 100.0,
			MaxTerminals: DefaultMaxTerminalsPerCell,
		})
	}
	return cells
}

// LoadConfigFile reads a YAML config file on top of the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}

	cfg := DefaultConfig()
	cfg.Cells = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}

	// tick_step takes a duration string ("100ms") or a bare nanosecond count
	var raw struct {
		TickStep yaml.Node `yaml:"tick_step"`
	}
	if err := yaml.Unmarshal(data, &raw); err == nil && raw.TickStep.Value != "" {
		if d, err := time.ParseDuration(raw.TickStep.Value); err == nil {
			cfg.TickStep = d
		} else if ns, err := strconv.ParseInt(raw.TickStep.Value, 10, 64); err == nil {
			cfg.TickStep = time.Duration(ns)
		} else {
			return nil, errors.Errorf("invalid tick_step %q in config file %s", raw.TickStep.Value, path)
		}
	}

	if len(cfg.Cells) == 0 {
		cfg.Cells = DefaultCellLayout(3)
	}
	if cfg.TickStep <= 0 {
		cfg.TickStep = DefaultTickStep
	}
	if cfg.Speed <= 0 {
		cfg.Speed = math.MaxFloat64
	}
	return cfg, nil
}
