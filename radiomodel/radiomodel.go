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

// Package radiomodel implements signal propagation between cells and
// terminals: path loss per 3GPP TR 38.901 model families, reproducible
// per-link shadow fading, thermal noise, SINR and Shannon capacity.
package radiomodel

import (
	"math"

	"github.com/pkg/errors"

	"github.com/ransim/ransim/prng"
	. "github.com/ransim/ransim/types"
)

// Physical constants.
const (
	lightSpeed  = 3e8     // m/s
	boltzmann   = 1.38e-23 // J/K
)

// Environment selects the propagation environment family.
type Environment int

const (
	FreeSpace Environment = iota
	UrbanMacro
	UrbanMicro
	Indoor
	RuralMacro
)

func (e Environment) String() string {
	switch e {
	case FreeSpace:
		return "free_space"
	case UrbanMacro:
		return "urban_macro"
	case UrbanMicro:
		return "urban_micro"
	case Indoor:
		return "indoor"
	case RuralMacro:
		return "rural_macro"
	default:
		return "invalid"
	}
}

// ParseEnvironment parses an environment name as used in config files.
func ParseEnvironment(s string) (Environment, error) {
	switch s {
	case "free_space":
		return FreeSpace, nil
	case "urban_macro", "":
		return UrbanMacro, nil
	case "urban_micro":
		return UrbanMicro, nil
	case "indoor":
		return Indoor, nil
	case "rural_macro":
		return RuralMacro, nil
	default:
		return FreeSpace, errors.Errorf("unknown propagation environment %q", s)
	}
}

// Params are the radio model parameters. Defaults follow 3GPP TR 38.901
// shapes with the shadow-fading sigma per environment.
type Params struct {
	Environment     Environment
	TxHeightM       float64
	RxHeightM       float64
	AntennaGainDbi  DbValue
	InterferenceDbm DbValue
	TemperatureK    float64
	ShadowSigmaDb   DbValue
}

// DefaultParams returns the model parameters for an environment.
func DefaultParams(env Environment) *Params {
	p := &Params{
		Environment:     env,
		TxHeightM:       25.0,
		RxHeightM:       1.5,
		AntennaGainDbi:  15.0,
		InterferenceDbm: -120.0,
		TemperatureK:    290.0,
	}
	switch env {
	case UrbanMacro:
		p.ShadowSigmaDb = 4.0
	case UrbanMicro, Indoor:
		p.ShadowSigmaDb = 3.0
	case RuralMacro:
		p.ShadowSigmaDb = 6.0
	}
	return p
}

// SignalQuality is the link budget of one cell-terminal link.
type SignalQuality struct {
	PathLossDb       DbValue
	ReceivedPowerDbm DbValue
	SinrDb           DbValue
	CapacityMbps     float64
}

// Model computes link budgets. Shadow fading is drawn per link from a seeded
// generator, so results reproduce for a given root seed.
type Model struct {
	params *Params
	fading *fadingModel
}

// NewModel creates a radio model with the given parameters and fading seed.
func NewModel(params *Params, seed prng.RandomSeed) *Model {
	return &Model{
		params: params,
		fading: newFadingModel(int64(seed)),
	}
}

// Params returns the model parameters.
func (m *Model) Params() *Params {
	return m.params
}

// OnAdvanceTime informs the model of simulated-time progress.
func (m *Model) OnAdvanceTime(ts Timestamp) {
	m.fading.onAdvanceTime(ts)
}

// SignalQuality computes the link budget from a transmitter at txPos to a
// receiver at rxPos.
func (m *Model) SignalQuality(txPos, rxPos Position, txPowerDbm DbValue, frequencyMhz, bandwidthMhz float64) SignalQuality {
	dist := txPos.DistanceTo(rxPos)
	pl := m.pathLossDb(dist, frequencyMhz)
	if m.params.ShadowSigmaDb > 0 {
		pl += m.fading.computeFading(txPos, rxPos, m.params.ShadowSigmaDb)
	}

	rx := txPowerDbm + m.params.AntennaGainDbi - pl
	bandwidthHz := bandwidthMhz * 1e6
	noise := m.thermalNoiseDbm(bandwidthHz)
	sinr := sinrDb(rx, m.params.InterferenceDbm, noise)

	return SignalQuality{
		PathLossDb:       pl,
		ReceivedPowerDbm: rx,
		SinrDb:           sinr,
		CapacityMbps:     shannonCapacityMbps(sinr, bandwidthHz),
	}
}

// thermalNoiseDbm is the kTB noise floor for the given bandwidth.
func (m *Model) thermalNoiseDbm(bandwidthHz float64) DbValue {
	noiseWatts := boltzmann * m.params.TemperatureK * bandwidthHz
	return 10 * math.Log10(noiseWatts*1000)
}

func sinrDb(signalDbm, interferenceDbm, noiseDbm DbValue) DbValue {
	sig := math.Pow(10, signalDbm/10)
	intf := math.Pow(10, interferenceDbm/10)
	noise := math.Pow(10, noiseDbm/10)
	return 10 * math.Log10(sig/(intf+noise))
}

// shannonCapacityMbps is the Shannon capacity for the given SINR and bandwidth.
func shannonCapacityMbps(sinrDb DbValue, bandwidthHz float64) float64 {
	sinrLin := math.Pow(10, sinrDb/10)
	return bandwidthHz * math.Log2(1+sinrLin) / 1e6
}
