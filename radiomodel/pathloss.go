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

package radiomodel

import (
	"math"

	. "github.com/ransim/ransim/types"
)

// pathLossDb dispatches to the path-loss family for the configured
// environment. Distance is in meters.
func (m *Model) pathLossDb(distM, frequencyMhz float64) DbValue {
	if distM <= 0 {
		return 0
	}
	freqGhz := frequencyMhz / 1000

	switch m.params.Environment {
	case UrbanMacro:
		return urbanMacroPathLoss(distM, freqGhz, m.params.TxHeightM, m.params.RxHeightM)
	case UrbanMicro:
		return urbanMicroPathLoss(distM, freqGhz, m.params.TxHeightM, m.params.RxHeightM)
	case Indoor:
		return indoorPathLoss(distM, freqGhz)
	case RuralMacro:
		return ruralMacroPathLoss(distM, freqGhz)
	default:
		return freeSpacePathLoss(distM, freqGhz)
	}
}

// freeSpacePathLoss is FSPL(dB) = 92.45 + 20log10(d_km) + 20log10(f_GHz).
func freeSpacePathLoss(distM, freqGhz float64) DbValue {
	if distM < 1.0 {
		distM = 1.0
	}
	return 92.45 + 20*math.Log10(distM/1000) + 20*math.Log10(freqGhz)
}

// urbanMacroPathLoss follows TR 38.901 UMa with a breakpoint distance
// derived from the effective antenna heights.
func urbanMacroPathLoss(distM, freqGhz, hBs, hUt float64) DbValue {
	const hE = 1.0 // effective environment height
	dBp := 4 * (hBs - hE) * (hUt - hE) * (freqGhz * 1e9) / lightSpeed

	if distM < dBp {
		return 28.0 + 22*math.Log10(distM) + 20*math.Log10(freqGhz)
	}
	return 28.0 + 40*math.Log10(distM) + 20*math.Log10(freqGhz) -
		9*math.Log10(dBp*dBp+(hBs-hUt)*(hBs-hUt))
}

func urbanMicroPathLoss(distM, freqGhz, hBs, hUt float64) DbValue {
	if distM < 18 {
		return 32.4 + 21*math.Log10(distM) + 20*math.Log10(freqGhz)
	}
	return 32.4 + 40*math.Log10(distM) + 20*math.Log10(freqGhz) -
		9.5*math.Log10(distM*distM+(hBs-hUt)*(hBs-hUt))
}

// indoorPathLoss is the TR 38.901 InH-Office LOS model.
func indoorPathLoss(distM, freqGhz float64) DbValue {
	if distM < 1.2 {
		distM = 1.2
	}
	return 32.4 + 17.3*math.Log10(distM) + 20*math.Log10(freqGhz)
}

func ruralMacroPathLoss(distM, freqGhz float64) DbValue {
	if distM < 1.0 {
		distM = 1.0
	}
	return 20*math.Log10(40*math.Pi*distM*freqGhz/3) +
		math.Min(0.03*math.Pow(1.72, 0.8), 10)*(1.72-0.75) +
		math.Min(0.044*math.Pow(1.72, 0.8), 14.77) - 0.78
}
