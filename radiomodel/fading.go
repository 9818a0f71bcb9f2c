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
	"math/rand"

	. "github.com/ransim/ransim/types"
)

const (
	initialCacheSize = 10000
	maxCacheSize     = 5000000
)

// fadingModel draws the log-normal shadow fading of each radio link. Shadow
// fading models a fixed, position-dependent attenuation (or increase) due to
// static obstacles and multipath; in the dB domain it is a normal
// distribution (mu=0, sigma). A symmetric link is assumed: reversing the
// transmitter/receiver roles gives the same value. See 3GPP TR 38.901
// section 7.4.1 and 7.4.4.
type fadingModel struct {
	rndSeed   int64
	ts        Timestamp
	shFadeMap map[int64]DbValue
}

func newFadingModel(seed int64) *fadingModel {
	return &fadingModel{
		rndSeed:   seed,
		shFadeMap: make(map[int64]DbValue, initialCacheSize),
	}
}

// computeFading returns the shadow-fading dB value of the link between the
// two positions. Each unique link gets its own fixed seed, so the value is
// reproducible across calls and runs.
func (sf *fadingModel) computeFading(p1, p2 Position, sigmaDb DbValue) DbValue {
	seed := sf.rndSeed + calcLinkUID(p1, p2)

	if v, ok := sf.shFadeMap[seed]; ok {
		return v
	}

	rnd := rand.New(rand.NewSource(seed))
	v := rnd.NormFloat64() * sigmaDb
	sf.shFadeMap[seed] = v
	return v
}

func (sf *fadingModel) onAdvanceTime(ts Timestamp) {
	// if storage gets too big, purge it - items will be recomputed (and thus
	// slow down the simulation a bit). This normally only happens in long
	// simulations with moving terminals.
	if len(sf.shFadeMap) > maxCacheSize {
		sf.shFadeMap = make(map[int64]DbValue, initialCacheSize)
	}
	sf.ts = ts
}

// calcLinkUID gives each link its own fixed int64 seed value, derived from
// both endpoint positions rounded to a 5 m grid.
func calcLinkUID(p1, p2 Position) int64 {
	x1 := uint16(math.Round(p1.X*0.2) + 32768)
	y1 := uint16(math.Round(p1.Y*0.2) + 32768)
	x2 := uint16(math.Round(p2.X*0.2) + 32768)
	y2 := uint16(math.Round(p2.Y*0.2) + 32768)

	xL, yL, xR, yR := x2, y2, x1, y1
	// use the left-most endpoint (and in case of doubt, top-most) first
	if x1 < x2 || (x1 == x2 && y1 < y2) {
		xL, yL, xR, yR = x1, y1, x2, y2
	}

	return int64(xL) + int64(yL)<<16 + int64(xR)<<32 + int64(yR)<<48
}
