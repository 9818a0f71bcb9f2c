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

// Package prng concentrates all pseudo-random number generation of the
// simulator. Every stochastic concern draws from its own generator, all
// derived from one root seed, so a run reproduces exactly given that seed.
package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

var newTerminalRandSeedGenerator *rand.Rand
var newRadioModelRandSeedGenerator *rand.Rand
var handoverRandGenerator *rand.Rand
var placementRandGenerator *rand.Rand

func init() {
	Init(0)
}

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0)
// or a 'random' time-based PRNG seed (if rootSeed == 0).
func Init(rootSeed int64) {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	root := rand.New(rand.NewSource(rootSeed))

	newTerminalRandSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	newRadioModelRandSeedGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	handoverRandGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
	placementRandGenerator = rand.New(rand.NewSource(rootSeed + int64(root.Intn(1e10))))
}

// NewTerminalRandomSeed generates unique random-seeds for newly created
// terminals' mobility models.
func NewTerminalRandomSeed() RandomSeed {
	return RandomSeed(newTerminalRandSeedGenerator.Int63())
}

// NewRadioModelRandomSeed generates unique random-seeds for newly created radio models.
func NewRadioModelRandomSeed() RandomSeed {
	return RandomSeed(newRadioModelRandSeedGenerator.Int63())
}

// HandoverUnitRandom generates a random unit [0, 1) float used as probability
// draw when resolving a handover procedure's outcome.
func HandoverUnitRandom() float64 {
	return handoverRandGenerator.Float64()
}

// HandoverDurationRandom generates a random unit [0, 1) float used to draw a
// procedure's execution-phase duration from its configured range.
func HandoverDurationRandom() float64 {
	return handoverRandGenerator.Float64()
}

// PlacementRandom generates a uniform random value in [min, max), used for
// positioning entities that were configured without explicit coordinates.
func PlacementRandom(min, max float64) float64 {
	return min + placementRandGenerator.Float64()*(max-min)
}
