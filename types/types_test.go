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

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimestampConversion(t *testing.T) {
	assert.Equal(t, Timestamp(1000000), ToTimestamp(time.Second))
	assert.Equal(t, time.Second, ToDuration(1000000))
	assert.Equal(t, Timestamp(100000), ToTimestamp(100*time.Millisecond))
}

func TestPositionDistance(t *testing.T) {
	a := Position{X: 0, Y: 0}
	b := Position{X: 3, Y: 4}
	assert.Equal(t, 5.0, a.DistanceTo(b))
	assert.Equal(t, 5.0, b.DistanceTo(a))
	assert.Equal(t, 0.0, a.DistanceTo(a))
}

func TestCellUnits(t *testing.T) {
	c := NewCell(1, Position{}, 46.0, 3500.0, 100.0, 0)
	assert.Equal(t, 500, c.TotalUnits) // derived from bandwidth
	assert.Equal(t, DefaultMaxTerminalsPerCell, c.MaxTerminals)

	c2 := NewCell(2, Position{}, 46.0, 3500.0, 100.0, 42)
	assert.Equal(t, 42, c2.TotalUnits)

	c.Assignments[1] = 10
	c.Assignments[2] = 5
	assert.Equal(t, 15, c.AllocatedUnits())
	assert.Equal(t, 485, c.FreeUnits())
}

func TestCellTerminals(t *testing.T) {
	c := NewCell(1, Position{}, 46.0, 3500.0, 100.0, 0)
	assert.False(t, c.HasTerminal(1))
	assert.Equal(t, 0.0, c.Load())

	c.Terminals[1] = struct{}{}
	assert.True(t, c.HasTerminal(1))
	assert.Equal(t, 1.0/float64(c.MaxTerminals), c.Load())
}

func TestTerminalAttachment(t *testing.T) {
	term := NewTerminal(1, Position{X: 10, Y: 20})
	assert.False(t, term.IsAttached())
	term.AttachedCell = 3
	assert.True(t, term.IsAttached())
}

func TestHandoverPhase(t *testing.T) {
	assert.Equal(t, "preparing", HandoverPreparing.String())
	assert.Equal(t, "succeeded", HandoverSucceeded.String())

	assert.False(t, HandoverTriggered.IsTerminal())
	assert.False(t, HandoverExecuting.IsTerminal())
	assert.True(t, HandoverSucceeded.IsTerminal())
	assert.True(t, HandoverFailed.IsTerminal())
}

func TestHandoverCause(t *testing.T) {
	assert.Equal(t, "coverage", CauseCoverage.String())
	assert.Equal(t, "load_balancing", CauseLoadBalancing.String())

	assert.Equal(t, CauseInterference, ParseHandoverCause("interference"))
	assert.Equal(t, CauseQosDegradation, ParseHandoverCause("qos_degradation"))
	// unknown strings default to user preference
	assert.Equal(t, CauseUserPreference, ParseHandoverCause("whatever"))
}
