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

package handover

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ransim/ransim/measurement"
	"github.com/ransim/ransim/prng"
	. "github.com/ransim/ransim/types"
)

// fixedParams removes the execution-time spread so procedure timing is exact:
// 50ms preparation + 30ms execution + 10ms completion = 90ms.
func fixedParams() Parameters {
	params := DefaultParameters()
	params.ExecutionTimeMin = 30 * time.Millisecond
	params.ExecutionTimeMax = 30 * time.Millisecond
	return params
}

type testNet struct {
	cells     map[CellId]*Cell
	terminals map[TerminalId]*Terminal
	mgr       *Manager
}

func newTestNet(t *testing.T, params Parameters) *testNet {
	prng.Init(1)
	net := &testNet{
		cells: map[CellId]*Cell{
			1: NewCell(1, Position{X: 0, Y: 0}, 46.0, 3500.0, 100.0, 0),
			2: NewCell(2, Position{X: 1000, Y: 0}, 46.0, 3500.0, 100.0, 0),
			3: NewCell(3, Position{X: 2000, Y: 0}, 46.0, 3500.0, 100.0, 0),
		},
		terminals: map[TerminalId]*Terminal{
			1: NewTerminal(1, Position{X: 100, Y: 0}),
		},
	}
	net.mgr = NewManager(params, net.cells, net.terminals)
	require.Nil(t, net.mgr.AttachDirect(1, 1))
	return net
}

func report(serving, candidate DbValue, ts Timestamp) *measurement.Report {
	r := &measurement.Report{
		Terminal:  1,
		Timestamp: ts,
		Entries: []measurement.Entry{
			{Cell: 1, RsrpDbm: serving},
			{Cell: 2, RsrpDbm: candidate},
		},
	}
	if candidate > serving {
		r.Entries[0], r.Entries[1] = r.Entries[1], r.Entries[0]
	}
	return r
}

func TestAttachDirect(t *testing.T) {
	net := newTestNet(t, fixedParams())

	assert.Equal(t, CellId(1), net.terminals[1].AttachedCell)
	assert.True(t, net.cells[1].HasTerminal(1))

	// double attach rejected
	assert.NotNil(t, net.mgr.AttachDirect(1, 2))

	err := net.mgr.AttachDirect(99, 1)
	assert.True(t, errors.Is(err, ErrUnknownTerminal))

	net.terminals[2] = NewTerminal(2, Position{})
	err = net.mgr.AttachDirect(2, 99)
	assert.True(t, errors.Is(err, ErrUnknownCell))

	net.cells[2].MaxTerminals = 0
	assert.NotNil(t, net.mgr.AttachDirect(2, 2))
}

func TestDetach(t *testing.T) {
	net := newTestNet(t, fixedParams())

	net.mgr.Detach(1)
	assert.Equal(t, InvalidCellId, net.terminals[1].AttachedCell)
	assert.False(t, net.cells[1].HasTerminal(1))
	assert.Nil(t, net.mgr.Procedure(1))

	// detaching an unknown terminal is a no-op
	net.mgr.Detach(99)
}

func TestTriggerAfterTimeToTrigger(t *testing.T) {
	net := newTestNet(t, fixedParams())
	ttt := ToTimestamp(net.mgr.Parameters().TimeToTrigger)

	// candidate exceeds serving + hysteresis + margin (-80 > -90 + 5)
	net.mgr.Evaluate(1, report(-90, -80, 0), 0)
	assert.False(t, net.mgr.InFlight(1))

	// condition not yet sustained long enough
	net.mgr.Evaluate(1, report(-90, -80, ttt-1), ttt-1)
	assert.False(t, net.mgr.InFlight(1))

	net.mgr.Evaluate(1, report(-90, -80, ttt), ttt)
	require.True(t, net.mgr.InFlight(1))

	proc := net.mgr.Procedure(1)
	assert.Equal(t, CellId(1), proc.Source)
	assert.Equal(t, CellId(2), proc.Target)
	assert.Equal(t, CauseQosDegradation, proc.Cause)
	assert.Equal(t, ttt, proc.TriggeredAt)
	assert.Equal(t, DbValue(-90), proc.SourceRsrpDbm)
	assert.Equal(t, DbValue(-80), proc.TargetRsrpDbm)
}

func TestTriggerBelowThreshold(t *testing.T) {
	net := newTestNet(t, fixedParams())
	ttt := ToTimestamp(net.mgr.Parameters().TimeToTrigger)

	// -86 is above serving but below serving + 5, never a candidate
	net.mgr.Evaluate(1, report(-90, -86, 0), 0)
	net.mgr.Evaluate(1, report(-90, -86, 10*ttt), 10*ttt)
	assert.False(t, net.mgr.InFlight(1))
}

func TestTriggerTimerResets(t *testing.T) {
	net := newTestNet(t, fixedParams())
	ttt := ToTimestamp(net.mgr.Parameters().TimeToTrigger)
	half := ttt / 2

	net.mgr.Evaluate(1, report(-90, -80, 0), 0)
	// candidate dips below threshold, timer resets
	net.mgr.Evaluate(1, report(-90, -88, half), half)
	// qualifying again starts a fresh timer
	net.mgr.Evaluate(1, report(-90, -80, ttt), ttt)
	assert.False(t, net.mgr.InFlight(1))

	net.mgr.Evaluate(1, report(-90, -80, 2*ttt), 2*ttt)
	assert.True(t, net.mgr.InFlight(1))
}

func TestTriggerCauseCoverage(t *testing.T) {
	net := newTestNet(t, fixedParams())
	ttt := ToTimestamp(net.mgr.Parameters().TimeToTrigger)

	// serving below the signal floor makes it a coverage handover
	net.mgr.Evaluate(1, report(-115, -100, 0), 0)
	net.mgr.Evaluate(1, report(-115, -100, ttt), ttt)
	require.True(t, net.mgr.InFlight(1))
	assert.Equal(t, CauseCoverage, net.mgr.Procedure(1).Cause)
}

func TestEvaluateSuppressedWhileInFlight(t *testing.T) {
	net := newTestNet(t, fixedParams())
	ttt := ToTimestamp(net.mgr.Parameters().TimeToTrigger)

	net.mgr.Evaluate(1, report(-90, -80, 0), 0)
	net.mgr.Evaluate(1, report(-90, -80, ttt), ttt)
	require.True(t, net.mgr.InFlight(1))
	proc := net.mgr.Procedure(1)

	// further evaluation cannot replace or duplicate the procedure
	net.mgr.Evaluate(1, report(-90, -70, 2*ttt), 2*ttt)
	assert.Equal(t, proc, net.mgr.Procedure(1))
}

func TestEvaluateEdgeCases(t *testing.T) {
	net := newTestNet(t, fixedParams())

	net.mgr.Evaluate(1, nil, 0)
	assert.False(t, net.mgr.InFlight(1))

	// unattached terminal never triggers
	net.mgr.Detach(1)
	net.mgr.Evaluate(1, report(-90, -80, 0), 0)
	assert.False(t, net.mgr.InFlight(1))

	net.mgr.Evaluate(99, report(-90, -80, 0), 0)
	assert.False(t, net.mgr.InFlight(99))
}

func TestProcedureLifecycleSuccess(t *testing.T) {
	net := newTestNet(t, fixedParams())
	net.mgr.SetSuccessOverride(1)

	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseLoadBalancing, 0))
	require.True(t, net.mgr.InFlight(1))

	// preparation done at 50ms, execution runs until 80ms
	events := net.mgr.Advance(ToTimestamp(60 * time.Millisecond))
	assert.Equal(t, 0, len(events))
	assert.Equal(t, HandoverExecuting, net.mgr.Procedure(1).Phase)

	// 50 + 30 + 10 ms elapsed, the procedure resolves
	events = net.mgr.Advance(ToTimestamp(100 * time.Millisecond))
	require.Equal(t, 1, len(events))
	ev := events[0]
	assert.True(t, ev.Success)
	assert.Equal(t, 90*time.Millisecond, ev.Duration)
	assert.Equal(t, ToTimestamp(90*time.Millisecond), ev.Timestamp)
	assert.Equal(t, CauseLoadBalancing, ev.Cause)
	assert.False(t, ev.PingPong)

	assert.Equal(t, CellId(2), net.terminals[1].AttachedCell)
	assert.False(t, net.cells[1].HasTerminal(1))
	assert.True(t, net.cells[2].HasTerminal(1))
	assert.Equal(t, 1, net.cells[1].HandoversOut)
	assert.Equal(t, 1, net.cells[2].HandoversIn)
	assert.False(t, net.mgr.InFlight(1))
}

func TestProcedureResolvesWithinOneCoarseTick(t *testing.T) {
	net := newTestNet(t, fixedParams())
	net.mgr.SetSuccessOverride(1)

	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))

	// a tick far larger than the whole procedure still yields exact timing
	events := net.mgr.Advance(ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))
	assert.Equal(t, 90*time.Millisecond, events[0].Duration)
	assert.Equal(t, ToTimestamp(90*time.Millisecond), events[0].Timestamp)
}

func TestProcedureFailureStaysOnSource(t *testing.T) {
	net := newTestNet(t, fixedParams())
	net.mgr.SetSuccessOverride(0)

	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))
	events := net.mgr.Advance(ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))

	ev := events[0]
	assert.False(t, ev.Success)
	assert.Equal(t, "radio link failure", ev.Reason)

	assert.Equal(t, CellId(1), net.terminals[1].AttachedCell)
	assert.True(t, net.cells[1].HasTerminal(1))
	assert.False(t, net.cells[2].HasTerminal(1))
	assert.Equal(t, 0, net.cells[1].HandoversOut)
}

func TestProcedureFailsWhenTargetFull(t *testing.T) {
	net := newTestNet(t, fixedParams())
	net.mgr.SetSuccessOverride(1)
	net.cells[2].MaxTerminals = 0

	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))
	events := net.mgr.Advance(ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))
	assert.False(t, events[0].Success)
	assert.Equal(t, "target cell full", events[0].Reason)
	assert.Equal(t, CellId(1), net.terminals[1].AttachedCell)
}

func TestForceHandoverErrors(t *testing.T) {
	net := newTestNet(t, fixedParams())

	err := net.mgr.ForceHandover(99, 2, CauseUserPreference, 0)
	assert.True(t, errors.Is(err, ErrUnknownTerminal))

	err = net.mgr.ForceHandover(1, 99, CauseUserPreference, 0)
	assert.True(t, errors.Is(err, ErrUnknownCell))

	// target equals serving cell
	assert.NotNil(t, net.mgr.ForceHandover(1, 1, CauseUserPreference, 0))

	// while in flight the request is silently dropped
	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))
	assert.Nil(t, net.mgr.ForceHandover(1, 3, CauseUserPreference, 0))
	assert.Equal(t, CellId(2), net.mgr.Procedure(1).Target)
}

func TestPingPongDetection(t *testing.T) {
	net := newTestNet(t, fixedParams())
	net.mgr.SetSuccessOverride(1)

	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))
	events := net.mgr.Advance(ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))
	assert.False(t, events[0].PingPong)

	// the reverse handover completes well inside the retention window
	now := ToTimestamp(time.Second)
	require.Nil(t, net.mgr.ForceHandover(1, 1, CauseUserPreference, now))
	events = net.mgr.Advance(now + ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))
	assert.True(t, events[0].PingPong)

	stats := net.mgr.StatsSnapshot()
	assert.Equal(t, 1, stats.PingPong)
}

func TestPingPongOutsideWindow(t *testing.T) {
	net := newTestNet(t, fixedParams())
	net.mgr.SetSuccessOverride(1)

	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))
	events := net.mgr.Advance(ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))

	// reverse handover ten seconds later, twice the retention window
	now := ToTimestamp(10 * time.Second)
	require.Nil(t, net.mgr.ForceHandover(1, 1, CauseUserPreference, now))
	events = net.mgr.Advance(now + ToTimestamp(time.Second))
	require.Equal(t, 1, len(events))
	assert.False(t, events[0].PingPong)
}

func TestStats(t *testing.T) {
	net := newTestNet(t, fixedParams())

	net.mgr.SetSuccessOverride(1)
	require.Nil(t, net.mgr.ForceHandover(1, 2, CauseUserPreference, 0))
	net.mgr.Advance(ToTimestamp(time.Second))

	net.mgr.SetSuccessOverride(0)
	now := ToTimestamp(10 * time.Second)
	require.Nil(t, net.mgr.ForceHandover(1, 3, CauseUserPreference, now))
	net.mgr.Advance(now + ToTimestamp(time.Second))

	stats := net.mgr.StatsSnapshot()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 90.0, stats.AvgDurationMs)
	assert.Equal(t, 2, len(net.mgr.Events()))

	net.mgr.ClearHistory()
	assert.Equal(t, Stats{}, net.mgr.StatsSnapshot())
	assert.Equal(t, 0, len(net.mgr.Events()))
}

func TestSuccessProbPerCause(t *testing.T) {
	net := newTestNet(t, fixedParams())

	assert.Equal(t, 0.95, net.mgr.successProb(CauseQosDegradation))
	assert.Equal(t, 0.95, net.mgr.successProb(CauseCoverage))
	assert.InDelta(t, 0.85, net.mgr.successProb(CauseInterference), 1e-12)
	assert.InDelta(t, 0.98, net.mgr.successProb(CauseLoadBalancing), 1e-12)

	// the load-balancing bonus never pushes the probability past one
	net.mgr.params.BaseSuccessProb = 0.99
	assert.Equal(t, 1.0, net.mgr.successProb(CauseLoadBalancing))

	net.mgr.SetSuccessOverride(0.5)
	assert.Equal(t, 0.5, net.mgr.successProb(CauseInterference))
	net.mgr.SetSuccessOverride(-1)
	assert.InDelta(t, 0.89, net.mgr.successProb(CauseInterference), 1e-12)
}

func TestSetParameters(t *testing.T) {
	net := newTestNet(t, fixedParams())

	net.mgr.SetParameters(5.0, 320*time.Millisecond, -100.0)
	params := net.mgr.Parameters()
	assert.Equal(t, DbValue(5.0), params.HysteresisDb)
	assert.Equal(t, 320*time.Millisecond, params.TimeToTrigger)
	assert.Equal(t, DbValue(-100.0), params.SignalFloorDbm)
	// margin is not runtime-tunable
	assert.Equal(t, DbValue(2.0), params.MarginDb)
}
