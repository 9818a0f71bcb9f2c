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

package measurement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ransim/ransim/radiomodel"
	. "github.com/ransim/ransim/types"
)

func newTestAggregator() *Aggregator {
	params := radiomodel.DefaultParams(radiomodel.UrbanMacro)
	params.ShadowSigmaDb = 0
	model := radiomodel.NewModel(params, 1)
	return NewAggregator(model, DefaultInterval, DefaultRetention)
}

func testCells() map[CellId]*Cell {
	return map[CellId]*Cell{
		1: NewCell(1, Position{X: 0, Y: 0}, 46.0, 3500.0, 100.0, 0),
		2: NewCell(2, Position{X: 1000, Y: 0}, 46.0, 3500.0, 100.0, 0),
		3: NewCell(3, Position{X: 2000, Y: 0}, 46.0, 3500.0, 100.0, 0),
	}
}

func TestMeasureRanking(t *testing.T) {
	agg := newTestAggregator()
	term := NewTerminal(1, Position{X: 100, Y: 0})

	report := agg.Measure(term, testCells(), 0)
	require.Equal(t, 3, len(report.Entries))

	// nearest cell first, farthest last
	assert.Equal(t, 1, report.Entries[0].Cell)
	assert.Equal(t, 2, report.Entries[1].Cell)
	assert.Equal(t, 3, report.Entries[2].Cell)
	assert.True(t, report.Entries[0].RsrpDbm > report.Entries[1].RsrpDbm)
	assert.True(t, report.Entries[1].RsrpDbm > report.Entries[2].RsrpDbm)

	assert.Equal(t, report.Entries[0].Cell, report.Best().Cell)
}

func TestDueRespectsInterval(t *testing.T) {
	agg := newTestAggregator()
	term := NewTerminal(1, Position{})

	assert.True(t, agg.Due(1, 0))
	agg.Measure(term, testCells(), 0)

	interval := ToTimestamp(DefaultInterval)
	assert.False(t, agg.Due(1, interval/2))
	assert.True(t, agg.Due(1, interval))
	assert.True(t, agg.Due(1, interval+1))
}

func TestReportLookups(t *testing.T) {
	r := &Report{
		Terminal:  1,
		Timestamp: 0,
		Entries: []Entry{
			{Cell: 2, RsrpDbm: -70, SinrDb: 20, CapacityMbps: 500},
			{Cell: 1, RsrpDbm: -85, SinrDb: 10, CapacityMbps: 200},
		},
	}

	rsrp, ok := r.QualityOf(1)
	require.True(t, ok)
	assert.Equal(t, DbValue(-85), rsrp)

	_, ok = r.QualityOf(9)
	assert.False(t, ok)
	assert.Nil(t, r.EntryOf(9))

	e := r.EntryOf(2)
	require.NotNil(t, e)
	assert.Equal(t, 500.0, e.CapacityMbps)

	assert.Equal(t, 2, r.Best().Cell)
	assert.Nil(t, (&Report{}).Best())
}

func TestHistoryRetention(t *testing.T) {
	agg := newTestAggregator()

	step := ToTimestamp(DefaultInterval)
	for i := 0; i < 20; i++ {
		agg.Store(&Report{Terminal: 1, Timestamp: Timestamp(i) * step})
	}

	hist := agg.History(1)
	require.True(t, len(hist) > 0)
	now := Timestamp(19) * step
	retention := ToTimestamp(DefaultRetention)
	for _, r := range hist {
		assert.True(t, r.Timestamp > now-retention)
	}

	latest := agg.Latest(1)
	require.NotNil(t, latest)
	assert.Equal(t, now, latest.Timestamp)
}

func TestForget(t *testing.T) {
	agg := newTestAggregator()
	term := NewTerminal(1, Position{})
	agg.Measure(term, testCells(), 0)
	require.NotNil(t, agg.Latest(1))

	agg.Forget(1)
	assert.Nil(t, agg.Latest(1))
	assert.Equal(t, 0, len(agg.History(1)))
	assert.True(t, agg.Due(1, 0))
}

func TestSetInterval(t *testing.T) {
	agg := newTestAggregator()
	term := NewTerminal(1, Position{})
	agg.Measure(term, testCells(), 0)

	agg.SetInterval(100 * time.Millisecond)
	assert.True(t, agg.Due(1, ToTimestamp(100*time.Millisecond)))
	assert.False(t, agg.Due(1, ToTimestamp(50*time.Millisecond)))
}
