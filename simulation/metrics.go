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
	"github.com/ransim/ransim/handover"
	. "github.com/ransim/ransim/types"
)

// CellMetrics is the per-tick state of one cell.
type CellMetrics struct {
	Id          CellId
	Utilization float64
	Attached    int
	Load        float64
}

// TerminalMetrics is the per-tick state of one terminal.
type TerminalMetrics struct {
	Id             TerminalId
	Cell           CellId
	ThroughputDl   float64 // Mbps
	ThroughputUl   float64 // Mbps
	ServingRsrpDbm DbValue
}

// TickSnapshot is what a MetricsSink observes after each tick.
type TickSnapshot struct {
	Timestamp Timestamp
	Cells     []CellMetrics
	Terminals []TerminalMetrics
	Events    []*handover.Event
	Stats     handover.Stats
}

// MetricsSink observes the simulation tick by tick. ObserveTick is called on
// the simulation goroutine; implementations must not block.
type MetricsSink interface {
	ObserveTick(snap *TickSnapshot)
}

func (s *Simulation) snapshot(now Timestamp, events []*handover.Event) *TickSnapshot {
	snap := &TickSnapshot{
		Timestamp: now,
		Cells:     make([]CellMetrics, 0, len(s.cells)),
		Terminals: make([]TerminalMetrics, 0, len(s.terminals)),
		Events:    events,
		Stats:     s.handovers.StatsSnapshot(),
	}

	for _, id := range s.GetCells() {
		c := s.cells[id]
		snap.Cells = append(snap.Cells, CellMetrics{
			Id:          c.Id,
			Utilization: c.Utilization,
			Attached:    len(c.Terminals),
			Load:        c.Load(),
		})
	}
	for _, id := range s.GetTerminals() {
		t := s.terminals[id]
		tm := TerminalMetrics{
			Id:           t.Id,
			Cell:         t.AttachedCell,
			ThroughputDl: t.ThroughputDlMbps,
			ThroughputUl: t.ThroughputUlMbps,
		}
		if rep := s.measurements.Latest(id); rep != nil && t.IsAttached() {
			if rsrp, ok := rep.QualityOf(t.AttachedCell); ok {
				tm.ServingRsrpDbm = rsrp
			}
		}
		snap.Terminals = append(snap.Terminals, tm)
	}
	return snap
}
