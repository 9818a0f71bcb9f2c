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

// Package scheduler distributes the resource units of each cell over the QoS
// flows of its attached terminals. Guaranteed flows are served first by
// scheduling priority with preemption of lower-priority holders; remaining
// units are shared among non-guaranteed flows.
package scheduler

import (
	"math"
	"sort"

	"github.com/ransim/ransim/qos"
	. "github.com/ransim/ransim/types"
)

// UplinkFraction is the uplink rate relative to downlink on the same units.
const UplinkFraction = 0.7

// CapacityFunc returns the per-unit downlink capacity in Mbps a terminal
// gets from the cell under allocation, from its current link budget.
type CapacityFunc func(terminal TerminalId) float64

// Scheduler allocates the resource units of cells to flows each tick.
type Scheduler struct {
	flows *qos.Table
}

// New creates a scheduler over the given flow table.
func New(flows *qos.Table) *Scheduler {
	return &Scheduler{flows: flows}
}

type candidate struct {
	flow     *qos.Flow
	terminal *Terminal
	priority int
	units    int // granted units, filled during allocation
}

// Allocate runs one allocation round for a cell. Stale holdings are released
// first, then guaranteed flows are served in priority order with preemption,
// then leftover units are shared among non-guaranteed flows. Flow rates,
// terminal throughput and cell utilization are recomputed from the outcome.
func (s *Scheduler) Allocate(cell *Cell, terminals map[TerminalId]*Terminal, perUnitMbps CapacityFunc) {
	s.releaseStale(cell, terminals)

	cands := s.collectCandidates(cell, terminals)
	if len(cands) == 0 {
		s.applyAllocation(cell, terminals, nil, perUnitMbps)
		return
	}

	// ascending scheduling priority; guaranteed flows first within equal
	// priority, then stable by flow id
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].priority != cands[j].priority {
			return cands[i].priority < cands[j].priority
		}
		gi, gj := cands[i].flow.IsGuaranteed(), cands[j].flow.IsGuaranteed()
		if gi != gj {
			return gi
		}
		return cands[i].flow.Id < cands[j].flow.Id
	})

	free := cell.TotalUnits
	var guaranteed, best []*candidate
	for _, c := range cands {
		if c.flow.IsGuaranteed() {
			guaranteed = append(guaranteed, c)
		} else {
			best = append(best, c)
		}
	}

	// pass 1: guaranteed flows get their required units, preempting
	// lower-priority holders when the pool runs short
	for _, c := range guaranteed {
		need := requiredUnits(c.flow.GuaranteedDlKbps, perUnitMbps(c.terminal.Id))
		granted := need
		if granted > free {
			reclaimed := preempt(guaranteed, c.priority, granted-free)
			free += reclaimed
			if granted > free {
				// degrade gracefully rather than rejecting outright
				granted = free
			}
		}
		c.units = granted
		free -= granted
	}

	// pass 2: equal share of what is left over the non-guaranteed flows,
	// capped at each flow's maximum rate
	if len(best) > 0 && free > 0 {
		share := free / len(best)
		for _, c := range best {
			limit := maxUnits(c.flow.MaxDlKbps, perUnitMbps(c.terminal.Id))
			granted := share
			if granted > limit {
				granted = limit
			}
			c.units = granted
			free -= granted
		}
		// hand out the remainder one unit at a time, best priority first
		for free > 0 {
			assigned := false
			for _, c := range best {
				if free == 0 {
					break
				}
				if c.units < maxUnits(c.flow.MaxDlKbps, perUnitMbps(c.terminal.Id)) {
					c.units++
					free--
					assigned = true
				}
			}
			if !assigned {
				break
			}
		}
	}

	s.applyAllocation(cell, terminals, cands, perUnitMbps)
}

// releaseStale drops cell holdings whose flow is gone or whose terminal is
// no longer attached to this cell. Freed units are usable in the same round.
func (s *Scheduler) releaseStale(cell *Cell, terminals map[TerminalId]*Terminal) {
	for flowId := range cell.Assignments {
		f := s.flows.Get(flowId)
		if f == nil {
			delete(cell.Assignments, flowId)
			continue
		}
		t := terminals[f.Terminal]
		if t == nil || t.AttachedCell != cell.Id {
			delete(cell.Assignments, flowId)
		}
	}
}

// collectCandidates gathers the schedulable flows of all terminals attached
// to the cell, in deterministic terminal order.
func (s *Scheduler) collectCandidates(cell *Cell, terminals map[TerminalId]*Terminal) []*candidate {
	ids := make([]TerminalId, 0, len(cell.Terminals))
	for id := range cell.Terminals {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var cands []*candidate
	for _, id := range ids {
		t := terminals[id]
		if t == nil {
			continue
		}
		for _, f := range s.flows.TerminalFlows(id) {
			cands = append(cands, &candidate{flow: f, terminal: t, priority: f.SchedulingPriority()})
		}
	}
	return cands
}

// preempt takes units away from guaranteed candidates with strictly lower
// precedence (higher priority value) than prio, lowest precedence victims
// first, until the wanted amount is reclaimed or no victims remain.
func preempt(guaranteed []*candidate, prio, want int) int {
	reclaimed := 0
	for i := len(guaranteed) - 1; i >= 0 && reclaimed < want; i-- {
		v := guaranteed[i]
		if v.priority <= prio || v.units == 0 {
			continue
		}
		take := want - reclaimed
		if take > v.units {
			take = v.units
		}
		v.units -= take
		reclaimed += take
	}
	return reclaimed
}

// requiredUnits is the unit demand of a guaranteed downlink rate. A flow
// with any positive demand needs at least one unit.
func requiredUnits(gbrDlKbps, perUnitMbps float64) int {
	if gbrDlKbps <= 0 {
		return 0
	}
	if perUnitMbps <= 0 {
		return 1
	}
	n := int(math.Ceil(gbrDlKbps / 1000 / perUnitMbps))
	if n < 1 {
		n = 1
	}
	return n
}

// maxUnits caps a flow's units at what its maximum downlink rate can use.
func maxUnits(maxDlKbps, perUnitMbps float64) int {
	if maxDlKbps <= 0 || perUnitMbps <= 0 {
		return math.MaxInt32
	}
	return int(math.Ceil(maxDlKbps / 1000 / perUnitMbps))
}

// applyAllocation writes the allocation outcome back: cell holdings and
// utilization, per-flow current rates, per-terminal throughput sums.
func (s *Scheduler) applyAllocation(cell *Cell, terminals map[TerminalId]*Terminal, cands []*candidate, perUnitMbps CapacityFunc) {
	for id := range cell.Terminals {
		if t := terminals[id]; t != nil {
			t.ThroughputDlMbps = 0
			t.ThroughputUlMbps = 0
		}
	}

	for flowId := range cell.Assignments {
		delete(cell.Assignments, flowId)
	}

	for _, c := range cands {
		dlMbps := float64(c.units) * perUnitMbps(c.terminal.Id)
		if maxMbps := c.flow.MaxDlKbps / 1000; maxMbps > 0 && dlMbps > maxMbps {
			dlMbps = maxMbps
		}
		ulMbps := dlMbps * UplinkFraction
		if maxUl := c.flow.MaxUlKbps / 1000; maxUl > 0 && ulMbps > maxUl {
			ulMbps = maxUl
		}

		c.flow.CurrentDlKbps = dlMbps * 1000
		c.flow.CurrentUlKbps = ulMbps * 1000
		if c.units > 0 {
			cell.Assignments[c.flow.Id] = c.units
		}
		c.terminal.ThroughputDlMbps += dlMbps
		c.terminal.ThroughputUlMbps += ulMbps
	}

	if cell.TotalUnits > 0 {
		cell.Utilization = float64(cell.AllocatedUnits()) / float64(cell.TotalUnits)
	} else {
		cell.Utilization = 0
	}
}
