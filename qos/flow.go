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

package qos

import (
	"sort"

	"github.com/pkg/errors"

	. "github.com/ransim/ransim/types"
)

// Scheduling-priority bonus applied while a flow violates its delay budget
// or error-rate target. A lower effective value schedules earlier.
const (
	delayViolationBonus = 10
	errorViolationBonus = 5
)

// Flow is one QoS flow owned by a terminal. Rate targets are in kbps.
type Flow struct {
	Id       FlowId
	Terminal TerminalId
	Class    ClassId
	Char     Characteristics

	GuaranteedUlKbps float64
	GuaranteedDlKbps float64
	MaxUlKbps        float64
	MaxDlKbps        float64

	CurrentUlKbps float64
	CurrentDlKbps float64

	PacketsSent     uint64
	PacketsReceived uint64
	PacketsLost     uint64
	TotalDelayMs    float64

	Active bool
}

// LossRate is the running packet loss rate of the flow.
func (f *Flow) LossRate() float64 {
	if f.PacketsSent == 0 {
		return 0
	}
	return float64(f.PacketsLost) / float64(f.PacketsSent)
}

// AverageDelayMs is the running average packet delay of the flow.
func (f *Flow) AverageDelayMs() float64 {
	if f.PacketsReceived == 0 {
		return 0
	}
	return f.TotalDelayMs / float64(f.PacketsReceived)
}

// SchedulingPriority is the effective priority used by the resource
// scheduler: the 5QI priority, lowered (made more urgent) while the flow
// violates its delay budget or error-rate target.
func (f *Flow) SchedulingPriority() int {
	priority := f.Char.Priority
	if f.AverageDelayMs() > f.Char.DelayBudgetMs {
		priority -= delayViolationBonus
	}
	if f.LossRate() > f.Char.ErrorRate {
		priority -= errorViolationBonus
	}
	return priority
}

// IsGuaranteed reports whether the flow belongs to a guaranteed resource class.
func (f *Flow) IsGuaranteed() bool {
	return f.Char.Resource != NonGBR
}

// Table is the arena of all QoS flows in a simulation, indexed by flow id.
type Table struct {
	flows      map[FlowId]*Flow
	nextFlowId FlowId
}

// NewTable creates an empty flow table.
func NewTable() *Table {
	return &Table{
		flows:      make(map[FlowId]*Flow),
		nextFlowId: 1,
	}
}

// Create admits a new flow for the given terminal. An unknown class fails
// admission with ErrUnknownClass and mutates nothing. Zero rate targets are
// filled from the class defaults; a zero maximum defaults to twice the
// guaranteed rate.
func (t *Table) Create(terminal TerminalId, class ClassId, gbrUlKbps, gbrDlKbps, maxUlKbps, maxDlKbps float64) (*Flow, error) {
	char, err := Lookup(class)
	if err != nil {
		return nil, err
	}

	if gbrUlKbps == 0 {
		gbrUlKbps = char.DefaultGbrUlKbps
	}
	if gbrDlKbps == 0 {
		gbrDlKbps = char.DefaultGbrDlKbps
	}
	if maxUlKbps == 0 {
		maxUlKbps = gbrUlKbps * 2
	}
	if maxDlKbps == 0 {
		maxDlKbps = gbrDlKbps * 2
	}

	flow := &Flow{
		Id:               t.nextFlowId,
		Terminal:         terminal,
		Class:            class,
		Char:             char,
		GuaranteedUlKbps: gbrUlKbps,
		GuaranteedDlKbps: gbrDlKbps,
		MaxUlKbps:        maxUlKbps,
		MaxDlKbps:        maxDlKbps,
		Active:           true,
	}
	t.nextFlowId++
	t.flows[flow.Id] = flow
	return flow, nil
}

// Remove deletes the flow from the table.
func (t *Table) Remove(id FlowId) error {
	if _, ok := t.flows[id]; !ok {
		return errors.Errorf("flow %d not found", id)
	}
	delete(t.flows, id)
	return nil
}

// RemoveTerminalFlows deletes all flows of a terminal and returns their ids.
func (t *Table) RemoveTerminalFlows(terminal TerminalId) []FlowId {
	var removed []FlowId
	for id, f := range t.flows {
		if f.Terminal == terminal {
			removed = append(removed, id)
		}
	}
	sort.Ints(removed)
	for _, id := range removed {
		delete(t.flows, id)
	}
	return removed
}

// Get returns the flow with the given id, or nil.
func (t *Table) Get(id FlowId) *Flow {
	return t.flows[id]
}

// TerminalFlows returns the flows of a terminal, ordered by flow id.
func (t *Table) TerminalFlows(terminal TerminalId) []*Flow {
	var flows []*Flow
	for _, f := range t.flows {
		if f.Terminal == terminal {
			flows = append(flows, f)
		}
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Id < flows[j].Id })
	return flows
}

// Count returns the number of flows in the table.
func (t *Table) Count() int {
	return len(t.flows)
}

// UpdateStatistics adds packet and delay counters to a flow.
func (t *Table) UpdateStatistics(id FlowId, sent, received, lost uint64, delayMs float64) {
	f := t.flows[id]
	if f == nil {
		return
	}
	f.PacketsSent += sent
	f.PacketsReceived += received
	f.PacketsLost += lost
	f.TotalDelayMs += delayMs
}
