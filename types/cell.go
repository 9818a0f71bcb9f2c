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

const (
	// DefaultMaxTerminalsPerCell limits how many terminals one cell admits.
	DefaultMaxTerminalsPerCell = 100

	// ResourceUnitsPerMhz derives a cell's resource-unit pool from its bandwidth.
	ResourceUnitsPerMhz = 5
)

// Cell is one base station: a fixed transmitter owning a finite pool of
// resource units that its scheduler hands out to flows every scheduling pass.
type Cell struct {
	Id           CellId
	Position     Position
	TxPowerDbm   DbValue
	FrequencyMhz float64
	BandwidthMhz float64
	TotalUnits   int
	MaxTerminals int

	// Terminals currently attached to this cell.
	Terminals map[TerminalId]struct{}

	// Assignments maps each scheduled flow to its held resource-unit count.
	Assignments map[FlowId]int

	Utilization  float64
	HandoversIn  int
	HandoversOut int
}

// NewCell creates a cell. When totalUnits is zero the pool size is derived
// from the bandwidth.
func NewCell(id CellId, pos Position, txPowerDbm DbValue, frequencyMhz, bandwidthMhz float64, totalUnits int) *Cell {
	if totalUnits <= 0 {
		totalUnits = int(bandwidthMhz * ResourceUnitsPerMhz)
	}
	return &Cell{
		Id:           id,
		Position:     pos,
		TxPowerDbm:   txPowerDbm,
		FrequencyMhz: frequencyMhz,
		BandwidthMhz: bandwidthMhz,
		TotalUnits:   totalUnits,
		MaxTerminals: DefaultMaxTerminalsPerCell,
		Terminals:    make(map[TerminalId]struct{}),
		Assignments:  make(map[FlowId]int),
	}
}

// AllocatedUnits returns the number of resource units currently held by flows.
func (c *Cell) AllocatedUnits() int {
	total := 0
	for _, n := range c.Assignments {
		total += n
	}
	return total
}

// FreeUnits returns the number of unassigned resource units.
func (c *Cell) FreeUnits() int {
	return c.TotalUnits - c.AllocatedUnits()
}

// Load is the attachment load of the cell, 0..1.
func (c *Cell) Load() float64 {
	if c.MaxTerminals == 0 {
		return 0
	}
	return float64(len(c.Terminals)) / float64(c.MaxTerminals)
}

// HasTerminal reports whether the given terminal is attached to this cell.
func (c *Cell) HasTerminal(id TerminalId) bool {
	_, ok := c.Terminals[id]
	return ok
}
