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

// Package types holds the identifiers and small value types shared by all
// simulator packages.
package types

import (
	"math"
	"time"
)

type CellId = int
type TerminalId = int
type FlowId = int

// ClassId is a standardized 5QI QoS class identifier.
type ClassId = int

const (
	InvalidCellId     CellId     = 0
	InvalidTerminalId TerminalId = 0
	InvalidFlowId     FlowId     = 0
	MaxCellId         CellId     = 0xffff
	MaxTerminalId     TerminalId = 0xffff
)

// Timestamp is a simulated point in time, in microseconds since simulation start.
type Timestamp = uint64

// DbValue is a dB (or dBm) value in floating point.
type DbValue = float64

// ToDuration converts a simulated-time offset in microseconds to a time.Duration.
func ToDuration(ts Timestamp) time.Duration {
	return time.Duration(ts) * time.Microsecond
}

// ToTimestamp converts a duration to a simulated-time offset in microseconds.
func ToTimestamp(d time.Duration) Timestamp {
	return uint64(d / time.Microsecond)
}

// Position is a 2D location in meters.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DistanceTo returns the Euclidean distance to other, in meters.
func (p Position) DistanceTo(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}
