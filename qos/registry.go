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

// Package qos implements the standardized 5QI characteristics registry and
// the QoS flow bookkeeping of the simulator. The registry follows 3GPP
// TS 23.501 Table 5.7.4-1.
package qos

import (
	"sort"

	"github.com/pkg/errors"

	. "github.com/ransim/ransim/types"
)

// ErrUnknownClass is returned for a 5QI value outside the standardized set.
var ErrUnknownClass = errors.New("unknown QoS class")

// ResourceClass groups 5QI classes by their capacity-guarantee semantics.
type ResourceClass int

const (
	GBR ResourceClass = iota
	DelayCriticalGBR
	NonGBR
)

func (rc ResourceClass) String() string {
	switch rc {
	case GBR:
		return "GBR"
	case DelayCriticalGBR:
		return "Delay Critical GBR"
	case NonGBR:
		return "Non-GBR"
	default:
		return "invalid"
	}
}

// Characteristics are the scheduling-relevant properties of one 5QI class.
// A numerically lower Priority means higher scheduling precedence.
type Characteristics struct {
	Priority      int
	DelayBudgetMs float64
	ErrorRate     float64
	Resource      ResourceClass

	// Default guaranteed bitrates, used when a flow is created without
	// explicit rate targets. Zero for classes without defined defaults.
	DefaultGbrUlKbps float64
	DefaultGbrDlKbps float64
}

var classTable = map[ClassId]Characteristics{
	// GBR
	1:  {Priority: 20, DelayBudgetMs: 100, ErrorRate: 1e-2, Resource: GBR},
	2:  {Priority: 40, DelayBudgetMs: 150, ErrorRate: 1e-3, Resource: GBR},
	3:  {Priority: 30, DelayBudgetMs: 50, ErrorRate: 1e-3, Resource: GBR},
	4:  {Priority: 50, DelayBudgetMs: 300, ErrorRate: 1e-6, Resource: GBR},
	65: {Priority: 7, DelayBudgetMs: 75, ErrorRate: 1e-2, Resource: GBR},
	66: {Priority: 20, DelayBudgetMs: 100, ErrorRate: 1e-2, Resource: GBR},
	67: {Priority: 15, DelayBudgetMs: 100, ErrorRate: 1e-3, Resource: GBR},
	75: {Priority: 25, DelayBudgetMs: 80, ErrorRate: 1e-4, Resource: GBR,
		DefaultGbrUlKbps: 50000, DefaultGbrDlKbps: 100000},

	// Delay Critical GBR
	82: {Priority: 19, DelayBudgetMs: 10, ErrorRate: 1e-4, Resource: DelayCriticalGBR},
	83: {Priority: 22, DelayBudgetMs: 10, ErrorRate: 1e-4, Resource: DelayCriticalGBR},
	84: {Priority: 24, DelayBudgetMs: 30, ErrorRate: 1e-5, Resource: DelayCriticalGBR},
	85: {Priority: 21, DelayBudgetMs: 5, ErrorRate: 1e-5, Resource: DelayCriticalGBR},

	// Non-GBR
	5:  {Priority: 10, DelayBudgetMs: 100, ErrorRate: 1e-6, Resource: NonGBR},
	6:  {Priority: 60, DelayBudgetMs: 300, ErrorRate: 1e-6, Resource: NonGBR},
	7:  {Priority: 70, DelayBudgetMs: 100, ErrorRate: 1e-3, Resource: NonGBR},
	8:  {Priority: 80, DelayBudgetMs: 300, ErrorRate: 1e-6, Resource: NonGBR},
	9:  {Priority: 90, DelayBudgetMs: 300, ErrorRate: 1e-6, Resource: NonGBR},
	69: {Priority: 5, DelayBudgetMs: 60, ErrorRate: 1e-6, Resource: NonGBR},
	70: {Priority: 55, DelayBudgetMs: 200, ErrorRate: 1e-6, Resource: NonGBR},
	79: {Priority: 65, DelayBudgetMs: 50, ErrorRate: 1e-2, Resource: NonGBR},
	80: {Priority: 68, DelayBudgetMs: 10, ErrorRate: 1e-6, Resource: NonGBR},
}

// Lookup returns the characteristics of the given 5QI class, or
// ErrUnknownClass for an identifier outside the standardized set.
func Lookup(class ClassId) (Characteristics, error) {
	char, ok := classTable[class]
	if !ok {
		return Characteristics{}, errors.Wrapf(ErrUnknownClass, "5QI %d", class)
	}
	return char, nil
}

// IsGuaranteed reports whether the class belongs to a guaranteed resource
// class. Unknown classes report false.
func IsGuaranteed(class ClassId) bool {
	char, ok := classTable[class]
	return ok && char.Resource != NonGBR
}

// SupportedClasses returns the standardized 5QI values, ascending.
func SupportedClasses() []ClassId {
	classes := make([]ClassId, 0, len(classTable))
	for c := range classTable {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
