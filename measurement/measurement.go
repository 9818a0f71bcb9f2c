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

// Package measurement turns radio-model link budgets into ranked measurement
// reports, one per terminal per measurement interval.
package measurement

import (
	"sort"
	"time"

	"github.com/ransim/ransim/radiomodel"
	. "github.com/ransim/ransim/types"
)

// DefaultInterval is how often a terminal produces a new report.
const DefaultInterval = 500 * time.Millisecond

// DefaultRetention bounds the rolling report history per terminal.
const DefaultRetention = 5 * time.Second

// Entry is one measured cell in a report.
type Entry struct {
	Cell         CellId
	RsrpDbm      DbValue
	SinrDb       DbValue
	CapacityMbps float64
}

// Report is the ranked measurement outcome for one terminal: entries are
// ordered best-first by RSRP, ties broken by lowest cell id.
type Report struct {
	Terminal  TerminalId
	Timestamp Timestamp
	Entries   []Entry
}

// QualityOf returns the measured RSRP of the given cell.
func (r *Report) QualityOf(cell CellId) (DbValue, bool) {
	for _, e := range r.Entries {
		if e.Cell == cell {
			return e.RsrpDbm, true
		}
	}
	return 0, false
}

// EntryOf returns the full entry of the given cell, or nil.
func (r *Report) EntryOf(cell CellId) *Entry {
	for i := range r.Entries {
		if r.Entries[i].Cell == cell {
			return &r.Entries[i]
		}
	}
	return nil
}

// Best returns the strongest entry, or nil for an empty report.
func (r *Report) Best() *Entry {
	if len(r.Entries) == 0 {
		return nil
	}
	return &r.Entries[0]
}

// Aggregator produces and retains measurement reports. Only the latest
// report per terminal plus a short, age-bounded history is kept.
type Aggregator struct {
	model     *radiomodel.Model
	interval  Timestamp
	retention Timestamp

	latest       map[TerminalId]*Report
	history      map[TerminalId][]*Report
	lastMeasured map[TerminalId]Timestamp
}

// NewAggregator creates an aggregator around the given radio model.
func NewAggregator(model *radiomodel.Model, interval, retention time.Duration) *Aggregator {
	return &Aggregator{
		model:        model,
		interval:     ToTimestamp(interval),
		retention:    ToTimestamp(retention),
		latest:       make(map[TerminalId]*Report),
		history:      make(map[TerminalId][]*Report),
		lastMeasured: make(map[TerminalId]Timestamp),
	}
}

// SetInterval changes the measurement interval.
func (a *Aggregator) SetInterval(interval time.Duration) {
	a.interval = ToTimestamp(interval)
}

// Retention returns the history retention window.
func (a *Aggregator) Retention() time.Duration {
	return ToDuration(a.retention)
}

// Due reports whether the terminal should produce a new report at time now.
func (a *Aggregator) Due(terminal TerminalId, now Timestamp) bool {
	last, ok := a.lastMeasured[terminal]
	if !ok {
		return true
	}
	return now-last >= a.interval
}

// Measure computes a new ranked report for the terminal against all given
// cells, retains it, and prunes history older than the retention window.
func (a *Aggregator) Measure(term *Terminal, cells map[CellId]*Cell, now Timestamp) *Report {
	report := &Report{
		Terminal:  term.Id,
		Timestamp: now,
		Entries:   make([]Entry, 0, len(cells)),
	}

	for _, c := range cells {
		q := a.model.SignalQuality(c.Position, term.Position, c.TxPowerDbm, c.FrequencyMhz, c.BandwidthMhz)
		report.Entries = append(report.Entries, Entry{
			Cell:         c.Id,
			RsrpDbm:      q.ReceivedPowerDbm,
			SinrDb:       q.SinrDb,
			CapacityMbps: q.CapacityMbps,
		})
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		ei, ej := report.Entries[i], report.Entries[j]
		if ei.RsrpDbm != ej.RsrpDbm {
			return ei.RsrpDbm > ej.RsrpDbm
		}
		return ei.Cell < ej.Cell
	})

	a.Store(report)
	return report
}

// Store retains a report (used directly by tests that craft reports).
func (a *Aggregator) Store(report *Report) {
	term := report.Terminal
	a.latest[term] = report
	a.lastMeasured[term] = report.Timestamp
	a.history[term] = append(a.history[term], report)
	a.prune(term, report.Timestamp)
}

func (a *Aggregator) prune(terminal TerminalId, now Timestamp) {
	hist := a.history[terminal]
	cutoffIdx := 0
	for i, r := range hist {
		if now < a.retention || r.Timestamp > now-a.retention {
			cutoffIdx = i
			break
		}
		cutoffIdx = i + 1
	}
	if cutoffIdx > 0 {
		a.history[terminal] = hist[cutoffIdx:]
	}
}

// Latest returns the most recent report for a terminal, or nil.
func (a *Aggregator) Latest(terminal TerminalId) *Report {
	return a.latest[terminal]
}

// History returns the retained reports of a terminal, oldest first.
func (a *Aggregator) History(terminal TerminalId) []*Report {
	return a.history[terminal]
}

// Forget drops all retained state of a terminal.
func (a *Aggregator) Forget(terminal TerminalId) {
	delete(a.latest, terminal)
	delete(a.history, terminal)
	delete(a.lastMeasured, terminal)
}
