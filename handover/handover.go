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

// Package handover implements the per-terminal handover state machine:
// measurement-based trigger evaluation with hysteresis, margin and
// time-to-trigger, the multi-phase procedure with simulated-time phase
// durations, the per-cause success model, and ping-pong detection.
package handover

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ransim/ransim/logger"
	"github.com/ransim/ransim/measurement"
	"github.com/ransim/ransim/prng"
	. "github.com/ransim/ransim/types"
)

var (
	ErrUnknownTerminal = errors.New("unknown terminal")
	ErrUnknownCell     = errors.New("unknown cell")
)

// Parameters configure trigger evaluation and procedure timing. All
// durations count against the simulated clock.
type Parameters struct {
	HysteresisDb   DbValue
	MarginDb       DbValue
	TimeToTrigger  time.Duration
	SignalFloorDbm DbValue

	PreparationTime  time.Duration
	ExecutionTimeMin time.Duration
	ExecutionTimeMax time.Duration
	CompletionTime   time.Duration

	// RetentionWindow bounds how far back a reverse handover counts as
	// ping-pong.
	RetentionWindow time.Duration

	// BaseSuccessProb is the per-procedure success probability before
	// cause-specific adjustment.
	BaseSuccessProb float64
}

// DefaultParameters returns the standard handover parameters.
func DefaultParameters() Parameters {
	return Parameters{
		HysteresisDb:     3.0,
		MarginDb:         2.0,
		TimeToTrigger:    160 * time.Millisecond,
		SignalFloorDbm:   -110.0,
		PreparationTime:  50 * time.Millisecond,
		ExecutionTimeMin: 20 * time.Millisecond,
		ExecutionTimeMax: 40 * time.Millisecond,
		CompletionTime:   10 * time.Millisecond,
		RetentionWindow:  5 * time.Second,
		BaseSuccessProb:  0.95,
	}
}

// Procedure is one in-flight handover. At most one exists per terminal.
type Procedure struct {
	Terminal TerminalId
	Source   CellId // InvalidCellId for a first attachment
	Target   CellId
	Cause    HandoverCause
	Phase    HandoverPhase

	TriggeredAt    Timestamp
	PhaseEnteredAt Timestamp

	// ExecutionTime is drawn per procedure from the configured range.
	ExecutionTime time.Duration

	SourceRsrpDbm DbValue
	TargetRsrpDbm DbValue
}

// Event is one completed handover, successful or not.
type Event struct {
	Timestamp Timestamp     `json:"timestamp_us"`
	Terminal  TerminalId    `json:"terminal"`
	Source    CellId        `json:"source"`
	Target    CellId        `json:"target"`
	Cause     HandoverCause `json:"cause"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	PingPong  bool          `json:"ping_pong"`
	Reason    string        `json:"reason,omitempty"`

	SourceRsrpDbm DbValue `json:"source_rsrp_dbm"`
	TargetRsrpDbm DbValue `json:"target_rsrp_dbm"`
}

// Stats are the running handover statistics.
type Stats struct {
	Total         int     `json:"total" yaml:"total"`
	Succeeded     int     `json:"succeeded" yaml:"succeeded"`
	Failed        int     `json:"failed" yaml:"failed"`
	PingPong      int     `json:"ping_pong" yaml:"ping_pong"`
	AvgDurationMs float64 `json:"avg_duration_ms" yaml:"avg_duration_ms"`
}

type pairKey struct {
	Source CellId
	Target CellId
}

// Manager owns all per-terminal handover state. It mutates terminal
// attachment and cell membership; nothing else does after initial attach.
type Manager struct {
	params    Parameters
	cells     map[CellId]*Cell
	terminals map[TerminalId]*Terminal

	procedures map[TerminalId]*Procedure
	triggers   map[TerminalId]map[pairKey]Timestamp
	events     []Event
	stats      Stats

	// successOverride, when in [0,1], replaces the success model. Used by
	// tests and reproducibility experiments.
	successOverride float64
}

// NewManager creates a handover manager over the given cell/terminal arenas.
func NewManager(params Parameters, cells map[CellId]*Cell, terminals map[TerminalId]*Terminal) *Manager {
	return &Manager{
		params:          params,
		cells:           cells,
		terminals:       terminals,
		procedures:      make(map[TerminalId]*Procedure),
		triggers:        make(map[TerminalId]map[pairKey]Timestamp),
		events:          nil,
		successOverride: -1,
	}
}

// Parameters returns the current handover parameters.
func (m *Manager) Parameters() Parameters {
	return m.params
}

// SetParameters updates the tunable trigger parameters at runtime.
func (m *Manager) SetParameters(hysteresisDb DbValue, timeToTrigger time.Duration, signalFloorDbm DbValue) {
	m.params.HysteresisDb = hysteresisDb
	m.params.TimeToTrigger = timeToTrigger
	m.params.SignalFloorDbm = signalFloorDbm
	logger.Infof("handover parameters updated: hysteresis=%.1fdB ttt=%v floor=%.1fdBm",
		hysteresisDb, timeToTrigger, signalFloorDbm)
}

// SetSuccessOverride forces the procedure success probability to p. A
// negative value restores the cause-based success model.
func (m *Manager) SetSuccessOverride(p float64) {
	m.successOverride = p
}

// Procedure returns the in-flight procedure of a terminal, or nil.
func (m *Manager) Procedure(terminal TerminalId) *Procedure {
	return m.procedures[terminal]
}

// InFlight reports whether the terminal has a non-terminal procedure.
func (m *Manager) InFlight(terminal TerminalId) bool {
	return m.procedures[terminal] != nil
}

// AttachDirect attaches an unattached terminal to a cell without running a
// procedure. Used for initial attachment at network setup.
func (m *Manager) AttachDirect(terminal TerminalId, cell CellId) error {
	t := m.terminals[terminal]
	if t == nil {
		return errors.Wrapf(ErrUnknownTerminal, "terminal %d", terminal)
	}
	c := m.cells[cell]
	if c == nil {
		return errors.Wrapf(ErrUnknownCell, "cell %d", cell)
	}
	if t.IsAttached() {
		return errors.Errorf("terminal %d is already attached to cell %d", terminal, t.AttachedCell)
	}
	if len(c.Terminals) >= c.MaxTerminals {
		return errors.Errorf("cell %d is full", cell)
	}
	c.Terminals[terminal] = struct{}{}
	t.AttachedCell = cell
	return nil
}

// Detach removes a terminal from its serving cell and drops any in-flight
// procedure and trigger timers.
func (m *Manager) Detach(terminal TerminalId) {
	t := m.terminals[terminal]
	if t == nil {
		return
	}
	if c := m.cells[t.AttachedCell]; c != nil {
		delete(c.Terminals, terminal)
	}
	t.AttachedCell = InvalidCellId
	delete(m.procedures, terminal)
	delete(m.triggers, terminal)
}

// Evaluate runs trigger evaluation for one terminal against its latest
// measurement report. While a procedure is in flight this is a no-op, so
// calling it more than once per tick cannot create a second procedure.
func (m *Manager) Evaluate(terminal TerminalId, report *measurement.Report, now Timestamp) {
	t := m.terminals[terminal]
	if t == nil || !t.IsAttached() || report == nil {
		return
	}
	if m.InFlight(terminal) {
		return
	}

	serving := t.AttachedCell
	servingRsrp, ok := report.QualityOf(serving)
	if !ok {
		return
	}

	threshold := servingRsrp + m.params.HysteresisDb + m.params.MarginDb
	timers := m.triggers[terminal]
	if timers == nil {
		timers = make(map[pairKey]Timestamp)
		m.triggers[terminal] = timers
	}

	// start or keep a timer per qualifying (serving, candidate) pair
	qualifying := make(map[pairKey]struct{})
	for _, e := range report.Entries {
		if e.Cell == serving || e.RsrpDbm <= threshold {
			continue
		}
		key := pairKey{Source: serving, Target: e.Cell}
		qualifying[key] = struct{}{}
		if _, exists := timers[key]; !exists {
			timers[key] = now
			logger.Debugf("terminal %d: trigger timer started for cell %d -> %d", terminal, serving, e.Cell)
		}
	}

	// reset timers whose candidate stopped qualifying, and timers left over
	// from a previous serving cell
	for key := range timers {
		if _, stillQualifies := qualifying[key]; !stillQualifies || key.Source != serving {
			delete(timers, key)
		}
	}

	// report entries are ranked best-first with ties broken by lowest cell
	// id, so the first matured candidate is the one to take
	for _, e := range report.Entries {
		key := pairKey{Source: serving, Target: e.Cell}
		start, exists := timers[key]
		if !exists || now-start < ToTimestamp(m.params.TimeToTrigger) {
			continue
		}

		cause := CauseQosDegradation
		if servingRsrp < m.params.SignalFloorDbm {
			cause = CauseCoverage
		}
		m.startProcedure(t, serving, e.Cell, cause, now, servingRsrp, e.RsrpDbm)
		return
	}
}

// ForceHandover starts an administrative handover procedure towards the
// target cell. The trigger condition is bypassed; phase timing and the
// success model still apply. A terminal already mid-procedure is left
// untouched.
func (m *Manager) ForceHandover(terminal TerminalId, target CellId, cause HandoverCause, now Timestamp) error {
	t := m.terminals[terminal]
	if t == nil {
		return errors.Wrapf(ErrUnknownTerminal, "terminal %d", terminal)
	}
	if m.cells[target] == nil {
		return errors.Wrapf(ErrUnknownCell, "cell %d", target)
	}
	if t.AttachedCell == target {
		return errors.Errorf("terminal %d is already attached to cell %d", terminal, target)
	}
	if m.InFlight(terminal) {
		return nil
	}

	m.startProcedure(t, t.AttachedCell, target, cause, now, 0, 0)
	return nil
}

func (m *Manager) startProcedure(t *Terminal, source, target CellId, cause HandoverCause, now Timestamp, srcRsrp, tgtRsrp DbValue) {
	execRange := m.params.ExecutionTimeMax - m.params.ExecutionTimeMin
	execTime := m.params.ExecutionTimeMin
	if execRange > 0 {
		execTime += time.Duration(prng.HandoverDurationRandom() * float64(execRange))
	}

	m.procedures[t.Id] = &Procedure{
		Terminal:       t.Id,
		Source:         source,
		Target:         target,
		Cause:          cause,
		Phase:          HandoverTriggered,
		TriggeredAt:    now,
		PhaseEnteredAt: now,
		ExecutionTime:  execTime,
		SourceRsrpDbm:  srcRsrp,
		TargetRsrpDbm:  tgtRsrp,
	}
	delete(m.triggers, t.Id)
	logger.Infof("terminal %d: handover triggered, cell %d -> %d (%s)", t.Id, source, target, cause)
}

// Advance progresses every in-flight procedure to time now, in ascending
// terminal order, and returns the events of procedures that resolved.
func (m *Manager) Advance(now Timestamp) []*Event {
	ids := make([]TerminalId, 0, len(m.procedures))
	for id := range m.procedures {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var completed []*Event
	for _, id := range ids {
		if ev := m.advanceProcedure(m.procedures[id], now); ev != nil {
			completed = append(completed, ev)
		}
	}
	return completed
}

// advanceProcedure walks a procedure through all phase transitions whose
// simulated durations have elapsed by now. Phase entry times accumulate the
// exact configured durations so the resolution instant does not depend on
// the tick size.
func (m *Manager) advanceProcedure(proc *Procedure, now Timestamp) *Event {
	for {
		switch proc.Phase {
		case HandoverTriggered:
			proc.Phase = HandoverPreparing
		case HandoverPreparing:
			d := ToTimestamp(m.params.PreparationTime)
			if now-proc.PhaseEnteredAt < d {
				return nil
			}
			proc.PhaseEnteredAt += d
			proc.Phase = HandoverExecuting
		case HandoverExecuting:
			d := ToTimestamp(proc.ExecutionTime)
			if now-proc.PhaseEnteredAt < d {
				return nil
			}
			proc.PhaseEnteredAt += d
			proc.Phase = HandoverCompleting
		case HandoverCompleting:
			d := ToTimestamp(m.params.CompletionTime)
			if now-proc.PhaseEnteredAt < d {
				return nil
			}
			return m.resolve(proc, proc.PhaseEnteredAt+d)
		default:
			return nil
		}
	}
}

// successProb is the per-cause success model.
func (m *Manager) successProb(cause HandoverCause) float64 {
	if m.successOverride >= 0 {
		return m.successOverride
	}
	p := m.params.BaseSuccessProb
	switch cause {
	case CauseInterference:
		p -= 0.10
	case CauseLoadBalancing:
		p += 0.03
	}
	if p > 1 {
		p = 1
	}
	if p < 0 {
		p = 0
	}
	return p
}

// resolve finishes a procedure at the given simulated instant: draws the
// outcome, re-attaches the terminal on success, records the event and
// updates statistics.
func (m *Manager) resolve(proc *Procedure, endTime Timestamp) *Event {
	t := m.terminals[proc.Terminal]
	target := m.cells[proc.Target]

	success := prng.HandoverUnitRandom() < m.successProb(proc.Cause)
	reason := ""
	if !success {
		reason = "radio link failure"
	}
	if success && target == nil {
		success, reason = false, "target cell unavailable"
	}
	if success && len(target.Terminals) >= target.MaxTerminals {
		success, reason = false, "target cell full"
	}

	if success {
		if src := m.cells[proc.Source]; src != nil {
			delete(src.Terminals, proc.Terminal)
			src.HandoversOut++
		}
		target.Terminals[proc.Terminal] = struct{}{}
		target.HandoversIn++
		t.AttachedCell = proc.Target
	}

	ev := Event{
		Timestamp:     endTime,
		Terminal:      proc.Terminal,
		Source:        proc.Source,
		Target:        proc.Target,
		Cause:         proc.Cause,
		Duration:      ToDuration(endTime - proc.TriggeredAt),
		Success:       success,
		Reason:        reason,
		SourceRsrpDbm: proc.SourceRsrpDbm,
		TargetRsrpDbm: proc.TargetRsrpDbm,
	}
	ev.PingPong = success && m.isPingPong(&ev)

	m.events = append(m.events, ev)
	m.updateStats(&ev)
	delete(m.procedures, proc.Terminal)

	if success {
		logger.Infof("terminal %d: handover completed, cell %d -> %d in %v",
			ev.Terminal, ev.Source, ev.Target, ev.Duration)
	} else {
		logger.Warnf("terminal %d: handover failed, cell %d -> %d (%s)",
			ev.Terminal, ev.Source, ev.Target, reason)
	}
	return &m.events[len(m.events)-1]
}

// isPingPong reports whether ev reverses a successful handover of the same
// terminal completed within the retention window.
func (m *Manager) isPingPong(ev *Event) bool {
	if ev.Source == InvalidCellId {
		return false
	}
	retention := ToTimestamp(m.params.RetentionWindow)
	for i := len(m.events) - 1; i >= 0; i-- {
		prev := &m.events[i]
		if ev.Timestamp >= retention && prev.Timestamp < ev.Timestamp-retention {
			break
		}
		if prev.Terminal == ev.Terminal && prev.Source == ev.Target &&
			prev.Target == ev.Source && prev.Success {
			return true
		}
	}
	return false
}

func (m *Manager) updateStats(ev *Event) {
	durMs := float64(ev.Duration) / float64(time.Millisecond)
	total := m.stats.AvgDurationMs * float64(m.stats.Total)
	m.stats.Total++
	m.stats.AvgDurationMs = (total + durMs) / float64(m.stats.Total)
	if ev.Success {
		m.stats.Succeeded++
	} else {
		m.stats.Failed++
	}
	if ev.PingPong {
		m.stats.PingPong++
	}
}

// Events returns the full handover event history.
func (m *Manager) Events() []Event {
	return m.events
}

// StatsSnapshot returns a copy of the running statistics.
func (m *Manager) StatsSnapshot() Stats {
	return m.stats
}

// ClearHistory drops all events, triggers, procedures and statistics.
func (m *Manager) ClearHistory() {
	m.events = nil
	m.stats = Stats{}
	m.procedures = make(map[TerminalId]*Procedure)
	m.triggers = make(map[TerminalId]map[pairKey]Timestamp)
}
