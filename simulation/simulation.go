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

// Package simulation is the time-stepped driver that owns all simulation
// state and advances it tick by tick in a fixed order: mobility, then
// measurement, then handover, then resource allocation, then metrics. All
// state is touched only from the simulation goroutine; external callers post
// tasks through PostAsync/PostSync.
package simulation

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/ransim/ransim/handover"
	"github.com/ransim/ransim/logger"
	"github.com/ransim/ransim/measurement"
	"github.com/ransim/ransim/mobility"
	"github.com/ransim/ransim/progctx"
	"github.com/ransim/ransim/prng"
	"github.com/ransim/ransim/qos"
	"github.com/ransim/ransim/radiomodel"
	"github.com/ransim/ransim/scheduler"
	. "github.com/ransim/ransim/types"
)

type goRequest struct {
	duration time.Duration
	done     chan struct{}
}

// Simulation owns the full network state and the simulated clock.
type Simulation struct {
	Started chan struct{}

	ctx     *progctx.ProgCtx
	cfg     *Config
	stopped bool

	cells     map[CellId]*Cell
	terminals map[TerminalId]*Terminal
	movers    map[TerminalId]*mobility.Model

	flows        *qos.Table
	radio        *radiomodel.Model
	measurements *measurement.Aggregator
	handovers    *handover.Manager
	sched        *scheduler.Scheduler
	kpi          *KpiManager
	sink         MetricsSink

	curTime  Timestamp
	tickStep Timestamp
	speed    float64

	taskChan chan func()
	goChan   chan goRequest
}

// NewSimulation builds a simulation from config: radio model, cells,
// terminals with initial attachment, and one default flow per terminal.
func NewSimulation(ctx *progctx.ProgCtx, cfg *Config) (*Simulation, error) {
	prng.Init(cfg.Seed)

	env, err := radiomodel.ParseEnvironment(cfg.Environment)
	if err != nil {
		return nil, err
	}
	radio := radiomodel.NewModel(radiomodel.DefaultParams(env), prng.NewRadioModelRandomSeed())

	s := &Simulation{
		Started:      make(chan struct{}),
		ctx:          ctx,
		cfg:          cfg,
		cells:        make(map[CellId]*Cell),
		terminals:    make(map[TerminalId]*Terminal),
		movers:       make(map[TerminalId]*mobility.Model),
		flows:        qos.NewTable(),
		radio:        radio,
		measurements: measurement.NewAggregator(radio, measurement.DefaultInterval, measurement.DefaultRetention),
		tickStep:     ToTimestamp(cfg.TickStep),
		speed:        cfg.Speed,
		taskChan:     make(chan func(), 100),
		goChan:       make(chan goRequest),
	}
	s.handovers = handover.NewManager(handover.DefaultParameters(), s.cells, s.terminals)
	s.sched = scheduler.New(s.flows)
	s.kpi = newKpiManager(s)
	logger.SetLevel(cfg.LogLevel)

	for i := range cfg.Cells {
		if _, err := s.AddCell(&cfg.Cells[i]); err != nil {
			return nil, err
		}
	}
	for i := range cfg.Terminals {
		if _, err := s.AddTerminal(&cfg.Terminals[i]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetMetricsSink registers the sink that observes every tick. Call before Run.
func (s *Simulation) SetMetricsSink(sink MetricsSink) {
	s.sink = sink
}

// Run is the simulation main loop. It processes posted tasks and go-period
// requests until the program context is cancelled. Run in its own goroutine
// or as the main thread.
func (s *Simulation) Run() {
	s.ctx.WaitAdd("simulation", 1)
	defer s.ctx.WaitDone("simulation")
	defer logger.Debugf("simulation exit.")

	close(s.Started)
	for {
		select {
		case <-s.ctx.Done():
			return
		case f := <-s.taskChan:
			f()
		case req := <-s.goChan:
			s.runUntil(req)
		}
	}
}

// runUntil advances the simulated clock by the requested duration, draining
// posted tasks between ticks and pacing against real time per the speed.
func (s *Simulation) runUntil(req goRequest) {
	defer close(req.done)

	end := s.curTime + ToTimestamp(req.duration)
	for s.curTime < end {
		select {
		case <-s.ctx.Done():
			return
		case f := <-s.taskChan:
			f()
			continue
		default:
		}
		if s.stopped {
			s.stopped = false
			return
		}

		s.advanceTick()

		if s.speed < MaxSimulateSpeed {
			time.Sleep(time.Duration(float64(ToDuration(s.tickStep)) / s.speed))
		}
	}
}

// advanceTick advances the clock one step and runs the per-tick pipeline.
// Map iteration is always id-sorted, so a run is fully reproducible under a
// fixed seed.
func (s *Simulation) advanceTick() {
	s.curTime += s.tickStep
	now := s.curTime
	dtSec := float64(s.tickStep) / 1e6

	s.radio.OnAdvanceTime(now)

	termIds := s.GetTerminals()
	for _, id := range termIds {
		t := s.terminals[id]
		if mdl := s.movers[id]; mdl != nil {
			t.Position = mdl.NextPosition(t.Position, dtSec)
		}
	}

	for _, id := range termIds {
		if s.measurements.Due(id, now) {
			s.measurements.Measure(s.terminals[id], s.cells, now)
		}
	}

	for _, id := range termIds {
		s.handovers.Evaluate(id, s.measurements.Latest(id), now)
	}
	events := s.handovers.Advance(now)

	for _, cid := range s.GetCells() {
		cell := s.cells[cid]
		s.sched.Allocate(cell, s.terminals, s.perUnitCapacity(cell))
	}

	s.kpi.onTick(now)
	if s.sink != nil {
		s.sink.ObserveTick(s.snapshot(now, events))
	}
}

// perUnitCapacity derives the per-resource-unit downlink capacity a terminal
// gets from the cell, from its latest measurement of that cell. Terminals
// without a usable measurement get a fresh link-budget computation.
func (s *Simulation) perUnitCapacity(cell *Cell) scheduler.CapacityFunc {
	return func(id TerminalId) float64 {
		if cell.TotalUnits == 0 {
			return 0
		}
		var capMbps float64
		if rep := s.measurements.Latest(id); rep != nil {
			if e := rep.EntryOf(cell.Id); e != nil {
				capMbps = e.CapacityMbps
			}
		}
		if capMbps == 0 {
			if t := s.terminals[id]; t != nil {
				q := s.radio.SignalQuality(cell.Position, t.Position, cell.TxPowerDbm, cell.FrequencyMhz, cell.BandwidthMhz)
				capMbps = q.CapacityMbps
			}
		}
		return capMbps / float64(cell.TotalUnits)
	}
}

// Go runs the simulation for the given simulated duration at the configured
// speed. The returned channel closes when the period completes or is stopped.
func (s *Simulation) Go(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	select {
	case s.goChan <- goRequest{duration: duration, done: done}:
	case <-s.ctx.Done():
		close(done)
	}
	return done
}

// PostAsync queues a task for execution on the simulation goroutine.
func (s *Simulation) PostAsync(f func()) {
	select {
	case s.taskChan <- f:
	case <-s.ctx.Done():
	}
}

// PostSync runs a task on the simulation goroutine and waits for it.
func (s *Simulation) PostSync(f func()) {
	done := make(chan struct{})
	s.PostAsync(func() {
		defer close(done)
		f()
	})
	select {
	case <-done:
	case <-s.ctx.Done():
	}
}

// Stop aborts the current go period at the next tick boundary.
func (s *Simulation) Stop() {
	s.stopped = true
}

// AutoGo reports whether the simulation runs without explicit go commands.
func (s *Simulation) AutoGo() bool {
	return s.cfg.AutoGo
}

// CurTime returns the current simulated time.
func (s *Simulation) CurTime() Timestamp {
	return s.curTime
}

// GetConfig returns the startup configuration.
func (s *Simulation) GetConfig() *Config {
	return s.cfg
}

// SetSpeed changes the real-time pacing factor.
func (s *Simulation) SetSpeed(speed float64) {
	if speed <= 0 {
		speed = math.MaxFloat64
	}
	s.speed = speed
}

// GetSpeed returns the real-time pacing factor.
func (s *Simulation) GetSpeed() float64 {
	return s.speed
}

// AddCell creates a cell from config. A zero id allocates the next free one.
func (s *Simulation) AddCell(cfg *CellConfig) (*Cell, error) {
	id := cfg.Id
	if id <= 0 {
		id = s.genCellId()
	}
	if s.cells[id] != nil {
		return nil, errors.Errorf("cell %d already exists", id)
	}

	c := NewCell(id, Position{X: cfg.X, Y: cfg.Y}, cfg.TxPowerDbm, cfg.FrequencyMhz, cfg.BandwidthMhz, 0)
	if cfg.MaxTerminals > 0 {
		c.MaxTerminals = cfg.MaxTerminals
	}
	s.cells[id] = c
	logger.Infof("cell %d added at (%.0f,%.0f): %.0f MHz bw=%.0f MHz units=%d",
		id, cfg.X, cfg.Y, cfg.FrequencyMhz, cfg.BandwidthMhz, c.TotalUnits)
	return c, nil
}

// AddTerminal creates a terminal from config, attaches it to its best
// measured cell (or the configured one) and gives it one default flow.
func (s *Simulation) AddTerminal(cfg *TerminalConfig) (*Terminal, error) {
	id := cfg.Id
	if id <= 0 {
		id = s.genTerminalId()
	}
	if s.terminals[id] != nil {
		return nil, errors.Errorf("terminal %d already exists", id)
	}

	pos := Position{X: cfg.X, Y: cfg.Y}
	if cfg.X == 0 && cfg.Y == 0 {
		// no explicit coordinates: place uniformly within the playground
		pos.X = prng.PlacementRandom(-placementRangeM, placementRangeM)
		pos.Y = prng.PlacementRandom(-placementRangeM, placementRangeM)
	}
	t := NewTerminal(id, pos)
	s.terminals[id] = t

	kind, err := mobility.ParseKind(cfg.Mobility)
	if err != nil {
		delete(s.terminals, id)
		return nil, err
	}
	if kind != mobility.Stationary {
		mcfg := mobility.DefaultConfig(kind)
		if cfg.SpeedMps > 0 {
			mcfg.SpeedMps = cfg.SpeedMps
		}
		mcfg.Center = t.Position
		s.movers[id] = mobility.New(mcfg, prng.NewTerminalRandomSeed())
	}

	target := cfg.AttachTo
	if target == InvalidCellId {
		rep := s.measurements.Measure(t, s.cells, s.curTime)
		if best := rep.Best(); best != nil {
			target = best.Cell
		}
	}
	if target != InvalidCellId {
		if err := s.handovers.AttachDirect(id, target); err != nil {
			s.removeTerminalState(id)
			return nil, err
		}
	}

	class := cfg.Class
	if class == 0 {
		class = s.cfg.DefaultClass
	}
	if _, err := s.flows.Create(id, class, 0, 0, 0, 0); err != nil {
		s.handovers.Detach(id)
		s.removeTerminalState(id)
		return nil, err
	}

	logger.Infof("terminal %d added at (%.0f,%.0f), attached to cell %d", id, cfg.X, cfg.Y, t.AttachedCell)
	return t, nil
}

func (s *Simulation) removeTerminalState(id TerminalId) {
	delete(s.terminals, id)
	delete(s.movers, id)
	s.measurements.Forget(id)
}

// DeleteTerminal removes a terminal, its flows and all per-terminal state.
// Resource units held by its flows are freed at the owning cells.
func (s *Simulation) DeleteTerminal(id TerminalId) error {
	t := s.terminals[id]
	if t == nil {
		return errors.Wrapf(handover.ErrUnknownTerminal, "terminal %d", id)
	}

	for _, flowId := range s.flows.RemoveTerminalFlows(id) {
		s.releaseFlowUnits(flowId)
	}
	s.handovers.Detach(id)
	s.removeTerminalState(id)
	logger.Infof("terminal %d deleted", id)
	return nil
}

// MoveTerminalTo teleports a terminal to the given position.
func (s *Simulation) MoveTerminalTo(id TerminalId, x, y float64) error {
	t := s.terminals[id]
	if t == nil {
		return errors.Wrapf(handover.ErrUnknownTerminal, "terminal %d", id)
	}
	t.Position = Position{X: x, Y: y}
	return nil
}

// CreateFlow admits a new QoS flow for a terminal.
func (s *Simulation) CreateFlow(terminal TerminalId, class ClassId, gbrUl, gbrDl, maxUl, maxDl float64) (*qos.Flow, error) {
	if s.terminals[terminal] == nil {
		return nil, errors.Wrapf(handover.ErrUnknownTerminal, "terminal %d", terminal)
	}
	return s.flows.Create(terminal, class, gbrUl, gbrDl, maxUl, maxDl)
}

// RemoveFlow deletes a flow. Units it held at its cell free up immediately
// and are available to the next allocation pass of the same tick.
func (s *Simulation) RemoveFlow(id FlowId) error {
	if err := s.flows.Remove(id); err != nil {
		return err
	}
	s.releaseFlowUnits(id)
	return nil
}

func (s *Simulation) releaseFlowUnits(id FlowId) {
	for _, c := range s.cells {
		delete(c.Assignments, id)
	}
}

// ForceHandover starts an administrative handover for a terminal.
func (s *Simulation) ForceHandover(terminal TerminalId, target CellId, cause HandoverCause) error {
	return s.handovers.ForceHandover(terminal, target, cause, s.curTime)
}

// SetHandoverParameters updates the runtime-tunable handover parameters.
func (s *Simulation) SetHandoverParameters(hysteresisDb DbValue, ttt time.Duration, floorDbm DbValue) {
	s.handovers.SetParameters(hysteresisDb, ttt, floorDbm)
}

// Handovers exposes the handover manager for stats and history queries.
func (s *Simulation) Handovers() *handover.Manager {
	return s.handovers
}

// Flows exposes the QoS flow table.
func (s *Simulation) Flows() *qos.Table {
	return s.flows
}

// Measurements exposes the measurement aggregator.
func (s *Simulation) Measurements() *measurement.Aggregator {
	return s.measurements
}

// Kpi exposes the KPI manager.
func (s *Simulation) Kpi() *KpiManager {
	return s.kpi
}

// Cells returns the cell arena.
func (s *Simulation) Cells() map[CellId]*Cell {
	return s.cells
}

// Terminals returns the terminal arena.
func (s *Simulation) Terminals() map[TerminalId]*Terminal {
	return s.terminals
}

// GetCells returns a sorted array of CellIds.
func (s *Simulation) GetCells() []CellId {
	keys := make([]CellId, 0, len(s.cells))
	for key := range s.cells {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

// GetTerminals returns a sorted array of TerminalIds.
func (s *Simulation) GetTerminals() []TerminalId {
	keys := make([]TerminalId, 0, len(s.terminals))
	for key := range s.terminals {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func (s *Simulation) genCellId() CellId {
	id := 1
	for s.cells[id] != nil {
		id++
	}
	return id
}

func (s *Simulation) genTerminalId() TerminalId {
	id := 1
	for s.terminals[id] != nil {
		id++
	}
	return id
}
