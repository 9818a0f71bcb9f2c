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
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/ransim/ransim/handover"
	"github.com/ransim/ransim/logger"
	. "github.com/ransim/ransim/types"
)

// kpiSampleInterval is how often the KPI manager samples the network while
// collection is active.
const kpiSampleInterval = 500 * time.Millisecond

// SeriesSummary condenses one sampled series.
type SeriesSummary struct {
	Mean float64 `json:"mean"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	P95  float64 `json:"p95"`
}

// CellKpi is the per-cell KPI outcome of a collection period.
type CellKpi struct {
	Utilization  SeriesSummary `json:"utilization"`
	AttachedMean float64       `json:"attached_mean"`
	HandoversIn  int           `json:"handovers_in"`
	HandoversOut int           `json:"handovers_out"`
}

// KpiFile is the saved KPI collection outcome.
type KpiFile struct {
	TimeStartSec float64 `json:"time_start_sec"`
	TimeEndSec   float64 `json:"time_end_sec"`

	Handovers struct {
		handover.Stats
		SuccessRate  float64 `json:"success_rate"`
		PingPongRate float64 `json:"ping_pong_rate"`
	} `json:"handovers"`

	ThroughputDlMbps SeriesSummary       `json:"throughput_dl_mbps"`
	ThroughputUlMbps SeriesSummary       `json:"throughput_ul_mbps"`
	Cells            map[CellId]*CellKpi `json:"cells"`
}

// KpiManager samples network KPIs over a collection period and saves the
// summarized outcome as a JSON file.
type KpiManager struct {
	sim    *Simulation
	active bool

	startTime  Timestamp
	endTime    Timestamp
	lastSample Timestamp

	startStats handover.Stats
	cellUtil   map[CellId][]float64
	cellLoad   map[CellId][]float64
	throughDl  []float64
	throughUl  []float64
	hoInStart  map[CellId]int
	hoOutStart map[CellId]int
}

func newKpiManager(sim *Simulation) *KpiManager {
	return &KpiManager{sim: sim}
}

// IsActive reports whether KPI collection is running.
func (k *KpiManager) IsActive() bool {
	return k.active
}

// Start begins a KPI collection period at the current simulated time.
func (k *KpiManager) Start() {
	k.active = true
	k.startTime = k.sim.CurTime()
	k.lastSample = 0
	k.startStats = k.sim.handovers.StatsSnapshot()
	k.cellUtil = make(map[CellId][]float64)
	k.cellLoad = make(map[CellId][]float64)
	k.throughDl = nil
	k.throughUl = nil
	k.hoInStart = make(map[CellId]int)
	k.hoOutStart = make(map[CellId]int)
	for id, c := range k.sim.cells {
		k.hoInStart[id] = c.HandoversIn
		k.hoOutStart[id] = c.HandoversOut
	}
	logger.Infof("KPI collection started at t=%v", ToDuration(k.startTime))
}

// Stop ends the collection period.
func (k *KpiManager) Stop() {
	if !k.active {
		return
	}
	k.active = false
	k.endTime = k.sim.CurTime()
	logger.Infof("KPI collection stopped at t=%v", ToDuration(k.endTime))
}

func (k *KpiManager) onTick(now Timestamp) {
	if !k.active || now-k.lastSample < ToTimestamp(kpiSampleInterval) {
		return
	}
	k.lastSample = now

	for id, c := range k.sim.cells {
		k.cellUtil[id] = append(k.cellUtil[id], c.Utilization)
		k.cellLoad[id] = append(k.cellLoad[id], float64(len(c.Terminals)))
	}
	var dl, ul float64
	for _, t := range k.sim.terminals {
		dl += t.ThroughputDlMbps
		ul += t.ThroughputUlMbps
	}
	k.throughDl = append(k.throughDl, dl)
	k.throughUl = append(k.throughUl, ul)
}

// Summarize produces the KPI outcome of the last (or ongoing) period.
func (k *KpiManager) Summarize() *KpiFile {
	endTime := k.endTime
	if k.active {
		endTime = k.sim.CurTime()
	}

	out := &KpiFile{
		TimeStartSec: float64(k.startTime) / 1e6,
		TimeEndSec:   float64(endTime) / 1e6,
		Cells:        make(map[CellId]*CellKpi),
	}

	cur := k.sim.handovers.StatsSnapshot()
	out.Handovers.Total = cur.Total - k.startStats.Total
	out.Handovers.Succeeded = cur.Succeeded - k.startStats.Succeeded
	out.Handovers.Failed = cur.Failed - k.startStats.Failed
	out.Handovers.PingPong = cur.PingPong - k.startStats.PingPong
	out.Handovers.AvgDurationMs = cur.AvgDurationMs
	if out.Handovers.Total > 0 {
		out.Handovers.SuccessRate = float64(out.Handovers.Succeeded) / float64(out.Handovers.Total)
		out.Handovers.PingPongRate = float64(out.Handovers.PingPong) / float64(out.Handovers.Total)
	}

	out.ThroughputDlMbps = summarize(k.throughDl)
	out.ThroughputUlMbps = summarize(k.throughUl)

	for id, c := range k.sim.cells {
		out.Cells[id] = &CellKpi{
			Utilization:  summarize(k.cellUtil[id]),
			AttachedMean: stat.Mean(orZero(k.cellLoad[id]), nil),
			HandoversIn:  c.HandoversIn - k.hoInStart[id],
			HandoversOut: c.HandoversOut - k.hoOutStart[id],
		}
	}
	return out
}

// SaveFile writes the KPI summary of the last period as indented JSON.
func (k *KpiManager) SaveFile(filename string) error {
	data, err := json.MarshalIndent(k.Summarize(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling KPI data")
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrapf(err, "writing KPI file %s", filename)
	}
	logger.Infof("KPI file saved: %s", filename)
	return nil
}

func summarize(samples []float64) SeriesSummary {
	if len(samples) == 0 {
		return SeriesSummary{}
	}
	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	return SeriesSummary{
		Mean: stat.Mean(sorted, nil),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

func orZero(samples []float64) []float64 {
	if len(samples) == 0 {
		return []float64{0}
	}
	return samples
}
