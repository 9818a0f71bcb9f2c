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

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ransim/ransim/logger"
	"github.com/ransim/ransim/progctx"
	"github.com/ransim/ransim/qos"
	"github.com/ransim/ransim/simulation"
	. "github.com/ransim/ransim/types"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

type CmdRunner struct {
	sim  *simulation.Simulation
	ctx  *progctx.ProgCtx
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation) *CmdRunner {
	return &CmdRunner{
		ctx:  ctx,
		sim:  sim,
		help: newHelp(),
	}
}

func (rt *CmdRunner) HandleCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := ParseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Add != nil {
		rt.executeAdd(cc, cmd.Add)
	} else if cmd.Cells != nil {
		rt.executeLsCells(cc)
	} else if cmd.Counters != nil {
		rt.executeCounters(cc)
	} else if cmd.Del != nil {
		rt.executeDel(cc, cmd.Del)
	} else if cmd.Exit != nil {
		rt.executeExit(cc)
	} else if cmd.Flow != nil {
		rt.executeFlow(cc, cmd.Flow)
	} else if cmd.Flows != nil {
		rt.executeLsFlows(cc, cmd.Flows)
	} else if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Handover != nil {
		rt.executeHandover(cc, cmd.Handover)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else if cmd.Kpi != nil {
		rt.executeKpi(cc, cmd.Kpi)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Move != nil {
		rt.executeMove(cc, cmd.Move)
	} else if cmd.Speed != nil {
		rt.executeSpeed(cc, cmd.Speed)
	} else if cmd.Terminals != nil {
		rt.executeLsTerminals(cc)
	} else if cmd.Time != nil {
		rt.executeTime(cc)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

func (rt *CmdRunner) postSync(f func(sim *simulation.Simulation)) {
	rt.sim.PostSync(func() {
		f(rt.sim)
	})
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	// determine duration and desired speed of the Go simulation period.
	timeDurToGo, err := time.ParseDuration(cmd.Time)
	if cmd.Ever == nil && err != nil {
		timeDurToGo, err = time.ParseDuration(cmd.Time + "s") // try parsing as seconds
		if err != nil {
			cc.errorf("could not parse time duration: %s", cmd.Time)
			return
		}
	}
	if cmd.Speed != nil {
		rt.postSync(func(sim *simulation.Simulation) {
			sim.SetSpeed(*cmd.Speed)
		})
	}

	if cmd.Ever == nil {
		<-rt.sim.Go(timeDurToGo)
	} else {
		for { // run forever but stop if rt.ctx.Err indicates "done"
			<-rt.sim.Go(time.Hour)
			if rt.ctx.Err() != nil {
				break
			}
		}
	}
}

func (rt *CmdRunner) executeAdd(cc *CommandContext, cmd *AddCmd) {
	logger.Debugf("add: %#v", *cmd)

	switch cmd.Type.Val {
	case "cell":
		cfg := simulation.CellConfig{
			TxPowerDbm:   46.0,
			FrequencyMhz: 3500.0,
			BandwidthMhz: 100.0,
		}
		if cmd.Id != nil {
			cfg.Id = cmd.Id.Val
		}
		if cmd.X != nil {
			cfg.X = cmd.X.Float()
		}
		if cmd.Y != nil {
			cfg.Y = cmd.Y.Float()
		}
		if cmd.Power != nil {
			cfg.TxPowerDbm = *cmd.Power
		}
		if cmd.Freq != nil {
			cfg.FrequencyMhz = *cmd.Freq
		}
		if cmd.Bw != nil {
			cfg.BandwidthMhz = *cmd.Bw
		}

		rt.postSync(func(sim *simulation.Simulation) {
			cell, err := sim.AddCell(&cfg)
			if err != nil {
				cc.error(err)
				return
			}
			cc.outputf("%d\n", cell.Id)
		})

	default: // terminal
		cfg := simulation.TerminalConfig{}
		if cmd.Id != nil {
			cfg.Id = cmd.Id.Val
		}
		if cmd.X != nil {
			cfg.X = cmd.X.Float()
		}
		if cmd.Y != nil {
			cfg.Y = cmd.Y.Float()
		}
		if cmd.Mobility != nil {
			cfg.Mobility = cmd.Mobility.Val
		}
		if cmd.Speed != nil {
			cfg.SpeedMps = *cmd.Speed
		}
		if cmd.Class != nil {
			cfg.Class = *cmd.Class
		}
		if cmd.AttachTo != nil {
			cfg.AttachTo = *cmd.AttachTo
		}

		rt.postSync(func(sim *simulation.Simulation) {
			term, err := sim.AddTerminal(&cfg)
			if err != nil {
				cc.error(err)
				return
			}
			cc.outputf("%d\n", term.Id)
		})
	}
}

func (rt *CmdRunner) executeDel(cc *CommandContext, cmd *DelCmd) {
	rt.postSync(func(sim *simulation.Simulation) {
		for _, sel := range cmd.Terminals {
			if err := sim.DeleteTerminal(sel.Id); err != nil {
				cc.errorf("terminal %d, %+v", sel.Id, err)
			}
		}
	})
}

func (rt *CmdRunner) executeMove(cc *CommandContext, cmd *MoveCmd) {
	rt.postSync(func(sim *simulation.Simulation) {
		cc.error(sim.MoveTerminalTo(cmd.Target.Id, cmd.X.Float(), cmd.Y.Float()))
	})
}

func (rt *CmdRunner) executeLsCells(cc *CommandContext) {
	rt.postSync(func(sim *simulation.Simulation) {
		for _, id := range sim.GetCells() {
			c := sim.Cells()[id]
			cc.outputItemsAsYaml([]map[string]interface{}{{
				"id":          c.Id,
				"x":           c.Position.X,
				"y":           c.Position.Y,
				"terminals":   len(c.Terminals),
				"units":       c.TotalUnits,
				"allocated":   c.AllocatedUnits(),
				"utilization": c.Utilization,
			}})
		}
	})
}

func (rt *CmdRunner) executeLsTerminals(cc *CommandContext) {
	rt.postSync(func(sim *simulation.Simulation) {
		for _, id := range sim.GetTerminals() {
			t := sim.Terminals()[id]
			cc.outputItemsAsYaml([]map[string]interface{}{{
				"id":      t.Id,
				"x":       t.Position.X,
				"y":       t.Position.Y,
				"cell":    t.AttachedCell,
				"dl_mbps": t.ThroughputDlMbps,
				"ul_mbps": t.ThroughputUlMbps,
			}})
		}
	})
}

func (rt *CmdRunner) executeLsFlows(cc *CommandContext, cmd *FlowsCmd) {
	outputFlow := func(f *qos.Flow) {
		cc.outputItemsAsYaml([]map[string]interface{}{{
			"id":       f.Id,
			"terminal": f.Terminal,
			"class":    f.Class,
			"gbr_dl":   f.GuaranteedDlKbps,
			"max_dl":   f.MaxDlKbps,
			"cur_dl":   f.CurrentDlKbps,
			"cur_ul":   f.CurrentUlKbps,
		}})
	}

	rt.postSync(func(sim *simulation.Simulation) {
		if cmd.Terminal != nil {
			for _, f := range sim.Flows().TerminalFlows(cmd.Terminal.Id) {
				outputFlow(f)
			}
			return
		}
		for _, id := range sim.GetTerminals() {
			for _, f := range sim.Flows().TerminalFlows(id) {
				outputFlow(f)
			}
		}
	})
}

func (rt *CmdRunner) executeFlow(cc *CommandContext, cmd *FlowCmd) {
	rt.postSync(func(sim *simulation.Simulation) {
		if cmd.Add != nil {
			var gbrUl, gbrDl, maxUl, maxDl float64
			if cmd.Add.GbrUl != nil {
				gbrUl = *cmd.Add.GbrUl
			}
			if cmd.Add.GbrDl != nil {
				gbrDl = *cmd.Add.GbrDl
			}
			if cmd.Add.MaxUl != nil {
				maxUl = *cmd.Add.MaxUl
			}
			if cmd.Add.MaxDl != nil {
				maxDl = *cmd.Add.MaxDl
			}
			flow, err := sim.CreateFlow(cmd.Add.Terminal.Id, cmd.Add.Class, gbrUl, gbrDl, maxUl, maxDl)
			if err != nil {
				cc.error(err)
				return
			}
			cc.outputf("%d\n", flow.Id)
		} else if cmd.Del != nil {
			cc.error(sim.RemoveFlow(cmd.Del.Id))
		}
	})
}

func (rt *CmdRunner) executeHandover(cc *CommandContext, cmd *HandoverCmd) {
	rt.postSync(func(sim *simulation.Simulation) {
		switch {
		case cmd.Force != nil:
			cause := CauseUserPreference
			if cmd.Force.Cause != nil {
				cause = ParseHandoverCause(cmd.Force.Cause.Val)
			}
			cc.error(sim.ForceHandover(cmd.Force.Terminal.Id, cmd.Force.Target.Id, cause))

		case cmd.Params != nil:
			params := sim.Handovers().Parameters()
			hys := params.HysteresisDb
			ttt := params.TimeToTrigger
			floor := params.SignalFloorDbm
			if cmd.Params.Hys != nil {
				hys = *cmd.Params.Hys
			}
			if cmd.Params.TttMs != nil {
				ttt = time.Duration(*cmd.Params.TttMs * float64(time.Millisecond))
			}
			if cmd.Params.Floor != nil {
				floor = cmd.Params.Floor.Float()
			}
			if cmd.Params.Hys == nil && cmd.Params.TttMs == nil && cmd.Params.Floor == nil {
				cc.outputItemsAsYaml([]map[string]interface{}{{
					"hys_db":    hys,
					"ttt_ms":    float64(ttt) / float64(time.Millisecond),
					"floor_dbm": floor,
				}})
				return
			}
			sim.SetHandoverParameters(hys, ttt, floor)

		case cmd.Stats != nil:
			stats := sim.Handovers().StatsSnapshot()
			cc.outputItemsAsYaml([]map[string]interface{}{{
				"total":           stats.Total,
				"succeeded":       stats.Succeeded,
				"failed":          stats.Failed,
				"ping_pong":       stats.PingPong,
				"avg_duration_ms": stats.AvgDurationMs,
			}})

		case cmd.Events != nil:
			for i := range sim.Handovers().Events() {
				ev := &sim.Handovers().Events()[i]
				cc.outputItemsAsYaml([]map[string]interface{}{{
					"t_sec":     float64(ev.Timestamp) / 1e6,
					"terminal":  ev.Terminal,
					"from":      ev.Source,
					"to":        ev.Target,
					"cause":     ev.Cause.String(),
					"success":   ev.Success,
					"ping_pong": ev.PingPong,
				}})
			}
		}
	})
}

func (rt *CmdRunner) executeCounters(cc *CommandContext) {
	rt.postSync(func(sim *simulation.Simulation) {
		stats := sim.Handovers().StatsSnapshot()
		cc.outputItemsAsYaml([]map[string]interface{}{{
			"total":           stats.Total,
			"succeeded":       stats.Succeeded,
			"failed":          stats.Failed,
			"ping_pong":       stats.PingPong,
			"avg_duration_ms": stats.AvgDurationMs,
		}})
		for _, id := range sim.GetCells() {
			c := sim.Cells()[id]
			cc.outputItemsAsYaml([]map[string]interface{}{{
				"cell":          c.Id,
				"handovers_in":  c.HandoversIn,
				"handovers_out": c.HandoversOut,
			}})
		}
	})
}

func (rt *CmdRunner) executeKpi(cc *CommandContext, cmd *KpiCmd) {
	rt.postSync(func(sim *simulation.Simulation) {
		switch {
		case cmd.Start != nil:
			sim.Kpi().Start()
		case cmd.Stop != nil:
			sim.Kpi().Stop()
		case cmd.Save != nil:
			name := cmd.Save.Name
			if name == "" {
				name = "kpi.json"
			}
			cc.error(sim.Kpi().SaveFile(name))
		default:
			cc.outputf("%v\n", sim.Kpi().IsActive())
		}
	})
}

func (rt *CmdRunner) executeSpeed(cc *CommandContext, cmd *SpeedCmd) {
	rt.postSync(func(sim *simulation.Simulation) {
		if cmd.Speed == nil && cmd.Max == nil {
			cc.outputf("%v\n", sim.GetSpeed())
		} else if cmd.Max != nil {
			sim.SetSpeed(simulation.MaxSimulateSpeed)
		} else {
			sim.SetSpeed(*cmd.Speed)
		}
	})
}

func (rt *CmdRunner) executeTime(cc *CommandContext) {
	rt.postSync(func(sim *simulation.Simulation) {
		cc.outputf("%v\n", ToDuration(sim.CurTime()))
	})
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if len(cmd.Level) == 0 {
		cc.outputf("%s\n", logger.GetLevel())
	} else {
		lev, err := logger.ParseLevelString(cmd.Level)
		if err != nil {
			cc.error(err)
			return
		}
		logger.SetLevel(lev)
	}
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) == 0 {
		cc.outputf("%s", rt.help.outputGeneralHelp())
	} else {
		cc.outputf("%s", rt.help.outputCommandHelp(cmd.HelpTopic))
	}
}

func (rt *CmdRunner) executeExit(cc *CommandContext) {
	rt.sim.Stop()
	rt.ctx.Cancel("exit")
}
