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

// Package ransim_main wires up and runs the simulator: config, simulation,
// CLI console, metrics endpoint and signal handling.
package ransim_main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/ransim/ransim/cli"
	"github.com/ransim/ransim/logger"
	"github.com/ransim/ransim/progctx"
	"github.com/ransim/ransim/simulation"
	"github.com/ransim/ransim/web"
)

type MainArgs struct {
	Speed      string
	ConfigFile string
	Seed       int64
	AutoGo     bool
	LogLevel   string
	PromAddr   string
	KpiFile    string
	Cells      int
	Terminals  int
}

var (
	args MainArgs
)

func parseArgs() {
	flag.StringVar(&args.Speed, "speed", "1", "set simulating speed ('max' disables real-time pacing)")
	flag.StringVar(&args.ConfigFile, "config", "", "load simulation config from YAML file")
	flag.Int64Var(&args.Seed, "seed", 0, "root random seed (0 takes the config value)")
	flag.BoolVar(&args.AutoGo, "autogo", true, "auto go (runs the simulation at given speed, without issuing 'go' commands.)")
	flag.StringVar(&args.LogLevel, "log", "warn", "set logging level: debug, info, warn, error.")
	flag.StringVar(&args.PromAddr, "prom", "", "serve Prometheus metrics on this address (e.g. localhost:9464)")
	flag.StringVar(&args.KpiFile, "kpi", "", "collect KPIs from start and save to this file on exit")
	flag.IntVar(&args.Cells, "cells", 3, "number of cells in the default layout (ignored with -config)")
	flag.IntVar(&args.Terminals, "terminals", 0, "number of terminals to place at start (ignored with -config)")

	flag.Parse()
}

func Main(ctx *progctx.ProgCtx, cliOptions *cli.CliOptions) {
	parseArgs()

	lev, err := logger.ParseLevelString(args.LogLevel)
	logger.FatalIfError(err)
	logger.SetLevel(lev)

	// run console in the main goroutine
	ctx.Defer(func() {
		_ = os.Stdin.Close()
	})

	handleSignals(ctx)

	sim := createSimulation(ctx)
	if sim == nil {
		return
	}

	if args.PromAddr != "" {
		ms := web.NewMetricsServer(args.PromAddr)
		sim.SetMetricsSink(ms)
		ms.Serve(ctx)
	}
	if args.KpiFile != "" {
		sim.Kpi().Start()
		ctx.Defer(func() {
			sim.Kpi().Stop()
			if err := sim.Kpi().SaveFile(args.KpiFile); err != nil {
				logger.Errorf("saving KPI file failed: %v", err)
			}
		})
	}

	rt := cli.NewCmdRunner(ctx, sim)
	go sim.Run()
	go func() {
		err := cli.Cli.Run(rt, cliOptions)
		ctx.Cancel(errors.Wrapf(err, "console exit"))
	}()

	if args.AutoGo {
		go autoGo(ctx, sim)
	}

	<-ctx.Done()
	logger.Debugf("waiting for simulator to stop gracefully ...")
	cli.Cli.Stop()
	ctx.Wait()
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer logger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				logger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func autoGo(ctx *progctx.ProgCtx, sim *simulation.Simulation) {
	<-sim.Started
	for {
		<-sim.Go(time.Second)
		if ctx.Err() != nil { // exit when context is Done.
			return
		}
	}
}

func createSimulation(ctx *progctx.ProgCtx) *simulation.Simulation {
	var simcfg *simulation.Config
	var err error

	if args.ConfigFile != "" {
		simcfg, err = simulation.LoadConfigFile(args.ConfigFile)
		logger.FatalIfError(err)
	} else {
		simcfg = simulation.DefaultConfig()
		simcfg.Cells = simulation.DefaultCellLayout(args.Cells)
		for i := 0; i < args.Terminals; i++ {
			simcfg.Terminals = append(simcfg.Terminals, simulation.TerminalConfig{
				Mobility: "random_walk",
			})
		}
	}

	if args.Seed != 0 {
		simcfg.Seed = args.Seed
	}
	args.Speed = strings.ToLower(args.Speed)
	if args.Speed == "max" {
		simcfg.Speed = simulation.MaxSimulateSpeed
	} else {
		simcfg.Speed, err = strconv.ParseFloat(args.Speed, 64)
		logger.PanicIfError(err)
	}
	simcfg.AutoGo = args.AutoGo
	simcfg.LogLevel = logger.GetLevel()

	sim, err := simulation.NewSimulation(ctx, simcfg)
	logger.FatalIfError(err)
	return sim
}
