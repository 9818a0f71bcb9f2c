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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	err := ParseBytes([]byte("wrongcmd"), &cmd)
	assert.NotNil(t, err)

	assert.Nil(t, ParseBytes([]byte("add cell"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Type.Val == "cell")
	assert.Nil(t, ParseBytes([]byte("add terminal"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Type.Val == "terminal")
	assert.Nil(t, ParseBytes([]byte("add ue"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Type.Val == "ue")
	assert.Nil(t, ParseBytes([]byte("add cell x 100 y 200"), &cmd))
	assert.True(t, cmd.Add.X.Float() == 100 && cmd.Add.Y.Float() == 200)
	assert.Nil(t, ParseBytes([]byte("add cell x -500 y 866"), &cmd))
	assert.True(t, cmd.Add.X.Float() == -500)
	assert.Nil(t, ParseBytes([]byte("add cell id 7 power 46 freq 3500 bw 100"), &cmd))
	assert.True(t, cmd.Add.Id.Val == 7 && *cmd.Add.Power == 46)
	assert.True(t, *cmd.Add.Freq == 3500 && *cmd.Add.Bw == 100)
	assert.Nil(t, ParseBytes([]byte("add terminal mob random_walk speed 10 class 9"), &cmd))
	assert.True(t, cmd.Add.Mobility.Val == "random_walk")
	assert.True(t, *cmd.Add.Speed == 10 && *cmd.Add.Class == 9)
	assert.Nil(t, ParseBytes([]byte("add ue x 10 y 20 attach 2"), &cmd))
	assert.True(t, *cmd.Add.AttachTo == 2)
	assert.Nil(t, ParseBytes([]byte("add ue cell 2"), &cmd))
	assert.True(t, *cmd.Add.AttachTo == 2)
	assert.NotNil(t, ParseBytes([]byte("add cell mob teleport"), &cmd))

	assert.True(t, ParseBytes([]byte("cells"), &cmd) == nil && cmd.Cells != nil)
	assert.True(t, ParseBytes([]byte("counters"), &cmd) == nil && cmd.Counters != nil)

	assert.True(t, ParseBytes([]byte("del 1"), &cmd) == nil && cmd.Del != nil)
	assert.Nil(t, ParseBytes([]byte("del 1 2 3"), &cmd))
	assert.True(t, len(cmd.Del.Terminals) == 3 && cmd.Del.Terminals[2].Id == 3)
	assert.NotNil(t, ParseBytes([]byte("del"), &cmd))

	assert.True(t, ParseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	assert.Nil(t, ParseBytes([]byte("flow add 1 class 9"), &cmd))
	assert.True(t, cmd.Flow != nil && cmd.Flow.Add != nil)
	assert.True(t, cmd.Flow.Add.Terminal.Id == 1 && cmd.Flow.Add.Class == 9)
	assert.Nil(t, ParseBytes([]byte("flow add 1 class 1 gbrul 500 gbrdl 1000 maxul 1000 maxdl 2000"), &cmd))
	assert.True(t, *cmd.Flow.Add.GbrUl == 500 && *cmd.Flow.Add.GbrDl == 1000)
	assert.True(t, *cmd.Flow.Add.MaxUl == 1000 && *cmd.Flow.Add.MaxDl == 2000)
	assert.Nil(t, ParseBytes([]byte("flow del 2"), &cmd))
	assert.True(t, cmd.Flow.Del != nil && cmd.Flow.Del.Id == 2)
	assert.NotNil(t, ParseBytes([]byte("flow"), &cmd))

	assert.True(t, ParseBytes([]byte("flows"), &cmd) == nil && cmd.Flows != nil && cmd.Flows.Terminal == nil)
	assert.Nil(t, ParseBytes([]byte("flows 3"), &cmd))
	assert.True(t, cmd.Flows.Terminal != nil && cmd.Flows.Terminal.Id == 3)

	assert.Nil(t, ParseBytes([]byte("go 1"), &cmd))
	assert.True(t, cmd.Go != nil && cmd.Go.Time == "1")
	assert.Nil(t, ParseBytes([]byte("go 30s"), &cmd))
	assert.True(t, cmd.Go.Time == "30s")
	assert.Nil(t, ParseBytes([]byte("go 500ms"), &cmd))
	assert.True(t, cmd.Go.Time == "500ms")
	assert.Nil(t, ParseBytes([]byte("go ever"), &cmd))
	assert.True(t, cmd.Go.Ever != nil)
	assert.Nil(t, ParseBytes([]byte("go 10s speed 2"), &cmd))
	assert.True(t, cmd.Go.Time == "10s" && *cmd.Go.Speed == 2)

	assert.Nil(t, ParseBytes([]byte("handover force 1 2"), &cmd))
	assert.True(t, cmd.Handover != nil && cmd.Handover.Force != nil)
	assert.True(t, cmd.Handover.Force.Terminal.Id == 1 && cmd.Handover.Force.Target.Id == 2)
	assert.True(t, cmd.Handover.Force.Cause == nil)
	assert.Nil(t, ParseBytes([]byte("handover force 1 2 cause load_balancing"), &cmd))
	assert.True(t, cmd.Handover.Force.Cause.Val == "load_balancing")
	assert.NotNil(t, ParseBytes([]byte("handover force 1 2 cause bored"), &cmd))
	assert.Nil(t, ParseBytes([]byte("handover params"), &cmd))
	assert.True(t, cmd.Handover.Params != nil && cmd.Handover.Params.Hys == nil)
	assert.Nil(t, ParseBytes([]byte("handover params hys 3 ttt 160 floor -110"), &cmd))
	assert.True(t, *cmd.Handover.Params.Hys == 3 && *cmd.Handover.Params.TttMs == 160)
	assert.True(t, cmd.Handover.Params.Floor.Float() == -110)
	assert.True(t, ParseBytes([]byte("handover stats"), &cmd) == nil && cmd.Handover.Stats != nil)
	assert.True(t, ParseBytes([]byte("handover events"), &cmd) == nil && cmd.Handover.Events != nil)

	assert.True(t, ParseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	assert.Nil(t, ParseBytes([]byte("help add"), &cmd))
	assert.True(t, cmd.Help.HelpTopic == "add")

	assert.Nil(t, ParseBytes([]byte("kpi"), &cmd))
	assert.True(t, cmd.Kpi != nil && cmd.Kpi.Start == nil && cmd.Kpi.Stop == nil && cmd.Kpi.Save == nil)
	assert.True(t, ParseBytes([]byte("kpi start"), &cmd) == nil && cmd.Kpi.Start != nil)
	assert.True(t, ParseBytes([]byte("kpi stop"), &cmd) == nil && cmd.Kpi.Stop != nil)
	assert.True(t, ParseBytes([]byte("kpi save"), &cmd) == nil && cmd.Kpi.Save != nil)
	assert.Nil(t, ParseBytes([]byte(`kpi save "out.json"`), &cmd))
	assert.True(t, cmd.Kpi.Save.Name == "out.json")

	assert.True(t, ParseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil && cmd.LogLevel.Level == "")
	assert.Nil(t, ParseBytes([]byte("log debug"), &cmd))
	assert.True(t, cmd.LogLevel.Level == "debug")
	assert.NotNil(t, ParseBytes([]byte("log loud"), &cmd))

	assert.Nil(t, ParseBytes([]byte("move 1 -50 200"), &cmd))
	assert.True(t, cmd.Move != nil && cmd.Move.Target.Id == 1)
	assert.True(t, cmd.Move.X.Float() == -50 && cmd.Move.Y.Float() == 200)

	assert.True(t, ParseBytes([]byte("speed max"), &cmd) == nil && cmd.Speed.Max != nil)
	assert.True(t, ParseBytes([]byte("speed inf"), &cmd) == nil && cmd.Speed.Max != nil)
	assert.Nil(t, ParseBytes([]byte("speed 1.5"), &cmd))
	assert.True(t, cmd.Speed.Max == nil && *cmd.Speed.Speed == 1.5)
	assert.True(t, ParseBytes([]byte("speed"), &cmd) == nil && cmd.Speed.Speed == nil)

	assert.True(t, ParseBytes([]byte("terminals"), &cmd) == nil && cmd.Terminals != nil)
	assert.True(t, ParseBytes([]byte("ues"), &cmd) == nil && cmd.Terminals != nil)
	assert.True(t, ParseBytes([]byte("time"), &cmd) == nil && cmd.Time != nil)
}
