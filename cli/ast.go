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
	"strconv"

	"github.com/alecthomas/participle"
)

// noinspection GoStructTag
type Command struct {
	Add       *AddCmd       `  @@` //nolint
	Cells     *CellsCmd     `| @@` //nolint
	Counters  *CountersCmd  `| @@` //nolint
	Del       *DelCmd       `| @@` //nolint
	Exit      *ExitCmd      `| @@` //nolint
	Flow      *FlowCmd      `| @@` //nolint
	Flows     *FlowsCmd     `| @@` //nolint
	Go        *GoCmd        `| @@` //nolint
	Handover  *HandoverCmd  `| @@` //nolint
	Help      *HelpCmd      `| @@` //nolint
	Kpi       *KpiCmd       `| @@` //nolint
	LogLevel  *LogLevelCmd  `| @@` //nolint
	Move      *MoveCmd      `| @@` //nolint
	Speed     *SpeedCmd     `| @@` //nolint
	Terminals *TerminalsCmd `| @@` //nolint
	Time      *TimeCmd      `| @@` //nolint
}

// noinspection GoStructTag
type TerminalSelector struct {
	Id int `@Int` //nolint
}

func (ts *TerminalSelector) String() string {
	return strconv.Itoa(ts.Id)
}

// noinspection GoStructTag
type CellSelector struct {
	Id int `@Int` //nolint
}

// noinspection GoStructTag
type SignedValue struct {
	Val string `@("-"? (Int|Float))` //nolint
}

// Float parses the (possibly negative) numeric value.
func (sv *SignedValue) Float() float64 {
	v, _ := strconv.ParseFloat(sv.Val, 64)
	return v
}

// noinspection GoStructTag
type AddCmd struct {
	Cmd      struct{}      `"add"`                        //nolint
	Type     EntityType    `@@`                           //nolint
	X        *SignedValue  `( "x" @@`                     //nolint
	Y        *SignedValue  `| "y" @@`                     //nolint
	Id       *AddEntityId  `| @@`                         //nolint
	Power    *float64      `| "power" (@Int|@Float)`      //nolint
	Freq     *float64      `| "freq" (@Int|@Float)`       //nolint
	Bw       *float64      `| "bw" (@Int|@Float)`         //nolint
	Speed    *float64      `| "speed" (@Int|@Float)`      //nolint
	Class    *int          `| "class" @Int`               //nolint
	Mobility *MobilityFlag `| @@`                         //nolint
	AttachTo *int          `| ("attach"|"cell") @Int )*`  //nolint
}

// noinspection GoStructTag
type EntityType struct {
	Val string `@("cell"|"terminal"|"ue")` //nolint
}

// noinspection GoStructTag
type AddEntityId struct {
	Val int `"id" @Int` //nolint
}

// noinspection GoStructTag
type MobilityFlag struct {
	Dummy struct{} `("mobility"|"mob")`                                                             //nolint
	Val   string   `@("stationary"|"random_walk"|"random_waypoint"|"linear"|"circular"|"manhattan")` //nolint
}

// noinspection GoStructTag
type CellsCmd struct {
	Cmd struct{} `"cells"` //nolint
}

// noinspection GoStructTag
type TerminalsCmd struct {
	Cmd struct{} `("terminals"|"ues")` //nolint
}

// noinspection GoStructTag
type CountersCmd struct {
	Cmd struct{} `"counters"` //nolint
}

// noinspection GoStructTag
type DelCmd struct {
	Cmd       struct{}           `"del"`   //nolint
	Terminals []TerminalSelector `( @@ )+` //nolint
}

// noinspection GoStructTag
type ExitCmd struct {
	Cmd struct{} `"exit"` //nolint
}

// noinspection GoStructTag
type FlowCmd struct {
	Cmd struct{}    `"flow"`  //nolint
	Add *FlowAdd    `( @@`    //nolint
	Del *FlowDel    `| @@ )`  //nolint
}

// noinspection GoStructTag
type FlowAdd struct {
	Dummy    struct{}         `"add"`                    //nolint
	Terminal TerminalSelector `@@`                       //nolint
	Class    int              `"class" @Int`             //nolint
	GbrUl    *float64         `( "gbrul" (@Int|@Float)`  //nolint
	GbrDl    *float64         `| "gbrdl" (@Int|@Float)`  //nolint
	MaxUl    *float64         `| "maxul" (@Int|@Float)`  //nolint
	MaxDl    *float64         `| "maxdl" (@Int|@Float) )*` //nolint
}

// noinspection GoStructTag
type FlowDel struct {
	Dummy struct{} `"del"` //nolint
	Id    int      `@Int`  //nolint
}

// noinspection GoStructTag
type FlowsCmd struct {
	Cmd      struct{}          `"flows"`  //nolint
	Terminal *TerminalSelector `[ @@ ]`   //nolint
}

// noinspection GoStructTag
type GoCmd struct {
	Cmd   struct{}  `"go"`                                     //nolint
	Time  string    `( @((Int|Float)["h"|"us"|"m"|"ms"|"s"]) ` //nolint
	Ever  *EverFlag `| @@ )`                                   //nolint
	Speed *float64  `[ "speed" (@Int|@Float) ]`                //nolint
}

// noinspection GoStructTag
type EverFlag struct {
	Dummy struct{} `"ever"` //nolint
}

// noinspection GoStructTag
type HandoverCmd struct {
	Cmd    struct{}        `"handover"` //nolint
	Force  *HandoverForce  `( @@`       //nolint
	Params *HandoverParams `| @@`       //nolint
	Stats  *HandoverStats  `| @@`       //nolint
	Events *HandoverEvents `| @@ )`     //nolint
}

// noinspection GoStructTag
type HandoverForce struct {
	Dummy    struct{}         `"force"`            //nolint
	Terminal TerminalSelector `@@`                 //nolint
	Target   CellSelector     `@@`                 //nolint
	Cause    *CauseFlag       `[ @@ ]`             //nolint
}

// noinspection GoStructTag
type CauseFlag struct {
	Dummy struct{} `"cause"`                                                                          //nolint
	Val   string   `@("coverage"|"qos_degradation"|"load_balancing"|"interference"|"user_preference")` //nolint
}

// noinspection GoStructTag
type HandoverParams struct {
	Dummy struct{}     `"params"`                //nolint
	Hys   *float64     `( "hys" (@Int|@Float)`   //nolint
	TttMs *float64     `| "ttt" (@Int|@Float)`   //nolint
	Floor *SignedValue `| "floor" @@ )*`         //nolint
}

// noinspection GoStructTag
type HandoverStats struct {
	Dummy struct{} `"stats"` //nolint
}

// noinspection GoStructTag
type HandoverEvents struct {
	Dummy struct{} `"events"` //nolint
}

// noinspection GoStructTag
type HelpCmd struct {
	Cmd       struct{} `"help"`       //nolint
	HelpTopic string   `[ (@Ident) ]` //nolint
}

// noinspection GoStructTag
type KpiCmd struct {
	Cmd   struct{}  `"kpi"`       //nolint
	Start *KpiStart `( @@`        //nolint
	Stop  *KpiStop  `| @@`        //nolint
	Save  *KpiSave  `| @@ )?`     //nolint
}

// noinspection GoStructTag
type KpiStart struct {
	Dummy struct{} `"start"` //nolint
}

// noinspection GoStructTag
type KpiStop struct {
	Dummy struct{} `"stop"` //nolint
}

// noinspection GoStructTag
type KpiSave struct {
	Dummy struct{} `"save"`     //nolint
	Name  string   `[ @String ]` //nolint
}

type LogLevelCmd struct {
	Cmd   struct{} `"log"`                                                            //nolint
	Level string   `[@( "micro"|"trace"|"debug"|"info"|"warn"|"error"|"fatal"|"off" )]` //nolint
}

// noinspection GoStructTag
type MoveCmd struct {
	Cmd    struct{}         `"move"` //nolint
	Target TerminalSelector `@@`     //nolint
	X      SignedValue      `@@`     //nolint
	Y      SignedValue      `@@`     //nolint
}

// noinspection MaxSpeedFlag
type MaxSpeedFlag struct {
	Dummy struct{} `( "max" | "inf")` //nolint
}

// noinspection GoStructTag
type SpeedCmd struct {
	Cmd   struct{}      `"speed"`               //nolint
	Max   *MaxSpeedFlag `( @@`                  //nolint
	Speed *float64      `| [ (@Int|@Float) ] )` //nolint
}

// noinspection GoStructTag
type TimeCmd struct {
	Cmd struct{} `"time"` //nolint
}

var (
	commandParser = participle.MustBuild(&Command{})
)

func ParseBytes(b []byte, cmd *Command) error {
	err := commandParser.ParseBytes(b, cmd)
	return err
}
