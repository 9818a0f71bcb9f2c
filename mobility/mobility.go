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

// Package mobility implements the movement models of terminals. Each
// terminal owns one Model, selected at creation time, that produces its next
// position every tick. All randomness comes from a per-model seeded
// generator, so trajectories reproduce under a fixed root seed.
package mobility

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/ransim/ransim/prng"
	. "github.com/ransim/ransim/types"
)

// Kind selects one of the closed set of movement models.
type Kind int

const (
	Stationary Kind = iota
	RandomWalk
	RandomWaypoint
	Linear
	Circular
	Manhattan
)

func (k Kind) String() string {
	switch k {
	case Stationary:
		return "stationary"
	case RandomWalk:
		return "random_walk"
	case RandomWaypoint:
		return "random_waypoint"
	case Linear:
		return "linear"
	case Circular:
		return "circular"
	case Manhattan:
		return "manhattan"
	default:
		return "invalid"
	}
}

// ParseKind parses a movement model name as used in config files.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "stationary", "":
		return Stationary, nil
	case "random_walk":
		return RandomWalk, nil
	case "random_waypoint":
		return RandomWaypoint, nil
	case "linear":
		return Linear, nil
	case "circular":
		return Circular, nil
	case "manhattan":
		return Manhattan, nil
	default:
		return Stationary, errors.Errorf("unknown mobility model %q", s)
	}
}

// Config parameterizes a movement model. Only the fields relevant to the
// chosen Kind are used.
type Config struct {
	Kind     Kind
	SpeedMps float64

	// Bounded movement area, used by random walk, random waypoint and linear.
	AreaMinX, AreaMinY float64
	AreaMaxX, AreaMaxY float64

	// Random walk: probability of a direction change per update.
	DirectionChangeProb float64

	// Random waypoint: pause after reaching a waypoint, in seconds.
	PauseTimeS float64

	// Linear: fixed heading in radians.
	DirectionRad float64

	// Circular: orbit center and radius.
	Center  Position
	RadiusM float64

	// Manhattan: street-grid spacing in meters.
	GridSizeM float64
}

// DefaultConfig returns a movement config with the common defaults filled in.
func DefaultConfig(kind Kind) Config {
	return Config{
		Kind:                kind,
		SpeedMps:            5.0,
		AreaMinX:            -1500,
		AreaMinY:            -1500,
		AreaMaxX:            1500,
		AreaMaxY:            1500,
		DirectionChangeProb: 0.1,
		PauseTimeS:          2.0,
		RadiusM:             200,
		GridSizeM:           100,
	}
}

// Model is the per-terminal movement state.
type Model struct {
	cfg Config
	rnd *rand.Rand

	direction   float64 // current heading, radians
	waypoint    Position
	hasWaypoint bool
	pauseLeftS  float64
	angle       float64 // circular: current orbit angle
	gridLeftM   float64 // manhattan: distance to the next intersection
}

// New creates a movement model with its own random stream.
func New(cfg Config, seed prng.RandomSeed) *Model {
	m := &Model{
		cfg:       cfg,
		rnd:       rand.New(rand.NewSource(int64(seed))),
		direction: cfg.DirectionRad,
		gridLeftM: cfg.GridSizeM,
	}
	if cfg.Kind == RandomWalk {
		m.direction = m.rnd.Float64() * 2 * math.Pi
	}
	if cfg.Kind == Manhattan {
		m.direction = float64(m.rnd.Intn(4)) * math.Pi / 2
	}
	return m
}

// Kind returns the movement model kind.
func (m *Model) Kind() Kind {
	return m.cfg.Kind
}

// NextPosition advances the model by dtSec seconds from the current position
// and returns the new position.
func (m *Model) NextPosition(cur Position, dtSec float64) Position {
	switch m.cfg.Kind {
	case RandomWalk:
		return m.nextRandomWalk(cur, dtSec)
	case RandomWaypoint:
		return m.nextRandomWaypoint(cur, dtSec)
	case Linear:
		return m.clamp(move(cur, m.direction, m.cfg.SpeedMps*dtSec))
	case Circular:
		return m.nextCircular(dtSec)
	case Manhattan:
		return m.nextManhattan(cur, dtSec)
	default:
		return cur
	}
}

func (m *Model) nextRandomWalk(cur Position, dtSec float64) Position {
	if m.rnd.Float64() < m.cfg.DirectionChangeProb {
		m.direction += m.rnd.NormFloat64() * math.Pi / 4
	}
	return m.clamp(move(cur, m.direction, m.cfg.SpeedMps*dtSec))
}

func (m *Model) nextRandomWaypoint(cur Position, dtSec float64) Position {
	if m.pauseLeftS > 0 {
		m.pauseLeftS -= dtSec
		return cur
	}
	if !m.hasWaypoint {
		m.waypoint = Position{
			X: m.cfg.AreaMinX + m.rnd.Float64()*(m.cfg.AreaMaxX-m.cfg.AreaMinX),
			Y: m.cfg.AreaMinY + m.rnd.Float64()*(m.cfg.AreaMaxY-m.cfg.AreaMinY),
		}
		m.hasWaypoint = true
	}

	step := m.cfg.SpeedMps * dtSec
	dist := cur.DistanceTo(m.waypoint)
	if dist <= step {
		m.hasWaypoint = false
		m.pauseLeftS = m.cfg.PauseTimeS
		return m.waypoint
	}
	heading := math.Atan2(m.waypoint.Y-cur.Y, m.waypoint.X-cur.X)
	return move(cur, heading, step)
}

func (m *Model) nextCircular(dtSec float64) Position {
	if m.cfg.RadiusM > 0 {
		m.angle += m.cfg.SpeedMps / m.cfg.RadiusM * dtSec
	}
	return Position{
		X: m.cfg.Center.X + m.cfg.RadiusM*math.Cos(m.angle),
		Y: m.cfg.Center.Y + m.cfg.RadiusM*math.Sin(m.angle),
	}
}

func (m *Model) nextManhattan(cur Position, dtSec float64) Position {
	step := m.cfg.SpeedMps * dtSec
	for step > 0 {
		if step < m.gridLeftM {
			m.gridLeftM -= step
			cur = move(cur, m.direction, step)
			break
		}
		cur = move(cur, m.direction, m.gridLeftM)
		step -= m.gridLeftM
		m.gridLeftM = m.cfg.GridSizeM
		// at an intersection: continue straight or turn left/right
		switch r := m.rnd.Float64(); {
		case r < 0.25:
			m.direction += math.Pi / 2
		case r < 0.5:
			m.direction -= math.Pi / 2
		}
	}
	return m.clamp(cur)
}

func move(p Position, heading, dist float64) Position {
	return Position{
		X: p.X + dist*math.Cos(heading),
		Y: p.Y + dist*math.Sin(heading),
	}
}

func (m *Model) clamp(p Position) Position {
	if m.cfg.AreaMaxX <= m.cfg.AreaMinX {
		return p
	}
	p.X = math.Min(math.Max(p.X, m.cfg.AreaMinX), m.cfg.AreaMaxX)
	p.Y = math.Min(math.Max(p.Y, m.cfg.AreaMinY), m.cfg.AreaMaxY)
	return p
}
