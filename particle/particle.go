// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package particle implements the Particle type and its ordered, per-rank
// container (spec.md §3). A particle is owned by exactly one Component; the
// pair (component, index) is globally unique. A particle moves between MPI
// ranks only through explicit rebalancing (component.LoadBalance).
package particle

import "math"

// Particle holds the essential per-body state (spec.md §3).
type Particle struct {
	Index int64 // stable index, globally unique within its Component

	Mass float64
	Pos  [3]float64
	Vel  [3]float64
	Acc  [3]float64

	Pot    float64 // self-consistent potential
	PotExt float64 // external potential

	Level int // multistep level, in [0, multistep]

	IAttr []int32   // user-declared integer attributes
	DAttr []float64 // user-declared double attributes

	EffortUsec int64 // accumulated microseconds in force evaluation, used by the load balancer

	Escaped bool // permanent once set (component.FixPositions)
}

// New returns a zero-valued Particle with the given index and mass.
func New(index int64, mass float64) *Particle {
	return &Particle{Index: index, Mass: mass}
}

// Radius returns |pos - origin|.
func (p *Particle) Radius(origin [3]float64) float64 {
	dx := p.Pos[0] - origin[0]
	dy := p.Pos[1] - origin[1]
	dz := p.Pos[2] - origin[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Finite reports whether position and velocity are all finite numbers;
// acceleration is not checked (spec.md §4.2 NaN-position handling).
func (p *Particle) Finite() bool {
	for _, v := range p.Pos {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range p.Vel {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the particle.
func (p *Particle) Clone() *Particle {
	q := *p
	q.IAttr = append([]int32(nil), p.IAttr...)
	q.DAttr = append([]float64(nil), p.DAttr...)
	return &q
}
