// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package component

import (
	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/psp"
)

// LoadRecords populates o.Particles from a PSP component block, assigning
// particles to ranks by a configurable initial distribution: uniform by
// count when rate is nil, else proportional to rate (spec.md §4.6 "load").
// Only the slice of records owned by this rank (per the chosen
// distribution) is kept locally.
func (o *Component) LoadRecords(block psp.ComponentBlock, rate []float64) {
	n := len(block.Records)
	numRanks := o.Ctx.NumRanks
	bounds := make([]int64, numRanks+1)
	if rate == nil {
		for i := 0; i < numRanks; i++ {
			bounds[i+1] = int64(n) * int64(i+1) / int64(numRanks)
		}
	} else {
		sum := 0.0
		for _, r := range rate {
			sum += r
		}
		acc := 0.0
		for i := 0; i < numRanks; i++ {
			acc += rate[i]
			bounds[i+1] = int64(float64(n) * acc / sum)
		}
		bounds[numRanks] = int64(n)
	}
	lo, hi := bounds[o.Ctx.Rank], bounds[o.Ctx.Rank+1]
	for i := lo; i < hi; i++ {
		rec := block.Records[i]
		p := &particle.Particle{
			Index: rec.Index,
			Mass:  rec.Mass,
			Pos:   rec.Pos,
			Vel:   rec.Vel,
			Pot:   rec.Phi,
			IAttr: append([]int32(nil), rec.IAttr...),
			DAttr: append([]float64(nil), rec.DAttr...),
		}
		if !block.Indexed {
			p.Index = i
		}
		o.Add(p)
	}
	copy(o.NbodiesIndex, bounds)
	o.NIAttr, o.NDAttr = block.NIAttr, block.NDAttr
	o.Indexing = block.Indexed
	o.InitCenters()
}

// ToBlock serializes o's local particles (in ascending index order) back
// into a PSP component block, for checkpointing or round-trip tests.
func (o *Component) ToBlock(info string, niattr, ndattr int, indexed bool) psp.ComponentBlock {
	block := psp.ComponentBlock{Info: info, NIAttr: niattr, NDAttr: ndattr, Indexed: indexed}
	o.Particles.Each(func(p *particle.Particle) {
		block.Records = append(block.Records, psp.Record{
			Index: p.Index, Mass: p.Mass, Pos: p.Pos, Vel: p.Vel, Phi: p.Pot,
			IAttr: append([]int32(nil), p.IAttr...),
			DAttr: append([]float64(nil), p.DAttr...),
		})
	})
	return block
}
