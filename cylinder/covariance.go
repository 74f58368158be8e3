// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cylinder

import (
	"math"

	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/smoother"
)

// NewCovAccumulators allocates one smoother.Accumulator per azimuthal order
// m (cosine, plus sine when m>0), indexed by LIndex, mirroring
// sphere.NewCovAccumulators for the cylindrical basis (spec.md §4.4).
func NewCovAccumulators(mmax, norder int, subSampling bool, sampT int) []*smoother.Accumulator {
	nL := 2*mmax + 1
	out := make([]*smoother.Accumulator, nL)
	for m := 0; m <= mmax; m++ {
		out[LIndex(m, false)] = smoother.NewAccumulator(norder, subSampling, sampT)
		if m > 0 {
			out[LIndex(m, true)] = smoother.NewAccumulator(norder, subSampling, sampT)
		}
	}
	return out
}

// AccumulateCovarianceOne folds one particle's per-n coefficient vector, for
// every azimuthal order, into the matching accumulator in accs.
func (o *EOF) AccumulateCovarianceOne(accs []*smoother.Accumulator, p *particle.Particle, ensembleIdx int) {
	if !p.Finite() {
		return
	}
	dx := p.Pos[0] - o.Origin[0]
	dy := p.Pos[1] - o.Origin[1]
	dz := p.Pos[2] - o.Origin[2]
	r := math.Hypot(dx, dy)
	if !o.Grid.InGrid(r, dz) {
		return
	}
	phi := math.Atan2(dy, dx)
	vec := make([]float64, o.Norder)
	for m := 0; m <= o.Mmax; m++ {
		cosmphi := math.Cos(float64(m) * phi)
		sinmphi := math.Sin(float64(m) * phi)
		if a := accs[LIndex(m, false)]; a != nil {
			for n := 0; n < o.Norder; n++ {
				pot := o.Grid.Bilinear(o.Cos[m].Pot[n], r, dz)
				vec[n] = p.Mass * pot * cosmphi
			}
			a.AddSample(vec, p.Mass, ensembleIdx)
		}
		if m > 0 {
			if a := accs[LIndex(m, true)]; a != nil {
				for n := 0; n < o.Norder; n++ {
					pot2 := o.Grid.Bilinear(o.Sin[m].Pot[n], r, dz)
					vec[n] = p.Mass * pot2 * sinmphi
				}
				a.AddSample(vec, p.Mass, ensembleIdx)
			}
		}
	}
}
