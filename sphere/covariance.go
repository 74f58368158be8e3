// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sphere

import (
	"math"

	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/smoother"
)

// NewCovAccumulators allocates one smoother.Accumulator per (l,m,cos/sin)
// harmonic subspace, indexed by the same L that Coefficients.A uses, so
// smoothed results can be written straight back with LIndex (spec.md §4.4
// "per (l,m) coefficient subspace").
func NewCovAccumulators(lmax, nmax int, subSampling bool, sampT int) []*smoother.Accumulator {
	nL := (lmax + 1) * (lmax + 1)
	out := make([]*smoother.Accumulator, nL)
	for _, s := range Slots(lmax) {
		out[s.L] = smoother.NewAccumulator(nmax, subSampling, sampT)
	}
	return out
}

// AccumulateCovarianceOne folds one particle's per-n coefficient vector, for
// every (l,m) subspace, into the matching accumulator in accs. This mirrors
// AccumulateOne's basis/harmonic evaluation but feeds a smoother.Accumulator
// instead of a running coefficient sum, since Hall/PCA smoothing needs the
// per-particle spread, not just its total (spec.md §4.4).
func (o *Expansion) AccumulateCovarianceOne(accs []*smoother.Accumulator, p *particle.Particle, dg *DiagSink, ensembleIdx int) {
	if !p.Finite() {
		dg.fire("nan-position", "particle %d has a non-finite position; skipped", p.Index)
		return
	}
	dx := p.Pos[0] - o.Origin[0]
	dy := p.Pos[1] - o.Origin[1]
	dz := p.Pos[2] - o.Origin[2]
	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if r > o.Basis.Rmax {
		return
	}
	var theta, phi float64
	if r > 0 {
		theta = math.Acos(clamp(dz/r, -1, 1))
		phi = math.Atan2(dy, dx)
	}
	lt := newLegendreTable(o.Basis.Lmax, theta)
	vec := make([]float64, o.Basis.Nmax)
	for l := 0; l <= o.Basis.Lmax; l++ {
		for m := 0; m <= l; m++ {
			ycos, ysin, _, _, _, _ := RealY(lt, l, m, phi)
			if a := accs[LIndex(l, m, false)]; a != nil {
				for n := 0; n < o.Basis.Nmax; n++ {
					vec[n] = coeffFactor(o, p, l, n, r) * ycos
				}
				a.AddSample(vec, p.Mass, ensembleIdx)
			}
			if m > 0 {
				if a := accs[LIndex(l, m, true)]; a != nil {
					for n := 0; n < o.Basis.Nmax; n++ {
						vec[n] = coeffFactor(o, p, l, n, r) * ysin
					}
					a.AddSample(vec, p.Mass, ensembleIdx)
				}
			}
		}
	}
}

func coeffFactor(o *Expansion, p *particle.Particle, l, n int, r float64) float64 {
	potBasis, _, _ := o.Basis.Eval(l, n, r)
	normLN := o.Basis.Norm[l][n]
	if normLN == 0 {
		normLN = 1
	}
	return p.Mass * potBasis * 4 * math.Pi / normLN
}
