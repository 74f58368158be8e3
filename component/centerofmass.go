// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package component

import (
	"math"

	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/particle"
)

// FixPositions recomputes the center of mass, center of velocity and center
// of acceleration across levels >= mLev, with optional escape handling
// (spec.md §4.6): when a particle's distance from comI+Center exceeds Rcom
// and its escape attribute is 0, it is flagged escaped, its mass/momentum
// is removed from the accumulator, and the attribute is set to 1. Escaped
// particles are permanent. A NaN accumulator is reported but the previous
// center is retained (spec.md §4.6 failure semantics).
func (o *Component) FixPositions(mLev int) {
	var massSum float64
	var comSum, covSum, accSum [3]float64

	origin := add3(o.ComI, o.Center)

	for m := mLev; m <= o.Multistep; m++ {
		for _, idx := range o.LevList[m] {
			p := o.Particles.Get(idx)
			if p == nil || p.Escaped {
				continue
			}
			if o.Rcom > 0 && o.EscapeAttrIdx >= 0 && o.EscapeAttrIdx < len(p.IAttr) {
				if p.Radius(origin) > o.Rcom && p.IAttr[o.EscapeAttrIdx] == 0 {
					p.Escaped = true
					p.IAttr[o.EscapeAttrIdx] = 1
					o.Diag.Msg("escape", "component %q: particle %d escaped at r=%.6g", o.Name, p.Index, p.Radius(origin))
					continue
				}
			}
			massSum += p.Mass
			for k := 0; k < 3; k++ {
				comSum[k] += p.Mass * p.Pos[k]
				covSum[k] += p.Mass * p.Vel[k]
				accSum[k] += p.Mass * p.Acc[k]
			}
		}
	}

	flat := []float64{massSum, comSum[0], comSum[1], comSum[2], covSum[0], covSum[1], covSum[2], accSum[0], accSum[1], accSum[2]}
	ctx.AllReduceSum(flat)
	massSum = flat[0]
	comSum = [3]float64{flat[1], flat[2], flat[3]}
	covSum = [3]float64{flat[4], flat[5], flat[6]}
	accSum = [3]float64{flat[7], flat[8], flat[9]}

	if massSum <= 0 || hasNaN3(comSum) || hasNaN3(covSum) || hasNaN3(accSum) {
		o.Diag.Msg("com-nan", "component %q: center-of-mass accumulator is non-finite or zero-mass; retaining previous center", o.Name)
		return
	}

	for k := 0; k < 3; k++ {
		o.Com0[k] = comSum[k] / massSum
		o.Cov0[k] = covSum[k] / massSum
		o.Acc0[k] = accSum[k] / massSum
	}
	for m := mLev; m <= o.Multistep; m++ {
		o.PerLevelMass[m] = massSum
		o.PerLevelCom[m] = o.Com0
		o.PerLevelCov[m] = o.Cov0
		o.PerLevelAcc[m] = o.Acc0
	}
}

// InitCenters fixes ComI/CovI at load time from the current (unfiltered)
// particle population.
func (o *Component) InitCenters() {
	var massSum float64
	var comSum, covSum [3]float64
	o.Particles.Each(func(p *particle.Particle) {
		massSum += p.Mass
		for k := 0; k < 3; k++ {
			comSum[k] += p.Mass * p.Pos[k]
			covSum[k] += p.Mass * p.Vel[k]
		}
	})
	flat := []float64{massSum, comSum[0], comSum[1], comSum[2], covSum[0], covSum[1], covSum[2]}
	ctx.AllReduceSum(flat)
	if flat[0] <= 0 {
		return
	}
	for k := 0; k < 3; k++ {
		o.ComI[k] = flat[1+k] / flat[0]
		o.CovI[k] = flat[4+k] / flat[0]
	}
	o.Com0, o.Cov0 = o.ComI, o.CovI
}

func add3(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func hasNaN3(v [3]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}
