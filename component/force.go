// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package component implements Component (C6 of spec.md §2/§4.6): the
// per-rank particle population, its embedded force expansion, load
// balancing and center-of-mass bookkeeping.
package component

import (
	"math"

	"github.com/cpmech/gofem-nbody/cylinder"
	"github.com/cpmech/gofem-nbody/multistep"
	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/smoother"
	"github.com/cpmech/gofem-nbody/sphere"
)

// Force is the capability set a Component needs from its embedded
// expansion, whether spherical (C2) or cylindrical (C3): accumulate,
// reduce, evaluate, multistep buffering and Hall/PCA smoothing (spec.md §9
// REDESIGN FLAGS — "expose polymorphism over a capability set {accumulate,
// reduce, evaluate, load_cache, save_cache, multistep_update}" rather than a
// deep inheritance tree). Partial accumulators are passed as opaque values
// so SphereForce and CylinderForce can use their own concrete coefficient
// types; the generic multistep.Buffers instance lives inside each adapter
// for the same reason.
type Force interface {
	BeginAccumulate()
	NewPartial() interface{}
	AccumulateOne(partial interface{}, p *particle.Particle)
	Merge(partial interface{})
	Reduce()
	// EvalAccel returns the potential and Cartesian acceleration at p.Pos.
	EvalAccel(p *particle.Particle) (pot float64, acc [3]float64)

	// MultistepStore copies the just-reduced coefficients into level m's
	// "next" buffer (spec.md §4.5). A no-op if multistep buffering was not
	// configured for this force.
	MultistepStore(m int)
	// MultistepAdvance checks level m's sub-step boundary and swaps
	// last/next if sub-step s has crossed it.
	MultistepAdvance(m, s int)
	// MultistepApplyFused installs the fused coefficient matrix for
	// sub-step s with leading level mLev as the authoritative coefficients
	// used by EvalAccel.
	MultistepApplyFused(s, mLev int, clampLog func(m int, alpha float64))

	// NewCovAccumulators allocates one smoother.Accumulator per harmonic
	// subspace (spec.md §4.4).
	NewCovAccumulators(subSampling bool, sampT int) []*smoother.Accumulator
	// AccumulateCovarianceOne folds one particle's per-subspace coefficient
	// vector into accs.
	AccumulateCovarianceOne(accs []*smoother.Accumulator, p *particle.Particle, ensembleIdx int)
	// ApplySmoothed overwrites harmonic subspace L's reduced coefficients
	// with a smoothed vector.
	ApplySmoothed(l int, vec []float64)
}

// SphereForce adapts a *sphere.Expansion to the Force interface.
type SphereForce struct {
	Exp  *sphere.Expansion
	Diag *sphere.DiagSink

	// MS is nil when the component runs a single multistep level (no
	// buffering needed); otherwise it owns the per-level last/next
	// snapshots, genericized over *sphere.Coefficients (spec.md §2 "Wraps
	// (C2) and (C3)").
	MS *multistep.Buffers[*sphere.Coefficients]
}

func (f *SphereForce) BeginAccumulate() { f.Exp.BeginAccumulate() }

func (f *SphereForce) NewPartial() interface{} {
	return sphere.NewCoefficients(f.Exp.Basis.Lmax, f.Exp.Basis.Nmax)
}

func (f *SphereForce) AccumulateOne(partial interface{}, p *particle.Particle) {
	f.Exp.AccumulateOne(partial.(*sphere.Coefficients), p, f.Diag)
}

func (f *SphereForce) Merge(partial interface{}) {
	f.Exp.Merge(partial.(*sphere.Coefficients))
}

func (f *SphereForce) Reduce() { f.Exp.Reduce() }

func (f *SphereForce) MultistepStore(m int) {
	if f.MS == nil {
		return
	}
	f.MS.Next(m).CopyFrom(f.Exp.Coeffs)
}

func (f *SphereForce) MultistepAdvance(m, s int) {
	if f.MS == nil {
		return
	}
	f.MS.Advance(m, s)
}

func (f *SphereForce) MultistepApplyFused(s, mLev int, clampLog func(m int, alpha float64)) {
	if f.MS == nil {
		return
	}
	f.Exp.Coeffs.CopyFrom(f.MS.Fused(s, mLev, clampLog))
}

func (f *SphereForce) NewCovAccumulators(subSampling bool, sampT int) []*smoother.Accumulator {
	return sphere.NewCovAccumulators(f.Exp.Basis.Lmax, f.Exp.Basis.Nmax, subSampling, sampT)
}

func (f *SphereForce) AccumulateCovarianceOne(accs []*smoother.Accumulator, p *particle.Particle, ensembleIdx int) {
	f.Exp.AccumulateCovarianceOne(accs, p, f.Diag, ensembleIdx)
}

func (f *SphereForce) ApplySmoothed(l int, vec []float64) {
	copy(f.Exp.Coeffs.A[l], vec)
}

func (f *SphereForce) EvalAccel(p *particle.Particle) (pot float64, acc [3]float64) {
	dx := p.Pos[0] - f.Exp.Origin[0]
	dy := p.Pos[1] - f.Exp.Origin[1]
	dz := p.Pos[2] - f.Exp.Origin[2]
	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	var theta, phi float64
	if r > 0 {
		theta = math.Acos(clamp(dz/r, -1, 1))
		phi = math.Atan2(dy, dx)
	}
	_, phiPot, dPhiDr, dPhiDth, dPhiDphi, err := f.Exp.Evaluate(r, theta, phi)
	if err != nil {
		return 0, [3]float64{}
	}
	pot = phiPot
	if r == 0 {
		return pot, [3]float64{}
	}
	st, ct := math.Sin(theta), math.Cos(theta)
	sp, cp := math.Sin(phi), math.Cos(phi)
	rhat := [3]float64{st * cp, st * sp, ct}
	thhat := [3]float64{ct * cp, ct * sp, -st}
	phhat := [3]float64{-sp, cp, 0}
	gr := dPhiDr
	gth := dPhiDth / r
	var gph float64
	if st != 0 {
		gph = dPhiDphi / (r * st)
	}
	for i := 0; i < 3; i++ {
		acc[i] = -(gr*rhat[i] + gth*thhat[i] + gph*phhat[i])
	}
	return
}

// CylinderForce adapts a *cylinder.EOF to the Force interface.
type CylinderForce struct {
	EOF              *cylinder.EOF
	MonopoleFallback bool

	MS *multistep.Buffers[*cylinder.CylCoefficients]
}

func (f *CylinderForce) BeginAccumulate() { f.EOF.BeginAccumulate() }

func (f *CylinderForce) NewPartial() interface{} {
	return cylinder.NewCylCoefficients(f.EOF.Mmax, f.EOF.Norder)
}

func (f *CylinderForce) AccumulateOne(partial interface{}, p *particle.Particle) {
	f.EOF.AccumulateOne(partial.(*cylinder.CylCoefficients), p)
}

func (f *CylinderForce) Merge(partial interface{}) {
	f.EOF.Merge(partial.(*cylinder.CylCoefficients))
}

func (f *CylinderForce) Reduce() { f.EOF.Reduce() }

func (f *CylinderForce) MultistepStore(m int) {
	if f.MS == nil {
		return
	}
	f.MS.Next(m).CopyFrom(f.EOF.Coeffs)
}

func (f *CylinderForce) MultistepAdvance(m, s int) {
	if f.MS == nil {
		return
	}
	f.MS.Advance(m, s)
}

func (f *CylinderForce) MultistepApplyFused(s, mLev int, clampLog func(m int, alpha float64)) {
	if f.MS == nil {
		return
	}
	f.EOF.Coeffs.CopyFrom(f.MS.Fused(s, mLev, clampLog))
}

func (f *CylinderForce) NewCovAccumulators(subSampling bool, sampT int) []*smoother.Accumulator {
	return cylinder.NewCovAccumulators(f.EOF.Mmax, f.EOF.Norder, subSampling, sampT)
}

func (f *CylinderForce) AccumulateCovarianceOne(accs []*smoother.Accumulator, p *particle.Particle, ensembleIdx int) {
	f.EOF.AccumulateCovarianceOne(accs, p, ensembleIdx)
}

func (f *CylinderForce) ApplySmoothed(l int, vec []float64) {
	copy(f.EOF.Coeffs.A[l], vec)
}

func (f *CylinderForce) EvalAccel(p *particle.Particle) (pot float64, acc [3]float64) {
	dx := p.Pos[0] - f.EOF.Origin[0]
	dy := p.Pos[1] - f.EOF.Origin[1]
	dz := p.Pos[2] - f.EOF.Origin[2]
	R := math.Hypot(dx, dy)
	phi := math.Atan2(dy, dx)
	_, phiPot, dPhiDR, dPhiDZ, dPhiDphi := f.EOF.Evaluate(R, dz, phi, f.MonopoleFallback)
	pot = phiPot
	cp, sp := math.Cos(phi), math.Sin(phi)
	acc[0] = -(dPhiDR*cp - dPhiDphi*sp/maxf(R, 1e-12))
	acc[1] = -(dPhiDR*sp + dPhiDphi*cp/maxf(R, 1e-12))
	acc[2] = -dPhiDZ
	return
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
