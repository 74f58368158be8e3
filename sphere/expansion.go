// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sphere implements the spherical basis expansion (C2 of spec.md
// §2/§4.2): accumulation of per-(l,m,n) coefficients from particles, MPI
// reduction, and field evaluation with analytic continuation beyond rmax.
package sphere

import (
	"errors"
	"math"

	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/radial"
)

// ErrInvalidCoordinate is returned for negative radii (spec.md §4.2).
var ErrInvalidCoordinate = errors.New("sphere: negative radius")

// Expansion owns the coefficient state and the radial basis it is built
// from. Lmax/Nmax must match the embedded Basis.
type Expansion struct {
	Basis  *radial.Basis
	Origin [3]float64

	Coeffs  *Coefficients // reduced, authoritative coefficients
	partial *Coefficients // rank-local accumulation target for the in-flight step
}

// New returns an Expansion built on the given radial basis, centered at
// origin.
func New(basis *radial.Basis, origin [3]float64) *Expansion {
	return &Expansion{
		Basis:   basis,
		Origin:  origin,
		Coeffs:  NewCoefficients(basis.Lmax, basis.Nmax),
		partial: NewCoefficients(basis.Lmax, basis.Nmax),
	}
}

// BeginAccumulate zeroes the rank-local partial accumulator for a new step.
func (o *Expansion) BeginAccumulate() {
	o.partial.Zero()
}

// AccumulateOne adds one particle's contribution into dst (a per-thread
// accumulator; callers accumulate into per-worker Coefficients and merge
// them into o.partial in thread-id order via Merge, per spec.md §5).
func (o *Expansion) AccumulateOne(dst *Coefficients, p *particle.Particle, dg *DiagSink) {
	if !p.Finite() {
		dg.fire("nan-position", "particle %d has a non-finite position; skipped", p.Index)
		return
	}
	dx := p.Pos[0] - o.Origin[0]
	dy := p.Pos[1] - o.Origin[1]
	dz := p.Pos[2] - o.Origin[2]
	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if r > o.Basis.Rmax {
		return // silently skipped in accumulation; included in evaluation via continuation
	}
	var theta, phi float64
	if r > 0 {
		theta = math.Acos(clamp(dz/r, -1, 1))
		phi = math.Atan2(dy, dx)
	}
	lt := newLegendreTable(o.Basis.Lmax, theta)
	for l := 0; l <= o.Basis.Lmax; l++ {
		for n := 0; n < o.Basis.Nmax; n++ {
			potBasis, _, _ := o.Basis.Eval(l, n, r)
			normLN := o.Basis.Norm[l][n]
			if normLN == 0 {
				normLN = 1
			}
			factor := p.Mass * potBasis * 4 * math.Pi / normLN
			for m := 0; m <= l; m++ {
				ycos, ysin, _, _, _, _ := RealY(lt, l, m, phi)
				if m == 0 {
					dst.A[LIndex(l, 0, false)][n] += factor * ycos
				} else {
					dst.A[LIndex(l, m, false)][n] += factor * ycos
					dst.A[LIndex(l, m, true)][n] += factor * ysin
				}
			}
		}
	}
}

// Merge adds worker's partial accumulator into o.partial; callers must call
// Merge for each worker in ascending worker-id order (spec.md §5 ordering
// guarantee: "per-thread partials are summed in thread-id order").
func (o *Expansion) Merge(worker *Coefficients) {
	o.partial.AddFrom(worker, 1)
}

// Reduce MPI-sums o.partial across ranks into o.Coeffs, identical on every
// rank afterwards (spec.md §8 invariant 4).
func (o *Expansion) Reduce() {
	flat := o.partial.Flatten()
	ctx.AllReduceSum(flat)
	o.Coeffs.Unflatten(flat)
}

// Evaluate returns (ρ, Φ, Φ_r, Φ_θ, Φ_φ) at (r, θ, φ) by summing over
// (l,m,n) the stored coefficients against basis values and spherical
// harmonics. For r > rmax, potential/gradient use the analytic continuation
// Φ ~ (rmax/r)^(l+1); density returns zero (spec.md §4.2).
func (o *Expansion) Evaluate(r, theta, phi float64) (rho, phiPot, dPhiDr, dPhiDth, dPhiDphi float64, err error) {
	if r < 0 {
		return 0, 0, 0, 0, 0, ErrInvalidCoordinate
	}
	lt := newLegendreTable(o.Basis.Lmax, theta)
	outside := r > o.Basis.Rmax
	for l := 0; l <= o.Basis.Lmax; l++ {
		for n := 0; n < o.Basis.Nmax; n++ {
			var potBasis, dpotBasis, rhoBasis float64
			evalR := r
			scale := 1.0
			dscale := 0.0
			if outside {
				evalR = o.Basis.Rmax
				ratio := o.Basis.Rmax / r
				scale = math.Pow(ratio, float64(l+1))
				dscale = -float64(l+1) / r * scale
				rhoBasis = 0
			}
			pb, dpb, rb := o.Basis.Eval(l, n, evalR)
			potBasis = pb * scale
			if outside {
				dpotBasis = pb * dscale
			} else {
				dpotBasis = dpb
				rhoBasis = rb
			}
			normLN := o.Basis.Norm[l][n]
			if normLN == 0 {
				normLN = 1
			}
			for m := 0; m <= l; m++ {
				ycos, ysin, dYcosDth, dYsinDth, dYcosDphi, dYsinDphi := RealY(lt, l, m, phi)
				var acos, asin float64
				acos = o.Coeffs.A[LIndex(l, m, false)][n]
				if m > 0 {
					asin = o.Coeffs.A[LIndex(l, m, true)][n]
				}
				phiPot += acos * potBasis * ycos / normLN
				dPhiDr += acos * dpotBasis * ycos / normLN
				dPhiDth += acos * potBasis * dYcosDth / normLN
				dPhiDphi += acos * potBasis * dYcosDphi / normLN
				if !outside {
					rho += acos * rhoBasis * ycos / normLN
				}
				if m > 0 {
					phiPot += asin * potBasis * ysin / normLN
					dPhiDr += asin * dpotBasis * ysin / normLN
					dPhiDth += asin * potBasis * dYsinDth / normLN
					dPhiDphi += asin * potBasis * dYsinDphi / normLN
					if !outside {
						rho += asin * rhoBasis * ysin / normLN
					}
				}
			}
		}
	}
	// Φ negative for bound states, by convention.
	phiPot = -phiPot
	dPhiDr = -dPhiDr
	dPhiDth = -dPhiDth
	dPhiDphi = -dPhiDphi
	return
}

// MultistepUpdate records a differential Δ = contribution(p), added to the
// "to" accumulator and subtracted from the "from" accumulator, when a
// particle changes multistep level mid-step (spec.md §4.2
// multistep_update). The caller supplies the per-thread accumulators for
// the "from" and "to" levels.
func (o *Expansion) MultistepUpdate(from, to *Coefficients, p *particle.Particle, dg *DiagSink, sign float64) {
	tmp := NewCoefficients(o.Basis.Lmax, o.Basis.Nmax)
	o.AccumulateOne(tmp, p, dg)
	from.AddFrom(tmp, -sign)
	to.AddFrom(tmp, sign)
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

// DiagSink is the minimal interface Expansion needs from diag.Stream,
// avoiding a hard import cycle while keeping the same call shape.
type DiagSink struct {
	msg func(key, format string, a ...interface{})
}

// NewDiagSink adapts a diag.Stream-like Msg method into a DiagSink.
func NewDiagSink(msg func(key, format string, a ...interface{})) *DiagSink {
	return &DiagSink{msg: msg}
}

func (d *DiagSink) fire(key, format string, a ...interface{}) {
	if d == nil || d.msg == nil {
		return
	}
	d.msg(key, format, a...)
}
