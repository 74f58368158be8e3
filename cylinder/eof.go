// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cylinder

import (
	"math"

	"github.com/cpmech/gosl/la"

	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/particle"
)

// harmonicSet holds the norder basis functions of one azimuthal order m,
// one parity (cosine, or sine when m>0), each tabulated on the (R,z) grid
// as four fields: potential, dR, dz, and (optionally) density (spec.md §3).
type harmonicSet struct {
	Pot   [][]float64 // [n][ (numx+1)*(numy+1) ]
	DR    [][]float64
	DZ    [][]float64
	Dens  [][]float64 // nil entries if density tabulation is disabled
	Eigen []float64   // eigenvalue retained for diagnostics
}

// EOF is the empirical cylindrical basis (C3 of spec.md §4.3): mmax+1
// azimuthal orders, norder radial functions each, tabulated on a (R,z) grid.
type EOF struct {
	Mmax, Norder int
	Grid         *Grid
	DensEnabled  bool

	Cos []*harmonicSet // length mmax+1
	Sin []*harmonicSet // length mmax+1; Sin[0] unused

	CylMass float64 // total deprojected mass used to build the EOF

	Origin [3]float64

	Coeffs  *CylCoefficients
	partial *CylCoefficients
}

// CylCoefficients mirrors sphere.Coefficients but indexed by (m, n):
// A[L][n] where L packs (m, cos|sin) the same way sphere packs (l,m,cos|sin).
type CylCoefficients struct {
	Mmax, Norder int
	A            [][]float64
}

// LIndex returns the packed slot for azimuthal order m (cosine unless sin
// is true and m>0).
func LIndex(m int, sin bool) int {
	if m == 0 {
		return 0
	}
	off := 1 + 2*(m-1)
	if sin {
		off++
	}
	return off
}

// NewCylCoefficients allocates a zeroed (m,n) coefficient matrix.
func NewCylCoefficients(mmax, norder int) *CylCoefficients {
	nL := 2*mmax + 1
	o := &CylCoefficients{Mmax: mmax, Norder: norder}
	o.A = la.MatAlloc(nL, norder)
	return o
}

func (o *CylCoefficients) Zero() {
	la.MatFill(o.A, 0)
}

func (o *CylCoefficients) AddFrom(src *CylCoefficients, sign float64) {
	for L := range o.A {
		la.VecAdd(o.A[L], sign, src.A[L])
	}
}

func (o *CylCoefficients) CopyFrom(src *CylCoefficients) {
	for L := range o.A {
		la.VecCopy(o.A[L], 1, src.A[L])
	}
}

func (o *CylCoefficients) Flatten() []float64 {
	out := make([]float64, 0, len(o.A)*o.Norder)
	for _, row := range o.A {
		out = append(out, row...)
	}
	return out
}

func (o *CylCoefficients) Unflatten(flat []float64) {
	k := 0
	for L := range o.A {
		copy(o.A[L], flat[k:k+o.Norder])
		k += o.Norder
	}
}

// NewEOF wraps pre-built (or pre-loaded) harmonic tables into an evaluator.
func NewEOF(grid *Grid, mmax, norder int, densEnabled bool, cos, sin []*harmonicSet, cylMass float64, origin [3]float64) *EOF {
	return &EOF{
		Grid: grid, Mmax: mmax, Norder: norder, DensEnabled: densEnabled,
		Cos: cos, Sin: sin, CylMass: cylMass, Origin: origin,
		Coeffs:  NewCylCoefficients(mmax, norder),
		partial: NewCylCoefficients(mmax, norder),
	}
}

// BeginAccumulate zeroes the rank-local partial accumulator.
func (o *EOF) BeginAccumulate() { o.partial.Zero() }

// AccumulateOne adds p's contribution into dst, a per-thread accumulator.
func (o *EOF) AccumulateOne(dst *CylCoefficients, p *particle.Particle) {
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
	for m := 0; m <= o.Mmax; m++ {
		cosmphi := math.Cos(float64(m) * phi)
		sinmphi := math.Sin(float64(m) * phi)
		for n := 0; n < o.Norder; n++ {
			pot := o.Grid.Bilinear(o.Cos[m].Pot[n], r, dz)
			dst.A[LIndex(m, false)][n] += p.Mass * pot * cosmphi
			if m > 0 {
				pot2 := o.Grid.Bilinear(o.Sin[m].Pot[n], r, dz)
				dst.A[LIndex(m, true)][n] += p.Mass * pot2 * sinmphi
			}
		}
	}
}

// Merge folds a worker's partial accumulation into o.partial.
func (o *EOF) Merge(worker *CylCoefficients) { o.partial.AddFrom(worker, 1) }

// Reduce MPI-sums o.partial into o.Coeffs.
func (o *EOF) Reduce() {
	flat := o.partial.Flatten()
	ctx.AllReduceSum(flat)
	o.Coeffs.Unflatten(flat)
}

// Evaluate returns (ρ, Φ, Φ_R, Φ_z, Φ_φ) at cylindrical (R, z, φ). Outside
// the tabulated region it returns zero fields unless monopoleFallback is
// set, in which case Φ = -CylMass/r is returned (spec.md §4.3).
func (o *EOF) Evaluate(r, z, phi float64, monopoleFallback bool) (rho, phiPot, dPhiDR, dPhiDZ, dPhiDphi float64) {
	if !o.Grid.InGrid(r, z) {
		if monopoleFallback {
			rad := math.Sqrt(r*r + z*z)
			if rad > 0 {
				phiPot = -o.CylMass / rad
				dPhiDR = o.CylMass * r / (rad * rad * rad)
				dPhiDZ = o.CylMass * z / (rad * rad * rad)
			}
		}
		return
	}
	for m := 0; m <= o.Mmax; m++ {
		cosmphi := math.Cos(float64(m) * phi)
		sinmphi := math.Sin(float64(m) * phi)
		for n := 0; n < o.Norder; n++ {
			acos := o.Coeffs.A[LIndex(m, false)][n]
			pot := o.Grid.Bilinear(o.Cos[m].Pot[n], r, z)
			dR := o.Grid.Bilinear(o.Cos[m].DR[n], r, z)
			dZ := o.Grid.Bilinear(o.Cos[m].DZ[n], r, z)
			phiPot += acos * pot * cosmphi
			dPhiDR += acos * dR * cosmphi
			dPhiDZ += acos * dZ * cosmphi
			if m > 0 {
				dPhiDphi += -float64(m) * acos * pot * sinmphi
			}
			if o.DensEnabled && o.Cos[m].Dens != nil {
				rho += acos * o.Grid.Bilinear(o.Cos[m].Dens[n], r, z) * cosmphi
			}
			if m > 0 {
				asin := o.Coeffs.A[LIndex(m, true)][n]
				pot2 := o.Grid.Bilinear(o.Sin[m].Pot[n], r, z)
				dR2 := o.Grid.Bilinear(o.Sin[m].DR[n], r, z)
				dZ2 := o.Grid.Bilinear(o.Sin[m].DZ[n], r, z)
				phiPot += asin * pot2 * sinmphi
				dPhiDR += asin * dR2 * sinmphi
				dPhiDZ += asin * dZ2 * sinmphi
				dPhiDphi += float64(m) * asin * pot2 * cosmphi
				if o.DensEnabled && o.Sin[m].Dens != nil {
					rho += asin * o.Grid.Bilinear(o.Sin[m].Dens[n], r, z) * sinmphi
				}
			}
		}
	}
	phiPot = -phiPot
	dPhiDR = -dPhiDR
	dPhiDZ = -dPhiDZ
	dPhiDphi = -dPhiDphi
	return
}
