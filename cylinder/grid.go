// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cylinder implements the empirical cylindrical basis (C3 of
// spec.md §2/§4.3): built by SVD of a target density's overlap with a
// spherical basis, tabulated on a 2-D (R,z) grid, cached to disk.
package cylinder

import "math"

// Grid is the 2-D (R, z) tabulation grid, stored in compactified
// coordinates ξ(R), η(z) = sign(z)·asinh(|z|/H) (spec.md §4.3).
type Grid struct {
	Numx, Numy int
	A, H       float64 // radial/vertical scale lengths
	LogR       bool

	Xi  []float64 // length numx+1
	Eta []float64 // length numy+1
	R   []float64
	Z   []float64

	Rmax float64 // outer radius of the tabulated region in physical units
}

// NewGrid builds a (numx+1)x(numy+1) grid spanning physical radius
// [0, rmax] and height symmetric about 0, using scale lengths a, h.
func NewGrid(numx, numy int, a, h, rmax float64, logr bool) *Grid {
	g := &Grid{Numx: numx, Numy: numy, A: a, H: h, LogR: logr, Rmax: rmax}
	g.Xi = make([]float64, numx+1)
	g.R = make([]float64, numx+1)
	ximax := g.RToXi(rmax)
	for i := 0; i <= numx; i++ {
		xi := -1 + (ximax+1)*float64(i)/float64(numx)
		g.Xi[i] = xi
		g.R[i] = g.xiToR(xi)
	}
	g.Eta = make([]float64, numy+1)
	g.Z = make([]float64, numy+1)
	etamax := math.Asinh(rmax / h)
	for j := 0; j <= numy; j++ {
		eta := -etamax + 2*etamax*float64(j)/float64(numy)
		g.Eta[j] = eta
		g.Z[j] = h * math.Sinh(eta)
	}
	return g
}

// xiToR maps ξ in [-1,1) to physical radius in [0, ∞), via the same
// compactification family radial.CoordMap uses: ξ = (R/A-1)/(R/A+1).
func (g *Grid) xiToR(xi float64) float64 {
	u := (1 + xi) / (1 - xi)
	return g.A * u
}

// RToXi is the inverse of xiToR.
func (g *Grid) RToXi(r float64) float64 {
	u := r / g.A
	return (u - 1) / (u + 1)
}

// ZToEta maps physical z to η = sign(z)·asinh(|z|/H).
func (g *Grid) ZToEta(z float64) float64 {
	return math.Asinh(z / g.H)
}

// Locate1D returns the grid-cell index and fractional position for value x
// within the monotone grid xs, clamping outside the tabulated range.
func locate1D(xs []float64, x float64) (i int, frac float64) {
	n := len(xs)
	if x <= xs[0] {
		return 0, 0
	}
	if x >= xs[n-1] {
		return n - 2, 1
	}
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xs[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	h := xs[hi] - xs[lo]
	if h == 0 {
		return lo, 0
	}
	return lo, (x - xs[lo]) / h
}

// Bilinear interpolates a (numx+1)x(numy+1) table (row-major, R-major) at
// physical (R, z).
func (g *Grid) Bilinear(table []float64, r, z float64) float64 {
	xi := g.RToXi(r)
	eta := g.ZToEta(z)
	i, fx := locate1D(g.Xi, xi)
	j, fy := locate1D(g.Eta, eta)
	ny := g.Numy + 1
	v00 := table[i*ny+j]
	v01 := table[i*ny+j+1]
	v10 := table[(i+1)*ny+j]
	v11 := table[(i+1)*ny+j+1]
	v0 := v00 + (v01-v00)*fy
	v1 := v10 + (v11-v10)*fy
	return v0 + (v1-v0)*fx
}

// InGrid reports whether (R,z) falls within the tabulated region, per
// spec.md §4.3's out-of-grid rule r > rmax·√(1/2).
func (g *Grid) InGrid(r, z float64) bool {
	rad := math.Sqrt(r*r + z*z)
	return rad <= g.Rmax*math.Sqrt(0.5)
}
