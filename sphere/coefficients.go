// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sphere

import "github.com/cpmech/gosl/la"

// Coefficients holds the real expansion coefficient matrix A[L][n] for
// L in [0, (lmax+1)^2), n in [0, nmax), per spec.md §3. For each l there are
// (2l+1) slots: one m=0 (cosine only), then for each m>0 a cosine slot
// followed by a sine slot.
type Coefficients struct {
	Lmax, Nmax int
	A          [][]float64 // [L][n]
}

// slot identifies one (l, m, cos/sin) harmonic subspace.
type slot struct {
	L    int
	l, m int
	sin  bool
}

// NewCoefficients allocates a zeroed coefficient matrix.
func NewCoefficients(lmax, nmax int) *Coefficients {
	nL := (lmax + 1) * (lmax + 1)
	o := &Coefficients{Lmax: lmax, Nmax: nmax}
	o.A = la.MatAlloc(nL, nmax)
	return o
}

// LIndex returns the packed slot index L for a given (l, m, sin).
// m == 0 implies sin == false (there is only a cosine slot for m=0).
func LIndex(l, m int, sin bool) int {
	base := l * l
	if m == 0 {
		return base
	}
	// base+1: m=1 cos, base+2: m=1 sin, base+3: m=2 cos, ...
	off := 1 + 2*(m-1)
	if sin {
		off++
	}
	return base + off
}

// Slots iterates every (l, m, sin) subspace for l in [0, lmax].
func Slots(lmax int) []slot {
	var out []slot
	for l := 0; l <= lmax; l++ {
		out = append(out, slot{L: LIndex(l, 0, false), l: l, m: 0, sin: false})
		for m := 1; m <= l; m++ {
			out = append(out, slot{L: LIndex(l, m, false), l: l, m: m, sin: false})
			out = append(out, slot{L: LIndex(l, m, true), l: l, m: m, sin: true})
		}
	}
	return out
}

// Zero clears all coefficients.
func (o *Coefficients) Zero() {
	la.MatFill(o.A, 0)
}

// AddFrom adds src's coefficients into o, scaled by sign (+1 or -1); used by
// multistep differential updates (spec.md §4.2 multistep_update).
func (o *Coefficients) AddFrom(src *Coefficients, sign float64) {
	for L := range o.A {
		la.VecAdd(o.A[L], sign, src.A[L])
	}
}

// CopyFrom overwrites o's coefficients with src's.
func (o *Coefficients) CopyFrom(src *Coefficients) {
	for L := range o.A {
		la.VecCopy(o.A[L], 1, src.A[L])
	}
}

// Flatten returns the coefficient matrix as one contiguous slice in
// row-major (L, n) order, for MPI reduction and broadcast.
func (o *Coefficients) Flatten() []float64 {
	out := make([]float64, 0, len(o.A)*o.Nmax)
	for _, row := range o.A {
		out = append(out, row...)
	}
	return out
}

// Unflatten loads a contiguous (L, n) row-major slice back into o.
func (o *Coefficients) Unflatten(flat []float64) {
	k := 0
	for L := range o.A {
		copy(o.A[L], flat[k:k+o.Nmax])
		k += o.Nmax
	}
}

// SumSquares returns Σ_n A[L][n]^2 for a given L (spec.md §8 invariant 3:
// monotonicity of the accumulator as particles are added).
func (o *Coefficients) SumSquares(L int) float64 {
	s := 0.0
	for _, v := range o.A[L] {
		s += v * v
	}
	return s
}
