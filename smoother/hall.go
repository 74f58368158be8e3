// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smoother

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Policy selects the per-mode weighting rule of spec.md §4.4 step 5.
type Policy int

const (
	None Policy = iota
	Hall
	VarianceCut
	CumulativeCut
	VarianceWeighted
)

// Params holds the tunable constants referenced by each Policy.
type Params struct {
	Policy   Policy
	Snr      float64 // Hall: overall signal-to-noise target
	Hexp     float64 // Hall: exponent
	Tksmooth float64 // VarianceCut: threshold multiplier
	Tkcum    float64 // CumulativeCut: cumulative eigenvalue fraction threshold
	Eps      float64 // VarianceWeighted: regularizer
}

const bFloor = 1e-12

// Result carries the diagnostics and, for policies other than None, the
// smoothed coefficient vector.
type Result struct {
	Smoothed []float64 // nil when Policy == None
	Weights  []float64
	Lambda   []float64
	Clamped  bool // true if any raw weight fell outside [0,1] before clamping
	Skipped  bool // true if smoothing was skipped (zero mass or non-finite eigenvalue)
}

// Smooth applies the Hall/PCA algorithm of spec.md §4.4 to one harmonic
// subspace's accumulator, returning the smoothed coefficient vector (unless
// Policy == None, in which case only diagnostics are computed).
func Smooth(acc *Accumulator, p Params) *Result {
	res := &Result{}
	if acc.Mass <= 0 {
		res.Skipped = true
		return res
	}

	n := acc.Nmax
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, acc.Cov[i][j])
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(cov, true)
	if !ok {
		res.Skipped = true
		return res
	}
	lambda := eig.Values(nil)
	var V mat.Dense
	eig.VectorsTo(&V)

	for _, l := range lambda {
		if math.IsNaN(l) || math.IsInf(l, 0) {
			res.Skipped = true
			return res
		}
	}
	res.Lambda = lambda

	// project the mean: t = V^T ā
	meanVec := mat.NewVecDense(n, acc.Mean)
	var tVec mat.VecDense
	tVec.MulVec(V.T(), meanVec)
	t := make([]float64, n)
	for i := range t {
		t[i] = tVec.AtVec(i)
	}

	N := acc.SampleCount()
	weights := make([]float64, n)

	switch p.Policy {
	case None:
		res.Weights = nil
		return res

	case Hall:
		for k := 0; k < n; k++ {
			b := lambda[k] / (t[k]*t[k]*N + 1e-300)
			if b < bFloor {
				b = bFloor
			}
			snr := p.Snr
			if snr <= 0 {
				snr = 1
			}
			hexp := p.Hexp
			if hexp <= 0 {
				hexp = 1
			}
			weights[k] = 1 / (1 + math.Pow(snr*b, hexp))
		}

	case VarianceCut:
		for k := 0; k < n; k++ {
			if p.Tksmooth*lambda[k] < t[k]*t[k] {
				weights[k] = 1
			}
		}

	case CumulativeCut:
		idx := sortDescByEigen(lambda)
		total := 0.0
		for _, l := range lambda {
			total += math.Abs(l)
		}
		cum := 0.0
		for _, k := range idx {
			frac := cum / total
			if frac < p.Tkcum {
				weights[k] = 1
			}
			cum += math.Abs(lambda[k])
		}

	case VarianceWeighted:
		for k := 0; k < n; k++ {
			weights[k] = t[k] * t[k] / (t[k]*t[k] + lambda[k] + p.Eps)
		}
	}

	for _, w := range weights {
		if w < 0 || w > 1 {
			res.Clamped = true
		}
	}
	for k := range weights {
		if weights[k] < 0 {
			weights[k] = 0
		}
		if weights[k] > 1 {
			weights[k] = 1
		}
	}
	res.Weights = weights

	// reconstruct: a_smoothed = V diag(w) t
	wt := make([]float64, n)
	for i := range wt {
		wt[i] = weights[i] * t[i]
	}
	wtVec := mat.NewVecDense(n, wt)
	var outVec mat.VecDense
	outVec.MulVec(&V, wtVec)
	out := make([]float64, n)
	for i := range out {
		out[i] = outVec.AtVec(i)
	}
	res.Smoothed = out
	return res
}

// sortDescByEigen returns indices sorted by descending eigenvalue.
func sortDescByEigen(lambda []float64) []int {
	idx := make([]int, len(lambda))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && lambda[idx[j-1]] < lambda[idx[j]] {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	return idx
}
