// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package smoother implements the Hall/PCA coefficient-smoothing subsystem
// (C4 of spec.md §2/§4.4): a covariance accumulator per harmonic subspace,
// and the signal-to-noise weighting policies used to denoise expansion
// coefficients before they are used for force evaluation.
package smoother

import "github.com/cpmech/gosl/la"

// Accumulator holds the covariance/mean statistics for one harmonic
// subspace (one (l,m) pair for the spherical basis, one m for the
// cylindrical basis), per spec.md §3 CovarianceAccumulators.
type Accumulator struct {
	Nmax int

	Mean []float64   // ā, length Nmax
	Cov  [][]float64 // nmax x nmax symmetric: either accumulated E[aa^T] (no sub-sampling) or the covariance directly (sub-sampling)
	Used float64     // N_used: particles contributing, across ranks
	Mass float64     // total mass contributing

	SubSampling bool
	SampT       int         // sub-ensemble size, when sub-sampling
	Ensembles   [][]float64 // [sampT][nmax] per-sub-ensemble coefficient vectors
}

// NewAccumulator allocates a zeroed covariance accumulator.
func NewAccumulator(nmax int, subSampling bool, sampT int) *Accumulator {
	a := &Accumulator{Nmax: nmax, SubSampling: subSampling, SampT: sampT}
	a.Mean = make([]float64, nmax)
	a.Cov = la.MatAlloc(nmax, nmax)
	if subSampling && sampT > 0 {
		a.Ensembles = la.MatAlloc(sampT, nmax)
	}
	return a
}

// Reset zeroes the accumulator for a new step.
func (a *Accumulator) Reset() {
	la.VecFill(a.Mean, 0)
	la.MatFill(a.Cov, 0)
	a.Used = 0
	a.Mass = 0
	if a.Ensembles != nil {
		la.MatFill(a.Ensembles, 0)
	}
}

// AddSample folds one particle's per-n coefficient contribution into the
// running mean and second-moment accumulators (no-sub-sampling branch), or
// into the ensemble indexed by ensembleIdx (sub-sampling branch).
func (a *Accumulator) AddSample(coeff []float64, mass float64, ensembleIdx int) {
	a.Used++
	a.Mass += mass
	if a.SubSampling && a.Ensembles != nil {
		idx := ensembleIdx % len(a.Ensembles)
		for i, v := range coeff {
			a.Ensembles[idx][i] += v
		}
		return
	}
	for i, v := range coeff {
		a.Mean[i] += v
		for j, w := range coeff {
			a.Cov[i][j] += v * w
		}
	}
}

// Finalize converts accumulated sums into mean/covariance. For the
// no-sub-sampling branch it divides by Used and subtracts the outer product
// ā āᵀ from E[aaᵀ] (spec.md §4.4 step 1). For the sub-sampling branch it
// computes the sample mean and covariance across the SampT ensemble sums.
func (a *Accumulator) Finalize() {
	if a.SubSampling && a.Ensembles != nil {
		n := float64(len(a.Ensembles))
		if n == 0 {
			return
		}
		for i := 0; i < a.Nmax; i++ {
			sum := 0.0
			for _, e := range a.Ensembles {
				sum += e[i]
			}
			a.Mean[i] = sum / n
		}
		for i := 0; i < a.Nmax; i++ {
			for j := 0; j < a.Nmax; j++ {
				sum := 0.0
				for _, e := range a.Ensembles {
					sum += (e[i] - a.Mean[i]) * (e[j] - a.Mean[j])
				}
				a.Cov[i][j] = sum / n
			}
		}
		return
	}
	if a.Used <= 0 {
		return
	}
	for i := range a.Mean {
		a.Mean[i] /= a.Used
	}
	for i := 0; i < a.Nmax; i++ {
		for j := 0; j < a.Nmax; j++ {
			a.Cov[i][j] = a.Cov[i][j]/a.Used - a.Mean[i]*a.Mean[j]
		}
	}
}

// SampleCount returns the N used in the SNR proxy b_k = λ_k/(t_k² N): SampT
// when sub-sampling, Used otherwise (spec.md §9 decision; SPEC_FULL.md
// §5 decision #2).
func (a *Accumulator) SampleCount() float64 {
	if a.SubSampling {
		return float64(a.SampT)
	}
	return a.Used
}
