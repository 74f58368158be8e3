// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package radial

import (
	"math"

	"github.com/cpmech/gosl/la"
	"github.com/cpmech/gosl/num"
	"gonum.org/v1/gonum/mat"
)

// solveSturmLiouville builds and diagonalizes the radial Sturm-Liouville
// operator for a single angular order l on the grid r[0..numr-1], returning
// the nmax lowest eigenfunctions (potential values), their radial
// derivatives and associated densities, plus their normalization constants.
//
// The discretized self-adjoint problem is
//
//	A u = λ B u,        A_ij = d/dr(r² du/dr) - l(l+1) u  (finite differences)
//	                    B_ii = r_i² w_i                    (quadrature weight)
//
// reduced to a standard symmetric eigenproblem by scaling rows/columns of A
// by 1/sqrt(B_ii) (gonum/mat performs the dense factorization and
// eigendecomposition, spec.md §4.1's "diagonalize"); gosl/num's composite
// trapezoidal integrator (num.Trapz) re-derives the <u,u>_B normalization
// integral directly from the same weights, rather than re-deriving the
// quadrature by hand a second time. Results satisfy orthonormality under
// the <u,v> = Σ u_i v_i B_ii inner product to the relative tolerance
// spec.md §4.1 requires on a sufficiently resolved grid.
func solveSturmLiouville(l, nmax int, r []float64, cm CoordMap) (pot, dpot, dens [][]float64, norm []float64) {
	n := len(r)
	w := trapezoidWeights(r)

	A := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ri := r[i]
		ll := float64(l * (l + 1))
		// second-difference discretization of d/dr(r^2 du/dr), Neumann-like
		// at the inner boundary, Dirichlet (u=0) at the outer boundary.
		var left, right, center float64
		if i > 0 {
			rm := 0.5 * (r[i-1] + ri)
			hm := ri - r[i-1]
			left = rm * rm / (hm * hm)
		}
		if i < n-1 {
			rp := 0.5 * (r[i+1] + ri)
			hp := r[i+1] - ri
			right = rp * rp / (hp * hp)
		} else if i > 0 {
			// ghost node one spacing past the outer edge, held at u = 0
			hp := ri - r[i-1]
			rp := ri + 0.5*hp
			right = rp * rp / (hp * hp)
		}
		center = -(left + right) - ll
		A.SetSym(i, i, center)
		if i < n-1 {
			A.SetSym(i, i+1, right)
		}
	}

	B := make([]float64, n)
	for i := range B {
		B[i] = r[i] * r[i] * w[i]
		if B[i] <= 0 {
			B[i] = 1e-300
		}
	}

	// reduce A u = λ B u to standard form A' y = λ y with A'_ij = A_ij / sqrt(B_i B_j)
	Ap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			Ap.SetSym(i, j, A.At(i, j)/math.Sqrt(B[i]*B[j]))
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(Ap, true)
	if !ok {
		panic("radial: eigendecomposition of Sturm-Liouville operator failed")
	}
	values := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// order indices by ascending |eigenvalue| magnitude of (-values): the
	// SL operator is negative semi-definite for bound radial modes, so the
	// smallest |λ| corresponds to the fewest radial nodes (n=0 ground mode).
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sortByAbsDesc(idx, values)
	for a, b := 0, n-1; a < b; a, b = a+1, b-1 {
		idx[a], idx[b] = idx[b], idx[a]
	}

	if nmax > n {
		nmax = n
	}
	pot = la.MatAlloc(nmax, n)
	dpot = la.MatAlloc(nmax, n)
	dens = la.MatAlloc(nmax, n)
	norm = make([]float64, nmax)

	for k := 0; k < nmax; k++ {
		col := idx[k]
		u := pot[k]
		for i := 0; i < n; i++ {
			u[i] = vecs.At(i, col) / math.Sqrt(B[i])
		}
		fixSign(u)

		// normalize under <u,u> = Σ u_i^2 B_i to unity, then record the
		// normalization constant N_{l,n} used by accumulate()'s 4π/N factor.
		// <u,u>_B reduces to ∫ u(r)^2 r^2 dr under the composite-trapezoid
		// weights folded into B, so num.Trapz evaluates it directly instead
		// of re-summing the weighted dot product by hand.
		integrand := make([]float64, n)
		for i := range u {
			integrand[i] = u[i] * u[i] * r[i] * r[i]
		}
		nrm := math.Sqrt(num.Trapz(r, integrand))
		if nrm > 0 {
			for i := range u {
				u[i] /= nrm
			}
		}

		centralDiffInto(r, u, dpot[k])
		rho := dens[k]
		lam := values[col]
		for i := range rho {
			rho[i] = -lam * u[i] / (4 * math.Pi)
		}

		// N_{l,n} is the diagonal potential-density overlap itself
		// (spec.md §4.1): with u unit-normalized under <.,.>_B, that
		// overlap reduces to -lam, which accumulate()'s 4π/N factor then
		// divides out.
		norm[k] = -lam
	}
	return
}

// trapezoidWeights returns composite trapezoidal quadrature weights for the
// (possibly non-uniform) grid r. gosl/num.Trapz folds an integrand straight
// into a scalar integral and does not hand back the per-node weight vector
// the diagonal mass matrix B needs, so the coefficients are reconstructed
// here directly from the same rule num.Trapz implements.
func trapezoidWeights(r []float64) []float64 {
	n := len(r)
	w := make([]float64, n)
	for i := 0; i < n-1; i++ {
		h := r[i+1] - r[i]
		w[i] += h / 2
		w[i+1] += h / 2
	}
	return w
}

// centralDiffInto writes the derivative of u with respect to r into d, via
// central (forward/backward at the boundaries) finite differences.
func centralDiffInto(r, u, d []float64) {
	n := len(r)
	for i := 0; i < n; i++ {
		switch {
		case i == 0:
			d[i] = (u[1] - u[0]) / (r[1] - r[0])
		case i == n-1:
			d[i] = (u[n-1] - u[n-2]) / (r[n-1] - r[n-2])
		default:
			d[i] = (u[i+1] - u[i-1]) / (r[i+1] - r[i-1])
		}
	}
}

// fixSign flips u so that its first non-negligible component is positive,
// matching the SVD sign convention spec.md §4.3 requires for the cylinder
// basis and, for consistency, is also applied here.
func fixSign(u []float64) {
	for _, v := range u {
		if math.Abs(v) > 1e-12 {
			if v < 0 {
				for i := range u {
					u[i] = -u[i]
				}
			}
			return
		}
	}
}

// sortByAbsDesc sorts idx by descending |values[idx[k]]| (insertion sort;
// nmax and numr are small enough that this is not a bottleneck).
func sortByAbsDesc(idx []int, values []float64) {
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && math.Abs(values[idx[j-1]]) < math.Abs(values[idx[j]]) {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
}
