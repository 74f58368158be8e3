// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sphere

import (
	"math"

	"github.com/cpmech/gosl/la"
)

// legendreTable holds associated Legendre values P_l^m(cosθ) for all
// l in [0,lmax], m in [0,l], built by the standard stable recursions. Real
// (cos/sin) spherical harmonics are assembled from these plus the
// azimuthal factors.
type legendreTable struct {
	lmax int
	plm  [][]float64 // indexed [l][m], m <= l; trailing m>l entries unused
	dplm [][]float64 // d/dθ of plm, same shape
}

// newLegendreTable evaluates P_l^m(cosθ) and its θ-derivative for l in
// [0,lmax] using the classic three-term recursions (e.g. Numerical
// Recipes §6.7); the recursion itself is a bespoke kernel with no analogue
// in the pack's libraries, but the backing storage is the same rectangular
// gosl/la.MatAlloc matrix used by sphere.Coefficients and
// cylinder.CylCoefficients rather than a hand-rolled ragged allocation.
func newLegendreTable(lmax int, theta float64) *legendreTable {
	ct := math.Cos(theta)
	st := math.Sin(theta)
	t := &legendreTable{lmax: lmax}
	t.plm = la.MatAlloc(lmax+1, lmax+1)
	t.dplm = la.MatAlloc(lmax+1, lmax+1)

	// seed P_m^m
	pmm := 1.0
	t.plm[0][0] = 1
	for m := 1; m <= lmax; m++ {
		pmm *= -(2*float64(m) - 1) * st
		t.plm[m][m] = pmm
	}
	// P_{m+1}^m
	for m := 0; m < lmax; m++ {
		t.plm[m+1][m] = ct * (2*float64(m) + 1) * t.plm[m][m]
	}
	// upward recursion in l for fixed m
	for m := 0; m <= lmax; m++ {
		for l := m + 2; l <= lmax; l++ {
			t.plm[l][m] = (ct*(2*float64(l)-1)*t.plm[l-1][m] - (float64(l)+float64(m)-1)*t.plm[l-2][m]) / (float64(l) - float64(m))
		}
	}
	// θ-derivatives via stable relation dP_l^m/dθ = (1/sinθ)[l ct P_l^m - (l+m) P_{l-1}^m]
	const eps = 1e-12
	for l := 0; l <= lmax; l++ {
		for m := 0; m <= l; m++ {
			var prev float64
			if l > 0 && m <= l-1 {
				prev = t.plm[l-1][m]
			}
			if math.Abs(st) < eps {
				t.dplm[l][m] = 0 // pole: angular derivative handled by continuation elsewhere
			} else {
				t.dplm[l][m] = (float64(l)*ct*t.plm[l][m] - (float64(l)+float64(m))*prev) / st
			}
		}
	}
	return t
}

// NewLegendreTable exposes newLegendreTable to other packages (cylinder's
// overlap quadrature) that need Y_{l,m}(θ) without the full Expansion
// machinery.
func NewLegendreTable(lmax int, theta float64) *legendreTable {
	return newLegendreTable(lmax, theta)
}

// factorialRatio returns (l-m)!/(l+m)! computed without overflow.
func factorialRatio(l, m int) float64 {
	r := 1.0
	for k := l - m + 1; k <= l+m; k++ {
		r *= float64(k)
	}
	return 1 / r
}

// RealY evaluates the real (cos, sin) spherical harmonic pair and their
// (θ, φ) angular derivatives for given l, m (m >= 0), at (θ, φ), using the
// normalization consistent with spec.md §4.2's Y_{l,m} accumulate factor.
// For m == 0 only the cosine slot (Ycos) is meaningful; Ysin is returned as
// zero.
func RealY(lt *legendreTable, l, m int, phi float64) (ycos, ysin, dYcosDth, dYsinDth, dYcosDphi, dYsinDphi float64) {
	norm := math.Sqrt((2*float64(l) + 1) / (4 * math.Pi) * factorialRatio(l, m))
	if m > 0 {
		norm *= math.Sqrt2
	}
	p := lt.plm[l][m]
	dp := lt.dplm[l][m]
	cosmphi := math.Cos(float64(m) * phi)
	sinmphi := math.Sin(float64(m) * phi)

	ycos = norm * p * cosmphi
	dYcosDth = norm * dp * cosmphi
	dYcosDphi = -norm * p * float64(m) * sinmphi

	if m > 0 {
		ysin = norm * p * sinmphi
		dYsinDth = norm * dp * sinmphi
		dYsinDphi = norm * p * float64(m) * cosmphi
	}
	return
}
