// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cylinder

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_overlap01(tst *testing.T) {

	chk.PrintTitle("overlap01. gaussLegendreNodes integrates low-order polynomials exactly")

	x, w := gaussLegendreNodes(8)

	var sumW, sumX2 float64
	for i := range x {
		sumW += w[i]
		sumX2 += w[i] * x[i] * x[i]
	}
	chk.Scalar(tst, "weights sum to the interval length 2", 1e-12, sumW, 2)
	// ∫_{-1}^{1} x^2 dx = 2/3, exact for an 8-point rule.
	chk.Scalar(tst, "quadrature reproduces ∫x^2dx = 2/3", 1e-12, sumX2, 2.0/3.0)

	for i := range x {
		if math.Abs(x[i]+x[len(x)-1-i]) > 1e-12 {
			tst.Errorf("nodes must be symmetric about 0, got %v and %v", x[i], x[len(x)-1-i])
			return
		}
	}
}

func Test_overlap02(tst *testing.T) {

	chk.PrintTitle("overlap02. fixEigenvectorSign forces the first non-negligible entry positive")

	v1 := []float64{-1e-16, -2, 3}
	fixEigenvectorSign(v1)
	chk.Array(tst, "a negative-leading vector is flipped", 1e-17, v1, []float64{1e-16, 2, -3})

	v2 := []float64{0, 5, -1}
	fixEigenvectorSign(v2)
	chk.Array(tst, "an already-positive-leading vector is untouched", 1e-17, v2, []float64{0, 5, -1})
}

func Test_overlap03(tst *testing.T) {

	chk.PrintTitle("overlap03. sortByAbsDescCyl orders indices by descending magnitude")

	lambda := []float64{-1, 5, -9, 2}
	order := sortByAbsDescCyl(lambda)
	chk.Array(tst, "index order", 1e-17,
		[]float64{float64(order[0]), float64(order[1]), float64(order[2]), float64(order[3])},
		[]float64{2, 1, 3, 0})
}

func Test_overlap04(tst *testing.T) {

	chk.PrintTitle("overlap04. BuildEOF rejects malformed parameters")

	if _, err := BuildEOF(BuildConfig{Mmax: -1, Norder: 1}); err == nil {
		tst.Errorf("expected an error for Mmax<0")
		return
	}
	if _, err := BuildEOF(BuildConfig{Mmax: 0, Norder: 0}); err == nil {
		tst.Errorf("expected an error for Norder<1")
		return
	}
	if _, err := BuildEOF(BuildConfig{Mmax: 0, Norder: 1}); err == nil {
		tst.Errorf("expected an error for nil Sph/Grid/Dens")
		return
	}
}
