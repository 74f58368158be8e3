// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sphere

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_harmonics01(tst *testing.T) {

	chk.PrintTitle("harmonics01. Y_0^0 and Y_1^0 match closed forms")

	theta := math.Pi / 3
	phi := 0.77 // irrelevant for m=0

	lt := newLegendreTable(2, theta)

	ycos, ysin, _, _, _, _ := RealY(lt, 0, 0, phi)
	want00 := 1 / math.Sqrt(4*math.Pi)
	chk.Scalar(tst, "Y_0^0", 1e-12, ycos, want00)
	chk.Scalar(tst, "Y_0^0 sin-slot is zero", 1e-17, ysin, 0)

	ycos, _, _, _, _, _ = RealY(lt, 1, 0, phi)
	want10 := math.Sqrt(3/(4*math.Pi)) * math.Cos(theta)
	chk.Scalar(tst, "Y_1^0", 1e-12, ycos, want10)
}

func Test_harmonics02(tst *testing.T) {

	chk.PrintTitle("harmonics02. angular derivative matches finite difference")

	phi := 0.4
	l, m := 2, 1
	theta0 := 1.1
	h := 1e-6

	ltm := newLegendreTable(l, theta0-h)
	ltp := newLegendreTable(l, theta0+h)
	lt0 := newLegendreTable(l, theta0)

	ycosM, _, _, _, _, _ := RealY(ltm, l, m, phi)
	ycosP, _, _, _, _, _ := RealY(ltp, l, m, phi)
	_, _, dYcosDth, _, _, _ := RealY(lt0, l, m, phi)

	fd := (ycosP - ycosM) / (2 * h)
	chk.Scalar(tst, "dYcos/dtheta ~ finite diff", 1e-6, dYcosDth, fd)
}

func Test_harmonics03(tst *testing.T) {

	chk.PrintTitle("harmonics03. orthogonality of P_l^0 over [0,pi] via quadrature")

	// Σ_i P_l(cosθ_i) P_l'(cosθ_i) sinθ_i Δθ ≈ 0 for l != l' (Gauss-Legendre
	// would be exact; a fine uniform grid is accurate enough for this check).
	n := 4000
	dtheta := math.Pi / float64(n)
	sum := 0.0
	for i := 0; i < n; i++ {
		theta := (float64(i) + 0.5) * dtheta
		lt := newLegendreTable(3, theta)
		y2, _, _, _, _, _ := RealY(lt, 2, 0, 0)
		y3, _, _, _, _, _ := RealY(lt, 3, 0, 0)
		sum += y2 * y3 * math.Sin(theta) * dtheta * 2 * math.Pi
	}
	if math.Abs(sum) > 1e-3 {
		tst.Errorf("Y_2^0 and Y_3^0 not orthogonal: integral=%v", sum)
		return
	}
}
