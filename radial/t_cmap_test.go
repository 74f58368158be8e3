// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package radial

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_cmap01(tst *testing.T) {

	chk.PrintTitle("cmap01. identity map")

	m := CoordMap{Enabled: false}
	chk.Scalar(tst, "ToXi(2.5)", 1e-17, m.ToXi(2.5), 2.5)
	chk.Scalar(tst, "ToR(2.5)", 1e-17, m.ToR(2.5), 2.5)
	chk.Scalar(tst, "Jacobian", 1e-17, m.Jacobian(2.5), 1.0)
}

func Test_cmap02(tst *testing.T) {

	chk.PrintTitle("cmap02. compactified map round-trips and is monotone")

	m := CoordMap{Enabled: true, Scale: 1.3}
	for _, r := range []float64{0.01, 0.1, 1, 5, 50} {
		xi := m.ToXi(r)
		back := m.ToR(xi)
		chk.Scalar(tst, "ToR(ToXi(r))", 1e-9, back, r)
	}

	var prev float64 = -2
	for _, r := range []float64{0.01, 0.5, 1, 2, 10, 100} {
		xi := m.ToXi(r)
		if xi <= prev {
			tst.Errorf("cmap: xi(r) not monotone increasing: xi(%v)=%v <= prev=%v", r, xi, prev)
			return
		}
		prev = xi
	}

	// Jacobian matches a finite-difference estimate of dξ/dr.
	r0 := 2.0
	h := 1e-6
	fd := (m.ToXi(r0+h) - m.ToXi(r0-h)) / (2 * h)
	chk.Scalar(tst, "Jacobian ~ finite diff", 1e-6, m.Jacobian(r0), fd)

	chk.Scalar(tst, "xi(0) == -1", 1e-12, m.ToXi(0), -1.0)
}
