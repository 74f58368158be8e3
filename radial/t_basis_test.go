// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package radial

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_basis01(tst *testing.T) {

	chk.PrintTitle("basis01. constructor rejects invalid parameters")

	cases := []struct {
		lmax, nmax, numr int
		rmin, rmax       float64
	}{
		{0, 0, 64, 0.01, 2}, // nmax < 1
		{-1, 4, 64, 0.01, 2}, // lmax < 0
		{0, 4, 64, 2, 2},    // rmin >= rmax
		{0, 4, 8, 0.01, 2},  // numr < 16
	}
	for i, c := range cases {
		_, err := NewBasis(c.lmax, c.nmax, c.numr, c.rmin, c.rmax, false, 1, Linear)
		if err == nil {
			tst.Errorf("case %d: expected InvalidBasisParameters, got nil", i)
			return
		}
		if _, ok := err.(*InvalidBasisParameters); !ok {
			tst.Errorf("case %d: expected *InvalidBasisParameters, got %T", i, err)
			return
		}
	}
}

func Test_basis02(tst *testing.T) {

	chk.PrintTitle("basis02. l=0 eigenfunction shape and monotone interpolation")

	b, err := NewBasis(0, 4, 128, 0.01, 4, false, 1, Linear)
	if err != nil {
		tst.Errorf("NewBasis failed: %v", err)
		return
	}
	if len(b.Pot) != 1 || len(b.Pot[0]) != 4 {
		tst.Errorf("unexpected table shape: %d l-blocks, %d n-functions", len(b.Pot), len(b.Pot[0]))
		return
	}

	// Eval should interpolate smoothly between tabulated grid points: values
	// at the midpoint of a cell lie within the min/max of its two endpoints
	// (true for both linear and well-behaved cubic interpolation away from
	// sign changes).
	i := 10
	rLo, rHi := b.R[i], b.R[i+1]
	rMid := 0.5 * (rLo + rHi)
	potLo, _, _ := b.Eval(0, 0, rLo)
	potHi, _, _ := b.Eval(0, 0, rHi)
	potMid, _, _ := b.Eval(0, 0, rMid)
	lo, hi := potLo, potHi
	if lo > hi {
		lo, hi = hi, lo
	}
	if potMid < lo-1e-9 || potMid > hi+1e-9 {
		tst.Errorf("midpoint interpolation out of bracket: lo=%v mid=%v hi=%v", lo, potMid, hi)
		return
	}
}

func Test_basis03(tst *testing.T) {

	chk.PrintTitle("basis03. eigenfunctions normalized under the inner product")

	b, err := NewBasis(1, 6, 200, 0.01, 5, false, 1, Linear)
	if err != nil {
		tst.Errorf("NewBasis failed: %v", err)
		return
	}
	for l := 0; l <= b.Lmax; l++ {
		if !b.CheckOrthonormal(l, 1e-6) {
			tst.Errorf("l=%d: diagonal normalization check failed", l)
			return
		}
	}
}
