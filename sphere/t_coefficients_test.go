// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sphere

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_coeffs01(tst *testing.T) {

	chk.PrintTitle("coeffs01. LIndex packs (l,m,sin) without collisions")

	lmax := 4
	seen := make(map[int]bool)
	for _, s := range Slots(lmax) {
		if seen[s.L] {
			tst.Errorf("LIndex collision at L=%d (l=%d,m=%d,sin=%v)", s.L, s.l, s.m, s.sin)
			return
		}
		seen[s.L] = true
		if s.L < 0 || s.L >= (lmax+1)*(lmax+1) {
			tst.Errorf("LIndex out of range: L=%d for l=%d,m=%d,sin=%v", s.L, s.l, s.m, s.sin)
			return
		}
	}
	if len(seen) != (lmax+1)*(lmax+1) {
		tst.Errorf("expected %d distinct slots, got %d", (lmax+1)*(lmax+1), len(seen))
		return
	}
}

func Test_coeffs02(tst *testing.T) {

	chk.PrintTitle("coeffs02. Flatten/Unflatten round-trip and AddFrom/Zero")

	c := NewCoefficients(2, 3)
	k := 0.0
	for L := range c.A {
		for n := range c.A[L] {
			k++
			c.A[L][n] = k
		}
	}
	flat := c.Flatten()

	c2 := NewCoefficients(2, 3)
	c2.Unflatten(flat)
	for L := range c.A {
		chk.Array(tst, "row", 1e-17, c2.A[L], c.A[L])
	}

	c2.AddFrom(c, -1)
	for L := range c2.A {
		for n := range c2.A[L] {
			chk.Scalar(tst, "zeroed after self-subtract", 1e-17, c2.A[L][n], 0)
		}
	}

	c.Zero()
	for L := range c.A {
		for n := range c.A[L] {
			chk.Scalar(tst, "Zero", 1e-17, c.A[L][n], 0)
		}
	}
}

func Test_coeffs03(tst *testing.T) {

	chk.PrintTitle("coeffs03. SumSquares monotonicity as coefficients accumulate")

	c := NewCoefficients(1, 2)
	L := LIndex(1, 1, false)
	s0 := c.SumSquares(L)
	c.A[L][0] += 0.5
	s1 := c.SumSquares(L)
	c.A[L][1] += 0.25
	s2 := c.SumSquares(L)
	if !(s0 <= s1 && s1 <= s2) {
		tst.Errorf("SumSquares not monotone: s0=%v s1=%v s2=%v", s0, s1, s2)
		return
	}
}
