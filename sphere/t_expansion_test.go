// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sphere

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/radial"
)

func newTestExpansion(tst *testing.T, lmax, nmax int, rmax float64) *Expansion {
	b, err := radial.NewBasis(lmax, nmax, 128, 0.01, rmax, false, 1, radial.Linear)
	if err != nil {
		tst.Fatalf("NewBasis failed: %v", err)
	}
	return New(b, [3]float64{})
}

func accumulateAll(e *Expansion, pts []*particle.Particle) *Coefficients {
	e.BeginAccumulate()
	part := NewCoefficients(e.Basis.Lmax, e.Basis.Nmax)
	for _, p := range pts {
		e.AccumulateOne(part, p, nil)
	}
	e.Merge(part)
	e.Reduce()
	return e.Coeffs
}

func Test_expansion01(tst *testing.T) {

	chk.PrintTitle("expansion01. reduction is deterministic across repeated runs")

	pts := []*particle.Particle{
		{Index: 0, Mass: 1.0, Pos: [3]float64{0.3, 0.1, -0.2}},
		{Index: 1, Mass: 0.5, Pos: [3]float64{-0.4, 0.2, 0.1}},
		{Index: 2, Mass: 2.0, Pos: [3]float64{0.1, -0.3, 0.25}},
	}

	e1 := newTestExpansion(tst, 2, 4, 2.0)
	c1 := accumulateAll(e1, pts)
	flat1 := c1.Flatten()

	e2 := newTestExpansion(tst, 2, 4, 2.0)
	c2 := accumulateAll(e2, pts)
	flat2 := c2.Flatten()

	chk.Array(tst, "coefficients bit-identical across runs", 0, flat1, flat2)
}

func Test_expansion02(tst *testing.T) {

	chk.PrintTitle("expansion02. SumSquares is non-decreasing as mass is added")

	e := newTestExpansion(tst, 1, 3, 2.0)
	L := LIndex(0, 0, false)

	part := NewCoefficients(e.Basis.Lmax, e.Basis.Nmax)
	prev := 0.0
	for i := 0; i < 5; i++ {
		p := &particle.Particle{Index: int64(i), Mass: 1.0, Pos: [3]float64{0.5, 0, 0}}
		e.AccumulateOne(part, p, nil)
		cur := part.SumSquares(L)
		if cur < prev-1e-15 {
			tst.Errorf("SumSquares decreased: prev=%v cur=%v at i=%d", prev, cur, i)
			return
		}
		prev = cur
	}
}

func Test_expansion03(tst *testing.T) {

	chk.PrintTitle("expansion03. evaluate is continuous across rmax (continuation rule)")

	pts := []*particle.Particle{
		{Index: 0, Mass: 1.0, Pos: [3]float64{0.3, 0, 0}},
	}
	e := newTestExpansion(tst, 2, 4, 2.0)
	accumulateAll(e, pts)

	eps := 1e-5
	_, potBelow, _, _, _, err1 := e.Evaluate(2.0-eps, 1.0, 0.3)
	_, potAbove, _, _, _, err2 := e.Evaluate(2.0+eps, 1.0, 0.3)
	if err1 != nil || err2 != nil {
		tst.Errorf("unexpected evaluation error: %v / %v", err1, err2)
		return
	}
	if math.Abs(potBelow-potAbove) > 1e-3 {
		tst.Errorf("potential not continuous across rmax: below=%v above=%v", potBelow, potAbove)
		return
	}
}

func Test_expansion04(tst *testing.T) {

	chk.PrintTitle("expansion04. negative radius rejected, NaN position skipped not fatal")

	e := newTestExpansion(tst, 0, 2, 2.0)
	_, _, _, _, _, err := e.Evaluate(-1, 0, 0)
	if err != ErrInvalidCoordinate {
		tst.Errorf("expected ErrInvalidCoordinate, got %v", err)
		return
	}

	part := NewCoefficients(e.Basis.Lmax, e.Basis.Nmax)
	p := &particle.Particle{Index: 0, Mass: 1.0, Pos: [3]float64{math.NaN(), 0, 0}}
	e.AccumulateOne(part, p, nil) // must not panic
	chk.Scalar(tst, "NaN particle contributes nothing", 1e-17, part.SumSquares(0), 0)
}
