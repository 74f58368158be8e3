// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_particle01(tst *testing.T) {

	chk.PrintTitle("particle01. Finite rejects NaN/Inf in position or velocity, ignores Acc")

	p := New(1, 2.5)
	if !p.Finite() {
		tst.Errorf("a fresh zero-valued particle must be finite")
		return
	}

	p.Pos[1] = math.NaN()
	if p.Finite() {
		tst.Errorf("NaN position must not be finite")
		return
	}
	p.Pos[1] = 0

	p.Vel[2] = math.Inf(1)
	if p.Finite() {
		tst.Errorf("infinite velocity must not be finite")
		return
	}
	p.Vel[2] = 0

	p.Acc[0] = math.NaN()
	if !p.Finite() {
		tst.Errorf("Finite is only specified over position and velocity, Acc must not affect it")
		return
	}
}

func Test_particle02(tst *testing.T) {

	chk.PrintTitle("particle02. Clone is a deep copy: mutating the clone's slices leaves the original untouched")

	p := New(7, 1.0)
	p.IAttr = []int32{1, 2, 3}
	p.DAttr = []float64{0.1, 0.2}

	q := p.Clone()
	q.IAttr[0] = 99
	q.DAttr[0] = 9.9
	q.Pos[0] = 5

	chk.Scalar(tst, "original IAttr untouched", 1e-17, float64(p.IAttr[0]), 1)
	chk.Scalar(tst, "original DAttr untouched", 1e-17, p.DAttr[0], 0.1)
	chk.Scalar(tst, "original Pos untouched", 1e-17, p.Pos[0], 0)
	chk.Scalar(tst, "clone keeps index", 1e-17, float64(q.Index), float64(p.Index))
}

func Test_particle03(tst *testing.T) {

	chk.PrintTitle("particle03. Radius matches the Euclidean distance to an arbitrary origin")

	p := New(0, 1.0)
	p.Pos = [3]float64{3, 4, 0}
	chk.Scalar(tst, "Radius from zero", 1e-13, p.Radius([3]float64{}), 5)
	chk.Scalar(tst, "Radius from offset origin", 1e-13, p.Radius([3]float64{3, 0, 0}), math.Hypot(4, 0))
}

func Test_container01(tst *testing.T) {

	chk.PrintTitle("container01. Add/Remove/Get/Len and ascending-index ordering")

	c := NewContainer()
	c.Add(New(5, 1))
	c.Add(New(1, 1))
	c.Add(New(3, 1))
	chk.Scalar(tst, "Len", 1e-17, float64(c.Len()), 3)

	ordered := c.Ordered()
	want := []int64{1, 3, 5}
	for i, p := range ordered {
		if p.Index != want[i] {
			tst.Errorf("Ordered()[%d].Index = %d, want %d", i, p.Index, want[i])
			return
		}
	}

	c.Remove(3)
	chk.Scalar(tst, "Len after Remove", 1e-17, float64(c.Len()), 2)
	if c.Get(3) != nil {
		tst.Errorf("removed particle must not be retrievable")
		return
	}
	if c.Get(1) == nil {
		tst.Errorf("non-removed particle must still be retrievable")
		return
	}
}

func Test_container02(tst *testing.T) {

	chk.PrintTitle("container02. Add panics on a duplicate index")

	defer func() {
		if recover() == nil {
			tst.Errorf("expected a panic on duplicate index")
		}
	}()
	c := NewContainer()
	c.Add(New(1, 1))
	c.Add(New(1, 1))
}

func Test_container03(tst *testing.T) {

	chk.PrintTitle("container03. CheckSequence detects gaps, duplicates-free contiguous ranges pass")

	c := NewContainer()
	for _, idx := range []int64{10, 11, 12, 13} {
		c.Add(New(idx, 1))
	}
	if err := c.CheckSequence(10, 13); err != nil {
		tst.Errorf("contiguous sequence should pass: %v", err)
		return
	}
	if err := c.CheckSequence(10, 14); err == nil {
		tst.Errorf("wrong bounds should fail CheckSequence")
		return
	}

	c2 := NewContainer()
	c2.Add(New(10, 1))
	c2.Add(New(12, 1)) // gap at 11
	c2.Add(New(13, 1))
	if err := c2.CheckSequence(10, 13); err == nil {
		tst.Errorf("a gap in the sequence should fail CheckSequence")
		return
	}
}

func Test_codec01(tst *testing.T) {

	chk.PrintTitle("codec01. Encode/Decode round-trips every field including user attributes")

	p := New(42, 3.5)
	p.Pos = [3]float64{1, 2, 3}
	p.Vel = [3]float64{4, 5, 6}
	p.Acc = [3]float64{7, 8, 9}
	p.Pot = -1.5
	p.PotExt = 0.25
	p.Level = 2
	p.Escaped = true
	p.IAttr = []int32{11, 22}
	p.DAttr = []float64{1.1, 2.2, 3.3}

	niattr, ndattr := 2, 3
	buf := make([]float64, EncodedLen(niattr, ndattr))
	p.Encode(buf)
	q := Decode(buf, niattr, ndattr)

	chk.Scalar(tst, "Index", 1e-17, float64(q.Index), float64(p.Index))
	chk.Scalar(tst, "Mass", 1e-17, q.Mass, p.Mass)
	chk.Array(tst, "Pos", 1e-17, q.Pos[:], p.Pos[:])
	chk.Array(tst, "Vel", 1e-17, q.Vel[:], p.Vel[:])
	chk.Array(tst, "Acc", 1e-17, q.Acc[:], p.Acc[:])
	chk.Scalar(tst, "Pot", 1e-17, q.Pot, p.Pot)
	chk.Scalar(tst, "PotExt", 1e-17, q.PotExt, p.PotExt)
	chk.Scalar(tst, "Level", 1e-17, float64(q.Level), float64(p.Level))
	if q.Escaped != p.Escaped {
		tst.Errorf("Escaped did not round-trip: got %v want %v", q.Escaped, p.Escaped)
		return
	}
	if len(q.IAttr) != len(p.IAttr) {
		tst.Errorf("IAttr length mismatch: got %d want %d", len(q.IAttr), len(p.IAttr))
		return
	}
	for i := range p.IAttr {
		if q.IAttr[i] != p.IAttr[i] {
			tst.Errorf("IAttr[%d] = %d, want %d", i, q.IAttr[i], p.IAttr[i])
			return
		}
	}
	chk.Array(tst, "DAttr", 1e-17, q.DAttr, p.DAttr)
}

func Test_codec02(tst *testing.T) {

	chk.PrintTitle("codec02. zero user attributes yield zero-length slices after Decode")

	p := New(1, 1)
	buf := make([]float64, EncodedLen(0, 0))
	p.Encode(buf)
	q := Decode(buf, 0, 0)
	if len(q.IAttr) != 0 || len(q.DAttr) != 0 {
		tst.Errorf("expected empty attribute slices, got IAttr=%v DAttr=%v", q.IAttr, q.DAttr)
		return
	}
	chk.Scalar(tst, "EncodedLen with no attrs", 1e-17, float64(EncodedLen(0, 0)), float64(fixedFields))
}
