// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package multistep

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

// scalarCoeffs is the smallest possible Coeffs[T] implementation, used to
// drive the state machine with hand-checkable arithmetic.
type scalarCoeffs struct{ v float64 }

func (c *scalarCoeffs) Zero() { c.v = 0 }
func (c *scalarCoeffs) AddFrom(src *scalarCoeffs, sign float64) {
	c.v += sign * src.v
}

func newScalar() *scalarCoeffs { return &scalarCoeffs{} }

func Test_buffers01(tst *testing.T) {

	chk.PrintTitle("buffers01. Next enters Accumulating and sets dstepN from interval")

	b := New[*scalarCoeffs](0, newScalar, []int{5})

	next := b.Next(0)
	if b.levels[0].st != accumulating {
		tst.Errorf("Next should enter the accumulating state")
		return
	}
	chk.Scalar(tst, "dstepN set from interval", 1e-17, float64(b.levels[0].dstepN), 5)
	chk.Scalar(tst, "fresh Next buffer starts at zero", 1e-17, next.v, 0)

	// calling Next again must not reset state or reallocate.
	next.v = 3
	again := b.Next(0)
	chk.Scalar(tst, "Next is idempotent once accumulating", 1e-17, again.v, 3)
}

func Test_buffers02(tst *testing.T) {

	chk.PrintTitle("buffers02. Advance swaps last/next only at the sub-step boundary")

	b := New[*scalarCoeffs](0, newScalar, []int{4})
	next := b.Next(0)
	next.v = 7

	b.Advance(0, 3) // s=3 < dstepN=4: no swap yet
	last, cur := b.Level(0)
	chk.Scalar(tst, "last unchanged before boundary", 1e-17, last.v, 0)
	chk.Scalar(tst, "next unchanged before boundary", 1e-17, cur.v, 7)

	b.Advance(0, 4) // s=4 == dstepN: swap
	last, cur = b.Level(0)
	chk.Scalar(tst, "last becomes the old next after swap", 1e-17, last.v, 7)
	chk.Scalar(tst, "next is freshly zeroed after swap", 1e-17, cur.v, 0)
}

func Test_buffers03(tst *testing.T) {

	chk.PrintTitle("buffers03. Fused matches the alpha-weighted formula by hand")

	b := New[*scalarCoeffs](1, newScalar, []int{6, 6})

	// level 0 is interpolated (m < mLev); set its last/next directly via
	// the accumulate-then-advance path so dstepL/dstepN are populated.
	n0 := b.Next(0)
	n0.v = 12
	b.Advance(0, 6) // last=12 (from the pre-swap zero next... no: swap puts old next into last)

	// after the first advance: last=12 (old next), next=0, dstepL=6, dstepN=12.
	n0 = b.Next(0)
	n0.v = 18 // accumulate the second window's value

	// level 1 is the leading level (m >= mLev): only its "next" matters.
	n1 := b.Next(1)
	n1.v = 100

	var loggedM int = -1
	var loggedAlpha float64
	out := b.Fused(9, 1, func(m int, alpha float64) {
		loggedM, loggedAlpha = m, alpha
	})

	// level 0: denom = dstepN-dstepL = 12-6 = 6, alpha = (9-6)/6 = 0.5
	// contribution = 0.5*last(12) + 0.5*next(18) = 15
	// level 1 (>=mLev): contribution = next(100)
	chk.Scalar(tst, "Fused sums interpolated + leading-level contributions", 1e-12, out.v, 15+100)
	if loggedM != -1 {
		tst.Errorf("clampLog should not fire for an in-range alpha, got m=%d alpha=%v", loggedM, loggedAlpha)
		return
	}
}

func Test_buffers04(tst *testing.T) {

	chk.PrintTitle("buffers04. Fused clamps and reports out-of-range alpha")

	b := New[*scalarCoeffs](0, newScalar, []int{4})
	n0 := b.Next(0)
	n0.v = 5
	b.Advance(0, 4)
	n0 = b.Next(0)
	n0.v = 9

	var reported []float64
	out := b.Fused(20, 1, func(m int, alpha float64) {
		reported = append(reported, alpha)
	})

	// s=20 is far past dstepN=8 (dstepL=4, interval=4): raw alpha=(20-4)/4=4, clamped to 1.
	chk.Scalar(tst, "clamped alpha uses last only", 1e-17, out.v, 5)
	if len(reported) != 1 {
		tst.Errorf("expected exactly one clampLog call, got %d", len(reported))
		return
	}
	chk.Scalar(tst, "reported raw alpha is unclamped", 1e-17, reported[0], 4)
}

func Test_buffers05(tst *testing.T) {

	chk.PrintTitle("buffers05. Finalize freezes levels so further Advance is a no-op")

	b := New[*scalarCoeffs](0, newScalar, []int{2})
	n0 := b.Next(0)
	n0.v = 1
	b.Finalize()

	b.Advance(0, 100) // must not panic or swap: state is drained, not accumulating
	last, cur := b.Level(0)
	chk.Scalar(tst, "last untouched after Finalize", 1e-17, last.v, 0)
	chk.Scalar(tst, "next untouched after Finalize", 1e-17, cur.v, 1)
}
