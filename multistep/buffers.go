// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package multistep implements the per-level "last/next" coefficient
// buffers and fused-coefficient interpolation (C5 of spec.md §2/§4.5).
// Buffers is generic over the concrete coefficient container
// (*sphere.Coefficients for C2, *cylinder.CylCoefficients for C3) so both
// geometries wrap through the same state machine, per spec.md §2's "Wraps
// (C2) and (C3)".
package multistep

// Coeffs is the minimal capability multistep needs from a coefficient
// container: zero it, and add another instance of the same type into it
// scaled by a sign. Both sphere.Coefficients and cylinder.CylCoefficients
// already expose exactly this shape.
type Coeffs[T any] interface {
	Zero()
	AddFrom(src T, sign float64)
}

// state is the per-level lifecycle state machine of spec.md §4.5.
type state int

const (
	uninitialized state = iota
	accumulating
	drained
)

// level holds one multistep level's last/next snapshots and sync bookkeeping.
type level[T Coeffs[T]] struct {
	st       state
	last     T // accum_*L
	next     T // accum_*N
	dstepL   int
	dstepN   int
	interval int
}

// Buffers owns the per-level buffers for one expansion's coefficient
// storage (spec.md §3 MultistepBuffers).
type Buffers[T Coeffs[T]] struct {
	newFn  func() T
	levels []*level[T]
}

// New allocates buffers for levels [0, multistep], each with the given
// sync interval (number of sub-steps between L/N swaps). newFn must return
// a freshly zeroed coefficient container of the caller's concrete type.
func New[T Coeffs[T]](multistep int, newFn func() T, intervals []int) *Buffers[T] {
	b := &Buffers[T]{newFn: newFn}
	b.levels = make([]*level[T], multistep+1)
	for m := range b.levels {
		iv := 1
		if m < len(intervals) {
			iv = intervals[m]
		}
		b.levels[m] = &level[T]{
			st:       uninitialized,
			last:     newFn(),
			next:     newFn(),
			interval: iv,
		}
	}
	return b
}

// Next returns the mutable "new" accumulator for level M, entering the
// Accumulating state on first use.
func (o *Buffers[T]) Next(m int) T {
	lv := o.levels[m]
	if lv.st == uninitialized {
		lv.st = accumulating
		lv.dstepN = lv.interval
	}
	return lv.next
}

// Advance checks whether sub-step s has crossed level M's dstepN boundary;
// if so it swaps L<->N, advances dstepL/dstepN and zeroes the new N buffer.
// This sub-step tick is the sole swap trigger (spec.md §9 decision; see
// SPEC_FULL.md §5 decision #3), never an implicit side effect of a query.
func (o *Buffers[T]) Advance(m, s int) {
	lv := o.levels[m]
	if lv.st != accumulating {
		return
	}
	if s < lv.dstepN {
		return
	}
	lv.last, lv.next = lv.next, lv.last
	lv.dstepL = lv.dstepN
	lv.dstepN = lv.dstepL + lv.interval
	lv.next.Zero()
}

// Finalize freezes all level buffers.
func (o *Buffers[T]) Finalize() {
	for _, lv := range o.levels {
		lv.st = drained
	}
}

// Fused returns the coefficient matrix A_fused used for force evaluation at
// sub-step s with leading level mLev, per spec.md §3's formula:
//
//	A_fused = Σ_{M<mLev} [α_M L_M + (1-α_M) N_M] + Σ_{M>=mLev} N_M
//	α_M = clamp((s - dstepL[M]) / (dstepN[M] - dstepL[M]), 0, 1)
//
// α_M outside [0,1] is clamped and reported via clampLog (nil-safe).
func (o *Buffers[T]) Fused(s, mLev int, clampLog func(m int, alpha float64)) T {
	out := o.newFn()
	for m, lv := range o.levels {
		if m < mLev {
			var alpha float64
			denom := lv.dstepN - lv.dstepL
			if denom != 0 {
				alpha = float64(s-lv.dstepL) / float64(denom)
			}
			raw := alpha
			if alpha < 0 {
				alpha = 0
			}
			if alpha > 1 {
				alpha = 1
			}
			if (raw < 0 || raw > 1) && clampLog != nil {
				clampLog(m, raw)
			}
			out.AddFrom(lv.last, alpha)
			out.AddFrom(lv.next, 1-alpha)
		} else {
			out.AddFrom(lv.next, 1)
		}
	}
	return out
}

// Level exposes the raw last/next pair for level m, e.g. for differential
// updates applied directly by component.Component.
func (o *Buffers[T]) Level(m int) (last, next T) {
	lv := o.levels[m]
	return lv.last, lv.next
}
