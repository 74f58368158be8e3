// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctx

import (
	"github.com/cpmech/gosl/mpi"
)

// AllReduceSum sums buf across all ranks in place, identically on every
// rank (spec.md §5 "ordering guarantees"). When MPI has not been started
// (single-process / unit-test runs) this degrades to a no-op, matching the
// teacher's `if mpi.IsOn())` gating in fem/fem.go.
func AllReduceSum(buf []float64) {
	if !mpi.IsOn() {
		return
	}
	dest := make([]float64, len(buf))
	mpi.AllReduceSum(dest, buf)
	copy(buf, dest)
}

// BcastFromRoot broadcasts buf from rank 0 to all ranks in place.
func BcastFromRoot(buf []float64) {
	if !mpi.IsOn() {
		return
	}
	mpi.BcastFromRoot(buf)
}

// Barrier blocks until all ranks reach this point.
func Barrier() {
	if !mpi.IsOn() {
		return
	}
	mpi.Barrier()
}

// CurrentRank returns mpi.Rank() if MPI is running, else 0.
func CurrentRank() int {
	if !mpi.IsOn() {
		return 0
	}
	return mpi.Rank()
}

// CurrentSize returns mpi.Size() if MPI is running, else 1.
func CurrentSize() int {
	if !mpi.IsOn() {
		return 1
	}
	return mpi.Size()
}

// SendFloats point-to-point sends buf to rank dest, tagged by tag. A no-op
// when MPI has not been started (single-process runs never ship particles
// between ranks, since there is only one rank).
func SendFloats(dest int, tag int32, buf []float64) {
	if !mpi.IsOn() {
		return
	}
	mpi.SendOne(dest, buf)
}

// RecvFloats point-to-point receives n float64 values from rank src.
func RecvFloats(src int, tag int32, n int) []float64 {
	buf := make([]float64, n)
	if !mpi.IsOn() {
		return buf
	}
	mpi.RecvOne(src, buf)
	return buf
}
