// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cylinder

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_grid01(tst *testing.T) {

	chk.PrintTitle("grid01. Bilinear reproduces exact table values at grid nodes")

	numx, numy := 4, 4
	g := NewGrid(numx, numy, 1, 1, 10, false)

	ny := numy + 1
	table := make([]float64, (numx+1)*ny)
	for i := 0; i <= numx; i++ {
		for j := 0; j <= numy; j++ {
			table[i*ny+j] = float64(10*i + j)
		}
	}

	got := g.Bilinear(table, g.R[2], g.Z[3])
	chk.Scalar(tst, "Bilinear at an exact grid node", 1e-9, got, 23)

	got2 := g.Bilinear(table, g.R[0], g.Z[0])
	chk.Scalar(tst, "Bilinear at the origin node", 1e-9, got2, 0)
}

func Test_grid02(tst *testing.T) {

	chk.PrintTitle("grid02. Bilinear interpolates linearly between two R-adjacent nodes at fixed z")

	numx, numy := 4, 4
	g := NewGrid(numx, numy, 1, 1, 10, false)

	ny := numy + 1
	table := make([]float64, (numx+1)*ny)
	for i := 0; i <= numx; i++ {
		for j := 0; j <= numy; j++ {
			table[i*ny+j] = float64(i) // depends only on the R index
		}
	}

	rMid := 0.5 * (g.R[1] + g.R[2])
	got := g.Bilinear(table, rMid, g.Z[0])
	if got < 1-1e-6 || got > 2+1e-6 {
		tst.Errorf("interpolated value %v should lie between the bracketing node values 1 and 2", got)
		return
	}
}

func Test_grid03(tst *testing.T) {

	chk.PrintTitle("grid03. InGrid follows the r > rmax*sqrt(1/2) cutoff")

	g := NewGrid(4, 4, 1, 1, 10, false)
	cutoff := g.Rmax * 0.7071067811865476 // sqrt(1/2)

	if !g.InGrid(cutoff-0.01, 0) {
		tst.Errorf("a radius just inside the cutoff should be InGrid")
		return
	}
	if g.InGrid(cutoff+0.01, 0) {
		tst.Errorf("a radius just outside the cutoff should not be InGrid")
		return
	}
}
