// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coeffile implements the coefficient-file checkpoint format of
// spec.md §6: a small header followed by a cosine block per azimuthal
// order m (and a sine block for m >= 1), used by driver to persist fused
// coefficients between steps.
package coeffile

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cpmech/gofem-nbody/config"
	"github.com/cpmech/gofem-nbody/cylinder"
)

// File holds one time-stamped coefficient snapshot. Cos has length Mmax+1;
// Sin has length Mmax+1 with Sin[0] always nil (no sine term for m=0).
type File struct {
	Time       float64
	Mmax, Nmax int
	Cos        [][]float64
	Sin        [][]float64
}

// FromCylCoefficients converts a cylinder.CylCoefficients snapshot into the
// on-disk shape.
func FromCylCoefficients(t float64, c *cylinder.CylCoefficients) *File {
	f := &File{Time: t, Mmax: c.Mmax, Nmax: c.Norder}
	f.Cos = make([][]float64, c.Mmax+1)
	f.Sin = make([][]float64, c.Mmax+1)
	for m := 0; m <= c.Mmax; m++ {
		f.Cos[m] = append([]float64(nil), c.A[cylinder.LIndex(m, false)]...)
		if m > 0 {
			f.Sin[m] = append([]float64(nil), c.A[cylinder.LIndex(m, true)]...)
		}
	}
	return f
}

// ToCylCoefficients writes f back into an existing CylCoefficients of
// matching shape.
func (f *File) ToCylCoefficients(c *cylinder.CylCoefficients) {
	for m := 0; m <= f.Mmax; m++ {
		copy(c.A[cylinder.LIndex(m, false)], f.Cos[m])
		if m > 0 {
			copy(c.A[cylinder.LIndex(m, true)], f.Sin[m])
		}
	}
}

// Write appends f to w in the spec.md §6 layout: { time f64, mmax i32,
// nmax i32 }, then for m in [0,mmax] a cosine block of nmax f64, then for
// m in [1,mmax] a sine block of nmax f64.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, f.Time); err != nil {
		return ioErr(err)
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(f.Mmax)); err != nil {
		return ioErr(err)
	}
	if err := binary.Write(bw, binary.LittleEndian, int32(f.Nmax)); err != nil {
		return ioErr(err)
	}
	for m := 0; m <= f.Mmax; m++ {
		if err := binary.Write(bw, binary.LittleEndian, f.Cos[m]); err != nil {
			return ioErr(err)
		}
	}
	for m := 1; m <= f.Mmax; m++ {
		if err := binary.Write(bw, binary.LittleEndian, f.Sin[m]); err != nil {
			return ioErr(err)
		}
	}
	return ioErr(bw.Flush())
}

// Read reads one coefficient snapshot from r.
func Read(r io.Reader) (*File, error) {
	f := &File{}
	if err := binary.Read(r, binary.LittleEndian, &f.Time); err != nil {
		return nil, err // propagate io.EOF verbatim
	}
	var mmax, nmax int32
	if err := binary.Read(r, binary.LittleEndian, &mmax); err != nil {
		return nil, ioErr(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nmax); err != nil {
		return nil, ioErr(err)
	}
	f.Mmax, f.Nmax = int(mmax), int(nmax)
	f.Cos = make([][]float64, f.Mmax+1)
	f.Sin = make([][]float64, f.Mmax+1)
	for m := 0; m <= f.Mmax; m++ {
		f.Cos[m] = make([]float64, f.Nmax)
		if err := binary.Read(r, binary.LittleEndian, f.Cos[m]); err != nil {
			return nil, ioErr(err)
		}
	}
	for m := 1; m <= f.Mmax; m++ {
		f.Sin[m] = make([]float64, f.Nmax)
		if err := binary.Read(r, binary.LittleEndian, f.Sin[m]); err != nil {
			return nil, ioErr(err)
		}
	}
	return f, nil
}

func ioErr(err error) error {
	if err == nil || err == io.EOF {
		return err
	}
	return config.NewError(config.ExitIOFailure, "", "coeffile: %v", err)
}
