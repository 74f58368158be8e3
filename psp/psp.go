// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package psp implements the bit-exact "PSP" particle phase-space file
// format (spec.md §6): a concatenation of dumps, each a master header
// followed by one block per component. This package exists only because
// component.Load/Save and their round-trip invariant need a real codec to
// exercise — the native analysis/CLI tooling around this format is out of
// scope (spec.md §1 Non-goals).
package psp

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cpmech/gofem-nbody/config"
)

// magicUpper is the fixed upper 32 bits of every dump's magic marker; the
// lower 32 bits hold sizeof(float_kind) (4 or 8), per spec.md §6.
const magicUpper uint32 = 0x0c5a1dea

// FloatSize selects the on-disk width of mass/pos/vel/phi fields.
type FloatSize int

const (
	Float32 FloatSize = 4
	Float64 FloatSize = 8
)

// ComponentBlock is one component's header and particle records within a
// Dump.
type ComponentBlock struct {
	Info    string // YAML: { name, parameters, bodyfile, force: { id, parameters } }
	NIAttr  int
	NDAttr  int
	Indexed bool // whether each record carries a stable 64-bit index
	Records []Record
}

// Record is one particle's PSP record.
type Record struct {
	Index int64 // meaningful only if the owning ComponentBlock is Indexed
	Mass  float64
	Pos   [3]float64
	Vel   [3]float64
	Phi   float64
	IAttr []int32
	DAttr []float64
}

// Dump is one phase-space snapshot: a time stamp and one block per
// component.
type Dump struct {
	Time       float64
	Components []ComponentBlock
}

// WriteDump appends one dump to w using the given float width.
func WriteDump(w io.Writer, d *Dump, width FloatSize) error {
	bw := bufio.NewWriter(w)
	magic := uint64(magicUpper)<<32 | uint64(width)
	if err := binary.Write(bw, binary.LittleEndian, magic); err != nil {
		return ioErr(err)
	}
	total := uint32(0)
	for _, c := range d.Components {
		total += uint32(len(c.Records))
	}
	if err := binary.Write(bw, binary.LittleEndian, total); err != nil {
		return ioErr(err)
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(d.Components))); err != nil {
		return ioErr(err)
	}
	if err := binary.Write(bw, binary.LittleEndian, d.Time); err != nil {
		return ioErr(err)
	}
	for _, c := range d.Components {
		info := []byte(c.Info)
		hdr := []uint32{uint32(len(c.Records)), uint32(c.NIAttr), uint32(c.NDAttr), uint32(len(info))}
		if err := binary.Write(bw, binary.LittleEndian, hdr); err != nil {
			return ioErr(err)
		}
		if _, err := bw.Write(info); err != nil {
			return ioErr(err)
		}
		for _, r := range c.Records {
			if c.Indexed {
				if err := binary.Write(bw, binary.LittleEndian, r.Index); err != nil {
					return ioErr(err)
				}
			}
			if err := writeFloats(bw, width, append(append([]float64{r.Mass}, r.Pos[:]...), r.Vel[:]...)); err != nil {
				return err
			}
			if err := writeFloats(bw, width, []float64{r.Phi}); err != nil {
				return err
			}
			if err := binary.Write(bw, binary.LittleEndian, int32(len(r.IAttr))); err != nil {
				return ioErr(err)
			}
			for _, v := range r.IAttr {
				if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
					return ioErr(err)
				}
			}
			if err := writeFloats(bw, width, r.DAttr); err != nil {
				return err
			}
		}
	}
	return ioErr(bw.Flush())
}

// ReadDump reads one dump from r, or io.EOF if none remain.
func ReadDump(r io.Reader) (*Dump, error) {
	var magic uint64
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, err // propagate io.EOF verbatim so callers can loop
	}
	upper := uint32(magic >> 32)
	width := FloatSize(uint32(magic))
	if upper != magicUpper || (width != Float32 && width != Float64) {
		return nil, config.NewError(config.ExitIOFailure, "", "psp: bad dump magic 0x%x", magic)
	}
	var totalParticles, nComp uint32
	var tnow float64
	if err := binary.Read(r, binary.LittleEndian, &totalParticles); err != nil {
		return nil, ioErr(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &nComp); err != nil {
		return nil, ioErr(err)
	}
	if err := binary.Read(r, binary.LittleEndian, &tnow); err != nil {
		return nil, ioErr(err)
	}
	d := &Dump{Time: tnow}
	for c := uint32(0); c < nComp; c++ {
		var hdr [4]uint32
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			return nil, ioErr(err)
		}
		nbod, niattr, ndattr, ninfo := hdr[0], hdr[1], hdr[2], hdr[3]
		infoBuf := make([]byte, ninfo)
		if _, err := io.ReadFull(r, infoBuf); err != nil {
			return nil, ioErr(err)
		}
		indexed, err := infoIndexing(string(infoBuf))
		if err != nil {
			return nil, err
		}
		block := ComponentBlock{Info: string(infoBuf), NIAttr: int(niattr), NDAttr: int(ndattr), Indexed: indexed}
		block.Records = make([]Record, nbod)
		for i := uint32(0); i < nbod; i++ {
			rec := Record{}
			if indexed {
				if err := binary.Read(r, binary.LittleEndian, &rec.Index); err != nil {
					return nil, ioErr(err)
				}
			}
			vals, err := readFloats(r, width, 7)
			if err != nil {
				return nil, err
			}
			rec.Mass = vals[0]
			copy(rec.Pos[:], vals[1:4])
			copy(rec.Vel[:], vals[4:7])
			phi, err := readFloats(r, width, 1)
			if err != nil {
				return nil, err
			}
			rec.Phi = phi[0]
			var niv int32
			if err := binary.Read(r, binary.LittleEndian, &niv); err != nil {
				return nil, ioErr(err)
			}
			rec.IAttr = make([]int32, niv)
			for k := range rec.IAttr {
				if err := binary.Read(r, binary.LittleEndian, &rec.IAttr[k]); err != nil {
					return nil, ioErr(err)
				}
			}
			rec.DAttr, err = readFloats(r, width, int(ndattr))
			if err != nil {
				return nil, err
			}
			block.Records[i] = rec
		}
		d.Components = append(d.Components, block)
	}
	return d, nil
}

func writeFloats(w io.Writer, width FloatSize, vals []float64) error {
	for _, v := range vals {
		var err error
		if width == Float32 {
			err = binary.Write(w, binary.LittleEndian, float32(v))
		} else {
			err = binary.Write(w, binary.LittleEndian, v)
		}
		if err != nil {
			return ioErr(err)
		}
	}
	return nil
}

func readFloats(r io.Reader, width FloatSize, n int) ([]float64, error) {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if width == Float32 {
			var v float32
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, ioErr(err)
			}
			out[i] = float64(v)
		} else {
			var v float64
			if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
				return nil, ioErr(err)
			}
			out[i] = v
		}
	}
	return out, nil
}

// infoIndexing does a minimal scan for `indexing: true` inside a
// component's YAML info string, since the parameter set otherwise lives in
// config.ComponentData. Avoids a second YAML dependency import cycle by
// keeping this check local and string-based; full parameter parsing goes
// through config.Load for the simulation document, not this file-boundary
// format.
func infoIndexing(info string) (bool, error) {
	for i := 0; i+9 <= len(info); i++ {
		if info[i:i+9] == "indexing:" {
			rest := info[i+9:]
			for len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t') {
				rest = rest[1:]
			}
			return len(rest) >= 4 && rest[:4] == "true", nil
		}
	}
	return false, nil
}

func ioErr(err error) error {
	if err == nil {
		return nil
	}
	if err == io.EOF {
		return err
	}
	return config.NewError(config.ExitIOFailure, "", "psp: %v", err)
}
