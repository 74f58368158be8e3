// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

// fixedFields is the count of always-present float64 slots in the flat
// encoding used to ship particles between ranks (component.LoadBalance):
// index, mass, pos[3], vel[3], acc[3], pot, potext, level, escaped.
const fixedFields = 1 + 1 + 3 + 3 + 3 + 1 + 1 + 1 + 1

// EncodedLen returns the flat float64 slot count for a particle with niattr
// integer and ndattr double user attributes.
func EncodedLen(niattr, ndattr int) int {
	return fixedFields + niattr + ndattr
}

// Encode flattens p into buf (len(buf) == EncodedLen(niattr, ndattr)), the
// wire format component.LoadBalance ships between ranks via MPI
// point-to-point sends.
func (p *Particle) Encode(buf []float64) {
	i := 0
	buf[i] = float64(p.Index)
	i++
	buf[i] = p.Mass
	i++
	for k := 0; k < 3; k++ {
		buf[i] = p.Pos[k]
		i++
	}
	for k := 0; k < 3; k++ {
		buf[i] = p.Vel[k]
		i++
	}
	for k := 0; k < 3; k++ {
		buf[i] = p.Acc[k]
		i++
	}
	buf[i] = p.Pot
	i++
	buf[i] = p.PotExt
	i++
	buf[i] = float64(p.Level)
	i++
	if p.Escaped {
		buf[i] = 1
	} else {
		buf[i] = 0
	}
	i++
	for _, v := range p.IAttr {
		buf[i] = float64(v)
		i++
	}
	for _, v := range p.DAttr {
		buf[i] = v
		i++
	}
}

// Decode rebuilds a Particle from a flat encoding produced by Encode.
func Decode(buf []float64, niattr, ndattr int) *Particle {
	p := &Particle{}
	i := 0
	p.Index = int64(buf[i])
	i++
	p.Mass = buf[i]
	i++
	for k := 0; k < 3; k++ {
		p.Pos[k] = buf[i]
		i++
	}
	for k := 0; k < 3; k++ {
		p.Vel[k] = buf[i]
		i++
	}
	for k := 0; k < 3; k++ {
		p.Acc[k] = buf[i]
		i++
	}
	p.Pot = buf[i]
	i++
	p.PotExt = buf[i]
	i++
	p.Level = int(buf[i])
	i++
	p.Escaped = buf[i] != 0
	i++
	if niattr > 0 {
		p.IAttr = make([]int32, niattr)
		for k := 0; k < niattr; k++ {
			p.IAttr[k] = int32(buf[i])
			i++
		}
	}
	if ndattr > 0 {
		p.DAttr = make([]float64, ndattr)
		for k := 0; k < ndattr; k++ {
			p.DAttr[k] = buf[i]
			i++
		}
	}
	return p
}
