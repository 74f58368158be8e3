// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package component

import (
	"github.com/cpmech/gofem-nbody/config"
	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/particle"
)

// ship describes one interval of particles moving from rank From to rank
// To, per the two-vector merge algorithm (spec.md §4.6).
type ship struct {
	From, To int
	Count    int64
}

// LoadBalance recomputes the desired per-rank cumulative counts from rate
// (a per-rank weight vector, nil for uniform-by-count) and ships particles
// between ranks so each rank's final local count matches its target,
// following the "two-vector merge": walk the current and desired
// cumulative-count sequences simultaneously; every interval where the
// current owner i differs from the desired owner j generates a ship of
// particles from i to j, taken from the high end of i's key-sorted list
// when j > i, the low end when j < i (spec.md §4.6).
func (o *Component) LoadBalance(rate []float64, niattr, ndattr int) error {
	numRanks := o.Ctx.NumRanks

	// recover the true current per-rank boundaries via a per-rank indicator
	// vector, non-zero only at this rank's own slot, summed by AllReduceSum.
	perRank := make([]float64, numRanks)
	perRank[o.Ctx.Rank] = float64(o.Particles.Len())
	ctx.AllReduceSum(perRank)

	current := make([]int64, numRanks+1)
	for i := 0; i < numRanks; i++ {
		current[i+1] = current[i] + int64(perRank[i])
	}
	grandTotal := current[numRanks]

	desired := make([]int64, numRanks+1)
	if rate == nil {
		for i := 0; i < numRanks; i++ {
			desired[i+1] = grandTotal * int64(i+1) / int64(numRanks)
		}
	} else {
		sum := 0.0
		for _, r := range rate {
			sum += r
		}
		acc := 0.0
		for i := 0; i < numRanks; i++ {
			acc += rate[i]
			desired[i+1] = int64(float64(grandTotal) * acc / sum)
		}
		desired[numRanks] = grandTotal
	}

	ships := mergeShips(current, desired)

	sorted := o.Particles.Ordered()
	lo, hi := 0, len(sorted)-1

	for _, s := range ships {
		if s.From == o.Ctx.Rank {
			var batch []*particle.Particle
			if s.To > s.From {
				for k := int64(0); k < s.Count && hi >= lo; k++ {
					batch = append(batch, sorted[hi])
					hi--
				}
			} else {
				for k := int64(0); k < s.Count && lo <= hi; k++ {
					batch = append(batch, sorted[lo])
					lo++
				}
			}
			sendBatch(batch, s.To, niattr, ndattr)
			for _, p := range batch {
				o.Particles.Remove(p.Index)
			}
		} else if s.To == o.Ctx.Rank {
			batch := recvBatch(s.From, int(s.Count), niattr, ndattr)
			for _, p := range batch {
				o.Particles.Add(p)
			}
		}
	}

	o.rebuildLevList()
	o.NTotal = int64(o.Particles.Len())

	first := desired[o.Ctx.Rank]
	last := desired[o.Ctx.Rank+1] - 1
	if last >= first {
		if err := o.Particles.CheckSequence(first, last); err != nil {
			return config.NewError(config.ExitInvariantViolation, "", "component %q: load balance sequence check failed: %v", o.Name, err)
		}
	}
	copy(o.NbodiesIndex, desired)
	return nil
}

// mergeShips walks the current and desired cumulative-boundary sequences
// simultaneously, emitting a ship for every sub-interval whose current
// owner differs from its desired owner.
func mergeShips(current, desired []int64) []ship {
	var ships []ship
	ci, di := 1, 1
	x := int64(0)
	for ci < len(current) && di < len(desired) {
		y := minI64(current[ci], desired[di])
		if y > x {
			from := ci - 1
			to := di - 1
			if from != to {
				ships = append(ships, ship{From: from, To: to, Count: y - x})
			}
			x = y
		}
		if current[ci] == y {
			ci++
		}
		if desired[di] == y {
			di++
		}
	}
	return ships
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func sendBatch(batch []*particle.Particle, dest int, niattr, ndattr int) {
	n := particle.EncodedLen(niattr, ndattr)
	flat := make([]float64, 1+len(batch)*n)
	flat[0] = float64(len(batch))
	for i, p := range batch {
		p.Encode(flat[1+i*n : 1+(i+1)*n])
	}
	ctx.SendFloats(dest, 0, flat)
}

func recvBatch(src int, count int, niattr, ndattr int) []*particle.Particle {
	n := particle.EncodedLen(niattr, ndattr)
	flat := ctx.RecvFloats(src, 0, 1+count*n)
	out := make([]*particle.Particle, count)
	for i := 0; i < count; i++ {
		out[i] = particle.Decode(flat[1+i*n:1+(i+1)*n], niattr, ndattr)
	}
	return out
}

func (o *Component) rebuildLevList() {
	for m := range o.LevList {
		o.LevList[m] = o.LevList[m][:0]
	}
	o.Particles.Each(func(p *particle.Particle) {
		o.LevList[p.Level] = append(o.LevList[p.Level], p.Index)
	})
}
