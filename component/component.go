// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package component

import (
	"math"
	"sort"

	"github.com/cpmech/gofem-nbody/config"
	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/diag"
	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/pool"
	"github.com/cpmech/gofem-nbody/smoother"
)

// Component owns one population of particles, its force expansion, and the
// per-level bookkeeping described in spec.md §3/§4.6.
type Component struct {
	Name  string
	Cfg   *config.ComponentData
	Force Force
	Ctx   *ctx.Context
	Diag  *diag.Stream

	Particles *particle.Container

	Rtrunc float64 // particles beyond this radius are frozen: excluded from accumulation, still kicked
	Rcom   float64 // escape threshold, measured from comI+Center
	Center [3]float64
	Indexing bool
	EscapeAttrIdx int // index into p.IAttr flagged 0 -> 1 on escape; -1 disables escape handling

	NIAttr, NDAttr int // per-particle attribute widths, set by LoadRecords

	Multistep int
	LevList   [][]int64 // LevList[level] = local particle indices currently at that level

	ComI, CovI [3]float64 // fixed at load time

	PerLevelCom  [][3]float64 // length Multistep+1
	PerLevelCov  [][3]float64
	PerLevelAcc  [][3]float64
	PerLevelMass []float64

	Com0, Cov0, Acc0 [3]float64

	NbodiesIndex []int64 // cumulative upper bound of particle indices owned by rank i, length NumRanks+1
	NTotal       int64

	// Smooth is nil when Hall/PCA smoothing is disabled for this component
	// (the "pca" parameter absent or policy None); SubSampling/SampT mirror
	// the "subsamp"/"samplesz" parameters read at construction time
	// (spec.md §4.4, §6).
	Smooth      *smoother.Params
	SubSampling bool
	SampT       int

	Pool *pool.Pool
}

// New returns an empty Component ready for Load. The multistep buffers
// (genericized per geometry) and Hall/PCA parameters are attached to force
// and smooth respectively by the caller, since both depend on the concrete
// coefficient container type (spec.md §2 "Wraps (C2) and (C3)").
func New(name string, force Force, cfg *config.ComponentData, c *ctx.Context, multistepLevels int, workerPool *pool.Pool) *Component {
	o := &Component{
		Name: name, Force: force, Cfg: cfg, Ctx: c, Diag: c.Diag,
		Particles:     particle.NewContainer(),
		Multistep:     multistepLevels,
		EscapeAttrIdx: -1,
		Pool:          workerPool,
	}
	o.LevList = make([][]int64, multistepLevels+1)
	o.PerLevelCom = make([][3]float64, multistepLevels+1)
	o.PerLevelCov = make([][3]float64, multistepLevels+1)
	o.PerLevelAcc = make([][3]float64, multistepLevels+1)
	o.PerLevelMass = make([]float64, multistepLevels+1)
	o.NbodiesIndex = make([]int64, c.NumRanks+1)
	return o
}

// Add inserts a particle at its current multistep level (p.Level) and keeps
// LevList consistent.
func (o *Component) Add(p *particle.Particle) {
	o.Particles.Add(p)
	o.LevList[p.Level] = append(o.LevList[p.Level], p.Index)
	o.NTotal++
}

// AssignLevel moves particle idx from its current LevList entry to level
// newLevel, queuing the multistep differential update expected by
// §4.5/§4.6 ("optionally reassign particle levels... apply queued
// differential updates"). The actual coefficient delta is the caller's
// responsibility (driver.go), since it needs the embedded expansion type.
func (o *Component) AssignLevel(idx int64, newLevel int) {
	p := o.Particles.Get(idx)
	if p == nil {
		return
	}
	old := p.Level
	if old == newLevel {
		return
	}
	o.LevList[old] = removeIndex(o.LevList[old], idx)
	o.LevList[newLevel] = append(o.LevList[newLevel], idx)
	p.Level = newLevel
}

func removeIndex(list []int64, idx int64) []int64 {
	for i, v := range list {
		if v == idx {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// StepBegin zeroes per-level accumulators for levels >= mLev (spec.md
// §4.7 step 1.1) and begins a fresh accumulation pass.
func (o *Component) StepBegin(mLev int) {
	o.Force.BeginAccumulate()
	for m := mLev; m <= o.Multistep; m++ {
		o.PerLevelMass[m] = 0
		o.PerLevelCom[m] = [3]float64{}
		o.PerLevelCov[m] = [3]float64{}
		o.PerLevelAcc[m] = [3]float64{}
	}
}

// Accumulate runs the force expansion's accumulation over every particle at
// levels >= mLev, using the worker pool's thread-local partials merged in
// worker-id order (spec.md §4.2/§5 "per-thread partials are summed in
// thread-id order").
func (o *Component) Accumulate(mLev int) {
	var indices []int64
	for m := mLev; m <= o.Multistep; m++ {
		indices = append(indices, o.LevList[m]...)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	partials := pool.RunIndexed(o.Pool, len(indices), func() interface{} {
		return o.Force.NewPartial()
	}, func(workerPartial interface{}, i int) {
		p := o.Particles.Get(indices[i])
		if p == nil || p.Escaped {
			return
		}
		if o.Rtrunc > 0 && p.Radius(o.ComI) > o.Rtrunc {
			return // frozen: excluded from accumulation, still kicked (spec.md §3)
		}
		o.Force.AccumulateOne(workerPartial, p)
	})
	for _, wp := range partials {
		o.Force.Merge(wp)
	}
}

// StepEnd reduces level mLev's just-accumulated partial into the
// authoritative coefficients and stores a copy into that level's multistep
// "next" buffer (spec.md §4.5/§4.6 "step_end").
func (o *Component) StepEnd(mLev int) {
	o.Force.Reduce()
	o.Force.MultistepStore(mLev)
}

// AdvanceMultistep checks whether sub-step s has crossed level mLev's sync
// boundary and swaps last/next if so (spec.md §4.5).
func (o *Component) AdvanceMultistep(mLev, s int) {
	o.Force.MultistepAdvance(mLev, s)
}

// PrepareEvaluation installs the fused coefficient matrix for sub-step s
// with leading level mLev, ready for EvalAndKick (spec.md §3 A_fused
// formula).
func (o *Component) PrepareEvaluation(s, mLev int) {
	o.Force.MultistepApplyFused(s, mLev, func(m int, alpha float64) {
		o.Diag.Msg("multistep-clamp", "component %q: fusion weight for level %d clamped from %.6g", o.Name, m, alpha)
	})
}

// ApplySmoothing runs the Hall/PCA algorithm over the coefficients
// contributed by particles at levels >= mLev: it re-walks those particles to
// populate one covariance accumulator per harmonic subspace, all-reduces
// each accumulator across ranks, and overwrites the reduced coefficients
// with the smoothed reconstruction (spec.md §4.4). A no-op when smoothing is
// disabled or the policy is None.
func (o *Component) ApplySmoothing(mLev int) {
	if o.Smooth == nil || o.Smooth.Policy == smoother.None {
		return
	}
	accs := o.Force.NewCovAccumulators(o.SubSampling, o.SampT)

	var indices []int64
	for m := mLev; m <= o.Multistep; m++ {
		indices = append(indices, o.LevList[m]...)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	ensemble := 0
	for _, idx := range indices {
		p := o.Particles.Get(idx)
		if p == nil || p.Escaped {
			continue
		}
		if o.Rtrunc > 0 && p.Radius(o.ComI) > o.Rtrunc {
			continue
		}
		o.Force.AccumulateCovarianceOne(accs, p, ensemble)
		ensemble++
	}

	for _, a := range accs {
		if a == nil {
			continue
		}
		if a.SubSampling {
			for _, e := range a.Ensembles {
				ctx.AllReduceSum(e)
			}
		} else {
			ctx.AllReduceSum(a.Mean)
			for i := range a.Cov {
				ctx.AllReduceSum(a.Cov[i])
			}
		}
		scalars := []float64{a.Used, a.Mass}
		ctx.AllReduceSum(scalars)
		a.Used, a.Mass = scalars[0], scalars[1]
		a.Finalize()
	}

	for l, a := range accs {
		if a == nil {
			continue
		}
		res := smoother.Smooth(a, *o.Smooth)
		if res.Clamped {
			o.Diag.Msg("hall-clamp", "component %q: subspace %d smoothing weight clamped outside [0,1]", o.Name, l)
		}
		if res.Skipped || res.Smoothed == nil {
			continue
		}
		o.Force.ApplySmoothed(l, res.Smoothed)
	}
}

// Drift integrates positions of every particle in levlist[>= mLev] forward
// by dt using the current velocity (the position-update half of the
// leapfrog variant; spec.md §4.7 step 1.2). EvalAndKick supplies the
// velocity kicks that bracket this call.
func (o *Component) Drift(mLev int, dt float64) {
	var indices []int64
	for m := mLev; m <= o.Multistep; m++ {
		indices = append(indices, o.LevList[m]...)
	}
	for _, idx := range indices {
		p := o.Particles.Get(idx)
		if p == nil {
			continue
		}
		for k := 0; k < 3; k++ {
			p.Pos[k] += p.Vel[k] * dt
		}
	}
}

// EvalAndKick evaluates the force at every particle in levlist[>= mLev] and
// applies a half-kick of size dt/2^mLev (spec.md §4.7 step 1.2's leapfrog
// variant). Position drift is the driver's responsibility since it depends
// on the outer step's full dt, not just this component's force.
func (o *Component) EvalAndKick(mLev int, dt float64) {
	halfDt := dt / math.Pow(2, float64(mLev)) / 2
	var indices []int64
	for m := mLev; m <= o.Multistep; m++ {
		indices = append(indices, o.LevList[m]...)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	pool.RunIndexed(o.Pool, len(indices), func() interface{} { return nil }, func(_ interface{}, i int) {
		p := o.Particles.Get(indices[i])
		if p == nil || p.Escaped {
			return
		}
		pot, acc := o.Force.EvalAccel(p)
		p.Pot = pot
		p.Acc = acc
		for k := 0; k < 3; k++ {
			p.Vel[k] += acc[k] * halfDt
		}
	})
}
