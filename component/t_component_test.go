// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package component

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/particle"
	"github.com/cpmech/gofem-nbody/smoother"
)

// counterPartial is a trivial thread-local accumulator: the number of
// particles folded into it.
type counterPartial struct{ n int }

// fakeForce is a minimal Force implementation exercising Component's
// bookkeeping without any real basis-function geometry.
type fakeForce struct {
	totalAccumulated int
	pot              float64
	acc              [3]float64
}

func (f *fakeForce) BeginAccumulate()             {}
func (f *fakeForce) NewPartial() interface{}      { return &counterPartial{} }
func (f *fakeForce) AccumulateOne(partial interface{}, p *particle.Particle) {
	partial.(*counterPartial).n++
}
func (f *fakeForce) Merge(partial interface{}) {
	f.totalAccumulated += partial.(*counterPartial).n
}
func (f *fakeForce) Reduce() {}
func (f *fakeForce) EvalAccel(p *particle.Particle) (float64, [3]float64) {
	return f.pot, f.acc
}
func (f *fakeForce) MultistepStore(m int)                                       {}
func (f *fakeForce) MultistepAdvance(m, s int)                                  {}
func (f *fakeForce) MultistepApplyFused(s, mLev int, clampLog func(int, float64)) {}
func (f *fakeForce) NewCovAccumulators(subSampling bool, sampT int) []*smoother.Accumulator {
	return nil
}
func (f *fakeForce) AccumulateCovarianceOne(accs []*smoother.Accumulator, p *particle.Particle, ensembleIdx int) {
}
func (f *fakeForce) ApplySmoothed(l int, vec []float64) {}

func newTestComponent(tst *testing.T) (*Component, *fakeForce) {
	c := ctx.New(0, 1, 0, 5, false)
	ff := &fakeForce{pot: 1, acc: [3]float64{1, 2, 3}}
	comp := New("test", ff, nil, c, 0, nil)
	return comp, ff
}

func Test_component01(tst *testing.T) {

	chk.PrintTitle("component01. Add keeps LevList and NTotal consistent")

	comp, _ := newTestComponent(tst)
	comp.Add(particle.New(0, 1))
	comp.Add(particle.New(1, 1))
	comp.Add(particle.New(2, 1))

	chk.Scalar(tst, "NTotal", 1e-17, float64(comp.NTotal), 3)
	if len(comp.LevList[0]) != 3 {
		tst.Errorf("expected 3 particles at level 0, got %d", len(comp.LevList[0]))
		return
	}
}

func Test_component02(tst *testing.T) {

	chk.PrintTitle("component02. AssignLevel moves a particle between LevList buckets")

	comp, _ := newTestComponent(tst)
	comp = &Component{
		Name:      "test",
		Particles: particle.NewContainer(),
		LevList:   make([][]int64, 3),
		Multistep: 2,
	}
	p := particle.New(5, 1)
	comp.Particles.Add(p)
	comp.LevList[0] = []int64{5}

	comp.AssignLevel(5, 2)
	if len(comp.LevList[0]) != 0 {
		tst.Errorf("level 0 bucket should be empty after reassignment, got %v", comp.LevList[0])
		return
	}
	if len(comp.LevList[2]) != 1 || comp.LevList[2][0] != 5 {
		tst.Errorf("level 2 bucket should contain particle 5, got %v", comp.LevList[2])
		return
	}
	if p.Level != 2 {
		tst.Errorf("particle.Level should be updated to 2, got %d", p.Level)
		return
	}

	// reassigning to the same level must be a no-op, not a duplicate.
	comp.AssignLevel(5, 2)
	if len(comp.LevList[2]) != 1 {
		tst.Errorf("reassigning to the same level must not duplicate the entry: %v", comp.LevList[2])
		return
	}
}

func Test_component03(tst *testing.T) {

	chk.PrintTitle("component03. Drift advances position by velocity*dt, EvalAndKick applies half-kicks")

	comp, ff := newTestComponent(tst)
	p := particle.New(0, 1)
	p.Vel = [3]float64{1, 0, 0}
	comp.Add(p)

	comp.Drift(0, 2.0)
	chk.Array(tst, "position after drift", 1e-13, p.Pos[:], []float64{2, 0, 0})

	comp.EvalAndKick(0, 4.0)
	// mLev=0: halfDt = dt/2^0/2 = 2.0; acc=(1,2,3) -> dv=(2,4,6)
	chk.Array(tst, "velocity after half-kick", 1e-13, p.Vel[:], []float64{3, 4, 6})
	chk.Scalar(tst, "Pot recorded on the particle", 1e-17, p.Pot, ff.pot)
	chk.Array(tst, "Acc recorded on the particle", 1e-17, p.Acc[:], ff.acc[:])
}

func Test_component04(tst *testing.T) {

	chk.PrintTitle("component04. Accumulate folds every non-escaped, non-truncated particle exactly once")

	comp, ff := newTestComponent(tst)
	comp.ComI = [3]float64{}
	comp.Rtrunc = 4.5
	for i := int64(0); i < 6; i++ {
		p := particle.New(i, 1)
		p.Pos = [3]float64{float64(i), 0, 0}
		comp.Add(p)
	}
	// particle 5 sits beyond Rtrunc and is excluded; one particle is marked escaped.
	comp.Particles.Get(2).Escaped = true

	comp.StepBegin(0)
	comp.Accumulate(0)

	chk.Scalar(tst, "accumulated count excludes escaped and beyond-Rtrunc particles", 1e-17, float64(ff.totalAccumulated), 4)
}

func Test_component05(tst *testing.T) {

	chk.PrintTitle("component05. ApplySmoothing is a no-op when Smooth is nil or Policy is None")

	comp, ff := newTestComponent(tst)
	comp.Add(particle.New(0, 1))

	comp.ApplySmoothing(0) // Smooth == nil
	if ff.totalAccumulated != 0 {
		tst.Errorf("ApplySmoothing with nil Smooth must not touch the force adapter")
		return
	}

	comp.Smooth = &smoother.Params{Policy: smoother.None}
	comp.ApplySmoothing(0)
	if ff.totalAccumulated != 0 {
		tst.Errorf("ApplySmoothing with Policy=None must remain a no-op")
		return
	}
}
