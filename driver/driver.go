// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package driver implements the outer time-stepping loop (C7 of spec.md
// §2/§4.7): for every multistep level, accumulate/reduce/smooth each
// component's coefficients, evaluate forces and advance particles with a
// kick-drift-kick leapfrog, then periodically load-balance and checkpoint.
// This mirrors the stage loop in the teacher's fem.FEM.Run: a fixed outer
// step count, a per-step diagnostic summary, and a checkpoint writer gated
// by a configured interval.
package driver

import (
	"os"

	"github.com/cpmech/gofem-nbody/coeffile"
	"github.com/cpmech/gofem-nbody/component"
	"github.com/cpmech/gofem-nbody/config"
	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gosl/io"
)

// Driver owns one simulation's components and its outer-loop schedule.
type Driver struct {
	Ctx        *ctx.Context
	Components []*component.Component

	Dt float64 // outer step size

	LoadBalanceEvery int    // outer steps between load_balance()/reset_level_lists(); 0 disables
	CheckpointEvery  int    // outer steps between coefficient checkpoints; 0 disables
	CheckpointDir    string // directory for coefficient checkpoint files

	NSteps int // total outer steps to run

	Verbose bool
}

// RunStep advances the simulation by one outer step of size d.Dt, following
// spec.md §4.7's per-level sub-stepping: level m_lev runs 2^m_lev sub-steps
// within the outer step, each one accumulating/reducing/(optionally
// smoothing) coefficients, then evaluating and kick-drift-kicking every
// particle at that level or deeper.
func (d *Driver) RunStep() error {
	for mLev := 0; mLev <= d.Ctx.Multistep; mLev++ {
		nSub := 1 << uint(mLev)
		dtSub := d.Dt / float64(nSub)
		for s := 0; s < nSub; s++ {
			d.Ctx.AdvanceSubstep()
			tick := d.Ctx.Substep

			for _, c := range d.Components {
				c.StepBegin(mLev)
				c.Accumulate(mLev)
				c.StepEnd(mLev)
				c.AdvanceMultistep(mLev, tick)
				c.ApplySmoothing(mLev)
				c.PrepareEvaluation(tick, mLev)
			}

			for _, c := range d.Components {
				c.EvalAndKick(mLev, d.Dt)
				c.Drift(mLev, dtSub)
				c.EvalAndKick(mLev, d.Dt)
				c.FixPositions(mLev)
			}
		}
	}
	d.Ctx.Tnow += d.Dt
	d.Ctx.Step++
	return nil
}

// Run advances the simulation for d.NSteps outer steps, interleaving
// load-balance and checkpoint passes at their configured intervals (spec.md
// §4.7 steps 2 and 3).
func (d *Driver) Run() error {
	for i := 0; i < d.NSteps; i++ {
		if err := d.RunStep(); err != nil {
			return err
		}
		if d.Verbose && d.Ctx.IsRoot() {
			io.Pf("step %d  t=%.6g\n", d.Ctx.Step, d.Ctx.Tnow)
		}
		if d.LoadBalanceEvery > 0 && d.Ctx.Step%d.LoadBalanceEvery == 0 {
			for _, c := range d.Components {
				if err := c.LoadBalance(nil, c.NIAttr, c.NDAttr); err != nil {
					return err
				}
				ResetLevelLists(c)
			}
		}
		if d.CheckpointEvery > 0 && d.Ctx.Step%d.CheckpointEvery == 0 && d.Ctx.IsRoot() {
			if err := d.writeCheckpoint(); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeCheckpoint persists each cylindrical component's fused coefficients
// (spec.md §6 coefficient file). Spherical components have no equivalent
// on-disk format in scope (§1 Non-goals exclude a general analysis/CLI
// tool); their coefficients live only in the multistep buffers.
func (d *Driver) writeCheckpoint() error {
	if d.CheckpointDir == "" {
		return nil
	}
	if err := os.MkdirAll(d.CheckpointDir, 0o755); err != nil {
		return config.NewError(config.ExitIOFailure, "", "driver: cannot create checkpoint dir: %v", err)
	}
	for _, c := range d.Components {
		cf, ok := c.Force.(*component.CylinderForce)
		if !ok {
			continue
		}
		path := d.CheckpointDir + "/" + c.Name + ".coef"
		f, err := os.Create(path)
		if err != nil {
			return config.NewError(config.ExitIOFailure, "", "driver: cannot create %q: %v", path, err)
		}
		file := coeffile.FromCylCoefficients(d.Ctx.Tnow, cf.EOF.Coeffs)
		err = coeffile.Write(f, file)
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// ResetLevelLists reassigns every particle back to level 0, the "reset"
// counterpart to load_balance()'s periodic call (spec.md §4.7 step 2).
func ResetLevelLists(c *component.Component) {
	for lev := 1; lev <= c.Multistep; lev++ {
		for _, idx := range append([]int64(nil), c.LevList[lev]...) {
			c.AssignLevel(idx, 0)
		}
	}
}
