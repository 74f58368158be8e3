// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctx implements SimulationContext, replacing the legacy source's
// module-level mutable globals (myid, numprocs, tnow, multistep, global
// step counters) per spec.md §9's redesign flag. YAML-parsing entry points
// and the driver take a *Context by reference and write into the
// components they create.
package ctx

import (
	"github.com/cpmech/gofem-nbody/diag"
)

// Context carries per-run mutable simulation state that the legacy source
// kept as package-level globals.
type Context struct {
	Rank     int // this rank's MPI id ("myid")
	NumRanks int // total ranks ("numprocs")
	Distr    bool

	Tnow      float64 // current simulation time
	Step      int     // outer step counter
	Substep   int     // sub-step tick counter ("s" in spec.md §4.5)
	Multistep int     // maximum multistep level

	Diag *diag.Stream
}

// New returns a Context for the given rank/size, with a diagnostic stream
// rate-limited to limit messages per distinct key.
func New(rank, numRanks int, multistep, diagLimit int, verbose bool) *Context {
	return &Context{
		Rank:      rank,
		NumRanks:  numRanks,
		Distr:     numRanks > 1,
		Multistep: multistep,
		Diag:      diag.NewStream(diagLimit, verbose),
	}
}

// IsRoot reports whether this context is rank 0.
func (o *Context) IsRoot() bool { return o.Rank == 0 }

// AdvanceSubstep increments the sub-step tick.
func (o *Context) AdvanceSubstep() { o.Substep++ }
