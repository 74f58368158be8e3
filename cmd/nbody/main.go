// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"os"
	"runtime"

	"github.com/cpmech/gofem-nbody/config"
	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/driver"
	"github.com/cpmech/gofem-nbody/pool"
	"github.com/cpmech/gofem-nbody/psp"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	yaml "gopkg.in/yaml.v3"
)

func main() {
	verbose := true

	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	if mpi.Rank() == 0 {
		io.PfWhite("\nnbody -- parallel biorthogonal-basis N-body integrator\n\n")
	}

	var simPath, dumpPath, checkpointDir string
	var nsteps, loadBalanceEvery, checkpointEvery, diagLimit int
	var dt float64
	var strict bool
	flag.StringVar(&simPath, "sim", "", "simulation YAML document")
	flag.StringVar(&dumpPath, "dump", "", "initial PSP phase-space dump")
	flag.StringVar(&checkpointDir, "checkpoint-dir", "", "directory for coefficient checkpoints")
	flag.IntVar(&nsteps, "nsteps", 1, "number of outer steps to run")
	flag.IntVar(&loadBalanceEvery, "load-balance-every", 0, "outer steps between load-balance passes (0 disables)")
	flag.IntVar(&checkpointEvery, "checkpoint-every", 0, "outer steps between coefficient checkpoints (0 disables)")
	flag.IntVar(&diagLimit, "diag-limit", 20, "diagnostic messages per key before rate-limiting")
	flag.Float64Var(&dt, "dt", 0.01, "outer step size")
	flag.BoolVar(&strict, "strict", false, "reject unrecognized parameter keys")
	flag.Parse()

	if simPath == "" {
		chk.Panic("please provide -sim <file.yaml>\n")
	}

	sim, err := config.Load(simPath, strict)
	if err != nil {
		chk.Panic("%v\n", err)
	}

	maxLevel := 0
	for _, cd := range sim.Components {
		if nlevel, ok := cd.GetInt("nlevel"); ok && nlevel-1 > maxLevel {
			maxLevel = nlevel - 1
		}
	}

	cctx := ctx.New(mpi.Rank(), mpi.Size(), maxLevel, diagLimit, verbose)
	workerPool := pool.New(runtime.NumCPU())
	defer workerPool.Close()

	blocks := map[string]psp.ComponentBlock{}
	if dumpPath != "" {
		f, err := os.Open(dumpPath)
		if err != nil {
			chk.Panic("cannot open dump %q: %v\n", dumpPath, err)
		}
		dump, err := psp.ReadDump(f)
		f.Close()
		if err != nil {
			chk.Panic("cannot read dump %q: %v\n", dumpPath, err)
		}
		cctx.Tnow = dump.Time
		for _, block := range dump.Components {
			var meta struct {
				Name string `yaml:"name"`
			}
			if err := yaml.Unmarshal([]byte(block.Info), &meta); err == nil && meta.Name != "" {
				blocks[meta.Name] = block
			}
		}
	}

	d, err := driver.Build(sim, cctx, workerPool, blocks, dt, nsteps)
	if err != nil {
		chk.Panic("%v\n", err)
	}
	d.LoadBalanceEvery = loadBalanceEvery
	d.CheckpointEvery = checkpointEvery
	d.CheckpointDir = checkpointDir
	d.Verbose = verbose

	if err := d.Run(); err != nil {
		chk.Panic("%v\n", err)
	}
}
