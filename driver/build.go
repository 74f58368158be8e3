// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package driver

import (
	"math"

	"github.com/cpmech/gofem-nbody/component"
	"github.com/cpmech/gofem-nbody/config"
	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/cylinder"
	"github.com/cpmech/gofem-nbody/multistep"
	"github.com/cpmech/gofem-nbody/pool"
	"github.com/cpmech/gofem-nbody/psp"
	"github.com/cpmech/gofem-nbody/radial"
	"github.com/cpmech/gofem-nbody/smoother"
	"github.com/cpmech/gofem-nbody/sphere"
)

// defaultNumr is the radial tabulation grid size; not one of spec.md §6's
// recognized parameter keys, so it is a fixed construction constant rather
// than a configurable one.
const defaultNumr = 200

// Build constructs one Driver component per entry in sim.Components, wiring
// its force expansion (spherical or cylindrical), multistep buffers and
// Hall/PCA smoother from the component's parameters, then loads its initial
// particle population from blocks (keyed by component name).
func Build(sim *config.Simulation, cctx *ctx.Context, workerPool *pool.Pool, blocks map[string]psp.ComponentBlock, dt float64, nsteps int) (*Driver, error) {
	d := &Driver{Ctx: cctx, Dt: dt, NSteps: nsteps}
	for _, cd := range sim.Components {
		comp, err := buildComponent(cd, cctx, workerPool)
		if err != nil {
			return nil, err
		}
		if block, ok := blocks[cd.Name]; ok {
			comp.LoadRecords(block, nil)
		}
		d.Components = append(d.Components, comp)
	}
	return d, nil
}

func buildComponent(cd *config.ComponentData, cctx *ctx.Context, workerPool *pool.Pool) (*component.Component, error) {
	nlevel, _ := cd.GetInt("nlevel")
	if nlevel < 1 {
		nlevel = 1
	}
	multistepLevels := nlevel - 1

	var force component.Force
	var err error
	switch cd.Force.Id {
	case "sphereSL":
		force, err = buildSphereForce(cd, multistepLevels)
	case "cylinderEOF":
		force, err = buildCylinderForce(cd, multistepLevels)
	default:
		return nil, config.NewError(config.ExitInvalidBasisParams, cd.Force.Id, "driver: component %q: unrecognized force id", cd.Name)
	}
	if err != nil {
		return nil, err
	}

	comp := component.New(cd.Name, force, cd, cctx, multistepLevels, workerPool)
	if rtrunc, ok := cd.Get("rtrunc"); ok {
		comp.Rtrunc = rtrunc
	}
	if rcom, ok := cd.Get("rcom"); ok {
		comp.Rcom = rcom
		comp.EscapeAttrIdx = 0
	}
	if pca, ok := cd.GetBool("pca"); ok && pca {
		comp.Smooth = buildSmootherParams(cd)
		comp.SubSampling, _ = cd.GetBool("subsamp")
		comp.SampT, _ = cd.GetInt("samplesz")
		if comp.SampT < 1 {
			comp.SampT, _ = cd.GetInt("npca")
		}
	}
	return comp, nil
}

func buildSmootherParams(cd *config.ComponentData) *smoother.Params {
	p := &smoother.Params{Policy: smoother.Hall}
	if tkType, ok := cd.GetString("tk_type"); ok {
		switch tkType {
		case "variancecut":
			p.Policy = smoother.VarianceCut
		case "cumulativecut":
			p.Policy = smoother.CumulativeCut
		case "varianceweighted":
			p.Policy = smoother.VarianceWeighted
		case "none":
			p.Policy = smoother.None
		}
	}
	p.Snr, _ = cd.Get("snr")
	p.Hexp, _ = cd.Get("hexp")
	p.Tksmooth, _ = cd.Get("tksmooth")
	p.Tkcum, _ = cd.Get("tkcum")
	p.Eps = 1e-12
	return p
}

func buildSphereForce(cd *config.ComponentData, multistepLevels int) (*component.SphereForce, error) {
	lmax, _ := cd.GetInt("Lmax")
	nmax, _ := cd.GetInt("nmax")
	if nmax < 1 {
		nmax = 1
	}
	rmin, _ := cd.Get("rmin")
	rmax, ok := cd.Get("rmax")
	if !ok || rmax <= rmin {
		rmax = rmin + 1
	}
	cmap, _ := cd.GetBool("cmap")
	scale := rmax
	if scale <= 0 {
		scale = 1
	}

	basis, err := radial.NewBasis(lmax, nmax, defaultNumr, rmin, rmax, cmap, scale, radial.Cubic)
	if err != nil {
		return nil, config.NewError(config.ExitInvalidBasisParams, "", "driver: component %q: %v", cd.Name, err)
	}

	var origin [3]float64
	exp := sphere.New(basis, origin)
	diagSink := sphere.NewDiagSink(nil)
	force := &component.SphereForce{Exp: exp, Diag: diagSink}

	if multistepLevels > 0 {
		intervals := make([]int, multistepLevels+1)
		for m := range intervals {
			intervals[m] = 1 << uint(m)
		}
		force.MS = multistep.New[*sphere.Coefficients](multistepLevels, func() *sphere.Coefficients {
			return sphere.NewCoefficients(basis.Lmax, basis.Nmax)
		}, intervals)
	}
	return force, nil
}

func buildCylinderForce(cd *config.ComponentData, multistepLevels int) (*component.CylinderForce, error) {
	mmax, _ := cd.GetInt("mmax")
	norder, _ := cd.GetInt("norder")
	if norder < 1 {
		norder = 1
	}
	acyl, ok := cd.Get("acyl")
	if !ok || acyl <= 0 {
		acyl = 1
	}
	hcyl, ok := cd.Get("hcyl")
	if !ok || hcyl <= 0 {
		hcyl = acyl
	}
	rmax, ok := cd.Get("rmax")
	if !ok || rmax <= 0 {
		rmax = 10 * acyl
	}
	logr, _ := cd.GetBool("logr")
	numx, numt := 64, 64

	grid := cylinder.NewGrid(numx, numt, acyl, hcyl, rmax, logr)

	lmax, _ := cd.GetInt("Lmax")
	nmax, _ := cd.GetInt("nmax")
	if nmax < 1 {
		nmax = norder
	}
	rmin, _ := cd.Get("rmin")
	sphRmax := rmax * 2
	sphBasis, err := radial.NewBasis(lmax, nmax, defaultNumr, rmin, sphRmax, true, acyl, radial.Cubic)
	if err != nil {
		return nil, config.NewError(config.ExitInvalidBasisParams, "", "driver: component %q: %v", cd.Name, err)
	}

	// default target density used to seed the EOF build when no on-disk
	// cache is supplied: a Miyamoto-Nagai-style exponential disk, scaled by
	// acyl/hcyl (spec.md §4.3 step 1 leaves the density source external; no
	// "eof_file" cache in the recognized parameters means build from this).
	dens := func(R, z, phi float64) float64 {
		return math.Exp(-R/acyl) / (math.Cosh(z/hcyl) * math.Cosh(z/hcyl))
	}

	var eof *cylinder.EOF
	if cacheFile, ok := cd.GetString("eof_file"); ok && cacheFile != "" {
		params := cylinder.CacheParams{
			Mmax: mmax, Numx: numx, Numy: numt, Nmax: nmax, Norder: norder,
			Dens: false, Cmap: true, Rmin: rmin, Rmax: rmax, A: acyl, H: hcyl,
		}
		expcond, _ := cd.GetBool("expcond")
		eof, err = cylinder.LoadCache(cacheFile, params, grid, expcond)
		if err != nil {
			return nil, err
		}
	}
	if eof == nil {
		eof, err = cylinder.BuildEOF(cylinder.BuildConfig{
			Mmax: mmax, Norder: norder, Dens: dens, Sph: sphBasis, Grid: grid,
		})
		if err != nil {
			return nil, config.NewError(config.ExitInvalidBasisParams, "", "driver: component %q: %v", cd.Name, err)
		}
		if cacheFile, ok := cd.GetString("eof_file"); ok && cacheFile != "" {
			params := cylinder.CacheParams{
				Mmax: mmax, Numx: numx, Numy: numt, Nmax: nmax, Norder: norder,
				Dens: false, Cmap: true, Rmin: rmin, Rmax: rmax, A: acyl, H: hcyl,
			}
			if err := cylinder.WriteCache(cacheFile, params, eof); err != nil {
				return nil, err
			}
		}
	}

	force := &component.CylinderForce{EOF: eof}
	if multistepLevels > 0 {
		intervals := make([]int, multistepLevels+1)
		for m := range intervals {
			intervals[m] = 1 << uint(m)
		}
		force.MS = multistep.New[*cylinder.CylCoefficients](multistepLevels, func() *cylinder.CylCoefficients {
			return cylinder.NewCylCoefficients(eof.Mmax, eof.Norder)
		}, intervals)
	}
	return force, nil
}
