// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cylinder

import (
	"fmt"
	"math"

	"github.com/cpmech/gosl/la"
	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gofem-nbody/ctx"
	"github.com/cpmech/gofem-nbody/radial"
	"github.com/cpmech/gofem-nbody/sphere"
)

// DensityFunc is a user-supplied target density, in cylindrical coordinates,
// used to build the empirical basis (spec.md §4.3 step 1). It is evaluated
// at physical (R, z, φ); its azimuthal Fourier content is extracted by the
// φ-quadrature inside BuildEOF for each order m.
type DensityFunc func(R, z, phi float64) float64

// BuildConfig collects everything BuildEOF needs to construct a cylindrical
// EOF basis from a spherical one (spec.md §4.3).
type BuildConfig struct {
	Mmax, Norder int
	Dens         DensityFunc
	Sph          *radial.Basis
	Grid         *Grid
	NumQuadR     int // Gauss-Legendre points in r
	NumQuadTheta int // Gauss-Legendre points in cosθ
	NumQuadPhi   int // uniform points in φ
	TabulateDens bool
}

// InvalidEOFParameters is returned by BuildEOF when cfg is malformed.
type InvalidEOFParameters struct{ Reason string }

func (e *InvalidEOFParameters) Error() string {
	return fmt.Sprintf("cylinder: invalid EOF build parameters: %s", e.Reason)
}

// BuildEOF constructs the empirical cylindrical basis by diagonalizing,
// for each azimuthal order m (and parity when m>0), the overlap of the
// target density against the spherical potential basis, then tabulating
// the retained eigenvectors on the (R,z) grid (spec.md §4.3 steps 1-4).
//
// Quadrature work is distributed round-robin across MPI ranks by flattened
// point index; partial overlap matrices are summed with ctx.AllReduceSum so
// every rank ends up with an identical, fully-reduced matrix to diagonalize
// independently — avoiding a master/worker RPC exchange for data that is
// cheap to replicate once assembled.
func BuildEOF(cfg BuildConfig) (*EOF, error) {
	if cfg.Mmax < 0 {
		return nil, &InvalidEOFParameters{"mmax < 0"}
	}
	if cfg.Norder < 1 {
		return nil, &InvalidEOFParameters{"norder < 1"}
	}
	if cfg.Sph == nil || cfg.Grid == nil || cfg.Dens == nil {
		return nil, &InvalidEOFParameters{"nil Sph, Grid or Dens"}
	}
	nr, nt, np := cfg.NumQuadR, cfg.NumQuadTheta, cfg.NumQuadPhi
	if nr < 4 {
		nr = 24
	}
	if nt < 4 {
		nt = 16
	}
	if np < 4 {
		np = 16
	}

	rU, rWU := gaussLegendreNodes(nr)
	ctXi, ctW := gaussLegendreNodes(nt)

	K := (cfg.Sph.Lmax + 1) * cfg.Sph.Nmax
	kIndex := func(l, n int) int { return l*cfg.Sph.Nmax + n }

	// map the r quadrature onto the basis's tabulated ξ-range, then back to
	// physical r; the ξ->r Jacobian folds into the per-point weight so the
	// result integrates ∫ f(r) dr regardless of whether CoordMap is enabled.
	ximin, ximax := cfg.Sph.Xi[0], cfg.Sph.Xi[len(cfg.Sph.Xi)-1]
	halfSpan := (ximax - ximin) / 2

	type quadPt struct {
		r, ct, phi, w float64
	}
	var pts []quadPt
	for i := 0; i < nr; i++ {
		xi := ximin + halfSpan*(rU[i]+1)
		r := cfg.Sph.Map.ToR(xi)
		jac := cfg.Sph.Map.Jacobian(r)
		if jac <= 0 {
			continue
		}
		wr := rWU[i] * halfSpan / jac
		for j := 0; j < nt; j++ {
			ct := ctXi[j]
			wct := ctW[j]
			for k := 0; k < np; k++ {
				phi := 2 * math.Pi * float64(k) / float64(np)
				pts = append(pts, quadPt{r, ct, phi, wr * wct})
			}
		}
	}
	phiWeight := 2 * math.Pi / float64(np)

	rank, size := ctx.CurrentRank(), ctx.CurrentSize()

	// total target mass over the quadrature volume, kept as the EOF's CylMass
	mass := []float64{0}
	for idx := rank; idx < len(pts); idx += size {
		pt := pts[idx]
		if pt.r <= 0 {
			continue
		}
		theta := math.Acos(pt.ct)
		mass[0] += cfg.Dens(pt.r*math.Sin(theta), pt.r*pt.ct, pt.phi) * pt.r * pt.r * pt.w * phiWeight
	}
	ctx.AllReduceSum(mass)

	buildOne := func(m int, sin bool) (*mat.SymDense, error) {
		acc := make([]float64, K*K)
		for idx := rank; idx < len(pts); idx += size {
			pt := pts[idx]
			if pt.r <= 0 {
				continue
			}
			theta := math.Acos(pt.ct)
			R := pt.r * math.Sin(theta)
			z := pt.r * pt.ct
			d := cfg.Dens(R, z, pt.phi)
			if d == 0 {
				continue
			}
			lt := sphere.NewLegendreTable(cfg.Sph.Lmax, theta)
			jac := pt.r * pt.r * pt.w * phiWeight
			psi := make([]float64, K)
			for l := 0; l <= cfg.Sph.Lmax; l++ {
				ycos, ysin, _, _, _, _ := sphere.RealY(lt, l, m, pt.phi)
				y := ycos
				if sin {
					y = ysin
				}
				for n := 0; n < cfg.Sph.Nmax; n++ {
					pot, _, _ := cfg.Sph.Eval(l, n, pt.r)
					psi[kIndex(l, n)] = pot * y
				}
			}
			for a := 0; a < K; a++ {
				if psi[a] == 0 {
					continue
				}
				wa := psi[a] * d * jac
				for b := a; b < K; b++ {
					acc[a*K+b] += wa * psi[b]
				}
			}
		}
		ctx.AllReduceSum(acc)
		sym := mat.NewSymDense(K, nil)
		for a := 0; a < K; a++ {
			for b := a; b < K; b++ {
				sym.SetSym(a, b, acc[a*K+b])
			}
		}
		return sym, nil
	}

	cos := make([]*harmonicSet, cfg.Mmax+1)
	sinSets := make([]*harmonicSet, cfg.Mmax+1)

	for m := 0; m <= cfg.Mmax; m++ {
		S, err := buildOne(m, false)
		if err != nil {
			return nil, err
		}
		hs, err := diagonalizeAndTabulate(S, m, false, cfg, K, kIndex)
		if err != nil {
			return nil, err
		}
		cos[m] = hs
		if m > 0 {
			Ssin, err := buildOne(m, true)
			if err != nil {
				return nil, err
			}
			hsSin, err := diagonalizeAndTabulate(Ssin, m, true, cfg, K, kIndex)
			if err != nil {
				return nil, err
			}
			sinSets[m] = hsSin
		}
	}

	eof := NewEOF(cfg.Grid, cfg.Mmax, cfg.Norder, cfg.TabulateDens, cos, sinSets, mass[0], [3]float64{})
	return eof, nil
}

// diagonalizeAndTabulate diagonalizes one overlap matrix, retains the
// cfg.Norder eigenvectors of largest eigenvalue (sign-fixed so the first
// non-zero component is positive, spec.md §4.3 step 3), and tabulates each
// retained eigenvector's potential and (R,z) derivatives on cfg.Grid.
func diagonalizeAndTabulate(S *mat.SymDense, m int, sinParity bool, cfg BuildConfig, K int, kIndex func(l, n int) int) (*harmonicSet, error) {
	var eig mat.EigenSym
	if !eig.Factorize(S, true) {
		return nil, fmt.Errorf("cylinder: overlap diagonalization failed for m=%d sin=%v", m, sinParity)
	}
	lambda := eig.Values(nil)
	var V mat.Dense
	eig.VectorsTo(&V)

	order := sortByAbsDescCyl(lambda)
	norder := cfg.Norder
	if norder > K {
		norder = K
	}

	grid := cfg.Grid
	npts := (grid.Numx + 1) * (grid.Numy + 1)

	hs := &harmonicSet{
		Pot:   la.MatAlloc(norder, npts),
		DR:    la.MatAlloc(norder, npts),
		DZ:    la.MatAlloc(norder, npts),
		Eigen: make([]float64, norder),
	}
	if cfg.TabulateDens {
		hs.Dens = la.MatAlloc(norder, npts)
	}

	for rank := 0; rank < norder; rank++ {
		col := order[rank]
		vec := make([]float64, K)
		for a := 0; a < K; a++ {
			vec[a] = V.At(a, col)
		}
		fixEigenvectorSign(vec)
		hs.Eigen[rank] = lambda[col]

		pot, dR, dZ := hs.Pot[rank], hs.DR[rank], hs.DZ[rank]
		var dens []float64
		if cfg.TabulateDens {
			dens = hs.Dens[rank]
		}

		ny := grid.Numy + 1
		for i := 0; i <= grid.Numx; i++ {
			R := grid.R[i]
			for j := 0; j <= grid.Numy; j++ {
				Z := grid.Z[j]
				p, pr, pz, rho := evalCombination(vec, cfg.Sph, m, sinParity, R, Z, kIndex, cfg.TabulateDens)
				idx := i*ny + j
				pot[idx] = p
				dR[idx] = pr
				dZ[idx] = pz
				if dens != nil {
					dens[idx] = rho
				}
			}
		}
	}
	return hs, nil
}

// evalCombination evaluates Σ_k vec[k] ψ_k(r) Y_{l,m}(θ) (and its R,z
// derivatives via the chain rule through (r,θ)) at cylindrical (R,Z).
func evalCombination(vec []float64, sph *radial.Basis, m int, sinParity bool, R, Z float64, kIndex func(l, n int) int, wantDens bool) (pot, dR, dZ, rho float64) {
	r := math.Hypot(R, Z)
	const eps = 1e-9
	if r < eps {
		return 0, 0, 0, 0
	}
	theta := math.Atan2(R, Z)
	lt := sphere.NewLegendreTable(sph.Lmax, theta)

	var dPotDr, dPotDth float64
	for l := 0; l <= sph.Lmax; l++ {
		ycos, ysin, dYcosDth, dYsinDth, _, _ := sphere.RealY(lt, l, m, 0)
		y, dydth := ycos, dYcosDth
		if sinParity {
			y, dydth = ysin, dYsinDth
		}
		for n := 0; n < sph.Nmax; n++ {
			c := vec[kIndex(l, n)]
			if c == 0 {
				continue
			}
			p, dp, rh := sph.Eval(l, n, r)
			pot += c * p * y
			dPotDr += c * dp * y
			dPotDth += c * p * dydth
			if wantDens {
				rho += c * rh * y
			}
		}
	}
	drDR := R / r
	drDZ := Z / r
	dthDR := Z / (r * r)
	dthDZ := -R / (r * r)
	dR = dPotDr*drDR + dPotDth*dthDR
	dZ = dPotDr*drDZ + dPotDth*dthDZ
	return
}

// fixEigenvectorSign flips vec so its first non-negligible component is
// positive (spec.md §4.3 step 3).
func fixEigenvectorSign(vec []float64) {
	for _, v := range vec {
		if math.Abs(v) > 1e-14 {
			if v < 0 {
				for i := range vec {
					vec[i] = -vec[i]
				}
			}
			return
		}
	}
}

// sortByAbsDescCyl returns indices sorted by descending |eigenvalue|.
func sortByAbsDescCyl(lambda []float64) []int {
	idx := make([]int, len(lambda))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && math.Abs(lambda[idx[j-1]]) < math.Abs(lambda[idx[j]]) {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	return idx
}

// gaussLegendreNodes returns the n-point Gauss-Legendre quadrature nodes and
// weights on [-1,1], via Newton's method on the Legendre polynomial (the
// classic algorithm). gosl/num's only demonstrated quadrature primitive is
// num.Trapz (radial/sturmliouville.go's <u,u>_B normalization integral), a
// fixed composite-trapezoid rule over a pre-sampled grid; it has no node/
// weight generator for a chosen-order Gauss-Legendre rule, which this 3-D
// product quadrature needs to keep the overlap integral accurate at modest
// NumQuadR/NumQuadTheta. So this mirrors sphere's hand-rolled Legendre
// recursions rather than reaching for an unverified external signature.
func gaussLegendreNodes(n int) (x, w []float64) {
	x = make([]float64, n)
	w = make([]float64, n)
	m := (n + 1) / 2
	for i := 0; i < m; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		var pp float64
		for iter := 0; iter < 100; iter++ {
			p0, p1 := 1.0, 0.0
			for j := 0; j < n; j++ {
				p2 := p1
				p1 = p0
				p0 = ((2*float64(j)+1)*z*p1 - float64(j)*p2) / (float64(j) + 1)
			}
			pp = float64(n) * (z*p0 - p1) / (z*z - 1)
			z1 := z
			z = z1 - p0/pp
			if math.Abs(z-z1) < 1e-14 {
				break
			}
		}
		x[i] = -z
		x[n-1-i] = z
		wv := 2 / ((1 - z*z) * pp * pp)
		w[i] = wv
		w[n-1-i] = wv
	}
	return
}
