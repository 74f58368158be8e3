// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cylinder

import (
	"bufio"
	"encoding/binary"
	"hash/fnv"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/cpmech/gosl/la"

	"github.com/cpmech/gofem-nbody/config"
)

// cacheMagic identifies an EOF cache file (spec.md §6 "EOF cache. As §3,
// header magic 0xC0A57A1").
const cacheMagic uint64 = 0xC0A57A1

// CacheParams are the construction parameters checked against a cache file
// on load (spec.md §4.3 "Load from cache"): every parameter is compared,
// integers exactly and floats to 1e-12, per SPEC_FULL.md §5 decision #1 —
// stricter than the legacy tolerance-only check.
type CacheParams struct {
	Mmax, Numx, Numy, Nmax, Norder int
	Dens, Cmap                     bool
	Rmin, Rmax, A, H               float64
}

const floatTol = 1e-12

func (p CacheParams) equal(q CacheParams) bool {
	if p.Mmax != q.Mmax || p.Numx != q.Numx || p.Numy != q.Numy ||
		p.Nmax != q.Nmax || p.Norder != q.Norder || p.Dens != q.Dens || p.Cmap != q.Cmap {
		return false
	}
	close := func(a, b float64) bool { return math.Abs(a-b) <= floatTol }
	return close(p.Rmin, q.Rmin) && close(p.Rmax, q.Rmax) && close(p.A, q.A) && close(p.H, q.H)
}

// contentHash folds every header parameter into a single FNV-1a hash, a
// belt-and-braces check layered on top of the per-field comparison (spec.md
// §9 "a reimplementation should check every parameter or carry an explicit
// content hash" — this implementation does both).
func (p CacheParams) contentHash() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	writeInt(p.Mmax)
	writeInt(p.Numx)
	writeInt(p.Numy)
	writeInt(p.Nmax)
	writeInt(p.Norder)
	if p.Dens {
		writeInt(1)
	} else {
		writeInt(0)
	}
	if p.Cmap {
		writeInt(1)
	} else {
		writeInt(0)
	}
	writeFloat(p.Rmin)
	writeFloat(p.Rmax)
	writeFloat(p.A)
	writeFloat(p.H)
	return h.Sum64()
}

// WriteCache writes the header and every harmonic table to path atomically:
// write-to-tmp, fsync, rename (spec.md §4.3 step 6, §5 "the cache file is
// written by the master rank only"). Callers are responsible for gating
// this to the master rank.
func WriteCache(path string, params CacheParams, eof *EOF) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".eofcache-*.tmp")
	if err != nil {
		return config.NewError(config.ExitIOFailure, "", "cylinder: cache tmp file: %v", err)
	}
	tmpPath := tmp.Name()
	w := bufio.NewWriter(tmp)

	ok := false
	defer func() {
		tmp.Close()
		if !ok {
			os.Remove(tmpPath)
		}
	}()

	if err := writeHeader(w, params, eof.CylMass, time.Now().Unix()); err != nil {
		return err
	}
	for m := 0; m <= params.Mmax; m++ {
		if err := writeHarmonicSet(w, eof.Cos[m]); err != nil {
			return err
		}
		if m > 0 {
			if err := writeHarmonicSet(w, eof.Sin[m]); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return config.NewError(config.ExitIOFailure, "", "cylinder: cache flush: %v", err)
	}
	if err := tmp.Sync(); err != nil {
		return config.NewError(config.ExitIOFailure, "", "cylinder: cache fsync: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return config.NewError(config.ExitIOFailure, "", "cylinder: cache close: %v", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		// spec.md §7: if rename fails, leave the old file intact and log.
		return config.NewError(config.ExitIOFailure, "", "cylinder: cache rename: %v (old file left intact)", err)
	}
	ok = true
	return nil
}

// writeHeader writes the magic, YAML-equivalent parameter block and content
// hash, then cylMass and a unix timestamp (spec.md §3 "followed by cylmass
// ... and a timestamp; followed by the tables").
func writeHeader(w io.Writer, p CacheParams, cylMass float64, timestamp int64) error {
	fields := []interface{}{
		cacheMagic,
		int32(p.Mmax), int32(p.Numx), int32(p.Numy), int32(p.Nmax), int32(p.Norder),
		boolToU8(p.Dens), boolToU8(p.Cmap),
		p.Rmin, p.Rmax, p.A, p.H,
		p.contentHash(),
		cylMass, timestamp,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return config.NewError(config.ExitIOFailure, "", "cylinder: write cache header: %v", err)
		}
	}
	return nil
}

func writeHarmonicSet(w io.Writer, hs *harmonicSet) error {
	if err := binary.Write(w, binary.LittleEndian, int32(len(hs.Pot))); err != nil {
		return config.NewError(config.ExitIOFailure, "", "cylinder: write harmonic set length: %v", err)
	}
	for n := range hs.Pot {
		if err := binary.Write(w, binary.LittleEndian, hs.Eigen[n]); err != nil {
			return config.NewError(config.ExitIOFailure, "", "cylinder: write eigenvalue: %v", err)
		}
		for _, tbl := range [][]float64{hs.Pot[n], hs.DR[n], hs.DZ[n]} {
			if err := binary.Write(w, binary.LittleEndian, tbl); err != nil {
				return config.NewError(config.ExitIOFailure, "", "cylinder: write table: %v", err)
			}
		}
		hasDens := hs.Dens != nil && hs.Dens[n] != nil
		if err := binary.Write(w, binary.LittleEndian, boolToU8(hasDens)); err != nil {
			return config.NewError(config.ExitIOFailure, "", "cylinder: write dens flag: %v", err)
		}
		if hasDens {
			if err := binary.Write(w, binary.LittleEndian, hs.Dens[n]); err != nil {
				return config.NewError(config.ExitIOFailure, "", "cylinder: write dens table: %v", err)
			}
		}
	}
	return nil
}

// LoadCache reads path and returns an EOF only if the header's parameters
// match params exactly (spec.md §4.3 "Load from cache"). On mismatch: if
// strict is true, returns a *config.Error with ExitCacheMismatch; otherwise
// returns (nil, nil) so the caller rebuilds.
func LoadCache(path string, params CacheParams, grid *Grid, strict bool) (*EOF, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, config.NewError(config.ExitIOFailure, "", "cylinder: open cache: %v", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	var magic uint64
	var mmax, numx, numy, nmax, norder int32
	var densU, cmapU uint8
	var rmin, rmax, a, h float64
	var hash uint64
	var cylMass float64
	var timestamp int64
	for _, dst := range []interface{}{
		&magic, &mmax, &numx, &numy, &nmax, &norder, &densU, &cmapU,
		&rmin, &rmax, &a, &h, &hash, &cylMass, &timestamp,
	} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return nil, config.NewError(config.ExitIOFailure, "", "cylinder: read cache header: %v", err)
		}
	}
	if magic != cacheMagic {
		if strict {
			return nil, config.NewError(config.ExitCacheMismatch, "", "cylinder: cache magic mismatch in %s", path)
		}
		return nil, nil
	}
	found := CacheParams{
		Mmax: int(mmax), Numx: int(numx), Numy: int(numy), Nmax: int(nmax), Norder: int(norder),
		Dens: densU != 0, Cmap: cmapU != 0, Rmin: rmin, Rmax: rmax, A: a, H: h,
	}
	if !found.equal(params) || found.contentHash() != hash {
		if strict {
			return nil, config.NewError(config.ExitCacheMismatch, "", "cylinder: cache parameter mismatch in %s", path)
		}
		return nil, nil
	}

	cos := make([]*harmonicSet, params.Mmax+1)
	sin := make([]*harmonicSet, params.Mmax+1)
	npts := (params.Numx + 1) * (params.Numy + 1)
	for m := 0; m <= params.Mmax; m++ {
		hs, err := readHarmonicSet(r, npts)
		if err != nil {
			return nil, err
		}
		cos[m] = hs
		if m > 0 {
			hsSin, err := readHarmonicSet(r, npts)
			if err != nil {
				return nil, err
			}
			sin[m] = hsSin
		}
	}
	_ = timestamp // recorded in the cache for provenance only; not load-bearing
	return NewEOF(grid, params.Mmax, params.Norder, params.Dens, cos, sin, cylMass, [3]float64{}), nil
}

func readHarmonicSet(r io.Reader, npts int) (*harmonicSet, error) {
	var n int32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, config.NewError(config.ExitIOFailure, "", "cylinder: read harmonic set length: %v", err)
	}
	hs := &harmonicSet{
		Pot: la.MatAlloc(int(n), npts), DR: la.MatAlloc(int(n), npts), DZ: la.MatAlloc(int(n), npts),
		Eigen: make([]float64, n),
	}
	for i := int32(0); i < n; i++ {
		if err := binary.Read(r, binary.LittleEndian, &hs.Eigen[i]); err != nil {
			return nil, config.NewError(config.ExitIOFailure, "", "cylinder: read eigenvalue: %v", err)
		}
		for _, row := range [][]float64{hs.Pot[i], hs.DR[i], hs.DZ[i]} {
			if err := binary.Read(r, binary.LittleEndian, row); err != nil {
				return nil, config.NewError(config.ExitIOFailure, "", "cylinder: read table: %v", err)
			}
		}
		var hasDensU uint8
		if err := binary.Read(r, binary.LittleEndian, &hasDensU); err != nil {
			return nil, config.NewError(config.ExitIOFailure, "", "cylinder: read dens flag: %v", err)
		}
		if hasDensU != 0 {
			if hs.Dens == nil {
				hs.Dens = la.MatAlloc(int(n), npts)
			}
			if err := binary.Read(r, binary.LittleEndian, hs.Dens[i]); err != nil {
				return nil, config.NewError(config.ExitIOFailure, "", "cylinder: read dens table: %v", err)
			}
		}
	}
	return hs, nil
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
