// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package radial

// CoordMap converts between physical radius r and the tabulation coordinate
// ξ used to store the radial grid (spec.md §4.1). When Enabled is false, ξ
// == r (identity map). When Enabled is true, ξ(r) = (r/scale - 1)/(r/scale + 1),
// a monotone compactification of [0, ∞) onto [-1, 1).
type CoordMap struct {
	Enabled bool
	Scale   float64
}

// ToXi maps r -> ξ.
func (o CoordMap) ToXi(r float64) float64 {
	if !o.Enabled {
		return r
	}
	u := r / o.Scale
	return (u - 1) / (u + 1)
}

// ToR maps ξ -> r (inverse of ToXi).
func (o CoordMap) ToR(xi float64) float64 {
	if !o.Enabled {
		return xi
	}
	return o.Scale * (1 + xi) / (1 - xi)
}

// Jacobian returns dξ/dr at the given physical radius r.
func (o CoordMap) Jacobian(r float64) float64 {
	if !o.Enabled {
		return 1
	}
	u := r/o.Scale + 1
	return 2 / (o.Scale * u * u)
}
