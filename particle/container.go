// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package particle

import "sort"

// Container is the per-rank particle store keyed by stable index, kept in
// ascending-index order to give bit-identical iteration across runs on the
// same rank count (spec.md §5 "ordering guarantees"). It plays the role the
// teacher's `Vid2node []*Node` / ordered vertex map plays for FEM nodes.
type Container struct {
	byIndex map[int64]*Particle
	order   []int64 // sorted keys, rebuilt lazily after mutation
	dirty   bool
}

// NewContainer returns an empty Container.
func NewContainer() *Container {
	return &Container{byIndex: make(map[int64]*Particle)}
}

// Add inserts p, keyed by p.Index. Panics on duplicate index (spec.md §7
// "invariant violation: duplicate particle index").
func (o *Container) Add(p *Particle) {
	if _, exists := o.byIndex[p.Index]; exists {
		panic("particle: duplicate particle index")
	}
	o.byIndex[p.Index] = p
	o.dirty = true
}

// Remove deletes the particle with the given index, if present.
func (o *Container) Remove(index int64) {
	delete(o.byIndex, index)
	o.dirty = true
}

// Get returns the particle with the given index, or nil.
func (o *Container) Get(index int64) *Particle {
	return o.byIndex[index]
}

// Len returns the number of particles held locally.
func (o *Container) Len() int { return len(o.byIndex) }

// rebuild recomputes the sorted key order if stale.
func (o *Container) rebuild() {
	if !o.dirty {
		return
	}
	o.order = o.order[:0]
	for k := range o.byIndex {
		o.order = append(o.order, k)
	}
	sort.Slice(o.order, func(i, j int) bool { return o.order[i] < o.order[j] })
	o.dirty = false
}

// Ordered returns all particles in ascending index order.
func (o *Container) Ordered() []*Particle {
	o.rebuild()
	out := make([]*Particle, len(o.order))
	for i, k := range o.order {
		out[i] = o.byIndex[k]
	}
	return out
}

// Each calls fn for every particle in ascending index order.
func (o *Container) Each(fn func(*Particle)) {
	o.rebuild()
	for _, k := range o.order {
		fn(o.byIndex[k])
	}
}

// CheckSequence verifies local indices are contiguous and in order after a
// rebalance (spec.md §4.6 "sequence-number check"). first/last give the
// expected inclusive bounds; returns an error describing the first gap or
// duplicate found, or nil if the sequence holds.
func (o *Container) CheckSequence(first, last int64) error {
	o.rebuild()
	if int64(len(o.order)) != last-first+1 {
		return errSequence(first, last, len(o.order))
	}
	for i, k := range o.order {
		want := first + int64(i)
		if k != want {
			return errSequence(first, last, len(o.order))
		}
	}
	return nil
}

type sequenceError struct {
	first, last int64
	got         int
}

func (e *sequenceError) Error() string {
	return "particle: out-of-order or missing indices after rebalance"
}

func errSequence(first, last int64, got int) error {
	return &sequenceError{first: first, last: last, got: got}
}
