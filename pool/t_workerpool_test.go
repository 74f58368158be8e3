// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pool

import (
	"sort"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func newIntSliceAcc() interface{} {
	s := make([]int, 0)
	return &s
}

func appendIdx(acc interface{}, i int) {
	p := acc.(*[]int)
	*p = append(*p, i)
}

func flattenAndSort(results []interface{}) []int {
	var all []int
	for _, r := range results {
		all = append(all, *(r.(*[]int))...)
	}
	sort.Ints(all)
	return all
}

func Test_workerpool01(tst *testing.T) {

	chk.PrintTitle("workerpool01. RunIndexed covers every index exactly once across 4 workers")

	p := New(4)
	defer p.Close()
	chk.Scalar(tst, "NumWorkers", 1e-17, float64(p.NumWorkers()), 4)

	results := RunIndexed(p, 17, newIntSliceAcc, appendIdx)
	got := flattenAndSort(results)
	if len(got) != 17 {
		tst.Errorf("expected 17 indices total, got %d", len(got))
		return
	}
	for i, v := range got {
		if v != i {
			tst.Errorf("index %d missing or duplicated: flattened = %v", i, got)
			return
		}
	}
}

func Test_workerpool02(tst *testing.T) {

	chk.PrintTitle("workerpool02. a nil Pool runs serially with a single accumulator, in order")

	results := RunIndexed(nil, 5, newIntSliceAcc, appendIdx)
	if len(results) != 1 {
		tst.Errorf("expected exactly one accumulator for a nil pool, got %d", len(results))
		return
	}
	got := *(results[0].(*[]int))
	want := []int{0, 1, 2, 3, 4}
	if len(got) != len(want) {
		tst.Errorf("got %v, want %v", got, want)
		return
	}
	for i := range want {
		if got[i] != want[i] {
			tst.Errorf("serial fallback must preserve order: got %v, want %v", got, want)
			return
		}
	}
}

func Test_workerpool03(tst *testing.T) {

	chk.PrintTitle("workerpool03. a single-worker pool and n<=1 both take the serial fallback")

	p1 := New(1)
	defer p1.Close()
	results := RunIndexed(p1, 10, newIntSliceAcc, appendIdx)
	if len(results) != 1 {
		tst.Errorf("a single-worker pool must produce one accumulator, got %d", len(results))
		return
	}

	p4 := New(4)
	defer p4.Close()
	results = RunIndexed(p4, 1, newIntSliceAcc, appendIdx)
	if len(results) != 1 {
		tst.Errorf("n<=1 must produce one accumulator even with a multi-worker pool, got %d", len(results))
		return
	}
	got := *(results[0].(*[]int))
	if len(got) != 1 || got[0] != 0 {
		tst.Errorf("expected [0], got %v", got)
		return
	}
}

func Test_workerpool04(tst *testing.T) {

	chk.PrintTitle("workerpool04. more workers than indices still covers every index once")

	p := New(8)
	defer p.Close()
	results := RunIndexed(p, 3, newIntSliceAcc, appendIdx)
	got := flattenAndSort(results)
	if len(got) != 3 {
		tst.Errorf("expected 3 indices total, got %d: %v", len(got), got)
		return
	}
	for i, v := range got {
		if v != i {
			tst.Errorf("index %d missing or duplicated: flattened = %v", i, got)
			return
		}
	}
}
