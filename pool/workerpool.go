// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pool implements a persistent worker-goroutine pool, created once
// at startup and reused for every accumulation/evaluation pass: a
// parallel-for over a contiguous index range with a thread-local
// accumulator per worker, reduced at a barrier (spec.md §5 "a fixed pool of
// cooperative threads per rank... created at startup and persists"; §9
// redesign flag replacing the legacy manual-pthreads model).
package pool

import "sync"

type job struct {
	newAcc func() interface{}
	fn     func(acc interface{}, i int)
	start  int
	end    int
	wg     *sync.WaitGroup
	result *interface{}
}

// Pool is a fixed set of worker goroutines, each with its own job channel,
// alive for the lifetime of the process.
type Pool struct {
	workers []chan job
}

// New starts n persistent worker goroutines (n < 1 is treated as 1).
func New(n int) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{workers: make([]chan job, n)}
	for w := range p.workers {
		ch := make(chan job, 1)
		p.workers[w] = ch
		go func(ch chan job) {
			for j := range ch {
				acc := j.newAcc()
				for i := j.start; i < j.end; i++ {
					j.fn(acc, i)
				}
				*j.result = acc
				j.wg.Done()
			}
		}(ch)
	}
	return p
}

// NumWorkers returns the pool's worker count.
func (p *Pool) NumWorkers() int { return len(p.workers) }

// RunIndexed partitions [0,n) into contiguous chunks, one per worker,
// dispatches each chunk with its own thread-local accumulator created by
// newAcc, and returns the accumulators in worker-id order once every worker
// has reached the barrier (spec.md §5 "per-thread partials are summed in
// thread-id order"). A nil Pool runs serially with a single accumulator.
func RunIndexed(p *Pool, n int, newAcc func() interface{}, fn func(acc interface{}, i int)) []interface{} {
	if p == nil || len(p.workers) <= 1 || n <= 1 {
		acc := newAcc()
		for i := 0; i < n; i++ {
			fn(acc, i)
		}
		return []interface{}{acc}
	}
	nw := len(p.workers)
	if nw > n {
		nw = n
	}
	results := make([]interface{}, nw)
	var wg sync.WaitGroup
	chunk := (n + nw - 1) / nw
	for w := 0; w < nw; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			results[w] = newAcc()
			continue
		}
		wg.Add(1)
		p.workers[w] <- job{newAcc: newAcc, fn: fn, start: start, end: end, wg: &wg, result: &results[w]}
	}
	wg.Wait()
	return results
}

// Close stops every worker goroutine. Not required for process-lifetime
// pools but provided for tests that create many short-lived pools.
func (p *Pool) Close() {
	for _, ch := range p.workers {
		close(ch)
	}
}
