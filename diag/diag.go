// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diag implements a rate-limited diagnostic stream for numerical
// hazards (NaN positions, non-finite eigenvalues, out-of-grid evaluations,
// clamped interpolation factors) per spec.md §7. Hazards are recoverable
// locally and never propagate as errors; they are only recorded here.
package diag

import (
	"sync"

	"github.com/cpmech/gosl/io"
)

// Stream is a rank-local diagnostic sink. Each distinct key is reported at
// most Limit times; further occurrences only bump a counter.
type Stream struct {
	mu      sync.Mutex
	Limit   int
	counts  map[string]int
	Verbose bool
}

// NewStream returns a Stream that prints at most limit messages per key.
func NewStream(limit int, verbose bool) *Stream {
	if limit <= 0 {
		limit = 1
	}
	return &Stream{Limit: limit, counts: make(map[string]int), Verbose: verbose}
}

// Msg records an occurrence of the named diagnostic; prints while under the
// per-key limit, otherwise silently counts it.
func (o *Stream) Msg(key, format string, a ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := o.counts[key]
	o.counts[key] = n + 1
	if !o.Verbose {
		return
	}
	if n < o.Limit {
		io.Pfyel("[diag:%s] "+format+"\n", append([]interface{}{key}, a...)...)
	} else if n == o.Limit {
		io.Pfyel("[diag:%s] further occurrences suppressed\n", key)
	}
}

// Count returns how many times key has been recorded.
func (o *Stream) Count(key string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[key]
}

// Reset clears all counters; used between simulation stages.
func (o *Stream) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts = make(map[string]int)
}
