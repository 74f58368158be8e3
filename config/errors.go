// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import "fmt"

// Exit codes reserved for configuration and core faults (spec.md §6). These
// must remain stable across releases.
const (
	ExitOK                   = 0
	ExitMissingComponentRef  = 35
	ExitInvalidBasisParams   = 36
	ExitCacheMismatch        = 37
	ExitIOFailure            = 38
	ExitUnknownKeyStrict     = 39
	ExitInvariantViolation   = 40
	ExitNumericalFatal       = 41
)

// Error is a configuration-level fault: missing required key, a component
// reference to an unknown name, or incompatible parameters. Fatal; the
// caller aborts with the offending YAML fragment attached.
type Error struct {
	Code     int
	Msg      string
	Fragment string // offending YAML fragment, if any
}

func (e *Error) Error() string {
	if e.Fragment != "" {
		return e.Msg + ":\n" + e.Fragment
	}
	return e.Msg
}

// NewError builds a configuration Error with an associated exit code.
func NewError(code int, fragment, format string, a ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, a...), Fragment: fragment}
}
