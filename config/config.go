// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements the YAML simulation document read by the
// driver: a list of components, each with a bodyfile, a force method
// (spherical or cylindrical basis) and its parameters (spec.md §6).
package config

import (
	"os"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	yaml "gopkg.in/yaml.v3"
)

// ForceData describes the force method ("id") and its parameters for one
// component: "sphereSL" for the spherical Sturm-Liouville basis (C1/C2) or
// "cylinderEOF" for the empirical cylindrical basis (C3).
type ForceData struct {
	Id     string                 `yaml:"id"`
	Params map[string]interface{} `yaml:"parameters"`
}

// ComponentData describes one [MODULE] Component entry of the top-level
// simulation document.
type ComponentData struct {
	Name       string                 `yaml:"name"`
	BodyFile   string                 `yaml:"bodyfile"`
	Parameters map[string]interface{} `yaml:"parameters"`
	Force      ForceData              `yaml:"force"`
}

// Simulation holds the parsed top-level YAML document.
type Simulation struct {
	Components []*ComponentData `yaml:"components"`

	// Strict controls whether unknown parameter keys are rejected (true) or
	// logged and ignored (false). Not itself a YAML key; set by the caller.
	Strict bool `yaml:"-"`
}

// recognizedParamKeys lists the parameter keys spec.md §6 names as
// understood by the core. Anything else is unknown.
var recognizedParamKeys = map[string]bool{
	"rtrunc": true, "rcom": true, "indexing": true, "com": true, "comlog": true,
	"tidal": true, "nlevel": true, "keypos": true, "EJ": true, "nEJkeep": true,
	"nEJwant": true, "EJkinE": true, "EJext": true, "EJdiag": true, "EJdamp": true,
	"Lmax": true, "nmax": true, "mmax": true, "norder": true, "rmin": true,
	"rmax": true, "acyl": true, "hcyl": true, "cmap": true, "logr": true,
	"pca": true, "hallfreq": true, "hallfile": true, "eof_file": true,
	"expcond": true, "tk_type": true, "hexp": true, "snr": true, "tksmooth": true,
	"tkcum": true, "subsamp": true, "samplesz": true, "npca": true,
}

// Load reads and validates a simulation YAML document from path.
func Load(path string, strict bool) (*Simulation, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(ExitIOFailure, "", "config: cannot read %q: %v", path, err)
	}
	var sim Simulation
	err = yaml.Unmarshal(b, &sim)
	if err != nil {
		return nil, NewError(ExitIOFailure, string(b), "config: cannot parse YAML")
	}
	sim.Strict = strict
	if err := sim.Validate(); err != nil {
		return nil, err
	}
	return &sim, nil
}

// Validate checks component references and unknown parameter keys.
func (o *Simulation) Validate() error {
	names := make(map[string]bool, len(o.Components))
	for _, c := range o.Components {
		if c.Name == "" {
			return NewError(ExitMissingComponentRef, "", "config: component with empty name")
		}
		names[c.Name] = true
	}
	for _, c := range o.Components {
		for key := range c.Parameters {
			if !recognizedParamKeys[key] {
				if o.Strict {
					return NewError(ExitUnknownKeyStrict, key, "config: unknown parameter key %q in component %q", key, c.Name)
				}
				io.Pfyel("config: ignoring unknown parameter key %q in component %q\n", key, c.Name)
			}
		}
		if c.Force.Id != "sphereSL" && c.Force.Id != "cylinderEOF" {
			chk.Panic("config: component %q has unrecognized force id %q", c.Name, c.Force.Id)
		}
	}
	return nil
}

// Get returns a parameter value cast to float64, or ok=false if absent.
func (c *ComponentData) Get(key string) (val float64, ok bool) {
	v, has := c.Parameters[key]
	if !has {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

// GetInt returns a parameter value cast to int, or ok=false if absent.
func (c *ComponentData) GetInt(key string) (val int, ok bool) {
	v, has := c.Parameters[key]
	if !has {
		return 0, false
	}
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	}
	return 0, false
}

// GetBool returns a parameter value cast to bool, or ok=false if absent.
func (c *ComponentData) GetBool(key string) (val bool, ok bool) {
	v, has := c.Parameters[key]
	if !has {
		return false, false
	}
	b, isb := v.(bool)
	return b, isb
}

// GetString returns a parameter value cast to string, or ok=false if absent.
func (c *ComponentData) GetString(key string) (val string, ok bool) {
	v, has := c.Parameters[key]
	if !has {
		return "", false
	}
	s, iss := v.(string)
	return s, iss
}
