// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package optconfig holds the settings of a planning session, loaded from
// YAML:
//
//	max_iterations: 32
//	disabled_rules: [JoinToCorrelate]
//	verbosity: 2
//	required_convention: enumerable
package optconfig

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"gopkg.in/yaml.v2"
)

// DefaultMaxIterations bounds the number of exploration passes when the
// configuration does not.
const DefaultMaxIterations = opt.DefaultMaxIterations

// Config holds the settings of a planning session.
type Config struct {
	// MaxIterations bounds the number of exploration passes over the memo.
	// Zero means DefaultMaxIterations.
	MaxIterations int `yaml:"max_iterations"`

	// DisabledRules names rules that are never fired.
	DisabledRules []string `yaml:"disabled_rules,flow"`

	// Verbosity is the logging verbosity of the session.
	Verbosity int32 `yaml:"verbosity"`

	// RequiredConvention is the convention the root of the plan must be
	// implemented in. Empty means enumerable.
	RequiredConvention string `yaml:"required_convention"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MaxIterations:      DefaultMaxIterations,
		RequiredConvention: physical.Enumerable.String(),
	}
}

// Parse parses a YAML configuration. Fields that are not set keep their
// default values; unknown fields are an error.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, errors.Wrap(err, "could not parse optimizer config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading optimizer config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return cfg, nil
}

// Validate checks the settings. Rule names are checked against a registry
// when the configuration is applied.
func (c *Config) Validate() error {
	if c.MaxIterations < 0 {
		return errors.Newf("max_iterations must not be negative, got %d", c.MaxIterations)
	}
	if c.MaxIterations > opt.MaxMaxIterations {
		return errors.Newf("max_iterations must be at most %d, got %d", opt.MaxMaxIterations, c.MaxIterations)
	}
	if c.Verbosity < 0 {
		return errors.Newf("verbosity must not be negative, got %d", c.Verbosity)
	}
	if _, err := c.Convention(); err != nil {
		return err
	}
	return nil
}

// Iterations returns the bound on exploration passes.
func (c *Config) Iterations() int {
	if c.MaxIterations == 0 {
		return DefaultMaxIterations
	}
	return c.MaxIterations
}

// Convention returns the required convention of the plan root.
func (c *Config) Convention() (physical.Convention, error) {
	if c.RequiredConvention == "" {
		return physical.Enumerable, nil
	}
	conv, ok := physical.ConventionByName(c.RequiredConvention)
	if !ok {
		return physical.None, errors.WithHint(
			errors.Newf("unknown convention %q", c.RequiredConvention),
			"adapter conventions are registered by the packages that define them",
		)
	}
	return conv, nil
}
