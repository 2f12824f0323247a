// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package optconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	defer log.Scope(t).Close(t)

	cfg, err := Parse([]byte(`
max_iterations: 8
disabled_rules: [JoinToCorrelate, UnionToDistinct]
verbosity: 2
`))
	require.NoError(t, err)
	require.Equal(t, &Config{
		MaxIterations:      8,
		DisabledRules:      []string{"JoinToCorrelate", "UnionToDistinct"},
		Verbosity:          2,
		RequiredConvention: "enumerable",
	}, cfg)
	require.Equal(t, 8, cfg.Iterations())

	conv, err := cfg.Convention()
	require.NoError(t, err)
	require.Equal(t, physical.Enumerable, conv)
}

func TestParseDefaults(t *testing.T) {
	defer log.Scope(t).Close(t)

	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	cfg = &Config{}
	require.Equal(t, DefaultMaxIterations, cfg.Iterations())
	conv, err := cfg.Convention()
	require.NoError(t, err)
	require.Equal(t, physical.Enumerable, conv)
}

func TestParseErrors(t *testing.T) {
	defer log.Scope(t).Close(t)

	testCases := []struct {
		input string
		err   string
	}{
		{"max_iterations: -1", "max_iterations must not be negative, got -1"},
		{"max_iterations: 100000", "max_iterations must be at most 65536, got 100000"},
		{"verbosity: -3", "verbosity must not be negative, got -3"},
		{"required_convention: teleport", `unknown convention "teleport"`},
		{"max_iteration: 3", "could not parse optimizer config"},
		{"max_iterations: [1]", "could not parse optimizer config"},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.err)
		})
	}

	_, err := Parse([]byte("required_convention: teleport"))
	require.Contains(t, errors.FlattenHints(err), "adapter conventions")
}

func TestLoad(t *testing.T) {
	defer log.Scope(t).Close(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "opt.yaml")
	require.NoError(t, os.WriteFile(path, []byte("required_convention: none\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	conv, err := cfg.Convention()
	require.NoError(t, err)
	require.Equal(t, physical.None, conv)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, os.WriteFile(path, []byte("verbosity: -1\n"), 0644))
	_, err = Load(path)
	require.ErrorContains(t, err, "opt.yaml")
}
