// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/relopt/pkg/util/log"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const windowedProgram = `input: a int
window w1: partition @0
expr: $0
expr: sum(@0) over w1
expr: avg(@0) over w1
expr: plus(@1, @2)
project: @3 as total
`

func TestSplit(t *testing.T) {
	defer log.Scope(t).Close(t)
	path := writeFile(t, "prog.txt", windowedProgram)

	out, err := runCmd(t, "split", path)
	require.NoError(t, err)
	require.Contains(t, out, "stage 0 (window): @1, @2\n")
	require.Contains(t, out, "stage 1 (calc): @3\n")
	require.Contains(t, out, "window")
	require.Contains(t, out, "scan input")

	out, err = runCmd(t, "split", "--dot", path)
	require.NoError(t, err)
	require.Contains(t, out, "digraph")
	require.Contains(t, out, "@3: plus(@1, @2)")

	_, err = runCmd(t, "split", writeFile(t, "bad.txt", "input: a int\nexpr: $7\n"))
	require.Error(t, err)

	_, err = runCmd(t, "split", filepath.Join(t.TempDir(), "missing.txt"))
	require.ErrorContains(t, err, "reading program")
}

func TestRules(t *testing.T) {
	defer log.Scope(t).Close(t)

	out, err := runCmd(t, "rules")
	require.NoError(t, err)
	require.Contains(t, out, "JoinToCorrelate")
	require.Contains(t, out, "AdapterToEnumerable")

	cfg := writeFile(t, "opt.yaml", "disabled_rules: [JoinToCorrelate]\n")
	out, err = runCmd(t, "rules", "--config", cfg)
	require.NoError(t, err)
	require.NotContains(t, out, "JoinToCorrelate")
	require.Contains(t, out, "UnionToDistinct")

	cfg = writeFile(t, "opt.yaml", "disabled_rules: [NoSuchRule]\n")
	_, err = runCmd(t, "rules", "--config", cfg)
	require.ErrorContains(t, err, `unknown rule "NoSuchRule"`)

	cfg = writeFile(t, "opt.yaml", "max_iterations: -2\n")
	_, err = runCmd(t, "rules", "--config", cfg)
	require.ErrorContains(t, err, "max_iterations must not be negative")
}

func TestOpt(t *testing.T) {
	defer log.Scope(t).Close(t)
	tree := writeFile(t, "tree.txt", "(filter (scan s) gt($0, 1))\n")

	out, err := runCmd(t, "opt", "--table", "s: x int, y int", tree)
	require.NoError(t, err)
	require.Equal(t, `filter [enumerable]
 ├── columns: (x:int!, y:int!)
 ├── scan s [enumerable]
 │    └── columns: (x:int!, y:int!)
 └── condition: gt($0, 1)
`, out)

	cfg := writeFile(t, "opt.yaml", "required_convention: none\n")
	out, err = runCmd(t, "opt", "--config", cfg, "--table", "s: x int, y int", tree)
	require.NoError(t, err)
	require.Contains(t, out, "filter\n")

	_, err = runCmd(t, "opt", tree)
	require.ErrorContains(t, err, `unknown table "s"`)
}
