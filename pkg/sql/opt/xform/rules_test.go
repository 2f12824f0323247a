// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package xform_test

import (
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/opttester"
	"github.com/cockroachdb/relopt/pkg/sql/opt/testutils/progparse"
	"github.com/cockroachdb/relopt/pkg/util/log"
)

// TestRules runs data-driven testcases of the form
//
//	<command> [<args>]...
//	<operator tree>
//	----
//	<expected results>
//
// See OptTester.RunCommand for supported commands. Rules files can be run
// separately like this:
//
//	go test ./pkg/sql/opt/xform -run 'TestRules/filter'
func TestRules(t *testing.T) {
	defer log.Scope(t).Close(t)

	datadriven.Walk(t, "testdata/rules", func(t *testing.T, path string) {
		catalog := progparse.NewCatalog()
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			tester := opttester.New(catalog, d.Input)
			return tester.RunCommand(t, d)
		})
	})
}
