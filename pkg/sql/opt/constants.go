// Copyright 2019 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

// DefaultMaxIterations is the default limit on the number of exploration
// passes the optimizer makes over the memo before it stops firing rules.
const DefaultMaxIterations = 64

// MaxMaxIterations is the largest iteration limit a configuration may set.
const MaxMaxIterations = 1 << 16
