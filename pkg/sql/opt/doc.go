// Copyright 2018 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

/*
Package opt contains the building blocks shared by the relational rewrite
engine: operator tags, row types and the expression interfaces implemented by
the concrete operator nodes in the memo package.

Overview

A query reaches the optimizer as a tree of relational operators (scan,
filter, project, join, aggregate, sort, window, union, ...). The optimizer
never parses SQL; it receives fully typed trees from an external validator.

	                 validated operator tree
	                           |
	                 +---------v---------+  - match operand patterns
	                 |  Rule dispatch    |  - fire every applicable rule
	                 +---------+---------+  - collect alternatives
	                           |
	                 +---------v---------+  - record alternatives as
	                 |  Memo (sink)      |    equivalent to the original
	                 +---------+---------+
	                           |
	                 +---------v---------+  - pick the cheapest tree that
	                 |  Search           |    is fully implemented in the
	                 +---------+---------+    required convention
	                           |
	                   implemented tree

Patterns (package pattern) describe node shapes. Rules (package xform) are
registered once per process and fired for every node whose shape matches.
Calc programs (memo.Program) are DAGs of scalar computations; the splitter
(package splitter) partitions a program into a pipeline of stages, each
implementable by a single physical operator such as a window operator.

Operator trees are immutable. Every transformation produces new nodes, and
unmodified subtrees are shared between alternatives. This allows trees to be
read from multiple goroutines without synchronization.

Errors

Optimizer code reports programmer errors (a rule producing a tree with the
wrong row type, a program with a forward local reference) by panicking with
an assertion failure from github.com/cockroachdb/errors. Entry points recover
these panics with CatchOptimizerError and return them as ordinary errors.
Expected failures, such as a program that cannot be split with the available
capability classes, are returned as errors directly.
*/
package opt
