// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package progparse

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
)

// ParseProgram parses a program written one item per line. Blank lines and
// lines starting with "#" are ignored. The items are:
//
//	input: <columns>              the input row type; must come first
//	window <name>: <window>       a named window, resolved where it is used
//	expr: <scalar>                the next program expression
//	project: @n [as name], ...    the projection; defaults to every expression
//	where: @n                     the condition
//
// Violations of the local-reference invariant are reported as assertion
// failures.
func ParseProgram(text string) (_ *memo.Program, err error) {
	defer catch(&err)

	sc := &scope{windows: make(map[string]string)}
	var projects []memo.ProjectItem
	condition := memo.NoCondition
	sawInput, sawProject := false, false

	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			return nil, errors.Newf("line %d: expected \"<item>: ...\"", lineNo+1)
		}
		key, rest := strings.TrimSpace(line[:colon]), line[colon+1:]
		if !sawInput && key != "input" {
			return nil, errors.Newf("line %d: the input row type must come first", lineNo+1)
		}
		p := newParser(rest)

		switch {
		case key == "input":
			if sawInput {
				return nil, errors.Newf("line %d: duplicate input", lineNo+1)
			}
			sc.input = p.columns()
			sawInput = true

		case strings.HasPrefix(key, "window "):
			name := strings.TrimSpace(strings.TrimPrefix(key, "window "))
			sc.windows[name] = rest
			continue

		case key == "expr":
			sc.locals = append(sc.locals, p.scalar(sc))

		case key == "project":
			sawProject = true
			for !p.atEOF() {
				p.expect('@')
				item := memo.ProjectItem{Index: p.int()}
				if p.consumeIdent("as") {
					item.Name = p.ident()
				}
				projects = append(projects, item)
				if !p.consume(',') {
					break
				}
			}

		case key == "where":
			p.expect('@')
			condition = p.int()

		default:
			return nil, errors.Newf("line %d: unknown item %q", lineNo+1, key)
		}

		if !p.atEOF() {
			p.next()
			p.errorf("line %d: unexpected %q", lineNo+1, p.text())
		}
	}
	if !sawInput {
		return nil, errors.New("missing input row type")
	}

	if !sawProject {
		projects = make([]memo.ProjectItem, len(sc.locals))
		for i := range projects {
			projects[i].Index = i
		}
	}
	return memo.MakeProgram(sc.input, sc.locals, projects, condition), nil
}

// MustParseProgram is like ParseProgram, but panics on error.
func MustParseProgram(text string) *memo.Program {
	p, err := ParseProgram(text)
	if err != nil {
		panic(err)
	}
	return p
}
