// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package progparse parses the compact text syntax used by tests and by the
// optsplit tool to describe programs, scalar expressions and operator trees.
//
// A program is written one item per line:
//
//	input: a int, b int null
//	window w1: partition @1 order @0 desc rows unbounded preceding current row
//	expr: $0
//	expr: sum(@0) over w1
//	project: @3 as total
//	where: @4
//
// Operator trees are written as s-expressions over a catalog of tables:
//
//	(filter (scan t) gt($1, 10))
//	(project (sort (scan t) +0,-1) [$0 as a, plus($0, $1) as s])
package progparse

import (
	"strconv"
	"strings"
	"text/scanner"
	"unicode"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/types"
)

// scope resolves the references that scalar expressions can make.
type scope struct {
	// input is the row type that $n refers to.
	input opt.RowType

	// locals are the program expressions that @n refers to. It is nil
	// outside of programs.
	locals []opt.ScalarExpr

	// windows holds the text of named window definitions.
	windows map[string]string
}

// parser is an LL(1) parser over the tokens of a text/scanner.Scanner.
type parser struct {
	src     scanner.Scanner
	la      rune // lookahead token
	lavalid bool // lookahead is valid
}

func newParser(text string) *parser {
	p := &parser{}
	p.src.Init(strings.NewReader(text))
	p.src.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	p.src.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || unicode.IsLetter(ch) || (i > 0 && (unicode.IsDigit(ch) || ch == '-'))
	}
	p.src.Error = func(s *scanner.Scanner, msg string) {
		p.errorf("%s", msg)
	}
	return p
}

// errorf aborts the parse. The error is recovered by catch.
func (p *parser) errorf(format string, args ...interface{}) {
	panic(errors.Wrapf(errors.Newf(format, args...), "%d:%d", p.src.Line, p.src.Column))
}

// catch converts a panic raised while parsing into an error. Assertion
// failures raised by the expression constructors are returned as they are.
func catch(err *error) {
	if r := recover(); r != nil {
		*err = opt.CatchOptimizerError(r)
	}
}

func (p *parser) peek() rune {
	if !p.lavalid {
		p.la = p.src.Scan()
		p.lavalid = true
	}
	return p.la
}

func (p *parser) next() rune {
	r := p.peek()
	p.lavalid = false
	return r
}

func (p *parser) text() string {
	return p.src.TokenText()
}

func (p *parser) atEOF() bool {
	return p.peek() == scanner.EOF
}

func (p *parser) consume(r rune) bool {
	if p.peek() == r {
		p.lavalid = false
		return true
	}
	return false
}

func (p *parser) expect(r rune) {
	if !p.consume(r) {
		p.next()
		p.errorf("expected %s, found %q", scanner.TokenString(r), p.text())
	}
}

// peekIdent returns the lookahead token text if it is an identifier.
func (p *parser) peekIdent() string {
	if p.peek() != scanner.Ident {
		return ""
	}
	return p.src.TokenText()
}

func (p *parser) consumeIdent(name string) bool {
	if p.peekIdent() == name {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectIdent(name string) {
	if !p.consumeIdent(name) {
		p.next()
		p.errorf("expected %q, found %q", name, p.text())
	}
}

func (p *parser) ident() string {
	if p.next() != scanner.Ident {
		p.errorf("expected identifier, found %q", p.text())
	}
	return p.text()
}

func (p *parser) int() int {
	neg := p.consume('-')
	if p.next() != scanner.Int {
		p.errorf("expected integer, found %q", p.text())
	}
	n, err := strconv.Atoi(p.text())
	if err != nil {
		p.errorf("%v", err)
	}
	if neg {
		return -n
	}
	return n
}

// columns parses a comma-separated list of "name type [null]".
func (p *parser) columns() opt.RowType {
	var res opt.RowType
	for {
		name := p.ident()
		typName := p.ident()
		typ, ok := types.FromString(typName)
		if !ok {
			p.errorf("unknown type %q", typName)
		}
		col := opt.Column{Name: name, Type: typ}
		if p.consumeIdent("null") {
			col.Nullable = true
		} else if p.consumeIdent("not") {
			p.expectIdent("null")
		}
		res = append(res, col)
		if !p.consume(',') {
			return res
		}
	}
}

// scalar parses one scalar expression.
func (p *parser) scalar(sc *scope) opt.ScalarExpr {
	switch tok := p.next(); tok {
	case '$':
		idx := p.int()
		if idx < 0 || idx >= len(sc.input) {
			p.errorf("input reference $%d out of range for %s", idx, sc.input)
		}
		return memo.InputRef(sc.input, idx)

	case '@':
		idx := p.int()
		if idx < 0 || idx >= len(sc.locals) {
			p.errorf("local reference @%d does not refer to an earlier expression", idx)
		}
		return &memo.LocalRefExpr{Index: idx, Typ: sc.locals[idx].DataType()}

	case '-':
		lit := p.number(p.next())
		switch v := lit.Value.(type) {
		case int64:
			lit.Value = -v
		case float64:
			lit.Value = -v
		}
		return lit

	case scanner.Int, scanner.Float:
		return p.number(tok)

	case scanner.String:
		s, err := strconv.Unquote(p.text())
		if err != nil {
			p.errorf("%v", err)
		}
		return memo.Literal(s, types.String)

	case scanner.Ident:
		name := p.text()
		switch name {
		case "true":
			return memo.TrueLiteral
		case "false":
			return memo.FalseLiteral
		case "null":
			return memo.Literal(nil, types.Unknown)
		case "decimal":
			return p.decimal()
		}
		return p.call(sc, name)
	}
	p.errorf("unexpected %q in scalar expression", p.text())
	return nil
}

func (p *parser) number(tok rune) *memo.LiteralExpr {
	switch tok {
	case scanner.Int:
		n, err := strconv.ParseInt(p.text(), 10, 64)
		if err != nil {
			p.errorf("%v", err)
		}
		return memo.Literal(n, types.Int)
	case scanner.Float:
		f, err := strconv.ParseFloat(p.text(), 64)
		if err != nil {
			p.errorf("%v", err)
		}
		return memo.Literal(f, types.Float)
	}
	p.errorf("expected number, found %q", p.text())
	return nil
}

// decimal parses the quoted text of a decimal literal, as in decimal("1.5").
func (p *parser) decimal() *memo.LiteralExpr {
	p.expect('(')
	if p.next() != scanner.String {
		p.errorf("expected quoted decimal, found %q", p.text())
	}
	s, err := strconv.Unquote(p.text())
	if err != nil {
		p.errorf("%v", err)
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		p.errorf("invalid decimal %q", s)
	}
	p.expect(')')
	return memo.Literal(d, types.Decimal)
}

// call parses the arguments of a function call, and the window of a
// windowed aggregate.
func (p *parser) call(sc *scope, name string) opt.ScalarExpr {
	op, ok := opt.OperatorByName(name)
	if !ok || !(opt.IsScalarFuncOp(op) || opt.IsAggregateOp(op)) {
		p.errorf("unknown function %q", name)
	}
	p.expect('(')
	distinct := p.consumeIdent("distinct")
	var args []opt.ScalarExpr
	if !p.consume(')') {
		for {
			args = append(args, p.scalar(sc))
			if p.consume(')') {
				break
			}
			p.expect(',')
		}
	}

	if opt.IsScalarFuncOp(op) {
		if distinct {
			p.errorf("distinct is only allowed in aggregates")
		}
		return memo.Call(op, args...)
	}

	p.expectIdent("over")
	var window *memo.WindowSpec
	if p.consume('(') {
		window = p.window(sc)
		p.expect(')')
	} else {
		wname := p.ident()
		def, ok := sc.windows[wname]
		if !ok {
			p.errorf("unknown window %q", wname)
		}
		sub := newParser(def)
		window = sub.window(sc)
		if !sub.atEOF() {
			sub.next()
			sub.errorf("unexpected %q after window %s", sub.text(), wname)
		}
	}
	call := memo.WindowCall(op, window, args...)
	call.Distinct = distinct
	return call
}

// window parses a window specification:
//
//	[partition [by] expr, ...] [order [by] expr [desc] [nulls first], ...]
//	[rows|range [between] bound [and] bound]
func (p *parser) window(sc *scope) *memo.WindowSpec {
	w := &memo.WindowSpec{Frame: memo.DefaultFrame}
	if p.consumeIdent("partition") {
		p.consumeIdent("by")
		for {
			w.PartitionBy = append(w.PartitionBy, p.scalar(sc))
			if !p.consume(',') {
				break
			}
		}
	}
	if p.consumeIdent("order") {
		p.consumeIdent("by")
		for {
			key := memo.OrderKey{Expr: p.scalar(sc)}
			if p.consumeIdent("desc") {
				key.Descending = true
			} else {
				p.consumeIdent("asc")
			}
			if p.consumeIdent("nulls") {
				if p.consumeIdent("first") {
					key.NullsFirst = true
				} else {
					p.expectIdent("last")
				}
			}
			w.OrderBy = append(w.OrderBy, key)
			if !p.consume(',') {
				break
			}
		}
	}
	switch {
	case p.consumeIdent("rows"):
		w.Frame.Mode = memo.RowsMode
	case p.consumeIdent("range"):
		w.Frame.Mode = memo.RangeMode
	default:
		return w
	}
	p.consumeIdent("between")
	w.Frame.Start = p.frameBound()
	p.consumeIdent("and")
	w.Frame.End = p.frameBound()
	return w
}

func (p *parser) frameBound() memo.FrameBound {
	switch {
	case p.consumeIdent("unbounded"):
		if p.consumeIdent("preceding") {
			return memo.FrameBound{Type: memo.UnboundedPreceding}
		}
		p.expectIdent("following")
		return memo.FrameBound{Type: memo.UnboundedFollowing}

	case p.consumeIdent("current"):
		p.expectIdent("row")
		return memo.FrameBound{Type: memo.CurrentRow}
	}
	offset := int64(p.int())
	if p.consumeIdent("preceding") {
		return memo.FrameBound{Type: memo.OffsetPreceding, Offset: offset}
	}
	p.expectIdent("following")
	return memo.FrameBound{Type: memo.OffsetFollowing, Offset: offset}
}

// ParseScalar parses a scalar expression over the given input row type.
func ParseScalar(text string, input opt.RowType) (_ opt.ScalarExpr, err error) {
	defer catch(&err)
	p := newParser(text)
	e := p.scalar(&scope{input: input})
	if !p.atEOF() {
		p.next()
		p.errorf("unexpected %q after expression", p.text())
	}
	return e, nil
}

// ParseColumns parses a row type written as "a int, b string null".
func ParseColumns(text string) (_ opt.RowType, err error) {
	defer catch(&err)
	p := newParser(text)
	cols := p.columns()
	if !p.atEOF() {
		p.next()
		p.errorf("unexpected %q after columns", p.text())
	}
	return cols, nil
}
