// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package progparse

import (
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/relopt/pkg/sql/opt"
	"github.com/cockroachdb/relopt/pkg/sql/opt/memo"
	"github.com/cockroachdb/relopt/pkg/sql/opt/props/physical"
)

// Catalog is a set of tables that operator trees can scan.
type Catalog struct {
	tables map[string]*memo.Table
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{tables: make(map[string]*memo.Table)}
}

// AddTable parses a table definition and adds it to the catalog:
//
//	t: a int, b int null
//	docs@search: id int, body string
//
// A convention after "@" marks a table served by an adapter; the convention
// must have been registered.
func (c *Catalog) AddTable(def string) (_ *memo.Table, err error) {
	defer catch(&err)
	p := newParser(def)
	tab := &memo.Table{Name: p.ident()}
	if p.consume('@') {
		name := p.ident()
		conv, ok := physical.ConventionByName(name)
		if !ok {
			p.errorf("unknown convention %q", name)
		}
		tab.Convention = conv
	}
	p.expect(':')
	tab.Columns = p.columns()
	if !p.atEOF() {
		p.next()
		p.errorf("unexpected %q after table definition", p.text())
	}
	if _, ok := c.tables[tab.Name]; ok {
		return nil, errors.Newf("table %q already exists", tab.Name)
	}
	c.tables[tab.Name] = tab
	return tab, nil
}

// Table returns the table with the given name.
func (c *Catalog) Table(name string) (*memo.Table, bool) {
	tab, ok := c.tables[name]
	return tab, ok
}

// TableNames returns the names of all tables, sorted.
func (c *Catalog) TableNames() []string {
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseRel parses an operator tree written as an s-expression:
//
//	(scan t [fields (0, 2)])
//	(values (a int, b int null) (1, 2) (3, null))
//	(filter <rel> <scalar>)
//	(project <rel> [<scalar> [as name], ...])
//	(calc <rel> [<scalar> [as name], ...] [where <scalar>])
//	(join inner|left|right|full <rel> <rel> <scalar>)
//	(aggregate <rel> (<field>, ...) [sum($1) [as name], ...])
//	(sort <rel> [+0,-1] [offset n] [fetch n])
//	(window <rel> [<windowed call> [as name], ...])
//	(union [all] <rel> <rel> ...)
//	(convert <rel> <convention>)
//
// Input references in scalars refer to the fields of the operator's input;
// for joins, to the left fields followed by the right fields.
func (c *Catalog) ParseRel(text string) (_ memo.RelExpr, err error) {
	defer catch(&err)
	p := newParser(text)
	e := c.rel(p)
	if !p.atEOF() {
		p.next()
		p.errorf("unexpected %q after operator tree", p.text())
	}
	return e, nil
}

// MustParseRel is like ParseRel, but panics on error.
func (c *Catalog) MustParseRel(text string) memo.RelExpr {
	e, err := c.ParseRel(text)
	if err != nil {
		panic(err)
	}
	return e
}

func (c *Catalog) rel(p *parser) memo.RelExpr {
	p.expect('(')
	opName := p.ident()
	var e memo.RelExpr

	switch opName {
	case "scan":
		name := p.ident()
		tab, ok := c.tables[name]
		if !ok {
			p.errorf("unknown table %q", name)
		}
		var fields []int
		if p.consumeIdent("fields") {
			fields = p.intList()
		}
		e = memo.NewScan(tab, fields)

	case "values":
		p.expect('(')
		cols := p.columns()
		p.expect(')')
		var rows [][]*memo.LiteralExpr
		for p.consume('(') {
			var row []*memo.LiteralExpr
			for {
				lit, ok := p.scalar(&scope{}).(*memo.LiteralExpr)
				if !ok {
					p.errorf("values rows must contain literals")
				}
				row = append(row, lit)
				if p.consume(')') {
					break
				}
				p.expect(',')
			}
			rows = append(rows, row)
		}
		e = memo.NewValues(cols, rows)

	case "filter":
		input := c.rel(p)
		e = memo.NewFilter(input, p.scalar(&scope{input: input.RowType()}))

	case "project":
		input := c.rel(p)
		exprs, names := p.namedScalars(&scope{input: input.RowType()})
		e = memo.NewProject(input, exprs, names)

	case "calc":
		input := c.rel(p)
		sc := &scope{input: input.RowType()}
		exprs, names := p.namedScalars(sc)
		var cond opt.ScalarExpr
		if p.consumeIdent("where") {
			cond = p.scalar(sc)
		}
		e = memo.NewCalc(input, memo.BuildProgram(input.RowType(), exprs, names, cond))

	case "join":
		var joinType memo.JoinType
		switch jt := p.ident(); jt {
		case "inner":
			joinType = memo.InnerJoin
		case "left":
			joinType = memo.LeftJoin
		case "right":
			joinType = memo.RightJoin
		case "full":
			joinType = memo.FullJoin
		default:
			p.errorf("unknown join type %q", jt)
		}
		left := c.rel(p)
		right := c.rel(p)
		sc := &scope{input: left.RowType().Concat(right.RowType())}
		e = memo.NewJoin(left, right, p.scalar(sc), joinType)

	case "aggregate":
		input := c.rel(p)
		groupBy := p.intList()
		var aggs []memo.AggCall
		p.expect('[')
		for !p.consume(']') {
			fnName := p.ident()
			fn, ok := opt.OperatorByName(fnName)
			if !ok || !opt.IsAggregateOp(fn) {
				p.errorf("unknown aggregate %q", fnName)
			}
			agg := memo.AggCall{Func: fn}
			p.expect('(')
			agg.Distinct = p.consumeIdent("distinct")
			for !p.consume(')') {
				p.expect('$')
				agg.Args = append(agg.Args, p.int())
				p.consume(',')
			}
			if p.consumeIdent("as") {
				agg.Name = p.ident()
			}
			aggs = append(aggs, agg)
			p.consume(',')
		}
		e = memo.NewAggregate(input, groupBy, aggs)

	case "sort":
		input := c.rel(p)
		var ordering physical.Ordering
		for p.peek() == '+' || p.peek() == '-' {
			col := physical.OrderingColumn{Descending: p.next() == '-'}
			col.Field = p.int()
			ordering = append(ordering, col)
			if !p.consume(',') {
				break
			}
		}
		var offset, fetch int64 = 0, memo.NoFetch
		if p.consumeIdent("offset") {
			offset = int64(p.int())
		}
		if p.consumeIdent("fetch") {
			fetch = int64(p.int())
		}
		e = memo.NewSort(input, ordering, offset, fetch)

	case "window":
		input := c.rel(p)
		exprs, names := p.namedScalars(&scope{input: input.RowType()})
		calls := make([]*memo.WindowCallExpr, len(exprs))
		for i, expr := range exprs {
			call, ok := expr.(*memo.WindowCallExpr)
			if !ok {
				p.errorf("window expects windowed calls, found %s", expr)
			}
			calls[i] = call
		}
		e = memo.NewWindow(input, calls, names)

	case "union":
		all := p.consumeIdent("all")
		var inputs []memo.RelExpr
		for p.peek() == '(' {
			inputs = append(inputs, c.rel(p))
		}
		e = memo.NewUnion(inputs, all)

	case "convert":
		input := c.rel(p)
		name := p.ident()
		conv, ok := physical.ConventionByName(name)
		if !ok {
			p.errorf("unknown convention %q", name)
		}
		e = memo.NewConverter(input, conv)

	default:
		p.errorf("unknown operator %q", opName)
	}
	p.expect(')')
	return e
}

// namedScalars parses "[<scalar> [as name], ...]".
func (p *parser) namedScalars(sc *scope) ([]opt.ScalarExpr, []string) {
	var exprs []opt.ScalarExpr
	var names []string
	p.expect('[')
	if p.consume(']') {
		return nil, nil
	}
	for {
		exprs = append(exprs, p.scalar(sc))
		name := ""
		if p.consumeIdent("as") {
			name = p.ident()
		}
		names = append(names, name)
		if p.consume(']') {
			return exprs, names
		}
		p.expect(',')
	}
}

// intList parses "(1, 2, 3)".
func (p *parser) intList() []int {
	res := []int{}
	p.expect('(')
	if p.consume(')') {
		return res
	}
	for {
		res = append(res, p.int())
		if p.consume(')') {
			return res
		}
		p.expect(',')
	}
}
