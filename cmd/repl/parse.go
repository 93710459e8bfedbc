package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/bawdo/cypherbee/nodes"
)

// tokenKind classifies lexer output.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokParam
	tokSymbol
)

// token is a single lexeme of command input. Quoted identifiers
// (`like this`) are idents with quoted set, so they never match keywords.
type token struct {
	kind   tokenKind
	text   string
	quoted bool
	pos    int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokString:
		return strconv.Quote(t.text)
	case tokParam:
		return "$" + t.text
	}
	return t.text
}

// twoCharSymbols are matched before single characters. "<-" and "->" are
// deliberately absent: patterns assemble arrows from single symbols.
var twoCharSymbols = []string{"<=", ">=", "<>", "=~", "..", "+=", "!="}

// lex splits command input into tokens.
func lex(input string) ([]token, error) {
	var toks []token
	rs := []rune(input)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[start:i]), pos: start})
		case r == '`':
			start := i
			var sb strings.Builder
			i++
			for {
				if i >= len(rs) {
					return nil, fmt.Errorf("unterminated quoted name at %d", start)
				}
				if rs[i] == '`' {
					if i+1 < len(rs) && rs[i+1] == '`' {
						sb.WriteRune('`')
						i += 2
						continue
					}
					i++
					break
				}
				sb.WriteRune(rs[i])
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: sb.String(), quoted: true, pos: start})
		case unicode.IsDigit(r):
			start := i
			for i < len(rs) && unicode.IsDigit(rs[i]) {
				i++
			}
			if i+1 < len(rs) && rs[i] == '.' && unicode.IsDigit(rs[i+1]) {
				i++
				for i < len(rs) && unicode.IsDigit(rs[i]) {
					i++
				}
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, token{kind: tokNumber, text: string(rs[start:i]), pos: start})
		case r == '\'' || r == '"':
			s, next, err := lexString(rs, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: s, pos: i})
			i = next
		case r == '$':
			start := i
			i++
			for i < len(rs) && (rs[i] == '_' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			if i == start+1 {
				return nil, fmt.Errorf("expected parameter name after $ at %d", start)
			}
			toks = append(toks, token{kind: tokParam, text: string(rs[start+1 : i]), pos: start})
		default:
			matched := false
			if i+1 < len(rs) {
				pair := string(rs[i : i+2])
				for _, sym := range twoCharSymbols {
					if pair == sym {
						toks = append(toks, token{kind: tokSymbol, text: sym, pos: i})
						i += 2
						matched = true
						break
					}
				}
			}
			if matched {
				continue
			}
			if !strings.ContainsRune("()[]{},.:=<>-*|+", r) {
				return nil, fmt.Errorf("unexpected character %q at %d", r, i)
			}
			toks = append(toks, token{kind: tokSymbol, text: string(r), pos: i})
			i++
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs)}), nil
}

func lexString(rs []rune, start int) (string, int, error) {
	quote := rs[start]
	var sb strings.Builder
	for i := start + 1; i < len(rs); i++ {
		switch rs[i] {
		case quote:
			return sb.String(), i + 1, nil
		case '\\':
			i++
			if i >= len(rs) {
				return "", 0, fmt.Errorf("unterminated string at %d", start)
			}
			switch rs[i] {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(rs[i])
			}
		default:
			sb.WriteRune(rs[i])
		}
	}
	return "", 0, fmt.Errorf("unterminated string at %d", start)
}

// parser is a recursive-descent reader over the tokens of one command.
type parser struct {
	toks []token
	pos  int
	// label and relType rewrite names as they are read; nil keeps them.
	label   func(string) string
	relType func(string) string
}

func newParser(input string, s *Session) (*parser, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if s != nil && s.normalize {
		p.label = normalizeLabel
		p.relType = normalizeRelType
	}
	return p, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool { return p.peek().kind == tokEOF }

func (p *parser) isSymbol(sym string) bool {
	t := p.peek()
	return t.kind == tokSymbol && t.text == sym
}

func (p *parser) accept(sym string) bool {
	if p.isSymbol(sym) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(sym string) error {
	if !p.accept(sym) {
		return fmt.Errorf("expected %q, got %s", sym, p.peek())
	}
	return nil
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.kind == tokIdent && !t.quoted && strings.EqualFold(t.text, kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) error {
	if !p.acceptKeyword(kw) {
		return fmt.Errorf("expected %s, got %s", kw, p.peek())
	}
	return nil
}

func (p *parser) ident(what string) (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", fmt.Errorf("expected %s, got %s", what, t)
	}
	p.pos++
	return t.text, nil
}

func (p *parser) done() error {
	if !p.atEnd() {
		return fmt.Errorf("unexpected %s", p.peek())
	}
	return nil
}

func (p *parser) name(n string, f func(string) string) string {
	if f == nil {
		return n
	}
	return f(n)
}

// --- patterns ---

// parsePatterns reads a comma separated list of pattern elements:
//
//	(p:Person)-[:ACTED_IN]->(m:Movie), (d:Director)
//	path = (a)-[*1..3]-(b)
func (s *Session) parsePatterns(input string) ([]nodes.PatternElement, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	var parts []nodes.PatternElement
	for {
		el, err := p.patternElement()
		if err != nil {
			return nil, err
		}
		parts = append(parts, el)
		if !p.accept(",") {
			break
		}
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return parts, nil
}

func (p *parser) patternElement() (nodes.PatternElement, error) {
	var pathName string
	if p.peek().kind == tokIdent && p.peekAt(1).kind == tokSymbol && p.peekAt(1).text == "=" {
		pathName = p.next().text
		p.next()
	}
	first, err := p.nodePattern()
	if err != nil {
		return nil, err
	}
	var el nodes.PatternElement = first
	for p.isSymbol("-") || p.isSymbol("<") {
		el, err = p.relationship(el)
		if err != nil {
			return nil, err
		}
	}
	if pathName != "" {
		return nodes.Path(pathName, el), nil
	}
	return el, nil
}

func (p *parser) nodePattern() (*nodes.NodePattern, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var variable string
	if p.peek().kind == tokIdent {
		variable = p.next().text
	}
	var labels []string
	for p.accept(":") {
		l, err := p.ident("label")
		if err != nil {
			return nil, err
		}
		labels = append(labels, p.name(l, p.label))
	}
	n := nodes.NewNode(labels...)
	if variable != "" {
		n = n.Named(variable)
	}
	if p.isSymbol("{") {
		props, err := p.mapLiteral()
		if err != nil {
			return nil, err
		}
		n = n.WithProperties(props)
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return n, nil
}

// relDetails holds the bracketed part of a relationship while it is read.
type relDetails struct {
	variable string
	types    []string
	props    *nodes.MapExpression
	varLen   bool
	minHops  int
	maxHops  int
}

func (p *parser) relationship(left nodes.PatternElement) (nodes.PatternElement, error) {
	incoming := p.accept("<")
	if err := p.expect("-"); err != nil {
		return nil, err
	}
	d := relDetails{minHops: -1, maxHops: -1}
	if p.isSymbol("[") {
		if err := p.relDetails(&d); err != nil {
			return nil, err
		}
	}
	if err := p.expect("-"); err != nil {
		return nil, err
	}
	outgoing := p.accept(">")
	if incoming && outgoing {
		return nil, errors.New("relationship cannot point both ways")
	}
	right, err := p.nodePattern()
	if err != nil {
		return nil, err
	}

	type hop interface {
		RelationshipTo(*nodes.NodePattern, ...string) *nodes.RelationshipPattern
		RelationshipFrom(*nodes.NodePattern, ...string) *nodes.RelationshipPattern
		RelationshipBetween(*nodes.NodePattern, ...string) *nodes.RelationshipPattern
	}
	h, ok := left.(hop)
	if !ok {
		return nil, errors.New("a path cannot be extended")
	}
	var rel *nodes.RelationshipPattern
	switch {
	case outgoing:
		rel = h.RelationshipTo(right, d.types...)
	case incoming:
		rel = h.RelationshipFrom(right, d.types...)
	default:
		rel = h.RelationshipBetween(right, d.types...)
	}
	if d.variable != "" {
		rel = rel.Named(d.variable)
	}
	if d.props != nil {
		rel = rel.WithProperties(d.props)
	}
	if d.varLen {
		if d.minHops < 0 && d.maxHops < 0 {
			rel = rel.Unbounded()
		} else if rel, err = rel.Length(d.minHops, d.maxHops); err != nil {
			return nil, err
		}
	}
	return rel, nil
}

func (p *parser) relDetails(d *relDetails) error {
	p.next() // [
	if p.peek().kind == tokIdent {
		d.variable = p.next().text
	}
	if p.accept(":") {
		for {
			t, err := p.ident("relationship type")
			if err != nil {
				return err
			}
			d.types = append(d.types, p.name(t, p.relType))
			if !p.accept("|") {
				break
			}
			p.accept(":")
		}
	}
	if p.accept("*") {
		d.varLen = true
		if p.peek().kind == tokNumber {
			n, err := p.hops()
			if err != nil {
				return err
			}
			d.minHops, d.maxHops = n, n
		}
		if p.accept("..") {
			d.maxHops = -1
			if p.peek().kind == tokNumber {
				n, err := p.hops()
				if err != nil {
					return err
				}
				d.maxHops = n
			}
		}
	}
	if p.isSymbol("{") {
		props, err := p.mapLiteral()
		if err != nil {
			return err
		}
		d.props = props
	}
	return p.expect("]")
}

func (p *parser) hops() (int, error) {
	t := p.next()
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, fmt.Errorf("invalid hop count %q", t.text)
	}
	return n, nil
}

// --- expressions ---

// parseCondition reads a boolean expression such as
//
//	p.age > 30 AND (p.name STARTS WITH 'A' OR p.name IS NULL)
func (s *Session) parseCondition(input string) (nodes.Node, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	n, err := p.condition()
	if err != nil {
		return nil, err
	}
	return n, p.done()
}

// parseExpression reads a single expression without requiring it to be
// boolean.
func (s *Session) parseExpression(input string) (nodes.Node, error) {
	return s.parseCondition(input)
}

// parseItems reads a comma separated projection list. Items may carry
// an alias: count(m) AS movies.
func (s *Session) parseItems(input string) ([]nodes.Node, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	var items []nodes.Node
	for {
		n, err := p.condition()
		if err != nil {
			return nil, err
		}
		if p.acceptKeyword("as") {
			alias, err := p.ident("alias")
			if err != nil {
				return nil, err
			}
			n = nodes.NewAliasedExpression(n, alias)
		}
		items = append(items, n)
		if !p.accept(",") {
			break
		}
	}
	return items, p.done()
}

// parseSortItems reads ORDER BY items: expr [ASC|DESC], ...
func (s *Session) parseSortItems(input string) ([]*nodes.SortItem, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	var items []*nodes.SortItem
	for {
		n, err := p.condition()
		if err != nil {
			return nil, err
		}
		dir := nodes.Ascending
		switch {
		case p.acceptKeyword("desc"), p.acceptKeyword("descending"):
			dir = nodes.Descending
		case p.acceptKeyword("asc"), p.acceptKeyword("ascending"):
		}
		items = append(items, nodes.NewSortItem(n, dir))
		if !p.accept(",") {
			break
		}
	}
	return items, p.done()
}

// parseUnwind reads: <expr> AS <alias>.
func (s *Session) parseUnwind(input string) (nodes.Node, string, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, "", err
	}
	n, err := p.condition()
	if err != nil {
		return nil, "", err
	}
	if err := p.expectKeyword("as"); err != nil {
		return nil, "", err
	}
	alias, err := p.ident("alias")
	if err != nil {
		return nil, "", err
	}
	return n, alias, p.done()
}

// parseSetItems reads SET items separated by commas:
//
//	p.age = 36, p += {born: 1815}, p:Admin:Staff
func (s *Session) parseSetItems(input string) ([]nodes.Node, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	var items []nodes.Node
	for {
		name, err := p.ident("variable")
		if err != nil {
			return nil, err
		}
		v := nodes.Var(name)
		switch {
		case p.isSymbol(":"):
			labels, err := p.labelList()
			if err != nil {
				return nil, err
			}
			items = append(items, nodes.NewLabelOperation(v, labels...))
		case p.accept("+="):
			m, err := p.mapLiteral()
			if err != nil {
				return nil, err
			}
			items = append(items, nodes.MergeProperties(v, m))
		default:
			var target nodes.Node = v
			for p.accept(".") {
				key, err := p.ident("property key")
				if err != nil {
					return nil, err
				}
				target = nodes.NewProperty(target, key)
			}
			if err := p.expect("="); err != nil {
				return nil, err
			}
			val, err := p.condition()
			if err != nil {
				return nil, err
			}
			items = append(items, nodes.Assign(target, val))
		}
		if !p.accept(",") {
			break
		}
	}
	return items, p.done()
}

// removeItem is one REMOVE target: either a property or labels.
type removeItem struct {
	prop   *nodes.Property
	v      *nodes.SymbolicName
	labels []string
}

// parseRemoveItems reads: p.age, p:Admin, ...
func (s *Session) parseRemoveItems(input string) ([]removeItem, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	var items []removeItem
	for {
		name, err := p.ident("variable")
		if err != nil {
			return nil, err
		}
		v := nodes.Var(name)
		if p.isSymbol(":") {
			labels, err := p.labelList()
			if err != nil {
				return nil, err
			}
			items = append(items, removeItem{v: v, labels: labels})
		} else {
			if err := p.expect("."); err != nil {
				return nil, err
			}
			key, err := p.ident("property key")
			if err != nil {
				return nil, err
			}
			items = append(items, removeItem{prop: v.Prop(key)})
		}
		if !p.accept(",") {
			break
		}
	}
	return items, p.done()
}

// parseVariables reads a comma separated list of variable names.
func (s *Session) parseVariables(input string) ([]nodes.Node, error) {
	p, err := newParser(input, s)
	if err != nil {
		return nil, err
	}
	var vars []nodes.Node
	for {
		name, err := p.ident("variable")
		if err != nil {
			return nil, err
		}
		vars = append(vars, nodes.Var(name))
		if !p.accept(",") {
			break
		}
	}
	return vars, p.done()
}

func (p *parser) labelList() ([]string, error) {
	var labels []string
	for p.accept(":") {
		l, err := p.ident("label")
		if err != nil {
			return nil, err
		}
		labels = append(labels, p.name(l, p.label))
	}
	return labels, nil
}

func (p *parser) condition() (nodes.Node, error) {
	left, err := p.xorExpr()
	if err != nil {
		return nil, err
	}
	grouped := false
	for p.acceptKeyword("or") {
		right, err := p.xorExpr()
		if err != nil {
			return nil, err
		}
		left, grouped = nodes.NewOr(left, right), true
	}
	if grouped {
		return nodes.NewGrouping(left), nil
	}
	return left, nil
}

func (p *parser) xorExpr() (nodes.Node, error) {
	left, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	grouped := false
	for p.acceptKeyword("xor") {
		right, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		left, grouped = nodes.NewXor(left, right), true
	}
	if grouped {
		return nodes.NewGrouping(left), nil
	}
	return left, nil
}

func (p *parser) andExpr() (nodes.Node, error) {
	left, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.acceptKeyword("and") {
		right, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		left = nodes.NewAnd(left, right)
	}
	return left, nil
}

func (p *parser) notExpr() (nodes.Node, error) {
	if p.acceptKeyword("not") {
		inner, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return nodes.NewNot(inner), nil
	}
	return p.comparison()
}

var comparisonSymbols = map[string]nodes.ComparisonOp{
	"=":  nodes.OpEq,
	"<>": nodes.OpNotEq,
	"!=": nodes.OpNotEq,
	">":  nodes.OpGt,
	">=": nodes.OpGtEq,
	"<":  nodes.OpLt,
	"<=": nodes.OpLtEq,
	"=~": nodes.OpRegexp,
}

func (p *parser) comparison() (nodes.Node, error) {
	left, err := p.atom()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokSymbol {
		if op, ok := comparisonSymbols[t.text]; ok {
			p.next()
			right, err := p.atom()
			if err != nil {
				return nil, err
			}
			return nodes.NewComparisonNode(left, right, op), nil
		}
	}
	switch {
	case p.acceptKeyword("is"):
		if p.acceptKeyword("not") {
			if err := p.expectKeyword("null"); err != nil {
				return nil, err
			}
			return nodes.NewUnaryNode(left, nodes.OpIsNotNull), nil
		}
		if err := p.expectKeyword("null"); err != nil {
			return nil, err
		}
		return nodes.NewUnaryNode(left, nodes.OpIsNull), nil
	case p.acceptKeyword("starts"):
		return p.keywordComparison(left, "with", nodes.OpStartsWith)
	case p.acceptKeyword("ends"):
		return p.keywordComparison(left, "with", nodes.OpEndsWith)
	case p.acceptKeyword("contains"):
		return p.keywordComparison(left, "", nodes.OpContains)
	case p.acceptKeyword("in"):
		return p.keywordComparison(left, "", nodes.OpIn)
	}
	return left, nil
}

func (p *parser) keywordComparison(left nodes.Node, second string, op nodes.ComparisonOp) (nodes.Node, error) {
	if second != "" {
		if err := p.expectKeyword(second); err != nil {
			return nil, err
		}
	}
	right, err := p.atom()
	if err != nil {
		return nil, err
	}
	return nodes.NewComparisonNode(left, right, op), nil
}

func (p *parser) atom() (nodes.Node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		return parseNumber(t.text, false)
	case tokString:
		p.next()
		return nodes.String(t.text), nil
	case tokParam:
		p.next()
		return nodes.Param(t.text), nil
	case tokEOF:
		return nil, errors.New("unexpected end of input")
	case tokSymbol:
		switch t.text {
		case "-":
			p.next()
			n := p.next()
			if n.kind != tokNumber {
				return nil, fmt.Errorf("expected number after '-', got %s", n)
			}
			return parseNumber(n.text, true)
		case "(":
			p.next()
			inner, err := p.condition()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			if g, ok := inner.(*nodes.GroupingNode); ok {
				return g, nil
			}
			return nodes.NewGrouping(inner), nil
		case "[":
			return p.listLiteral()
		case "{":
			return p.mapLiteral()
		case "*":
			p.next()
			return nodes.Star(), nil
		}
		return nil, fmt.Errorf("unexpected %s", t)
	}

	if !t.quoted {
		switch strings.ToLower(t.text) {
		case "true":
			p.next()
			return nodes.Boolean(true), nil
		case "false":
			p.next()
			return nodes.Boolean(false), nil
		case "null":
			p.next()
			return nodes.Null(), nil
		}
	}
	return p.reference()
}

// reference reads a variable with optional property lookups, or a
// (possibly namespaced) function call.
func (p *parser) reference() (nodes.Node, error) {
	first := p.next()
	path := []string{first.text}
	for p.isSymbol(".") && p.peekAt(1).kind == tokIdent {
		p.next()
		path = append(path, p.next().text)
	}
	if p.isSymbol("(") && !first.quoted {
		return p.functionCall(strings.Join(path, "."))
	}
	var n nodes.Node = nodes.Var(path[0])
	for _, key := range path[1:] {
		n = nodes.NewProperty(n, key)
	}
	return n, nil
}

func (p *parser) functionCall(name string) (nodes.Node, error) {
	p.next() // (
	distinct := p.acceptKeyword("distinct")
	var args []nodes.Node
	if !p.isSymbol(")") {
		for {
			arg, err := p.condition()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.accept(",") {
				break
			}
		}
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}
	if distinct {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s(DISTINCT ...) takes one argument", name)
		}
		switch strings.ToLower(name) {
		case "count":
			return nodes.CountDistinct(args[0]), nil
		case "collect":
			return nodes.CollectDistinct(args[0]), nil
		}
		return nil, fmt.Errorf("DISTINCT is only supported in count and collect, not %s", name)
	}
	return nodes.NewFunction(name, args...), nil
}

func (p *parser) listLiteral() (nodes.Node, error) {
	p.next() // [
	var elems []nodes.Literal
	if !p.isSymbol("]") {
		for {
			n, err := p.atom()
			if err != nil {
				return nil, err
			}
			lit, ok := n.(nodes.Literal)
			if !ok {
				return nil, errors.New("list elements must be literals")
			}
			elems = append(elems, lit)
			if !p.accept(",") {
				break
			}
		}
	}
	if err := p.expect("]"); err != nil {
		return nil, err
	}
	return nodes.List(elems...), nil
}

func (p *parser) mapLiteral() (*nodes.MapExpression, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var entries []*nodes.MapEntry
	if !p.isSymbol("}") {
		for {
			key, err := p.mapKey()
			if err != nil {
				return nil, err
			}
			if err := p.expect(":"); err != nil {
				return nil, err
			}
			val, err := p.condition()
			if err != nil {
				return nil, err
			}
			entries = append(entries, nodes.Entry(key, val))
			if !p.accept(",") {
				break
			}
		}
	}
	if err := p.expect("}"); err != nil {
		return nil, err
	}
	return nodes.NewMap(entries...), nil
}

func (p *parser) mapKey() (string, error) {
	t := p.next()
	switch t.kind {
	case tokIdent, tokString:
		return t.text, nil
	}
	return "", fmt.Errorf("expected map key, got %s", t)
}

func parseNumber(text string, negative bool) (nodes.Node, error) {
	if negative {
		text = "-" + text
	}
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return nodes.Number(i), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return nodes.Number(f), nil
}

// parseParamValue converts the text of a "param" command into a Go value
// for execution: numbers, booleans, null, quoted strings and lists.
func parseParamValue(text string) (any, error) {
	p, err := newParser(text, nil)
	if err != nil {
		return nil, err
	}
	n, err := p.atom()
	if err != nil {
		return nil, err
	}
	if err := p.done(); err != nil {
		return nil, err
	}
	return literalValue(n)
}

func literalValue(n nodes.Node) (any, error) {
	switch v := n.(type) {
	case *nodes.NumberLiteral:
		return v.Content(), nil
	case *nodes.StringLiteral:
		return v.Content(), nil
	case *nodes.BooleanLiteral:
		return v.Content(), nil
	case *nodes.NullLiteral:
		return nil, nil
	case *nodes.ListLiteral:
		var out []any
		for _, e := range v.Content() {
			val, err := literalValue(e)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case *nodes.MapExpression:
		out := map[string]any{}
		for _, e := range v.Entries() {
			val, err := literalValue(e.Value())
			if err != nil {
				return nil, err
			}
			out[e.Key()] = val
		}
		return out, nil
	}
	return nil, fmt.Errorf("parameter values must be literals, got %T", n)
}
