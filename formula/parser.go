package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/vegasq/tabular/data"
)

// Annotation ties a parsed subexpression to its source span. Offsets
// are rune offsets into the formula text; every constructed node is
// annotated exactly once, which is what syntax highlighting consumes.
type Annotation struct {
	Start int
	End   int
	Expr  Expression
}

// Parse converts a textual formula into an expression tree. The
// formula may start with an optional "=". The returned annotations
// cover every parsed subexpression.
func Parse(text string, loc *Locale) (Expression, []Annotation, error) {
	p := &parser{src: []rune(text), loc: loc}
	p.ws()
	p.accept('=')
	expr, err := p.parseComparison()
	if err != nil {
		return nil, nil, err
	}
	p.ws()
	if p.pos != len(p.src) {
		return nil, nil, fmt.Errorf("formula: unexpected %q at offset %d", string(p.src[p.pos]), p.pos)
	}
	return expr, p.annotations, nil
}

type parser struct {
	src         []rune
	pos         int
	loc         *Locale
	annotations []Annotation
}

// comparison operators, longest first so that "~~=" is never read as
// "~=" followed by "=".
var comparisonOps = []struct {
	symbol string
	op     Binary
}{
	{"±±=", BinaryMatchesRegexStrict},
	{"~~=", BinaryContainsStringStrict},
	{"±=", BinaryMatchesRegex},
	{"~=", BinaryContainsString},
	{"<=", BinaryLesserEqual},
	{">=", BinaryGreaterEqual},
	{"<>", BinaryNotEqual},
	{"=", BinaryEqual},
	{"<", BinaryLesser},
	{">", BinaryGreater},
}

func (p *parser) ws() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) accept(r rune) bool {
	if p.pos < len(p.src) && p.src[p.pos] == r {
		p.pos++
		return true
	}
	return false
}

func (p *parser) acceptString(s string) bool {
	runes := []rune(s)
	if p.pos+len(runes) > len(p.src) {
		return false
	}
	for i, r := range runes {
		if p.src[p.pos+i] != r {
			return false
		}
	}
	p.pos += len(runes)
	return true
}

// node records the annotation for a freshly constructed expression.
func (p *parser) node(start int, e Expression) Expression {
	p.annotations = append(p.annotations, Annotation{Start: start, End: p.pos, Expr: e})
	return e
}

func (p *parser) parseComparison() (Expression, error) {
	start := p.pos
	lhs, err := p.parseConcatenation()
	if err != nil {
		return nil, err
	}
	for {
		p.ws()
		matched := false
		for _, cand := range comparisonOps {
			if p.acceptString(cand.symbol) {
				rhs, err := p.parseConcatenation()
				if err != nil {
					return nil, err
				}
				lhs = p.node(start, &Comparison{Op: cand.op, LHS: lhs, RHS: rhs})
				matched = true
				break
			}
		}
		if !matched {
			return lhs, nil
		}
	}
}

func (p *parser) parseConcatenation() (Expression, error) {
	return p.parseBinaryLevel([]struct {
		symbol string
		op     Binary
	}{{"&", BinaryConcatenation}}, p.parseAdditive)
}

func (p *parser) parseAdditive() (Expression, error) {
	return p.parseBinaryLevel([]struct {
		symbol string
		op     Binary
	}{{"+", BinaryAddition}, {"-", BinarySubtraction}}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() (Expression, error) {
	return p.parseBinaryLevel([]struct {
		symbol string
		op     Binary
	}{{"*", BinaryMultiplication}, {"/", BinaryDivision}, {"%", BinaryModulus}}, p.parseExponent)
}

func (p *parser) parseExponent() (Expression, error) {
	return p.parseBinaryLevel([]struct {
		symbol string
		op     Binary
	}{{"^", BinaryPower}}, p.parseUnary)
}

func (p *parser) parseBinaryLevel(ops []struct {
	symbol string
	op     Binary
}, next func() (Expression, error)) (Expression, error) {
	start := p.pos
	lhs, err := next()
	if err != nil {
		return nil, err
	}
	for {
		p.ws()
		matched := false
		for _, cand := range ops {
			if p.acceptString(cand.symbol) {
				rhs, err := next()
				if err != nil {
					return nil, err
				}
				lhs = p.node(start, &Comparison{Op: cand.op, LHS: lhs, RHS: rhs})
				matched = true
				break
			}
		}
		if !matched {
			return lhs, nil
		}
	}
}

func (p *parser) parseUnary() (Expression, error) {
	p.ws()
	start := p.pos
	if p.accept('-') {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.node(start, &Call{Fn: FunctionNegate, Args: []Expression{inner}}), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expression, error) {
	p.ws()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("formula: unexpected end of formula")
	}
	start := p.pos
	r := p.src[p.pos]

	switch {
	case r == '(':
		p.pos++
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		p.ws()
		if !p.accept(')') {
			return nil, fmt.Errorf("formula: missing ) at offset %d", p.pos)
		}
		return inner, nil

	case r == p.loc.StringQualifier:
		return p.parseString(start)

	case r == '[':
		return p.parseReference(start)

	case unicode.IsDigit(r) || r == p.loc.DecimalSeparator:
		return p.parseNumber(start)
	}

	// Function call: longest localized name first, must be followed
	// by an opening parenthesis.
	rest := string(p.src[p.pos:])
	for _, lf := range p.loc.sortedFunctions {
		if len(rest) >= len(lf.name) && strings.EqualFold(rest[:len(lf.name)], lf.name) {
			after := p.pos + len([]rune(lf.name))
			probe := after
			for probe < len(p.src) && unicode.IsSpace(p.src[probe]) {
				probe++
			}
			if probe < len(p.src) && p.src[probe] == '(' {
				p.pos = after
				return p.parseCall(start, lf.fn)
			}
		}
	}

	// Named constant.
	for _, name := range p.loc.sortedConstants {
		if len(rest) >= len(name) && strings.EqualFold(rest[:len(name)], name) {
			after := p.pos + len([]rune(name))
			if after < len(p.src) && isIdentRune(p.src[after]) {
				continue
			}
			p.pos = after
			return p.node(start, &Literal{Value: p.loc.Constants[name]}), nil
		}
	}

	return nil, fmt.Errorf("formula: unexpected %q at offset %d", string(r), p.pos)
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '_'
}

func (p *parser) parseString(start int) (Expression, error) {
	q := p.loc.StringQualifier
	p.pos++ // opening qualifier
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("formula: unterminated string starting at offset %d", start)
		}
		r := p.src[p.pos]
		if r == q {
			// A doubled qualifier is an escaped literal qualifier.
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == q {
				b.WriteRune(q)
				p.pos += 2
				continue
			}
			p.pos++
			return p.node(start, &Literal{Value: data.String(b.String())}), nil
		}
		b.WriteRune(r)
		p.pos++
	}
}

func (p *parser) parseNumber(start int) (Expression, error) {
	var b strings.Builder
	sawDecimal := false
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		} else if r == p.loc.DecimalSeparator && !sawDecimal {
			sawDecimal = true
			b.WriteRune('.')
		} else {
			break
		}
		p.pos++
	}
	text := b.String()
	if text == "" || text == "." {
		return nil, fmt.Errorf("formula: malformed number at offset %d", start)
	}
	if !sawDecimal {
		i, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return p.node(start, &Literal{Value: data.Int(i)}), nil
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("formula: malformed number %q at offset %d", text, start)
	}
	return p.node(start, &Literal{Value: data.Double(f)}), nil
}

// parseReference reads [@col], [#col] and the bare current-cell token
// [@].
func (p *parser) parseReference(start int) (Expression, error) {
	p.pos++ // '['
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("formula: unterminated reference at offset %d", start)
	}
	kind := p.src[p.pos]
	if kind != '@' && kind != '#' {
		return nil, fmt.Errorf("formula: expected @ or # at offset %d", p.pos)
	}
	p.pos++
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("formula: unterminated reference at offset %d", start)
		}
		r := p.src[p.pos]
		if r == ']' {
			p.pos++
			break
		}
		b.WriteRune(r)
		p.pos++
	}
	name := b.String()
	if kind == '#' {
		if name == "" {
			return nil, fmt.Errorf("formula: empty foreign reference at offset %d", start)
		}
		return p.node(start, &Foreign{Column: data.Column(name)}), nil
	}
	if name == "" {
		return p.node(start, &Identity{}), nil
	}
	return p.node(start, &Sibling{Column: data.Column(name)}), nil
}

func (p *parser) parseCall(start int, fn Function) (Expression, error) {
	p.ws()
	if !p.accept('(') {
		return nil, fmt.Errorf("formula: expected ( at offset %d", p.pos)
	}
	var args []Expression
	p.ws()
	if p.accept(')') {
		return p.node(start, &Call{Fn: fn, Args: args}), nil
	}
	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		p.ws()
		if p.accept(p.loc.ArgumentSeparator) {
			continue
		}
		if p.accept(')') {
			return p.node(start, &Call{Fn: fn, Args: args}), nil
		}
		return nil, fmt.Errorf("formula: expected %q or ) at offset %d", string(p.loc.ArgumentSeparator), p.pos)
	}
}
