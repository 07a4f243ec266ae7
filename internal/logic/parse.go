package logic

import (
	"fmt"
	"strings"
)

// ParseError reports malformed sentence text. Offset is a byte offset into
// Input.
type ParseError struct {
	Input  string
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: offset %d: %s", e.Input, e.Offset, e.Msg)
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNot
	tokAnd
	tokOr
	tokImplies
	tokIff
	tokLParen
	tokRParen
)

var tokNames = map[tokKind]string{
	tokEOF:     "end of input",
	tokIdent:   "atom",
	tokNot:     "'~'",
	tokAnd:     "'&'",
	tokOr:      "'|'",
	tokImplies: "'=>'",
	tokIff:     "'<=>'",
	tokLParen:  "'('",
	tokRParen:  "')'",
}

type token struct {
	kind tokKind
	text string
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '~':
			toks = append(toks, token{tokNot, "~", i})
			i++
		case c == '&':
			toks = append(toks, token{tokAnd, "&", i})
			i++
		case c == '|':
			toks = append(toks, token{tokOr, "|", i})
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case strings.HasPrefix(src[i:], "<=>"):
			toks = append(toks, token{tokIff, "<=>", i})
			i += 3
		case strings.HasPrefix(src[i:], "=>"):
			toks = append(toks, token{tokImplies, "=>", i})
			i += 2
		case isLetter(c):
			start := i
			for i < len(src) && (isLetter(src[i]) || src[i] == '_') {
				i++
			}
			for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
				i++
			}
			if i < len(src) && isLetter(src[i]) {
				return nil, &ParseError{Input: src, Offset: i, Msg: "letters may not follow the digits of an atom"}
			}
			toks = append(toks, token{tokIdent, src[start:i], start})
		default:
			return nil, &ParseError{Input: src, Offset: i, Msg: fmt.Sprintf("unexpected character %q", rune(c))}
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

type parser struct {
	src  string
	toks []token
	pos  int
}

// Parse reads a sentence in the textual syntax: atoms, '~', '&', '|', '=>'
// (right associative), '<=>' (left associative) and parentheses. The exact
// words True and False are reserved for the constants and never parse as
// atoms; longer names such as True1 or Falsey are ordinary atoms.
func Parse(src string) (Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.iff()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s after sentence", tokNames[t.kind])
	}
	return e, nil
}

// MustParse is Parse for sentences known to be well formed.
func MustParse(src string) Expr {
	e, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return e
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Input: p.src, Offset: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) iff() (Expr, error) {
	l, err := p.implies()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokIff {
		p.next()
		r, err := p.implies()
		if err != nil {
			return nil, err
		}
		l = Iff{L: l, R: r}
	}
	return l, nil
}

func (p *parser) implies() (Expr, error) {
	l, err := p.or()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokImplies {
		return l, nil
	}
	p.next()
	r, err := p.implies()
	if err != nil {
		return nil, err
	}
	return Implies{L: l, R: r}, nil
}

func (p *parser) or() (Expr, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	xs := []Expr{x}
	for p.peek().kind == tokOr {
		p.next()
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		xs = append(xs, y)
	}
	if len(xs) == 1 {
		return x, nil
	}
	return Or{Xs: xs}, nil
}

func (p *parser) and() (Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	xs := []Expr{x}
	for p.peek().kind == tokAnd {
		p.next()
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		xs = append(xs, y)
	}
	if len(xs) == 1 {
		return x, nil
	}
	return And{Xs: xs}, nil
}

func (p *parser) unary() (Expr, error) {
	if p.peek().kind == tokNot {
		p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return Not{X: x}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		switch t.text {
		case "True":
			return True, nil
		case "False":
			return False, nil
		}
		return Atom(t.text), nil
	case tokLParen:
		e, err := p.iff()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected ')' but found %s", tokNames[c.kind])
		}
		return e, nil
	}
	return nil, p.errorf(t, "expected atom or '(' but found %s", tokNames[t.kind])
}
