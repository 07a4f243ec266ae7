// Package logic is a small propositional knowledge base: a typed sentence
// tree, a parser for the textual form, CNF conversion and an entailment
// checker that answers Entailed, Refuted or Unknown.
package logic

import (
	"sort"
	"strings"
)

// Expr is a propositional sentence. The concrete types are Atom, Const, Not,
// And, Or, Implies and Iff.
type Expr interface {
	String() string
	prec() int
}

type Atom string

type Const bool

const (
	True  = Const(true)
	False = Const(false)
)

type Not struct{ X Expr }

type And struct{ Xs []Expr }

type Or struct{ Xs []Expr }

type Implies struct{ L, R Expr }

type Iff struct{ L, R Expr }

// Binding strength, used by String to decide on parentheses.
const (
	precIff = iota + 1
	precImplies
	precOr
	precAnd
	precNot
	precAtom
)

func (Atom) prec() int    { return precAtom }
func (Const) prec() int   { return precAtom }
func (Not) prec() int     { return precNot }
func (And) prec() int     { return precAnd }
func (Or) prec() int      { return precOr }
func (Implies) prec() int { return precImplies }
func (Iff) prec() int     { return precIff }

func A(name string) Atom { return Atom(name) }

func Neg(x Expr) Expr { return Not{X: x} }

// Conj builds a conjunction; zero operands yield True and one yields the
// operand itself.
func Conj(xs ...Expr) Expr {
	switch len(xs) {
	case 0:
		return True
	case 1:
		return xs[0]
	}
	return And{Xs: append([]Expr(nil), xs...)}
}

// Disj builds a disjunction; zero operands yield False.
func Disj(xs ...Expr) Expr {
	switch len(xs) {
	case 0:
		return False
	case 1:
		return xs[0]
	}
	return Or{Xs: append([]Expr(nil), xs...)}
}

func Imp(l, r Expr) Expr { return Implies{L: l, R: r} }

func Equiv(l, r Expr) Expr { return Iff{L: l, R: r} }

// Lit returns the atom or its negation.
func Lit(name string, positive bool) Expr {
	if positive {
		return Atom(name)
	}
	return Not{X: Atom(name)}
}

func (a Atom) String() string { return string(a) }

func (c Const) String() string {
	if c {
		return "True"
	}
	return "False"
}

func (n Not) String() string { return "~" + wrap(n.X, precNot) }

func (a And) String() string {
	if len(a.Xs) == 0 {
		return True.String()
	}
	return joinOps(a.Xs, " & ", precAnd+1)
}

func (o Or) String() string {
	if len(o.Xs) == 0 {
		return False.String()
	}
	return joinOps(o.Xs, " | ", precOr+1)
}

func (i Implies) String() string {
	return wrap(i.L, precImplies+1) + " => " + wrap(i.R, precImplies)
}

func (i Iff) String() string {
	return wrap(i.L, precIff) + " <=> " + wrap(i.R, precIff+1)
}

func wrap(e Expr, minPrec int) string {
	if e.prec() < minPrec {
		return "(" + e.String() + ")"
	}
	return e.String()
}

func joinOps(xs []Expr, op string, minPrec int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = wrap(x, minPrec)
	}
	return strings.Join(parts, op)
}

// Model is a truth assignment; atoms missing from the map are false.
type Model map[string]bool

// Eval reports whether e holds under m.
func Eval(e Expr, m Model) bool {
	switch x := e.(type) {
	case Atom:
		return m[string(x)]
	case Const:
		return bool(x)
	case Not:
		return !Eval(x.X, m)
	case And:
		for _, c := range x.Xs {
			if !Eval(c, m) {
				return false
			}
		}
		return true
	case Or:
		for _, c := range x.Xs {
			if Eval(c, m) {
				return true
			}
		}
		return false
	case Implies:
		return !Eval(x.L, m) || Eval(x.R, m)
	case Iff:
		return Eval(x.L, m) == Eval(x.R, m)
	}
	panic("logic: unknown expression type")
}

// AtomsOf returns the distinct atom names in e, sorted.
func AtomsOf(e Expr) []string {
	seen := map[string]struct{}{}
	collectAtoms(e, seen)
	return sortedKeys(seen)
}

func collectAtoms(e Expr, seen map[string]struct{}) {
	switch x := e.(type) {
	case Atom:
		seen[string(x)] = struct{}{}
	case Not:
		collectAtoms(x.X, seen)
	case And:
		for _, c := range x.Xs {
			collectAtoms(c, seen)
		}
	case Or:
		for _, c := range x.Xs {
			collectAtoms(c, seen)
		}
	case Implies:
		collectAtoms(x.L, seen)
		collectAtoms(x.R, seen)
	case Iff:
		collectAtoms(x.L, seen)
		collectAtoms(x.R, seen)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
