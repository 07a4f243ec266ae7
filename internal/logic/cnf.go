package logic

import (
	"sort"
	"strings"
)

type Literal struct {
	Atom    string
	Negated bool
}

func (l Literal) String() string {
	if l.Negated {
		return "~" + l.Atom
	}
	return l.Atom
}

func (l Literal) Negate() Literal { return Literal{Atom: l.Atom, Negated: !l.Negated} }

func (l Literal) less(o Literal) bool {
	if l.Atom != o.Atom {
		return l.Atom < o.Atom
	}
	return !l.Negated && o.Negated
}

// Clause is a disjunction of literals, kept sorted and free of duplicates.
// The empty clause is unsatisfiable.
type Clause []Literal

func (c Clause) String() string {
	if len(c) == 0 {
		return "False"
	}
	parts := make([]string, len(c))
	for i, l := range c {
		parts[i] = l.String()
	}
	return strings.Join(parts, " | ")
}

// Expr turns the clause back into a sentence.
func (c Clause) Expr() Expr {
	xs := make([]Expr, len(c))
	for i, l := range c {
		xs[i] = Lit(l.Atom, !l.Negated)
	}
	return Disj(xs...)
}

func (c Clause) key() string { return c.String() }

// normalize sorts and dedupes c; ok is false for tautologies.
func normalize(lits []Literal) (Clause, bool) {
	sort.Slice(lits, func(i, j int) bool { return lits[i].less(lits[j]) })
	out := lits[:0:0]
	for i, l := range lits {
		if i > 0 && lits[i-1] == l {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Atom == l.Atom {
			return nil, false
		}
		out = append(out, l)
	}
	return Clause(out), true
}

// ToCNF converts e into an equivalent set of clauses. Tautological clauses
// are dropped, so True converts to no clauses and False to one empty clause.
func ToCNF(e Expr) []Clause {
	raw := distribute(nnf(e, false))
	seen := make(map[string]struct{}, len(raw))
	out := make([]Clause, 0, len(raw))
	for _, lits := range raw {
		c, ok := normalize(lits)
		if !ok {
			continue
		}
		k := c.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// nnf removes => and <=> and pushes negation down to atoms. neg carries a
// pending negation of e.
func nnf(e Expr, neg bool) Expr {
	switch x := e.(type) {
	case Atom:
		if neg {
			return Not{X: x}
		}
		return x
	case Const:
		return Const(bool(x) != neg)
	case Not:
		return nnf(x.X, !neg)
	case And:
		xs := make([]Expr, len(x.Xs))
		for i, c := range x.Xs {
			xs[i] = nnf(c, neg)
		}
		if neg {
			return Or{Xs: xs}
		}
		return And{Xs: xs}
	case Or:
		xs := make([]Expr, len(x.Xs))
		for i, c := range x.Xs {
			xs[i] = nnf(c, neg)
		}
		if neg {
			return And{Xs: xs}
		}
		return Or{Xs: xs}
	case Implies:
		return nnf(Or{Xs: []Expr{Not{X: x.L}, x.R}}, neg)
	case Iff:
		// (L => R) & (R => L); its negation is (L & ~R) | (R & ~L).
		both := And{Xs: []Expr{
			Or{Xs: []Expr{Not{X: x.L}, x.R}},
			Or{Xs: []Expr{Not{X: x.R}, x.L}},
		}}
		return nnf(both, neg)
	}
	panic("logic: unknown expression type")
}

// distribute expects NNF input and returns raw clauses (unnormalized).
func distribute(e Expr) [][]Literal {
	switch x := e.(type) {
	case Atom:
		return [][]Literal{{{Atom: string(x)}}}
	case Not:
		return [][]Literal{{{Atom: string(x.X.(Atom)), Negated: true}}}
	case Const:
		if x {
			return nil
		}
		return [][]Literal{{}}
	case And:
		var out [][]Literal
		for _, c := range x.Xs {
			out = append(out, distribute(c)...)
		}
		return out
	case Or:
		// Start from the empty clause (False) and cross with each operand.
		acc := [][]Literal{{}}
		for _, c := range x.Xs {
			sub := distribute(c)
			next := make([][]Literal, 0, len(acc)*len(sub))
			for _, a := range acc {
				for _, b := range sub {
					merged := make([]Literal, 0, len(a)+len(b))
					merged = append(merged, a...)
					merged = append(merged, b...)
					next = append(next, merged)
				}
			}
			acc = next
		}
		return acc
	}
	panic("logic: expression not in negation normal form")
}

func clauseAtoms(cs []Clause) []string {
	seen := map[string]struct{}{}
	for _, c := range cs {
		for _, l := range c {
			seen[l.Atom] = struct{}{}
		}
	}
	return sortedKeys(seen)
}
