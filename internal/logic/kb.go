package logic

import (
	"errors"
	"fmt"
)

// ErrInconsistentKnowledge is returned by Tell when the new sentence would
// leave the knowledge base without a satisfying assignment.
var ErrInconsistentKnowledge = errors.New("inconsistent knowledge")

// Answer is the three-valued result of Ask.
type Answer int

const (
	Unknown Answer = iota
	Entailed
	Refuted
)

func (a Answer) String() string {
	switch a {
	case Entailed:
		return "ENTAILED"
	case Refuted:
		return "REFUTED"
	}
	return "UNKNOWN"
}

// KB is a monotonic clause store. It is not safe for concurrent use; each
// episode owns its own KB.
type KB struct {
	clauses []Clause
	keys    map[string]struct{}
	byAtom  map[string][]int

	method Method
	limit  int
}

type Option func(*KB)

// WithMethod fixes the satisfiability procedure (default MethodAuto).
func WithMethod(m Method) Option { return func(kb *KB) { kb.method = m } }

// WithEnumerationLimit sets the atom count up to which MethodAuto enumerates.
func WithEnumerationLimit(n int) Option { return func(kb *KB) { kb.limit = n } }

func NewKB(opts ...Option) *KB {
	kb := &KB{
		keys:   map[string]struct{}{},
		byAtom: map[string][]int{},
		limit:  DefaultEnumerationLimit,
	}
	for _, o := range opts {
		o(kb)
	}
	return kb
}

// Tell adds e. The KB is unchanged when Tell fails.
func (kb *KB) Tell(e Expr) error {
	var fresh []Clause
	for _, c := range ToCNF(e) {
		if _, ok := kb.keys[c.key()]; ok {
			continue
		}
		fresh = append(fresh, c)
	}
	if len(fresh) == 0 {
		return nil
	}
	candidate := append(kb.relevant(clauseAtoms(fresh)), fresh...)
	if !Satisfiable(candidate, kb.method, kb.limit) {
		return fmt.Errorf("%w: %s", ErrInconsistentKnowledge, e)
	}
	for _, c := range fresh {
		kb.add(c)
	}
	return nil
}

// TellString parses s and tells it.
func (kb *KB) TellString(s string) error {
	e, err := Parse(s)
	if err != nil {
		return err
	}
	return kb.Tell(e)
}

// Ask reports whether q holds in every model of the KB (Entailed), in none
// (Refuted), or in some but not all (Unknown).
func (kb *KB) Ask(q Expr) Answer {
	rel := kb.relevant(AtomsOf(q))
	withNeg := append(append([]Clause(nil), rel...), ToCNF(Neg(q))...)
	if !Satisfiable(withNeg, kb.method, kb.limit) {
		return Entailed
	}
	withQ := append(append([]Clause(nil), rel...), ToCNF(q)...)
	if !Satisfiable(withQ, kb.method, kb.limit) {
		return Refuted
	}
	return Unknown
}

// AskString parses s and asks it.
func (kb *KB) AskString(s string) (Answer, error) {
	q, err := Parse(s)
	if err != nil {
		return Unknown, err
	}
	return kb.Ask(q), nil
}

// Clauses returns a copy of the stored clauses in insertion order.
func (kb *KB) Clauses() []Clause {
	out := make([]Clause, len(kb.clauses))
	copy(out, kb.clauses)
	return out
}

func (kb *KB) Len() int { return len(kb.clauses) }

// Atoms lists every atom mentioned by the KB, sorted.
func (kb *KB) Atoms() []string { return clauseAtoms(kb.clauses) }

func (kb *KB) add(c Clause) {
	i := len(kb.clauses)
	kb.clauses = append(kb.clauses, c)
	kb.keys[c.key()] = struct{}{}
	for _, l := range c {
		kb.byAtom[l.Atom] = append(kb.byAtom[l.Atom], i)
	}
}

// relevant returns the stored clauses connected to seeds through shared
// atoms, in insertion order. The rest of the KB shares no atom with them and
// is satisfiable on its own, so it cannot change a satisfiability verdict.
func (kb *KB) relevant(seeds []string) []Clause {
	seenAtom := map[string]bool{}
	seenClause := make([]bool, len(kb.clauses))
	queue := append([]string(nil), seeds...)
	for _, a := range seeds {
		seenAtom[a] = true
	}
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]
		for _, ci := range kb.byAtom[a] {
			if seenClause[ci] {
				continue
			}
			seenClause[ci] = true
			for _, l := range kb.clauses[ci] {
				if !seenAtom[l.Atom] {
					seenAtom[l.Atom] = true
					queue = append(queue, l.Atom)
				}
			}
		}
	}
	out := make([]Clause, 0, len(kb.clauses))
	for i, ok := range seenClause {
		if ok {
			out = append(out, kb.clauses[i])
		}
	}
	return out
}
