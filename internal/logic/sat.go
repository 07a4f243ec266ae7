package logic

import "fmt"

// Method selects how satisfiability is decided.
type Method int

const (
	// MethodAuto enumerates models when the relevant atom count is at most
	// the enumeration limit and runs DPLL above it.
	MethodAuto Method = iota
	MethodEnumerate
	MethodDPLL
)

func (m Method) String() string {
	switch m {
	case MethodEnumerate:
		return "enumerate"
	case MethodDPLL:
		return "dpll"
	}
	return "auto"
}

// ParseMethod accepts the names printed by Method.String; "" means
// MethodAuto.
func ParseMethod(s string) (Method, error) {
	for _, m := range []Method{MethodAuto, MethodEnumerate, MethodDPLL} {
		if s == m.String() {
			return m, nil
		}
	}
	if s == "" {
		return MethodAuto, nil
	}
	return MethodAuto, fmt.Errorf("unknown method %q", s)
}

// DefaultEnumerationLimit keeps truth-table enumeration at 2^16 models.
const DefaultEnumerationLimit = 16

// maxEnumerate bounds explicit MethodEnumerate requests; larger problems go
// to DPLL so a query always terminates in reasonable time.
const maxEnumerate = 30

// Satisfiable reports whether some assignment satisfies every clause.
func Satisfiable(cs []Clause, m Method, limit int) bool {
	p := compile(cs)
	if p.empty {
		return false
	}
	switch {
	case m == MethodEnumerate && len(p.atoms) <= maxEnumerate:
		return p.enumerate()
	case m == MethodAuto && len(p.atoms) <= limit:
		return p.enumerate()
	}
	return p.dpll()
}

// problem is a clause set with atoms numbered 1..n in sorted name order.
// Literal v means atom v true, -v means false.
type problem struct {
	atoms   []string
	clauses [][]int
	empty   bool
}

func compile(cs []Clause) *problem {
	p := &problem{atoms: clauseAtoms(cs)}
	idx := make(map[string]int, len(p.atoms))
	for i, a := range p.atoms {
		idx[a] = i + 1
	}
	p.clauses = make([][]int, 0, len(cs))
	for _, c := range cs {
		if len(c) == 0 {
			p.empty = true
		}
		lits := make([]int, len(c))
		for i, l := range c {
			v := idx[l.Atom]
			if l.Negated {
				v = -v
			}
			lits[i] = v
		}
		p.clauses = append(p.clauses, lits)
	}
	return p
}

// enumerate walks all 2^n assignments in counting order.
func (p *problem) enumerate() bool {
	n := len(p.atoms)
	vals := make([]bool, n+1)
	for bits := uint64(0); bits < uint64(1)<<n; bits++ {
		for i := 1; i <= n; i++ {
			vals[i] = bits&(uint64(1)<<(i-1)) != 0
		}
		if p.holds(vals) {
			return true
		}
	}
	return false
}

func (p *problem) holds(vals []bool) bool {
	for _, c := range p.clauses {
		sat := false
		for _, lit := range c {
			if (lit > 0) == vals[abs(lit)] {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

func (p *problem) dpll() bool {
	s := &dpllState{p: p, assign: make([]int8, len(p.atoms)+1)}
	return s.solve()
}

type dpllState struct {
	p      *problem
	assign []int8 // 0 unassigned, 1 true, -1 false
	trail  []int
}

func (s *dpllState) value(lit int) int8 {
	v := s.assign[abs(lit)]
	if lit < 0 {
		return -v
	}
	return v
}

func (s *dpllState) set(lit int) {
	v := abs(lit)
	if lit > 0 {
		s.assign[v] = 1
	} else {
		s.assign[v] = -1
	}
	s.trail = append(s.trail, v)
}

func (s *dpllState) undo(mark int) {
	for _, v := range s.trail[mark:] {
		s.assign[v] = 0
	}
	s.trail = s.trail[:mark]
}

// propagate assigns unit literals until fixpoint; false means a clause has
// every literal false.
func (s *dpllState) propagate() bool {
	for changed := true; changed; {
		changed = false
		for _, c := range s.p.clauses {
			unassigned, last := 0, 0
			sat := false
			for _, lit := range c {
				switch s.value(lit) {
				case 1:
					sat = true
				case 0:
					unassigned++
					last = lit
				}
				if sat {
					break
				}
			}
			if sat {
				continue
			}
			switch unassigned {
			case 0:
				return false
			case 1:
				s.set(last)
				changed = true
			}
		}
	}
	return true
}

// branchLiteral picks the first unassigned literal of the first clause not
// yet satisfied; 0 means every clause is satisfied.
func (s *dpllState) branchLiteral() int {
	for _, c := range s.p.clauses {
		pick := 0
		sat := false
		for _, lit := range c {
			switch s.value(lit) {
			case 1:
				sat = true
			case 0:
				if pick == 0 {
					pick = lit
				}
			}
			if sat {
				break
			}
		}
		if !sat && pick != 0 {
			return pick
		}
	}
	return 0
}

func (s *dpllState) solve() bool {
	mark := len(s.trail)
	if !s.propagate() {
		s.undo(mark)
		return false
	}
	lit := s.branchLiteral()
	if lit == 0 {
		return true
	}
	for _, try := range [2]int{lit, -lit} {
		inner := len(s.trail)
		s.set(try)
		if s.solve() {
			return true
		}
		s.undo(inner)
	}
	s.undo(mark)
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
