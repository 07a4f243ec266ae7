package logic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Precedence(t *testing.T) {
	cases := []struct {
		in   string
		want Expr
	}{
		{"P12", Atom("P12")},
		{"~P12", Not{X: Atom("P12")}},
		{"~~A", Not{X: Not{X: Atom("A")}}},
		{"A & B | C", Or{Xs: []Expr{And{Xs: []Expr{Atom("A"), Atom("B")}}, Atom("C")}}},
		{"A | B & C", Or{Xs: []Expr{Atom("A"), And{Xs: []Expr{Atom("B"), Atom("C")}}}}},
		{"A => B => C", Implies{L: Atom("A"), R: Implies{L: Atom("B"), R: Atom("C")}}},
		{"A <=> B <=> C", Iff{L: Iff{L: Atom("A"), R: Atom("B")}, R: Atom("C")}},
		{"A | B => C", Implies{L: Or{Xs: []Expr{Atom("A"), Atom("B")}}, R: Atom("C")}},
		{"B11 <=> (P12 | P21)", Iff{L: Atom("B11"), R: Or{Xs: []Expr{Atom("P12"), Atom("P21")}}}},
		{"~(A & B)", Not{X: And{Xs: []Expr{Atom("A"), Atom("B")}}}},
		{"True | False", Or{Xs: []Expr{True, False}}},
		{"~W_12", Not{X: Atom("W_12")}},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParse_ReservedWords(t *testing.T) {
	for in, want := range map[string]Expr{
		"True":   True,
		"False":  False,
		"~True":  Not{X: True},
		"True1":  Atom("True1"),
		"Falsey": Atom("Falsey"),
		"true":   Atom("true"),
	} {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	kb := NewKB()
	a, err := kb.AskString("True")
	require.NoError(t, err)
	assert.Equal(t, Entailed, a)
}

func TestParse_StringRoundTrip(t *testing.T) {
	inputs := []string{
		"B11 <=> (P12 | P21)",
		"~P12 & ~W12",
		"(A => B) => C",
		"A => (B <=> C)",
		"~(A | B) & (C | ~D)",
		"A <=> (B <=> C)",
		"(A & B) & C",
		"A | (B | C)",
		"~~A",
	}
	for _, in := range inputs {
		e, err := Parse(in)
		require.NoError(t, err, in)
		again, err := Parse(e.String())
		require.NoError(t, err, e.String())
		assert.Equal(t, e, again, "round trip of %q via %q", in, e.String())
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		in     string
		offset int
	}{
		{"", 0},
		{"A &", 3},
		{"(A | B", 6},
		{"A B", 2},
		{"A # B", 2},
		{"P12x", 3},
		{"A = B", 2},
		{")", 0},
	}
	for _, c := range cases {
		_, err := Parse(c.in)
		require.Error(t, err, c.in)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "%q: %v is not a ParseError", c.in, err)
		assert.Equal(t, c.offset, pe.Offset, c.in)
	}
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, True, Conj())
	assert.Equal(t, False, Disj())
	assert.Equal(t, Atom("A"), Conj(Atom("A")))
	assert.Equal(t, "~P12 & ~W12", Conj(Neg(A("P12")), Neg(A("W12"))).String())
	assert.Equal(t, "B11 <=> P12 | P21", Equiv(A("B11"), Disj(A("P12"), A("P21"))).String())
	assert.Equal(t, []string{"A", "B", "C"}, AtomsOf(MustParse("C => (B | ~A) & A")))
}
