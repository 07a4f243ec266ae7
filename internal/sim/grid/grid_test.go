package grid

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNeighbors_CornerEdgeInterior(t *testing.T) {
	cases := []struct {
		c    Cell
		want []Cell
	}{
		{Cell{1, 1}, []Cell{{1, 2}, {2, 1}}},
		{Cell{4, 4}, []Cell{{3, 4}, {4, 3}}},
		{Cell{2, 1}, []Cell{{1, 1}, {2, 2}, {3, 1}}},
		{Cell{2, 3}, []Cell{{1, 3}, {2, 2}, {2, 4}, {3, 3}}},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, Neighbors(c.c, 4)); diff != "" {
			t.Fatalf("Neighbors(%s) mismatch (-want +got):\n%s", c.c, diff)
		}
	}
}

func TestNeighbors_AreSortedAndAdjacent(t *testing.T) {
	for _, c := range Cells(5) {
		nbs := Neighbors(c, 5)
		for i, nb := range nbs {
			if !Adjacent(c, nb) {
				t.Fatalf("%s not adjacent to %s", nb, c)
			}
			if i > 0 && !nbs[i-1].Less(nb) {
				t.Fatalf("neighbours of %s not sorted: %v", c, nbs)
			}
		}
	}
}

func TestCheck_OutOfBounds(t *testing.T) {
	if err := Check(Cell{1, 1}, 4); err != nil {
		t.Fatalf("start cell rejected: %v", err)
	}
	for _, c := range []Cell{{0, 1}, {1, 0}, {5, 1}, {1, 5}} {
		if err := Check(c, 4); !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("Check(%s) = %v, want ErrOutOfBounds", c, err)
		}
	}
}

func TestOrientation_Rotation(t *testing.T) {
	if East.Left() != North || North.Left() != West || West.Left() != South || South.Left() != East {
		t.Fatalf("left rotation broken")
	}
	if East.Right() != South || South.Right() != West {
		t.Fatalf("right rotation broken")
	}
	for o := East; o <= South; o++ {
		if o.Left().Right() != o {
			t.Fatalf("left/right not inverse for %s", o)
		}
	}
}

func TestToward(t *testing.T) {
	o, ok := Toward(Cell{2, 2}, Cell{4, 2})
	if !ok || o != East {
		t.Fatalf("Toward east = %s,%v", o, ok)
	}
	o, ok = Toward(Cell{2, 2}, Cell{2, 1})
	if !ok || o != South {
		t.Fatalf("Toward south = %s,%v", o, ok)
	}
	if _, ok := Toward(Cell{2, 2}, Cell{3, 3}); ok {
		t.Fatalf("diagonal reported as axis-aligned")
	}
}

func TestRay_StopsAtEdge(t *testing.T) {
	want := []Cell{{3, 2}, {4, 2}}
	if diff := cmp.Diff(want, Ray(Cell{2, 2}, East, 4)); diff != "" {
		t.Fatalf("Ray mismatch:\n%s", diff)
	}
	if got := Ray(Cell{1, 1}, South, 4); len(got) != 0 {
		t.Fatalf("Ray off the edge = %v", got)
	}
}
