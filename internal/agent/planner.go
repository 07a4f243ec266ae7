package agent

import (
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"wumpusworld.ai/internal/sim/grid"
)

// reachProgram finds safe, unvisited cells that border the region the agent
// can walk through without leaving visited ground.
const reachProgram = `
Decl at(C, R).
Decl visited(C, R).
Decl safe(C, R).
Decl adj(C1, R1, C2, R2).
Decl reach(C, R).
Decl target(C, R).

reach(C, R) :- at(C, R).
reach(C2, R2) :- reach(C1, R1), adj(C1, R1, C2, R2), visited(C2, R2).
target(C2, R2) :- reach(C1, R1), adj(C1, R1, C2, R2), safe(C2, R2), !visited(C2, R2).
`

var (
	predAt      = ast.PredicateSym{Symbol: "at", Arity: 2}
	predVisited = ast.PredicateSym{Symbol: "visited", Arity: 2}
	predSafe    = ast.PredicateSym{Symbol: "safe", Arity: 2}
	predAdj     = ast.PredicateSym{Symbol: "adj", Arity: 4}
	predTarget  = ast.PredicateSym{Symbol: "target", Arity: 2}
)

func cellAtom(p ast.PredicateSym, cells ...grid.Cell) ast.Atom {
	args := make([]ast.BaseTerm, 0, 2*len(cells))
	for _, c := range cells {
		args = append(args, ast.Number(int64(c.Col)), ast.Number(int64(c.Row)))
	}
	return ast.Atom{Predicate: p, Args: args}
}

func atomCell(a ast.Atom) (grid.Cell, error) {
	if len(a.Args) != 2 {
		return grid.Cell{}, fmt.Errorf("%s: want 2 args, got %d", a.Predicate.Symbol, len(a.Args))
	}
	col, ok1 := a.Args[0].(ast.Constant)
	row, ok2 := a.Args[1].(ast.Constant)
	if !ok1 || !ok2 || col.Type != ast.NumberType || row.Type != ast.NumberType {
		return grid.Cell{}, fmt.Errorf("%s: non-numeric cell %v", a.Predicate.Symbol, a.Args)
	}
	return grid.Cell{Col: int(col.NumValue), Row: int(row.NumValue)}, nil
}

// reachableTargets evaluates reachProgram over the agent's current map and
// returns the target cells sorted by (col, row).
func reachableTargets(n int, at grid.Cell, visited grid.Set, safe []grid.Cell) ([]grid.Cell, error) {
	unit, err := parse.Unit(strings.NewReader(reachProgram))
	if err != nil {
		return nil, fmt.Errorf("parse reach program: %w", err)
	}
	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("analyze reach program: %w", err)
	}

	store := factstore.NewSimpleInMemoryStore()
	store.Add(cellAtom(predAt, at))
	for _, v := range visited.Sorted() {
		store.Add(cellAtom(predVisited, v))
	}
	for _, s := range safe {
		store.Add(cellAtom(predSafe, s))
	}
	for _, c := range grid.Cells(n) {
		for _, nb := range grid.Neighbors(c, n) {
			store.Add(cellAtom(predAdj, c, nb))
		}
	}

	if _, err := mengine.EvalProgramWithStats(info, store); err != nil {
		return nil, fmt.Errorf("eval reach program: %w", err)
	}

	var out []grid.Cell
	err = store.GetFacts(ast.NewQuery(predTarget), func(a ast.Atom) error {
		c, err := atomCell(a)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	grid.SortCells(out)
	return out, nil
}

// routeToSafe picks the lowest reachable safe frontier cell and the shortest
// route to it over visited cells.
func (c *Context) routeToSafe(safe []grid.Cell) ([]grid.Cell, bool) {
	if len(safe) == 0 {
		return nil, false
	}
	targets, err := reachableTargets(c.n, c.loc, c.visited, safe)
	if err != nil {
		c.log.Warn("reach program failed", zap.Error(err))
		return nil, false
	}
	for _, t := range targets {
		if route := shortestRoute(c.n, c.loc, t, c.visited); route != nil {
			return route, true
		}
	}
	return nil, false
}
