package agent

import (
	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/grid"
	"wumpusworld.ai/internal/sim/mathx"
)

// turnsToFace returns the shorter rotation from one orientation to another;
// an about-turn goes left twice.
func turnsToFace(from, to grid.Orientation) []protocol.Action {
	switch mathx.Mod(int(to)-int(from), 4) {
	case 1:
		return []protocol.Action{protocol.ActTurnLeft}
	case 2:
		return []protocol.Action{protocol.ActTurnLeft, protocol.ActTurnLeft}
	case 3:
		return []protocol.Action{protocol.ActTurnRight}
	}
	return nil
}

// stepActions rotates toward an adjacent cell and moves into it.
func stepActions(facing grid.Orientation, from, to grid.Cell) []protocol.Action {
	o, _ := grid.Toward(from, to)
	return append(turnsToFace(facing, o), protocol.ActMove)
}

// routeActions expands a cell path (starting at the current cell) into
// rotations and moves.
func routeActions(facing grid.Orientation, route []grid.Cell) []protocol.Action {
	var out []protocol.Action
	for i := 1; i < len(route); i++ {
		o, _ := grid.Toward(route[i-1], route[i])
		out = append(out, turnsToFace(facing, o)...)
		out = append(out, protocol.ActMove)
		facing = o
	}
	return out
}

// shortestRoute is a breadth-first search from src to dst that only steps on
// cells in through (dst itself may lie outside it). Neighbours are expanded
// in sorted order so the route is deterministic. It returns nil when dst is
// unreachable.
func shortestRoute(n int, src, dst grid.Cell, through grid.Set) []grid.Cell {
	if src == dst {
		return []grid.Cell{src}
	}
	prev := map[grid.Cell]grid.Cell{}
	seen := grid.NewSet(src)
	queue := []grid.Cell{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range grid.Neighbors(cur, n) {
			if seen.Has(nb) || (nb != dst && !through.Has(nb)) {
				continue
			}
			seen.Add(nb)
			prev[nb] = cur
			if nb == dst {
				return unwind(prev, src, dst)
			}
			queue = append(queue, nb)
		}
	}
	return nil
}

func unwind(prev map[grid.Cell]grid.Cell, src, dst grid.Cell) []grid.Cell {
	route := []grid.Cell{dst}
	for cur := dst; cur != src; {
		cur = prev[cur]
		route = append(route, cur)
	}
	for i, j := 0, len(route)-1; i < j; i, j = i+1, j-1 {
		route[i], route[j] = route[j], route[i]
	}
	return route
}
