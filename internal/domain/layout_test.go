package domain

import (
	"math"
	"testing"
)

func TestLayout_Star(t *testing.T) {
	g := finalized(t)
	for _, id := range []int{2, 3, 4, 5} {
		g.EnsureNode(id).SetHop(1)
		g.AddRouteWeight(id, 1, 1)
	}

	pos := Layout(g, ClassStar)
	if pos[1] != (Position{0, 0}) {
		t.Errorf("star gateway belongs at the origin, got %+v", pos[1])
	}
	for _, id := range []int{2, 3, 4, 5} {
		p := pos[id]
		r := math.Hypot(p.X, p.Y)
		if math.Abs(r-starRadius) > 1e-9 {
			t.Errorf("node %d not on the circle: radius %f", id, r)
		}
	}
	// Ascending-id order around the circle starts at angle 0
	if math.Abs(pos[2].X-starRadius) > 1e-9 || math.Abs(pos[2].Y) > 1e-9 {
		t.Errorf("lowest id should sit at angle 0, got %+v", pos[2])
	}
}

func TestLayout_Lanes(t *testing.T) {
	g := finalized(t)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(3).SetHop(2)
	g.EnsureNode(4).SetHop(3)

	pos := Layout(g, ClassLinear)
	if pos[1] != (Position{0, 0}) {
		t.Errorf("gateway belongs at the origin, got %+v", pos[1])
	}
	for hop, id := range map[int]int{1: 2, 2: 3, 3: 4} {
		want := float64(hop) * laneGap
		if pos[id].X != want {
			t.Errorf("node %d at hop %d: expected x=%f, got %f", id, hop, want, pos[id].X)
		}
		if pos[id].Y != 0 {
			t.Errorf("single-node lane must center at y=0, got %f", pos[id].Y)
		}
	}
}

func TestLayout_Tree(t *testing.T) {
	g := finalized(t)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(3).SetHop(2)
	g.EnsureNode(4).SetHop(2)
	g.AddRouteWeight(2, 1, 5)
	g.AddRouteWeight(3, 2, 5)
	g.AddRouteWeight(4, 2, 5)

	pos := Layout(g, ClassMixed)
	if pos[1] != (Position{-branchColumnGap, 0}) {
		t.Errorf("tree gateway belongs left of the column, got %+v", pos[1])
	}
	if pos[2].X != 0 {
		t.Errorf("hop-1 column belongs at x=0, got %f", pos[2].X)
	}
	for _, id := range []int{3, 4} {
		if pos[id].X != pos[2].X+branchColumnGap {
			t.Errorf("node %d must sit one column right of its parent, got x=%f", id, pos[id].X)
		}
	}
	// Two siblings straddle the parent's y
	if mid := (pos[3].Y + pos[4].Y) / 2; math.Abs(mid-pos[2].Y) > 1e-9 {
		t.Errorf("siblings must center on the parent, midpoint %f vs parent %f", mid, pos[2].Y)
	}
	if pos[3].Y >= pos[4].Y {
		t.Errorf("siblings must rank by id: %f vs %f", pos[3].Y, pos[4].Y)
	}
}

func TestLayout_SecondaryEdgeDoesNotShiftSiblings(t *testing.T) {
	g := finalized(t)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(3).SetHop(1)
	for _, id := range []int{4, 5, 6} {
		g.EnsureNode(id).SetHop(2)
	}
	g.AddRouteWeight(2, 1, 5)
	g.AddRouteWeight(3, 1, 5)
	g.AddRouteWeight(4, 2, 5)
	g.AddRouteWeight(5, 2, 5)
	g.AddRouteWeight(6, 3, 5)
	// Node 6 also holds a lighter alternate route through node 2; its
	// primary parent stays node 3, so it must not count as a sibling of
	// nodes 4 and 5.
	g.AddRouteWeight(6, 2, 1)

	pos := Layout(g, ClassMixed)
	if math.Abs(pos[4].Y-pos[5].Y) != siblingGap {
		t.Errorf("two siblings must sit one gap apart, got %f and %f", pos[4].Y, pos[5].Y)
	}
	if mid := (pos[4].Y + pos[5].Y) / 2; math.Abs(mid-pos[2].Y) > 1e-9 {
		t.Errorf("siblings must center on their parent, midpoint %f vs %f", mid, pos[2].Y)
	}
	if pos[6].Y != pos[3].Y {
		t.Errorf("a sole child must sit level with its primary parent, got %f vs %f", pos[6].Y, pos[3].Y)
	}
	if pos[6].X != pos[3].X+branchColumnGap {
		t.Errorf("node 6 must sit one column right of node 3, got x=%f", pos[6].X)
	}
}

func TestLayout_Deterministic(t *testing.T) {
	build := func() *TopologyGraph {
		g := NewTopologyGraph()
		g.EnsureNode(1).SetHop(0)
		g.EnsureNode(4).SetHop(2)
		g.EnsureNode(2).SetHop(1)
		g.EnsureNode(3).SetHop(2)
		g.AddRouteWeight(2, 1, 3)
		g.AddRouteWeight(3, 2, 1)
		g.AddRouteWeight(4, 2, 2)
		g.FinalizeGateway()
		return g
	}

	a := Layout(build(), ClassMixed)
	for i := 0; i < 10; i++ {
		b := Layout(build(), ClassMixed)
		if len(a) != len(b) {
			t.Fatalf("position counts differ: %d vs %d", len(a), len(b))
		}
		for id, p := range a {
			if b[id] != p {
				t.Fatalf("node %d moved between runs: %+v vs %+v", id, p, b[id])
			}
		}
	}
}

func TestLayout_EveryNodePlaced(t *testing.T) {
	g := finalized(t)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(7) // hop never observed

	for _, class := range []TopologyClass{ClassStar, ClassLinear, ClassBranching, ClassMixed} {
		pos := Layout(g, class)
		for _, id := range g.NodeIDs() {
			if _, ok := pos[id]; !ok {
				t.Errorf("%s layout left node %d unplaced", class, id)
			}
		}
	}
}
