package domain

import "testing"

// finalized builds a graph with an established gateway at node 1
func finalized(t *testing.T) *TopologyGraph {
	t.Helper()
	g := NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.FinalizeGateway()
	return g
}

func TestClassify(t *testing.T) {
	t.Run("star when every node routes directly to the gateway", func(t *testing.T) {
		g := finalized(t)
		for _, id := range []int{2, 3, 4} {
			g.EnsureNode(id).SetHop(1)
			g.AddRouteWeight(id, 1, 5)
		}
		if got := Classify(g); got != ClassStar {
			t.Errorf("expected Star, got %s", got)
		}
	})

	t.Run("linear chain", func(t *testing.T) {
		g := finalized(t)
		g.EnsureNode(2).SetHop(1)
		g.EnsureNode(3).SetHop(2)
		g.EnsureNode(4).SetHop(3)
		g.AddRouteWeight(2, 1, 5)
		g.AddRouteWeight(3, 2, 5)
		g.AddRouteWeight(4, 3, 5)
		if got := Classify(g); got != ClassLinear {
			t.Errorf("expected Linear, got %s", got)
		}
	})

	t.Run("branching when three edges converge", func(t *testing.T) {
		g := finalized(t)
		g.EnsureNode(2).SetHop(1)
		for _, id := range []int{3, 4, 5} {
			g.EnsureNode(id).SetHop(2)
			g.AddRouteWeight(id, 2, 5)
		}
		g.AddRouteWeight(2, 1, 5)
		if got := Classify(g); got != ClassBranching {
			t.Errorf("expected Branching, got %s", got)
		}
	})

	t.Run("mixed on fan-in of exactly two", func(t *testing.T) {
		g := finalized(t)
		g.EnsureNode(2).SetHop(1)
		g.EnsureNode(3).SetHop(2)
		g.EnsureNode(4).SetHop(2)
		g.AddRouteWeight(2, 1, 5)
		g.AddRouteWeight(3, 2, 5)
		g.AddRouteWeight(4, 2, 5)
		if got := Classify(g); got != ClassMixed {
			t.Errorf("expected Mixed, got %s", got)
		}
	})

	t.Run("hop-1 node without a gateway edge is not a star", func(t *testing.T) {
		g := finalized(t)
		g.EnsureNode(2).SetHop(1)
		g.EnsureNode(3).SetHop(1)
		g.AddRouteWeight(2, 1, 5)
		// node 3 has no observed route
		if got := Classify(g); got == ClassStar {
			t.Error("star requires a direct gateway edge from every node")
		}
	})
}
