package engine

import (
	"testing"

	"meshscope/internal/domain"
)

func TestInferRoutes_PrefersBetterRSSI(t *testing.T) {
	g := domain.NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(3).SetHop(1)
	g.EnsureNode(5).SetHop(2)
	g.AddNeighbor(5, 2)
	g.AddNeighbor(5, 3)
	g.ObserveRSSI(5, 2, -80)
	g.ObserveRSSI(5, 3, -95)
	g.FinalizeGateway()

	added := InferRoutes(g)
	if added != 1 {
		t.Fatalf("expected 1 inferred edge, got %d", added)
	}
	e := g.Edge(5, 2)
	if e == nil || !e.Inferred || e.Weight != 1 {
		t.Errorf("expected inferred edge 5->2 with weight 1, got %+v", e)
	}
	if g.Edge(5, 3) != nil {
		t.Error("the weaker neighbor must not get an edge")
	}
}

func TestInferRoutes_PrefersLowerHop(t *testing.T) {
	g := domain.NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(4).SetHop(2)
	g.AddNeighbor(4, 1)
	g.AddNeighbor(4, 2)
	// The hop-1 neighbor has better RSSI, but the gateway is closer
	g.ObserveRSSI(4, 1, -99)
	g.ObserveRSSI(4, 2, -70)
	g.FinalizeGateway()

	InferRoutes(g)
	if g.Edge(4, 1) == nil {
		t.Error("expected the lowest-hop neighbor to win over better RSSI")
	}
}

func TestInferRoutes_MissingRSSIRanksWorst(t *testing.T) {
	g := domain.NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(3).SetHop(1)
	g.EnsureNode(5).SetHop(2)
	g.AddNeighbor(5, 2)
	g.AddNeighbor(5, 3)
	g.ObserveRSSI(5, 3, -110)
	g.FinalizeGateway()

	InferRoutes(g)
	if g.Edge(5, 3) == nil {
		t.Error("a neighbor with any reading must beat one with none")
	}
}

func TestInferRoutes_SkipsNodesWithObservedRoutes(t *testing.T) {
	g := domain.NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.EnsureNode(2).SetHop(1)
	g.AddNeighbor(2, 1)
	g.AddRouteWeight(2, 1, 7)
	g.FinalizeGateway()

	if added := InferRoutes(g); added != 0 {
		t.Errorf("observed routes must suppress inference, added %d", added)
	}
	if e := g.Edge(2, 1); e.Inferred {
		t.Error("the observed edge must not be re-marked inferred")
	}
}

func TestInferRoutes_EstimatesUnknownHops(t *testing.T) {
	g := domain.NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.EnsureNode(6) // never reported a hop
	g.AddNeighbor(6, 1)
	g.FinalizeGateway()

	InferRoutes(g)
	n := g.Node(6)
	if !n.HopKnown() || n.Hop != 1 || !n.HopEstimated {
		t.Errorf("expected estimated hop 1, got %+v", n)
	}
	if g.Edge(6, 1) == nil {
		t.Error("the estimated node should still route to the gateway")
	}
}

func TestInferRoutes_Idempotent(t *testing.T) {
	g := domain.NewTopologyGraph()
	g.EnsureNode(1).SetHop(0)
	g.EnsureNode(2).SetHop(1)
	g.EnsureNode(5).SetHop(2)
	g.AddNeighbor(5, 2)
	g.FinalizeGateway()

	first := InferRoutes(g)
	second := InferRoutes(g)
	if first != 1 || second != 0 {
		t.Errorf("expected 1 then 0 edges added, got %d then %d", first, second)
	}
	if e := g.Edge(5, 2); e.Weight != 1 {
		t.Errorf("a second run must not grow weights, got %d", e.Weight)
	}
}

func TestInferRoutes_Deterministic(t *testing.T) {
	build := func() *domain.TopologyGraph {
		g := domain.NewTopologyGraph()
		g.EnsureNode(1).SetHop(0)
		g.EnsureNode(2).SetHop(1)
		g.EnsureNode(3).SetHop(1)
		g.EnsureNode(5).SetHop(2)
		g.AddNeighbor(5, 3)
		g.AddNeighbor(5, 2)
		// Identical hop and RSSI; the smaller id must win every time
		g.ObserveRSSI(5, 2, -90)
		g.ObserveRSSI(5, 3, -90)
		g.FinalizeGateway()
		return g
	}

	for i := 0; i < 20; i++ {
		g := build()
		InferRoutes(g)
		if g.Edge(5, 2) == nil {
			t.Fatalf("run %d selected a different neighbor", i)
		}
	}
}
