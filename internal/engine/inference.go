package engine

import (
	"sort"

	"meshscope/internal/domain"
)

// InferRoutes assigns a next hop to every non-gateway node that has no
// observed outgoing route. It runs once over the finalized graph, after
// the fold, and is idempotent: a second run adds nothing.
//
// Candidate selection is deterministic. Among the node's neighbors, only
// those with a strictly lower hop count make progress toward the gateway;
// of those, the smallest hop count wins, ties broken by the best
// last-known RSSI (a missing reading counts as worst), then by the
// smallest id. Candidates are sorted by that key rather than visited in
// map order, so identical state always selects the same neighbor.
//
// Returns the number of edges created.
func InferRoutes(g *domain.TopologyGraph) int {
	// Nodes never observed default to hop 1. This is a documented
	// fallback, not a measurement: a deeper node with a silent firmware
	// will be misplaced next to the gateway. The estimate is flagged on
	// the node and surfaced in the render model.
	for _, n := range g.Nodes() {
		if !n.HopKnown() {
			n.EstimateHop(1)
		}
	}

	added := 0
	for _, n := range g.Nodes() {
		if n.ID == g.GatewayID || g.OutWeight(n.ID) > 0 {
			continue
		}
		if next, ok := selectNextHop(g, n); ok {
			g.AddInferredEdge(n.ID, next)
			added++
		}
	}
	return added
}

func selectNextHop(g *domain.TopologyGraph, n *domain.Node) (int, bool) {
	type candidate struct {
		id   int
		hop  int
		rssi int
	}

	var candidates []candidate
	for _, id := range g.Neighbors(n.ID) {
		neighbor := g.Node(id)
		hop := domain.HopUnknown
		if neighbor != nil && neighbor.HopKnown() {
			hop = neighbor.Hop
		}
		if hop >= n.Hop {
			continue // not a progress-making hop
		}
		rssi := domain.NoRSSI
		if v, ok := g.LastRSSI(n.ID, id); ok {
			rssi = v
		}
		candidates = append(candidates, candidate{id: id, hop: hop, rssi: rssi})
	}
	if len(candidates) == 0 {
		return 0, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.hop != b.hop {
			return a.hop < b.hop
		}
		if a.rssi != b.rssi {
			return a.rssi > b.rssi
		}
		return a.id < b.id
	})
	return candidates[0].id, true
}
