package engine

import (
	"meshscope/internal/codec"
	"meshscope/internal/domain"
)

// Result is the complete outcome of one analysis run
type Result struct {
	Graph     *domain.TopologyGraph
	Stats     *Stats
	Class     domain.TopologyClass
	Positions map[int]domain.Position
	Model     *domain.RenderModel
	Receipts  map[int][]domain.ReceiptRecord

	DecodeFailures int
	Unrecognized   int
	InferredEdges  int
}

// Run executes the full pipeline over an ordered record sequence:
// fold, gateway finalization, route inference, statistics aggregation,
// classification, layout and render-model export. Deterministic for any
// fixed input sequence.
func Run(records []codec.Record) *Result {
	b := NewBuilder()
	for _, rec := range records {
		b.ApplyRecord(rec)
	}
	return Finish(b)
}

// Finish runs the post-fold passes over an already-populated builder.
// The live monitor uses it to analyze state collected incrementally.
func Finish(b *Builder) *Result {
	g := b.Finalize()
	inferred := InferRoutes(g)
	stats := Aggregate(b)
	class := domain.Classify(g)
	positions := domain.Layout(g, class)

	return &Result{
		Graph:          g,
		Stats:          stats,
		Class:          class,
		Positions:      positions,
		Model:          buildModel(g, stats, class, positions),
		Receipts:       b.Receipts(),
		DecodeFailures: b.DecodeFailures(),
		Unrecognized:   b.Unrecognized(),
		InferredEdges:  inferred,
	}
}

// buildModel flattens the annotated graph into the read-only export
func buildModel(g *domain.TopologyGraph, stats *Stats, class domain.TopologyClass, positions map[int]domain.Position) *domain.RenderModel {
	model := &domain.RenderModel{
		Topology:  class,
		GatewayID: g.GatewayID,
		Network:   stats.Network,
	}

	for _, n := range g.Nodes() {
		rn := RenderNode(n, stats, positions)
		model.Nodes = append(model.Nodes, rn)
	}

	for _, e := range g.Edges() {
		total := g.OutWeight(e.From)
		model.Edges = append(model.Edges, domain.RenderEdge{
			From:     e.From,
			To:       e.To,
			Weight:   e.Weight,
			Primary:  IsPrimary(e.Weight, total),
			Inferred: e.Inferred,
		})
	}
	return model
}

// RenderNode flattens one node with its statistics and position
func RenderNode(n *domain.Node, stats *Stats, positions map[int]domain.Position) domain.RenderNode {
	rn := domain.RenderNode{
		ID:           n.ID,
		Hop:          n.Hop,
		HopEstimated: n.HopEstimated,
		Gateway:      n.IsGateway(),
		Position:     positions[n.ID],
	}
	if p, ok := stats.PDR[n.ID]; ok {
		rn.PDR = p.Ratio()
		rn.PDREstimated = p.Estimated
		rn.Received = p.Received
		rn.Transmitted = p.Transmitted
	}
	if l, ok := stats.Latency[n.ID]; ok {
		rn.AvgLatencyMs = l.Avg()
	}
	return rn
}

// IsPrimary reports whether an edge carries at least half of its source's
// outgoing packet weight. Zero total weight can never be primary.
func IsPrimary(weight, totalWeight int) bool {
	if totalWeight <= 0 {
		return false
	}
	return weight*2 >= totalWeight
}
