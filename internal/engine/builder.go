// Package engine folds decoded event records into a topology graph and
// derives routes, statistics, classification and layout from it.
package engine

import (
	"sort"

	"meshscope/internal/codec"
	"meshscope/internal/domain"
)

// pendingEdge is a routing edge whose target is the gateway but was
// observed before any node reported hop 0. It is resolved during
// finalization instead of being silently dropped.
type pendingEdge struct {
	from   int
	weight int
}

// Builder folds events one at a time, in arrival order, into mutable
// graph state. Order matters only for last-write-wins scalars; route
// inference runs later as an order-independent pass.
type Builder struct {
	graph     *domain.TopologyGraph
	receipts  map[int][]domain.ReceiptRecord
	txCounts  map[int]int
	latencies map[int]*domain.LatencyStat

	pending        []pendingEdge
	decodeFailures int
	applied        int
	unrecognized   int
	finalized      bool
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		graph:     domain.NewTopologyGraph(),
		receipts:  make(map[int][]domain.ReceiptRecord),
		txCounts:  make(map[int]int),
		latencies: make(map[int]*domain.LatencyStat),
	}
}

// ApplyRecord decodes and folds one raw record. Decode failures are
// tallied and discarded; they never abort the fold.
func (b *Builder) ApplyRecord(rec codec.Record) {
	ev, err := codec.Decode(rec)
	if err != nil {
		b.decodeFailures++
		return
	}
	b.Apply(ev)
}

// Apply folds one decoded event into the graph
func (b *Builder) Apply(ev codec.Event) {
	switch e := ev.(type) {
	case codec.NeighborAdded:
		b.applyNeighborAdded(e)
	case codec.BidirLink:
		b.graph.ConfirmBidirectional(e.Node, e.Neighbor)
		if e.HasRSSI {
			b.graph.ObserveRSSI(e.Node, e.Neighbor, e.RSSI)
		}
	case codec.HopChange:
		b.applyHopChange(e)
	case codec.GwRxData:
		b.applyGwRxData(e)
	case codec.AutoSend:
		b.graph.EnsureNode(e.Node)
		b.txCounts[e.Node]++
	case codec.Latency:
		b.graph.EnsureNode(e.Sender)
		b.latency(e.Sender).Add(e.LatencyMs)
	case codec.PdrNode, codec.PdrNetwork:
		// Gateway-side delivery reports feed the live observer tables,
		// not the reconstructed graph; receipts and transmit counters
		// are the authoritative inputs here.
	case codec.Unrecognized:
		b.unrecognized++
		return
	}
	b.applied++
}

func (b *Builder) applyNeighborAdded(e codec.NeighborAdded) {
	b.graph.AddNeighbor(e.Node, e.Neighbor)
	if e.HasRSSI {
		b.graph.ObserveRSSI(e.Node, e.Neighbor, e.RSSI)
	}
	if !e.HasHop {
		return
	}
	if e.Hop == 0 {
		// The neighbor is the gateway
		b.graph.EnsureNode(e.Neighbor).SetHop(0)
		// A direct neighbor of the gateway sits at hop 1, unless it
		// already knows better
		if node := b.graph.EnsureNode(e.Node); !node.HopObserved {
			node.SetHop(1)
		}
	}
}

func (b *Builder) applyHopChange(e codec.HopChange) {
	node := b.graph.EnsureNode(e.Node)
	if e.NewHop == domain.HopUnknown {
		// The firmware lost its route; the hop count is unknown again
		// and a later gateway rediscovery may re-promote the node
		node.ClearHop()
		return
	}
	node.SetHop(e.NewHop)
	switch {
	case e.HasVia:
		b.graph.AddRouteWeight(e.Node, e.Via, 1)
	case e.NewHop == 1:
		// Direct to gateway; defer when the gateway is not yet known
		if gw, ok := b.knownGateway(); ok {
			b.graph.AddRouteWeight(e.Node, gw, 1)
		} else {
			b.pending = append(b.pending, pendingEdge{from: e.Node, weight: 1})
		}
	}
}

func (b *Builder) applyGwRxData(e codec.GwRxData) {
	rec := domain.ReceiptRecord{
		From:       e.From,
		Hops:       e.Hops,
		HasHops:    e.HasHops,
		Route:      e.Route,
		LatencyMs:  e.LatencyMs,
		HasLatency: e.HasLatency,
		RSSI:       e.RSSI,
		HasRSSI:    e.HasRSSI,
	}
	// Only the gateway emits receipts, so the reporting node is a hop-0
	// observation in its own right. Route tails and deferred edges then
	// resolve against it instead of the node-1 convention.
	b.graph.EnsureNode(e.Gateway).SetHop(0)

	b.graph.EnsureNode(e.From)
	b.receipts[e.From] = append(b.receipts[e.From], rec)

	if e.HasHops {
		b.graph.EnsureNode(e.From).SetHop(e.Hops)
	}
	if e.HasLatency {
		b.latency(e.From).Add(e.LatencyMs)
	}

	// Each consecutive pair of the forwarding path is one observed hop
	for i := 0; i+1 < len(e.Route); i++ {
		from, to := e.Route[i], e.Route[i+1]
		if from == codec.GatewayToken {
			continue
		}
		if to == codec.GatewayToken {
			if gw, ok := b.knownGateway(); ok {
				b.graph.AddRouteWeight(from, gw, 1)
			} else {
				b.pending = append(b.pending, pendingEdge{from: from, weight: 1})
			}
			continue
		}
		b.graph.AddRouteWeight(from, to, 1)
	}
}

func (b *Builder) latency(node int) *domain.LatencyStat {
	s, ok := b.latencies[node]
	if !ok {
		s = &domain.LatencyStat{NodeID: node}
		b.latencies[node] = s
	}
	return s
}

// knownGateway reports the gateway id if any node has been observed at
// hop 0 so far.
func (b *Builder) knownGateway() (int, bool) {
	if b.graph.GatewayID != 0 {
		return b.graph.GatewayID, true
	}
	for _, id := range b.graph.NodeIDs() {
		if n := b.graph.Node(id); n.IsGateway() {
			return id, true
		}
	}
	return 0, false
}

// Finalize pins down the gateway and resolves edges that were deferred
// because the gateway was unknown when they were observed. Safe to call
// once the fold is complete; further Apply calls are not expected.
func (b *Builder) Finalize() *domain.TopologyGraph {
	if b.finalized {
		return b.graph
	}
	gw := b.graph.FinalizeGateway()

	// Merge deferred gateway edges, keeping weights cumulative
	byFrom := make(map[int]int)
	for _, p := range b.pending {
		byFrom[p.from] += p.weight
	}
	froms := make([]int, 0, len(byFrom))
	for from := range byFrom {
		froms = append(froms, from)
	}
	sort.Ints(froms)
	for _, from := range froms {
		if from != gw {
			b.graph.AddRouteWeight(from, gw, byFrom[from])
		}
	}
	b.pending = nil
	b.finalized = true
	return b.graph
}

// Graph exposes the accumulating graph. Before Finalize the gateway may
// still be unknown.
func (b *Builder) Graph() *domain.TopologyGraph {
	return b.graph
}

// Receipts returns the accumulated gateway receipt records per source node
func (b *Builder) Receipts() map[int][]domain.ReceiptRecord {
	return b.receipts
}

// TxCount returns the transmit counter observed for a node
func (b *Builder) TxCount(node int) int {
	return b.txCounts[node]
}

// DecodeFailures returns the count of records rejected by the decoder
func (b *Builder) DecodeFailures() int {
	return b.decodeFailures
}

// Unrecognized returns the count of records with unknown type tags
func (b *Builder) Unrecognized() int {
	return b.unrecognized
}

// Applied returns the count of events folded into the graph
func (b *Builder) Applied() int {
	return b.applied
}
