package domain

import "sort"

// DefaultGatewayID is assigned hop count 0 when no node ever reported
// hop 0. Node 1 hosts the gateway firmware in every deployment.
const DefaultGatewayID = 1

// TopologyGraph is the mutable accumulation of everything the event log
// revealed about the mesh: nodes, neighbor links and routing edges.
// It is mutated only during the fold pass; later passes annotate it.
type TopologyGraph struct {
	nodes     map[int]*Node
	neighbors map[int]map[int]bool     // directional adjacency as observed
	links     map[LinkKey]*NeighborLink
	rssi      map[int]map[int]int      // last RSSI observed by node for neighbor
	edges     map[int]map[int]*RoutingEdge

	// GatewayID is 0 until FinalizeGateway has run
	GatewayID int
}

// NewTopologyGraph creates an empty graph
func NewTopologyGraph() *TopologyGraph {
	return &TopologyGraph{
		nodes:     make(map[int]*Node),
		neighbors: make(map[int]map[int]bool),
		links:     make(map[LinkKey]*NeighborLink),
		rssi:      make(map[int]map[int]int),
		edges:     make(map[int]map[int]*RoutingEdge),
	}
}

// EnsureNode returns the node with the given id, creating it on first mention
func (g *TopologyGraph) EnsureNode(id int) *Node {
	if n, ok := g.nodes[id]; ok {
		return n
	}
	n := NewNode(id)
	g.nodes[id] = n
	return n
}

// Node returns the node with the given id, or nil if never mentioned
func (g *TopologyGraph) Node(id int) *Node {
	return g.nodes[id]
}

// Nodes returns all nodes ordered by ascending id
func (g *TopologyGraph) Nodes() []*Node {
	ids := g.NodeIDs()
	nodes := make([]*Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// NodeIDs returns all known node ids in ascending order
func (g *TopologyGraph) NodeIDs() []int {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// AddNeighbor records that node observed neighbor in its neighbor set
func (g *TopologyGraph) AddNeighbor(node, neighbor int) {
	g.EnsureNode(node)
	g.EnsureNode(neighbor)
	if g.neighbors[node] == nil {
		g.neighbors[node] = make(map[int]bool)
	}
	g.neighbors[node][neighbor] = true
	g.ensureLink(node, neighbor)
}

// Neighbors returns the neighbor set of a node in ascending id order
func (g *TopologyGraph) Neighbors(node int) []int {
	set := g.neighbors[node]
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ObserveRSSI records an RSSI reading taken by node for neighbor. The
// directional last value feeds inference tie-breaks; the undirected link
// accumulates the sample history.
func (g *TopologyGraph) ObserveRSSI(node, neighbor, rssi int) {
	if g.rssi[node] == nil {
		g.rssi[node] = make(map[int]int)
	}
	g.rssi[node][neighbor] = rssi
	g.ensureLink(node, neighbor).AddRSSI(rssi)
}

// LastRSSI returns the most recent RSSI node observed for neighbor
func (g *TopologyGraph) LastRSSI(node, neighbor int) (int, bool) {
	v, ok := g.rssi[node][neighbor]
	return v, ok
}

// ConfirmBidirectional records an explicitly confirmed bidirectional link,
// adding the neighbor relation in both directions.
func (g *TopologyGraph) ConfirmBidirectional(a, b int) {
	g.AddNeighbor(a, b)
	g.AddNeighbor(b, a)
	g.ensureLink(a, b).Bidirectional = true
}

// Link returns the undirected link between two nodes, or nil
func (g *TopologyGraph) Link(a, b int) *NeighborLink {
	return g.links[NewLinkKey(a, b)]
}

// Links returns all undirected links ordered by endpoint pair
func (g *TopologyGraph) Links() []*NeighborLink {
	keys := make([]LinkKey, 0, len(g.links))
	for k := range g.links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	links := make([]*NeighborLink, 0, len(keys))
	for _, k := range keys {
		links = append(links, g.links[k])
	}
	return links
}

func (g *TopologyGraph) ensureLink(a, b int) *NeighborLink {
	key := NewLinkKey(a, b)
	if l, ok := g.links[key]; ok {
		return l
	}
	l := NewNeighborLink(a, b)
	g.links[key] = l
	return l
}

// AddRouteWeight increments the packet weight of the from→to routing edge,
// creating it on first mention.
func (g *TopologyGraph) AddRouteWeight(from, to, delta int) *RoutingEdge {
	g.EnsureNode(from)
	g.EnsureNode(to)
	if g.edges[from] == nil {
		g.edges[from] = make(map[int]*RoutingEdge)
	}
	e, ok := g.edges[from][to]
	if !ok {
		e = &RoutingEdge{From: from, To: to}
		g.edges[from][to] = e
	}
	e.Weight += delta
	return e
}

// AddInferredEdge creates a heuristic from→to edge with weight 1
func (g *TopologyGraph) AddInferredEdge(from, to int) *RoutingEdge {
	e := g.AddRouteWeight(from, to, 1)
	e.Inferred = true
	return e
}

// Edge returns the from→to routing edge, or nil
func (g *TopologyGraph) Edge(from, to int) *RoutingEdge {
	return g.edges[from][to]
}

// OutEdges returns the outgoing routing edges of a node ordered by target id
func (g *TopologyGraph) OutEdges(from int) []*RoutingEdge {
	targets := make([]int, 0, len(g.edges[from]))
	for to := range g.edges[from] {
		targets = append(targets, to)
	}
	sort.Ints(targets)
	out := make([]*RoutingEdge, 0, len(targets))
	for _, to := range targets {
		out = append(out, g.edges[from][to])
	}
	return out
}

// Edges returns every routing edge ordered by (from, to)
func (g *TopologyGraph) Edges() []*RoutingEdge {
	var all []*RoutingEdge
	for _, from := range g.NodeIDs() {
		all = append(all, g.OutEdges(from)...)
	}
	return all
}

// OutWeight returns the total packet weight leaving a node
func (g *TopologyGraph) OutWeight(from int) int {
	total := 0
	for _, e := range g.edges[from] {
		total += e.Weight
	}
	return total
}

// FanIn returns the number of distinct incoming routing edges per node
func (g *TopologyGraph) FanIn() map[int]int {
	in := make(map[int]int)
	for _, byTarget := range g.edges {
		for to := range byTarget {
			in[to]++
		}
	}
	return in
}

// PrimaryParent returns the target of the heaviest outgoing edge of a node,
// breaking weight ties by the smaller target id so the choice is stable.
func (g *TopologyGraph) PrimaryParent(from int) (int, bool) {
	best, bestWeight := 0, -1
	for _, e := range g.OutEdges(from) {
		if e.Weight > bestWeight {
			best, bestWeight = e.To, e.Weight
		}
	}
	if bestWeight < 0 {
		return 0, false
	}
	return best, true
}

// FinalizeGateway pins down the gateway after the fold: the lowest node id
// observed at hop 0 wins; with no hop-0 observation at all, node 1 is
// assigned hop 0 by convention.
func (g *TopologyGraph) FinalizeGateway() int {
	if g.GatewayID != 0 {
		return g.GatewayID
	}
	for _, id := range g.NodeIDs() {
		if g.nodes[id].IsGateway() {
			g.GatewayID = id
			return g.GatewayID
		}
	}
	g.EnsureNode(DefaultGatewayID).SetHop(0)
	g.GatewayID = DefaultGatewayID
	return g.GatewayID
}
