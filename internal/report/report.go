// Package report formats analysis results for the console. All output is
// ordered by node id so repeated runs print identically.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"meshscope/internal/domain"
	"meshscope/internal/engine"
)

const rule = "======================================================================"

// Summary writes the full topology analysis summary
func Summary(w io.Writer, res *engine.Result) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "TOPOLOGY ANALYSIS SUMMARY")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nTopology Type: %s\n", res.Class)
	fmt.Fprintf(w, "Gateway: Node %d\n", res.Graph.GatewayID)
	fmt.Fprintf(w, "Total Nodes: %d\n", len(res.Graph.NodeIDs()))
	if res.DecodeFailures > 0 || res.Unrecognized > 0 {
		fmt.Fprintf(w, "Rejected Records: %d malformed, %d unknown type\n",
			res.DecodeFailures, res.Unrecognized)
	}

	hopDistribution(w, res.Graph)
	routingPaths(w, res.Graph)
	pdrTable(w, res.Stats)
	latencyTable(w, res.Stats)
	fmt.Fprintln(w, rule)
}

func hopDistribution(w io.Writer, g *domain.TopologyGraph) {
	groups := make(map[int][]int)
	for _, n := range g.Nodes() {
		if !n.HopKnown() {
			continue
		}
		groups[n.Hop] = append(groups[n.Hop], n.ID)
	}
	hops := make([]int, 0, len(groups))
	for hop := range groups {
		hops = append(hops, hop)
	}
	sort.Ints(hops)

	fmt.Fprintln(w, "\nHop Count Distribution:")
	for _, hop := range hops {
		ids := groups[hop]
		sort.Ints(ids)
		fmt.Fprintf(w, "  Hop %d: %v\n", hop, ids)
	}
}

func routingPaths(w io.Writer, g *domain.TopologyGraph) {
	fmt.Fprintln(w, "\nRouting Paths:")
	for _, from := range g.NodeIDs() {
		edges := g.OutEdges(from)
		if len(edges) == 0 {
			continue
		}
		total := g.OutWeight(from)
		fmt.Fprintf(w, "  Node %d:\n", from)

		// Heaviest first; equal weights by target id
		sort.SliceStable(edges, func(i, j int) bool {
			return edges[i].Weight > edges[j].Weight
		})
		for _, e := range edges {
			pct := 0.0
			if total > 0 {
				pct = float64(e.Weight) / float64(total) * 100
			}
			kind := "ALTERNATE"
			if engine.IsPrimary(e.Weight, total) {
				kind = "PRIMARY"
			}
			line := fmt.Sprintf("    -> Node %d: %d packets (%.1f%%) [%s]", e.To, e.Weight, pct, kind)
			if e.Inferred {
				line += " (inferred)"
			}
			if rssi, ok := g.LastRSSI(from, e.To); ok {
				line += fmt.Sprintf(" (RSSI: %d dBm)", rssi)
			}
			fmt.Fprintln(w, line)
		}
	}
}

func pdrTable(w io.Writer, stats *engine.Stats) {
	if len(stats.PDR) == 0 {
		return
	}
	fmt.Fprintln(w, "\nPDR Statistics (from gateway receipts):")
	for _, id := range stats.PDRNodes() {
		p := stats.PDR[id]
		mark := ""
		if p.Estimated {
			mark = " ~estimated, no transmit count"
		}
		fmt.Fprintf(w, "  Node %d: PDR=%.1f%% (RX=%d/%d)%s\n",
			id, p.Ratio(), p.Received, p.Transmitted, mark)
	}
	net := stats.Network
	fmt.Fprintf(w, "  TOTAL: %d/%d packets received at gateway (%.1f%%)\n",
		net.Received, net.Transmitted, net.Ratio())
}

func latencyTable(w io.Writer, stats *engine.Stats) {
	if len(stats.Latency) == 0 {
		return
	}
	fmt.Fprintln(w, "\nLatency Statistics (End-to-End):")
	for _, id := range stats.LatencyNodes() {
		l := stats.Latency[id]
		if len(l.Samples) == 0 {
			continue
		}
		fmt.Fprintf(w, "  Node %d: Avg=%.1fms, Min=%.1fms, Max=%.1fms (%d samples)\n",
			id, l.Avg(), l.Min(), l.Max(), len(l.Samples))
	}
}

// Links writes the bidirectional-link report with RSSI aggregates
func Links(w io.Writer, g *domain.TopologyGraph) {
	links := g.Links()
	if len(links) == 0 {
		return
	}
	fmt.Fprintln(w, "\nBidirectional Links (with average RSSI):")
	for _, l := range links {
		if !l.Bidirectional {
			continue
		}
		avg, ok := l.AvgRSSI()
		if !ok {
			fmt.Fprintf(w, "  Node %d <---> Node %d\n", l.Key.A, l.Key.B)
			continue
		}
		fmt.Fprintf(w, "  Node %d <---> Node %d | Avg RSSI: %.0f dBm (%s)\n",
			l.Key.A, l.Key.B, avg, l.Quality())
	}
}

// RoutingDiagram renders an ASCII diagram of the mesh grouped by hop layer
func RoutingDiagram(g *domain.TopologyGraph) string {
	var b strings.Builder
	b.WriteString(strings.Repeat("=", 60) + "\n")
	b.WriteString(" ROUTING DIAGRAM\n")
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	groups := make(map[int][]int)
	maxHop := 0
	for _, n := range g.Nodes() {
		hop := 1
		if n.HopKnown() {
			hop = n.Hop
		}
		groups[hop] = append(groups[hop], n.ID)
		if hop > maxHop {
			maxHop = hop
		}
	}

	for hop := 0; hop <= maxHop; hop++ {
		ids := groups[hop]
		if len(ids) == 0 {
			continue
		}
		sort.Ints(ids)

		label := fmt.Sprintf("Hop %d", hop)
		if hop == 0 {
			label = "Gateway"
		}
		b.WriteString(fmt.Sprintf("[%s]\n", label))

		cells := make([]string, 0, len(ids))
		for _, id := range ids {
			if id == g.GatewayID {
				cells = append(cells, fmt.Sprintf("[GW(%d)]", id))
			} else {
				cells = append(cells, fmt.Sprintf("[N%d]", id))
			}
		}
		b.WriteString("    " + strings.Join(cells, "    ") + "\n")

		if hop < maxHop {
			b.WriteString("       |\n       v\n")
		}
	}

	b.WriteString("\n" + strings.Repeat("=", 60) + "\n")
	return b.String()
}

// Receipts writes the per-node gateway receipt summary with route variety
func Receipts(w io.Writer, receipts map[int][]domain.ReceiptRecord, gatewayID int) {
	if len(receipts) == 0 {
		return
	}
	ids := make([]int, 0, len(receipts))
	total := 0
	for id, rs := range receipts {
		ids = append(ids, id)
		total += len(rs)
	}
	sort.Ints(ids)

	fmt.Fprintf(w, "\nGateway Received Data: %d total packets\n", total)
	fmt.Fprintln(w, "  Packets per node:")
	for _, id := range ids {
		routes := make(map[string]bool)
		for _, r := range receipts[id] {
			if len(r.Route) > 0 {
				routes[formatRoute(r.Route, gatewayID)] = true
			}
		}
		names := make([]string, 0, len(routes))
		for r := range routes {
			names = append(names, r)
		}
		sort.Strings(names)
		routeStr := "N/A"
		if len(names) > 0 {
			routeStr = strings.Join(names, ", ")
		}
		fmt.Fprintf(w, "    Node %d: %d packets (Routes: %s)\n", id, len(receipts[id]), routeStr)
	}
}

func formatRoute(route []int, gatewayID int) string {
	parts := make([]string, 0, len(route))
	for _, id := range route {
		if id == 0 || id == gatewayID {
			parts = append(parts, "GW")
		} else {
			parts = append(parts, fmt.Sprintf("%d", id))
		}
	}
	return "[" + strings.Join(parts, ">") + "]"
}
