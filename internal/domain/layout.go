package domain

import (
	"math"
	"sort"
)

// Position is a 2-D coordinate assigned to a node for rendering
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout spacing constants, tuned for the external renderer's canvas.
const (
	starRadius      = 6.5
	branchColumnGap = 8.0
	branchRowGap    = 6.0
	siblingGap      = 5.0
	laneGap         = 6.0
	laneRowGap      = 4.0
)

// Layout assigns deterministic coordinates to every node of a finalized
// graph. The strategy follows the classification: a circle for Star, a
// left-to-right tree for Branching and Mixed, horizontal hop lanes
// otherwise. Identical input always yields identical coordinates.
func Layout(g *TopologyGraph, class TopologyClass) map[int]Position {
	positions := make(map[int]Position)
	gw := g.GatewayID

	hopGroups := make(map[int][]int)
	for _, n := range g.Nodes() {
		hop := 1
		if n.HopKnown() {
			hop = n.Hop
		}
		hopGroups[hop] = append(hopGroups[hop], n.ID)
	}
	for _, ids := range hopGroups {
		sort.Ints(ids)
	}

	switch class {
	case ClassBranching, ClassMixed:
		positions[gw] = Position{X: -branchColumnGap, Y: 0}
	default:
		positions[gw] = Position{X: 0, Y: 0}
	}

	switch class {
	case ClassStar:
		layoutStar(hopGroups[1], gw, positions)
	case ClassBranching, ClassMixed:
		layoutTree(g, hopGroups, gw, positions)
	default:
		layoutLanes(hopGroups, gw, positions)
	}

	return positions
}

// layoutStar spaces the hop-1 nodes evenly on a circle around the gateway,
// ordered by ascending id.
func layoutStar(hopOne []int, gw int, positions map[int]Position) {
	ring := make([]int, 0, len(hopOne))
	for _, id := range hopOne {
		if id != gw {
			ring = append(ring, id)
		}
	}
	for i, id := range ring {
		angle := 2 * math.Pi * float64(i) / float64(len(ring))
		positions[id] = Position{
			X: starRadius * math.Cos(angle),
			Y: starRadius * math.Sin(angle),
		}
	}
}

// layoutTree places hop-1 nodes in a vertical column and each deeper node
// to the right of its primary parent, ranked among the siblings sharing
// that parent and centered on the parent's y-coordinate.
func layoutTree(g *TopologyGraph, hopGroups map[int][]int, gw int, positions map[int]Position) {
	column := make([]int, 0, len(hopGroups[1]))
	for _, id := range hopGroups[1] {
		if id != gw {
			column = append(column, id)
		}
	}
	yStart := -float64(len(column)-1) * branchRowGap / 2
	for i, id := range column {
		positions[id] = Position{X: 0, Y: yStart + float64(i)*branchRowGap}
	}

	maxHop := 1
	for hop := range hopGroups {
		if hop > maxHop {
			maxHop = hop
		}
	}

	for hop := 2; hop <= maxHop; hop++ {
		for _, id := range hopGroups[hop] {
			parent, ok := g.PrimaryParent(id)
			ppos, placed := positions[parent]
			if !ok || !placed {
				// No usable parent: fall back to the hop lane
				positions[id] = Position{X: float64(hop-1) * branchColumnGap, Y: 0}
				continue
			}

			siblings := siblingsOf(g, hopGroups[hop], parent)
			rank := 0
			for i, s := range siblings {
				if s == id {
					rank = i
					break
				}
			}

			y := ppos.Y
			if len(siblings) > 1 {
				y += (float64(rank) - float64(len(siblings)-1)/2) * siblingGap
			}
			positions[id] = Position{X: ppos.X + branchColumnGap, Y: y}
		}
	}
}

// siblingsOf lists the nodes at one hop level whose primary parent is
// parent, in ascending id order. A secondary edge to the parent does not
// make a node a sibling here.
func siblingsOf(g *TopologyGraph, atHop []int, parent int) []int {
	var siblings []int
	for _, id := range atHop {
		if p, ok := g.PrimaryParent(id); ok && p == parent {
			siblings = append(siblings, id)
		}
	}
	return siblings
}

// layoutLanes arranges nodes in horizontal lanes by hop count, each lane
// centered vertically.
func layoutLanes(hopGroups map[int][]int, gw int, positions map[int]Position) {
	hops := make([]int, 0, len(hopGroups))
	for hop := range hopGroups {
		hops = append(hops, hop)
	}
	sort.Ints(hops)

	for _, hop := range hops {
		if hop == 0 {
			continue
		}
		lane := make([]int, 0, len(hopGroups[hop]))
		for _, id := range hopGroups[hop] {
			if id != gw {
				lane = append(lane, id)
			}
		}
		for i, id := range lane {
			positions[id] = Position{
				X: float64(hop) * laneGap,
				Y: (float64(i) - float64(len(lane)-1)/2) * laneRowGap,
			}
		}
	}
}
