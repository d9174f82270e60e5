package domain

// TopologyClass labels the shape of a finalized routing-edge set
type TopologyClass string

const (
	ClassStar      TopologyClass = "Star"
	ClassLinear    TopologyClass = "Linear"
	ClassBranching TopologyClass = "Branching"
	ClassMixed     TopologyClass = "Mixed"
)

// Classify labels the graph shape. It must be called on the finalized,
// post-inference graph; a raw partial graph misclassifies trivially.
//
// Star wins when every non-gateway node sits at hop 1 with a direct edge
// to the gateway. Linear requires fan-in of at most one network-wide.
// Branching requires fan-in of three or more somewhere. Everything else,
// including fan-in of exactly two, is Mixed.
func Classify(g *TopologyGraph) TopologyClass {
	gw := g.GatewayID

	nonGateway := 0
	star := true
	for _, n := range g.Nodes() {
		if n.ID == gw {
			continue
		}
		nonGateway++
		if !n.HopKnown() || n.Hop != 1 || g.Edge(n.ID, gw) == nil {
			star = false
		}
	}
	if nonGateway > 0 && star {
		return ClassStar
	}

	maxFanIn := 0
	for _, c := range g.FanIn() {
		if c > maxFanIn {
			maxFanIn = c
		}
	}

	switch {
	case maxFanIn <= 1:
		return ClassLinear
	case maxFanIn >= 3:
		return ClassBranching
	default:
		return ClassMixed
	}
}
