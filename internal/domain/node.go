package domain

// HopUnknown is the firmware sentinel for "no route yet". It is never a
// real hop count; decoders map it to an absent value.
const HopUnknown = 127

// Role classifies a node by its observed hop count
type Role string

const (
	RoleGateway Role = "gateway"
	RoleRelay   Role = "relay"
)

// Node represents one mesh node identified by its integer id
type Node struct {
	ID int `json:"id"`

	// Hop is the number of forwarding relays between the node and the
	// gateway. Valid only when HopObserved or HopEstimated is set.
	Hop         int  `json:"hop"`
	HopObserved bool `json:"hop_observed"`

	// HopEstimated marks the documented hop-1 fallback applied by route
	// inference when no hop count was ever observed.
	HopEstimated bool `json:"hop_estimated,omitempty"`
}

// NewNode creates a node with an unobserved hop count
func NewNode(id int) *Node {
	return &Node{ID: id}
}

// HopKnown reports whether the node has any usable hop count, observed
// or estimated.
func (n *Node) HopKnown() bool {
	return n.HopObserved || n.HopEstimated
}

// SetHop overwrites the hop count with an observed value (last-write-wins)
func (n *Node) SetHop(hop int) {
	n.Hop = hop
	n.HopObserved = true
	n.HopEstimated = false
}

// ClearHop returns the node to the unknown-hop state, e.g. after the
// firmware reports losing its route.
func (n *Node) ClearHop() {
	n.Hop = 0
	n.HopObserved = false
	n.HopEstimated = false
}

// EstimateHop records a heuristic hop count without claiming observation
func (n *Node) EstimateHop(hop int) {
	if n.HopObserved {
		return
	}
	n.Hop = hop
	n.HopEstimated = true
}

// IsGateway reports whether the node is the mesh gateway (hop count 0)
func (n *Node) IsGateway() bool {
	return n.HopObserved && n.Hop == 0
}

// Role returns the derived role of the node
func (n *Node) Role() Role {
	if n.IsGateway() {
		return RoleGateway
	}
	return RoleRelay
}
