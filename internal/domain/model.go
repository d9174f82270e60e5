package domain

// RenderModel is the read-only export of a finalized analysis, the
// interchange contract with external renderers. Heuristic values carry
// explicit estimated flags so consumers never mistake them for
// measurements.
type RenderModel struct {
	Topology  TopologyClass `json:"topology"`
	GatewayID int           `json:"gateway_id"`
	Nodes     []RenderNode  `json:"nodes"`
	Edges     []RenderEdge  `json:"edges"`
	Network   NetworkStat   `json:"network"`
}

// RenderNode is the per-node slice of the export
type RenderNode struct {
	ID           int      `json:"id"`
	Hop          int      `json:"hop"`
	HopEstimated bool     `json:"hop_estimated,omitempty"`
	Gateway      bool     `json:"gateway,omitempty"`
	PDR          float64  `json:"pdr"`
	PDREstimated bool     `json:"pdr_estimated,omitempty"`
	Received     int      `json:"received"`
	Transmitted  int      `json:"transmitted"`
	AvgLatencyMs float64  `json:"avg_latency_ms"`
	Position     Position `json:"position"`
}

// RenderEdge is the per-edge slice of the export. Primary marks the edge
// carrying at least half of its source's outgoing packet weight.
type RenderEdge struct {
	From     int  `json:"from"`
	To       int  `json:"to"`
	Weight   int  `json:"weight"`
	Primary  bool `json:"primary"`
	Inferred bool `json:"inferred,omitempty"`
}
