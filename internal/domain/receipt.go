package domain

// ReceiptRecord is one gateway-side receipt of a data packet, decoded from
// a gateway-receive event. Route holds the forwarding path embedded in the
// packet, source first, gateway last.
type ReceiptRecord struct {
	From       int     `json:"from"`
	Hops       int     `json:"hops"`
	HasHops    bool    `json:"has_hops"`
	Route      []int   `json:"route,omitempty"`
	LatencyMs  float64 `json:"latency_ms"`
	HasLatency bool    `json:"has_latency"`
	RSSI       int     `json:"rssi"`
	HasRSSI    bool    `json:"has_rssi"`
}
