package domain

// NoRSSI is the worst-case stand-in used when a link has no RSSI sample.
// Inference treats a missing reading as strictly worse than any real one.
const NoRSSI = -999

// LinkQuality buckets an average RSSI reading for reporting
type LinkQuality string

const (
	QualityStrong LinkQuality = "strong" // > -90 dBm
	QualityMedium LinkQuality = "medium" // -100 to -90 dBm
	QualityWeak   LinkQuality = "weak"   // <= -100 dBm
)

// LinkKey identifies an unordered node pair. A is always the smaller id.
type LinkKey struct {
	A int `json:"a"`
	B int `json:"b"`
}

// NewLinkKey normalizes an endpoint pair into a LinkKey
func NewLinkKey(a, b int) LinkKey {
	if a > b {
		a, b = b, a
	}
	return LinkKey{A: a, B: b}
}

// NeighborLink is the undirected neighbor relation between two nodes.
// RSSI samples are append-only; LastRSSI tracks the most recent reading.
type NeighborLink struct {
	Key           LinkKey `json:"key"`
	RSSISamples   []int   `json:"rssi_samples,omitempty"`
	LastRSSI      int     `json:"last_rssi"`
	HasRSSI       bool    `json:"has_rssi"`
	Bidirectional bool    `json:"bidirectional"`
}

// NewNeighborLink creates a link for the given endpoint pair
func NewNeighborLink(a, b int) *NeighborLink {
	return &NeighborLink{Key: NewLinkKey(a, b)}
}

// AddRSSI appends an RSSI sample and updates the most recent value
func (l *NeighborLink) AddRSSI(rssi int) {
	l.RSSISamples = append(l.RSSISamples, rssi)
	l.LastRSSI = rssi
	l.HasRSSI = true
}

// AvgRSSI returns the running average of all samples, falling back to the
// most recent reading when no samples were collected.
func (l *NeighborLink) AvgRSSI() (float64, bool) {
	if len(l.RSSISamples) == 0 {
		if l.HasRSSI {
			return float64(l.LastRSSI), true
		}
		return 0, false
	}
	sum := 0
	for _, v := range l.RSSISamples {
		sum += v
	}
	return float64(sum) / float64(len(l.RSSISamples)), true
}

// MinMaxRSSI returns the extremes over all samples
func (l *NeighborLink) MinMaxRSSI() (min, max int, ok bool) {
	if len(l.RSSISamples) == 0 {
		return 0, 0, false
	}
	min, max = l.RSSISamples[0], l.RSSISamples[0]
	for _, v := range l.RSSISamples[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, true
}

// Quality buckets the link's average RSSI
func (l *NeighborLink) Quality() LinkQuality {
	avg, ok := l.AvgRSSI()
	switch {
	case !ok:
		return QualityWeak
	case avg > -90:
		return QualityStrong
	case avg > -100:
		return QualityMedium
	default:
		return QualityWeak
	}
}

// RoutingEdge is a directed forwarding relation from one node toward the
// gateway. Weight counts packets observed over the edge; Inferred marks
// edges created by the route inference heuristic rather than observation.
type RoutingEdge struct {
	From     int  `json:"from"`
	To       int  `json:"to"`
	Weight   int  `json:"weight"`
	Inferred bool `json:"inferred,omitempty"`
}
