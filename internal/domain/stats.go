package domain

// PdrStat is the packet-delivery ratio of one node as seen from the
// gateway. Estimated marks the documented fallback where no independent
// transmit count existed and delivery is assumed complete.
type PdrStat struct {
	NodeID      int  `json:"node_id"`
	Received    int  `json:"received"`
	Transmitted int  `json:"transmitted"`
	Estimated   bool `json:"estimated,omitempty"`
}

// Ratio returns the delivery ratio as a percentage in [0, 100].
// Zero transmitted yields 0, never a division error.
func (p *PdrStat) Ratio() float64 {
	if p.Transmitted <= 0 {
		return 0
	}
	ratio := float64(p.Received) / float64(p.Transmitted) * 100
	if ratio > 100 {
		ratio = 100
	}
	return ratio
}

// LatencyStat is the end-to-end latency history of one node
type LatencyStat struct {
	NodeID  int       `json:"node_id"`
	Samples []float64 `json:"samples"`
}

// Add appends one latency sample in milliseconds
func (l *LatencyStat) Add(ms float64) {
	l.Samples = append(l.Samples, ms)
}

// Avg returns the mean over all samples, 0 with no samples
func (l *LatencyStat) Avg() float64 {
	if len(l.Samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range l.Samples {
		sum += v
	}
	return sum / float64(len(l.Samples))
}

// Min returns the smallest sample, 0 with no samples
func (l *LatencyStat) Min() float64 {
	if len(l.Samples) == 0 {
		return 0
	}
	min := l.Samples[0]
	for _, v := range l.Samples[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the largest sample, 0 with no samples
func (l *LatencyStat) Max() float64 {
	if len(l.Samples) == 0 {
		return 0
	}
	max := l.Samples[0]
	for _, v := range l.Samples[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// NetworkStat aggregates delivery over all nodes
type NetworkStat struct {
	Received    int  `json:"received"`
	Transmitted int  `json:"transmitted"`
	Estimated   bool `json:"estimated,omitempty"`
}

// Ratio returns the network-wide delivery percentage in [0, 100]
func (n *NetworkStat) Ratio() float64 {
	p := PdrStat{Received: n.Received, Transmitted: n.Transmitted}
	return p.Ratio()
}
