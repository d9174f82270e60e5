package engine

import (
	"sort"

	"meshscope/internal/domain"
)

// Stats holds the derived per-node and network-wide delivery and latency
// figures of one analysis.
type Stats struct {
	PDR     map[int]*domain.PdrStat
	Latency map[int]*domain.LatencyStat
	Network domain.NetworkStat
}

// Aggregate derives statistics from the builder's accumulated receipts,
// transmit counters and latency samples.
//
// Received is the count of gateway receipts attributed to the node.
// Transmitted is the node's transmit counter when one was observed;
// without one it falls back to the receipt count, which forces the ratio
// to 100%, an estimation artifact, flagged Estimated so it is never
// presented as a measured figure.
func Aggregate(b *Builder) *Stats {
	s := &Stats{
		PDR:     make(map[int]*domain.PdrStat),
		Latency: make(map[int]*domain.LatencyStat),
	}

	for node, stat := range b.latencies {
		s.Latency[node] = stat
	}

	anyEstimated := false
	for node, receipts := range b.receipts {
		received := len(receipts)
		transmitted := b.TxCount(node)
		estimated := transmitted == 0
		if estimated {
			transmitted = received
			anyEstimated = true
		}
		s.PDR[node] = &domain.PdrStat{
			NodeID:      node,
			Received:    received,
			Transmitted: transmitted,
			Estimated:   estimated,
		}
		s.Network.Received += received
		s.Network.Transmitted += transmitted
	}
	s.Network.Estimated = anyEstimated
	return s
}

// PDRNodes returns the node ids with delivery stats in ascending order
func (s *Stats) PDRNodes() []int {
	ids := make([]int, 0, len(s.PDR))
	for id := range s.PDR {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// LatencyNodes returns the node ids with latency samples in ascending order
func (s *Stats) LatencyNodes() []int {
	ids := make([]int, 0, len(s.Latency))
	for id := range s.Latency {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
