// Package codec decodes the raw record formats of the mesh monitoring
// system: the comma-separated Key:Value detail grammar emitted by node
// firmware, the CSV event-log schema, and the UDP wire protocol. It also
// exports the finalized render model as JSON.
package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"meshscope/internal/domain"
)

// GatewayToken stands in for the literal "GW" element of a route path
// until the builder knows the gateway's node id. Node id 0 is never a
// real node (it addresses a broadcast on the command channel).
const GatewayToken = 0

// ErrDecode wraps every detail-grammar failure. A record that fails to
// decode is rejected whole; the engine must never apply half of it.
var ErrDecode = errors.New("decode")

// Event is one decoded record. The set of variants is closed; the
// builder folds events with an exhaustive type switch.
type Event interface {
	event()
}

// NeighborAdded reports a node discovering a neighbor
type NeighborAdded struct {
	Node     int
	Neighbor int
	RSSI     int
	HasRSSI  bool
	Hop      int
	HasHop   bool
}

// BidirLink reports an explicitly confirmed bidirectional link
type BidirLink struct {
	Node     int
	Neighbor int
	RSSI     int
	HasRSSI  bool
}

// HopChange reports a node changing its hop count, optionally via a
// specific next-hop node.
type HopChange struct {
	Node   int
	NewHop int
	Via    int
	HasVia bool
}

// PdrNode is a gateway-side delivery report for one sender
type PdrNode struct {
	Observer    int
	Sender      int
	Expected    int
	HasExpected bool
	Received    int
	HasReceived bool
	PDRPct      float64
	HasPDR      bool
	Gaps        int
	LastSeq     int
}

// PdrNetwork is a gateway-side network-wide delivery report
type PdrNetwork struct {
	Observer int
	Expected int
	Received int
	Lost     int
	PDRPct   float64
	HasPDR   bool
}

// Latency is one end-to-end latency measurement for a sender
type Latency struct {
	Observer  int
	Sender    int
	LatencyMs float64
}

// GwRxData is a gateway receipt of a data packet with the forwarding
// path embedded. Route uses GatewayToken for the literal GW element.
type GwRxData struct {
	Gateway    int
	From       int
	Hops       int
	HasHops    bool
	Route      []int
	LatencyMs  float64
	HasLatency bool
	RSSI       int
	HasRSSI    bool
}

// AutoSend reports one scheduled transmission by a sensor node
type AutoSend struct {
	Node int
}

// Unrecognized is any record whose type tag the decoder does not know
type Unrecognized struct {
	Node int
	Type string
}

func (NeighborAdded) event() {}
func (BidirLink) event()     {}
func (HopChange) event()     {}
func (PdrNode) event()       {}
func (PdrNetwork) event()    {}
func (Latency) event()       {}
func (GwRxData) event()      {}
func (AutoSend) event()      {}
func (Unrecognized) event()  {}

// Decode turns one raw record into a typed event. A malformed detail
// string fails the whole record; an unknown type tag yields Unrecognized
// so callers can count it without aborting.
func Decode(rec Record) (Event, error) {
	switch {
	case rec.Type == "NEIGHBOR_ADDED":
		return decodeNeighborAdded(rec)
	case rec.Type == "BIDIR_LINK":
		return decodeBidirLink(rec)
	case rec.Type == "HOP_CHANGE":
		return decodeHopChange(rec)
	case rec.Type == "PDR_NODE":
		return decodePdrNode(rec)
	case rec.Type == "PDR_NETWORK":
		return decodePdrNetwork(rec)
	case rec.Type == "LATENCY":
		return decodeLatency(rec)
	case rec.Type == "GW_RX_DATA":
		return decodeGwRxData(rec)
	case rec.Type == "AUTO_SEND_SEQ" || strings.Contains(rec.Type, "AUTO_SEND"):
		return AutoSend{Node: rec.NodeID}, nil
	default:
		return Unrecognized{Node: rec.NodeID, Type: rec.Type}, nil
	}
}

// fields splits a detail string into its Key:Value tokens. Tokens without
// a colon (e.g. the leading NodeX of statistics reports) keep an empty key.
func fields(details string) []field {
	parts := strings.Split(details, ",")
	out := make([]field, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if k, v, ok := strings.Cut(p, ":"); ok {
			out = append(out, field{key: strings.TrimSpace(k), val: strings.TrimSpace(v)})
		} else {
			out = append(out, field{val: p})
		}
	}
	return out
}

type field struct {
	key string
	val string
}

func decodeInt(key, val string) (int, error) {
	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrDecode, key, val)
	}
	return v, nil
}

func decodeFloat(key, val string) (float64, error) {
	v, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", ErrDecode, key, val)
	}
	return v, nil
}

// decodeRSSI strips the trailing dBm unit before parsing
func decodeRSSI(val string) (int, error) {
	return decodeInt("RSSI", strings.TrimSuffix(val, "dBm"))
}

// decodeMs strips the trailing ms unit before parsing
func decodeMs(key, val string) (float64, error) {
	return decodeFloat(key, strings.TrimSuffix(val, "ms"))
}

// decodeSenderTag parses the leading NodeX token of statistics reports
func decodeSenderTag(val string) (int, error) {
	if !strings.HasPrefix(val, "Node") {
		return 0, fmt.Errorf("%w: expected NodeX sender tag, got %q", ErrDecode, val)
	}
	return decodeInt("Node", strings.TrimPrefix(val, "Node"))
}

func decodeNeighborAdded(rec Record) (Event, error) {
	ev := NeighborAdded{Node: rec.NodeID}
	for _, f := range fields(rec.Details) {
		switch f.key {
		case "NodeID":
			id, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Neighbor = id
		case "RSSI":
			rssi, err := decodeRSSI(f.val)
			if err != nil {
				return nil, err
			}
			ev.RSSI, ev.HasRSSI = rssi, true
		case "Hop":
			hop, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			// 127 is the firmware's "unknown" sentinel, not a hop count
			if hop != domain.HopUnknown {
				ev.Hop, ev.HasHop = hop, true
			}
		}
	}
	if ev.Neighbor <= 0 {
		return nil, fmt.Errorf("%w: NEIGHBOR_ADDED without a valid NodeID", ErrDecode)
	}
	return ev, nil
}

func decodeBidirLink(rec Record) (Event, error) {
	ev := BidirLink{Node: rec.NodeID}
	for _, f := range fields(rec.Details) {
		switch f.key {
		case "NodeID":
			id, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Neighbor = id
		case "RSSI":
			rssi, err := decodeRSSI(f.val)
			if err != nil {
				return nil, err
			}
			ev.RSSI, ev.HasRSSI = rssi, true
		}
	}
	if ev.Neighbor <= 0 {
		return nil, fmt.Errorf("%w: BIDIR_LINK without a valid NodeID", ErrDecode)
	}
	return ev, nil
}

// decodeHopChange handles the two formats the firmware has used:
// the narrative "Hop changed: X -> Y via NodeZ" and the token form
// "Old=X,New=Y".
func decodeHopChange(rec Record) (Event, error) {
	ev := HopChange{Node: rec.NodeID}

	if _, after, ok := strings.Cut(rec.Details, "->"); ok {
		tail := strings.Fields(strings.TrimSpace(after))
		if len(tail) == 0 {
			return nil, fmt.Errorf("%w: HOP_CHANGE with empty new hop", ErrDecode)
		}
		hop, err := decodeInt("New", tail[0])
		if err != nil {
			return nil, err
		}
		ev.NewHop = hop

		if _, viaPart, ok := strings.Cut(rec.Details, "via Node"); ok {
			viaFields := strings.Fields(strings.TrimSpace(viaPart))
			if len(viaFields) == 0 {
				return nil, fmt.Errorf("%w: HOP_CHANGE with empty via node", ErrDecode)
			}
			via, err := decodeInt("Via", viaFields[0])
			if err != nil {
				return nil, err
			}
			ev.Via, ev.HasVia = via, true
		}
		return ev, nil
	}

	var sawNew bool
	for _, p := range strings.Split(rec.Details, ",") {
		if k, v, ok := strings.Cut(strings.TrimSpace(p), "="); ok && k == "New" {
			hop, err := decodeInt("New", v)
			if err != nil {
				return nil, err
			}
			ev.NewHop, sawNew = hop, true
		}
	}
	if !sawNew {
		return nil, fmt.Errorf("%w: HOP_CHANGE without a new hop count", ErrDecode)
	}
	return ev, nil
}

func decodePdrNode(rec Record) (Event, error) {
	ev := PdrNode{Observer: rec.NodeID}
	fs := fields(rec.Details)
	if len(fs) == 0 || fs[0].key != "" {
		return nil, fmt.Errorf("%w: PDR_NODE without a sender tag", ErrDecode)
	}
	sender, err := decodeSenderTag(fs[0].val)
	if err != nil {
		return nil, err
	}
	ev.Sender = sender

	for _, f := range fs[1:] {
		switch f.key {
		case "Exp":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Expected, ev.HasExpected = v, true
		case "Rx":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Received, ev.HasReceived = v, true
		case "PDR":
			v, err := decodeFloat(f.key, strings.TrimSuffix(f.val, "%"))
			if err != nil {
				return nil, err
			}
			ev.PDRPct, ev.HasPDR = v, true
		case "Gaps":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Gaps = v
		case "Seq":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.LastSeq = v
		}
	}
	return ev, nil
}

func decodePdrNetwork(rec Record) (Event, error) {
	ev := PdrNetwork{Observer: rec.NodeID}
	for _, f := range fields(rec.Details) {
		switch f.key {
		case "Exp":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Expected = v
		case "Rx":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Received = v
		case "Lost":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.Lost = v
		case "PDR":
			v, err := decodeFloat(f.key, strings.TrimSuffix(f.val, "%"))
			if err != nil {
				return nil, err
			}
			ev.PDRPct, ev.HasPDR = v, true
		}
	}
	return ev, nil
}

func decodeLatency(rec Record) (Event, error) {
	fs := fields(rec.Details)
	if len(fs) == 0 || fs[0].key != "" {
		return nil, fmt.Errorf("%w: LATENCY without a sender tag", ErrDecode)
	}
	sender, err := decodeSenderTag(fs[0].val)
	if err != nil {
		return nil, err
	}
	ev := Latency{Observer: rec.NodeID, Sender: sender, LatencyMs: -1}
	for _, f := range fs[1:] {
		if f.key == "Lat" {
			ms, err := decodeMs(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.LatencyMs = ms
		}
	}
	if ev.LatencyMs < 0 {
		return nil, fmt.Errorf("%w: LATENCY without a Lat value", ErrDecode)
	}
	return ev, nil
}

func decodeGwRxData(rec Record) (Event, error) {
	ev := GwRxData{Gateway: rec.NodeID}
	for _, f := range fields(rec.Details) {
		switch f.key {
		case "From":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.From = v
		case "Hops":
			v, err := decodeInt(f.key, f.val)
			if err != nil {
				return nil, err
			}
			if v != domain.HopUnknown {
				ev.Hops, ev.HasHops = v, true
			}
		case "Route":
			route, err := decodeRoute(f.val)
			if err != nil {
				return nil, err
			}
			ev.Route = route
		case "Lat":
			ms, err := decodeMs(f.key, f.val)
			if err != nil {
				return nil, err
			}
			ev.LatencyMs, ev.HasLatency = ms, true
		case "RSSI":
			rssi, err := decodeRSSI(f.val)
			if err != nil {
				return nil, err
			}
			ev.RSSI, ev.HasRSSI = rssi, true
		}
	}
	if ev.From <= 0 {
		return nil, fmt.Errorf("%w: GW_RX_DATA without a From node", ErrDecode)
	}
	return ev, nil
}

// decodeRoute parses a bracketed forwarding path like [3>2>GW] into node
// ids, mapping the literal GW element to GatewayToken.
func decodeRoute(val string) ([]int, error) {
	val = strings.TrimPrefix(val, "[")
	val = strings.TrimSuffix(val, "]")
	if val == "" {
		return nil, fmt.Errorf("%w: empty route", ErrDecode)
	}
	parts := strings.Split(val, ">")
	route := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "GW" {
			route = append(route, GatewayToken)
			continue
		}
		id, err := decodeInt("Route", p)
		if err != nil {
			return nil, err
		}
		route = append(route, id)
	}
	return route, nil
}
