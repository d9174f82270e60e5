package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Datagram grammars accepted on the monitor port:
//
//	EVENT,<timestamp_us>,<node_id>,<type>,<details>
//	LATENCY,<timestamp_us>,<node_id>,<details...>
//	PDR_NODE,<timestamp_us>,<node_id>,<details...>
//	PDR_NETWORK,<timestamp_us>,<node_id>,<details...>
//	PKT_RX,<timestamp_us>,<node_id>,<details...>
//
// Outbound command datagrams are CMD,<node_id>,<command>.

// specialTypes carry their type in the leading tag instead of a
// dedicated field.
var specialTypes = map[string]bool{
	"LATENCY":     true,
	"PDR_NODE":    true,
	"PDR_NETWORK": true,
	"PKT_RX":      true,
}

// ParseDatagram decodes one monitor-port datagram into a raw record
func ParseDatagram(data []byte, received time.Time) (Record, error) {
	msg := strings.TrimSpace(string(data))
	parts := strings.SplitN(msg, ",", 5)
	if len(parts) < 4 {
		return Record{}, fmt.Errorf("%w: short datagram %q", ErrDecode, truncate(msg))
	}

	tag := parts[0]
	if tag != "EVENT" && !specialTypes[tag] {
		return Record{}, fmt.Errorf("%w: unknown datagram tag %q", ErrDecode, tag)
	}

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: timestamp %q", ErrDecode, parts[1])
	}
	nodeID, err := strconv.Atoi(parts[2])
	if err != nil || nodeID <= 0 {
		return Record{}, fmt.Errorf("%w: node id %q", ErrDecode, parts[2])
	}

	rec := Record{TimestampUS: ts, NodeID: nodeID, Received: received}
	if tag == "EVENT" {
		if len(parts) < 5 {
			return Record{}, fmt.Errorf("%w: EVENT datagram without details", ErrDecode)
		}
		rec.Type = parts[3]
		rec.Details = parts[4]
	} else {
		rec.Type = tag
		rec.Details = strings.Join(parts[3:], ",")
	}
	return rec, nil
}

// FormatCommand builds an outbound command datagram. Node id 0 denotes a
// broadcast; the dispatcher fans it out to every configured node.
func FormatCommand(nodeID int, command string) []byte {
	return []byte(fmt.Sprintf("CMD,%d,%s", nodeID, command))
}

func truncate(s string) string {
	if len(s) > 80 {
		return s[:80]
	}
	return s
}
