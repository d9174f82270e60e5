package codec

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is the persisted record schema, fixed column order
var csvHeader = []string{
	"Operation", "Relative_Time_S", "Timestamp_US", "Node_ID", "Type", "Details", "Received_Time",
}

const receivedTimeLayout = "2006-01-02 15:04:05.000000"

// Record is one raw event record before detail decoding
type Record struct {
	Operation   int // 0 when the event carries no operation number
	RelTimeS    float64
	TimestampUS int64
	NodeID      int
	Type        string
	Details     string
	Received    time.Time
}

// ReadCSV reads an event log in the persisted schema. Rows whose framing
// columns fail to parse are skipped and counted in failed; they never
// abort the read.
func ReadCSV(r io.Reader) (records []Record, failed int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"Node_ID", "Type", "Details"} {
		if _, ok := col[required]; !ok {
			return nil, 0, fmt.Errorf("missing column %q", required)
		}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			failed++
			continue
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		nodeID, err := strconv.Atoi(get("Node_ID"))
		if err != nil || nodeID <= 0 {
			failed++
			continue
		}

		rec := Record{
			NodeID:  nodeID,
			Type:    get("Type"),
			Details: get("Details"),
		}
		if v := get("Operation"); v != "" {
			if op, err := strconv.Atoi(v); err == nil {
				rec.Operation = op
			}
		}
		if v := get("Relative_Time_S"); v != "" {
			if t, err := strconv.ParseFloat(v, 64); err == nil {
				rec.RelTimeS = t
			}
		}
		if v := get("Timestamp_US"); v != "" {
			if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
				rec.TimestampUS = ts
			}
		}
		if v := get("Received_Time"); v != "" {
			if t, err := time.Parse(receivedTimeLayout, v); err == nil {
				rec.Received = t
			}
		}
		records = append(records, rec)
	}
	return records, failed, nil
}

// WriteCSV writes records in the persisted schema. Relative times are
// recomputed against the reference timestamp so they are never negative.
func WriteCSV(w io.Writer, records []Record, referenceUS int64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		op := ""
		if rec.Operation > 0 {
			op = strconv.Itoa(rec.Operation)
		}
		rel := float64(rec.TimestampUS-referenceUS) / 1e6
		if rel < 0 {
			rel = 0
		}
		received := ""
		if !rec.Received.IsZero() {
			received = rec.Received.Format(receivedTimeLayout)
		}
		row := []string{
			op,
			strconv.FormatFloat(rel, 'f', 1, 64),
			strconv.FormatInt(rec.TimestampUS, 10),
			strconv.Itoa(rec.NodeID),
			rec.Type,
			rec.Details,
			received,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
