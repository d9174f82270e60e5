package engine

import (
	"bytes"
	"reflect"
	"testing"

	"meshscope/internal/codec"
	"meshscope/internal/domain"
)

// starRecords describes a three-node star as the wire would deliver it
func starRecords() []codec.Record {
	return []codec.Record{
		{TimestampUS: 1000, NodeID: 2, Type: "NEIGHBOR_ADDED", Details: "NodeID:1,RSSI:-80dBm,Hop:0"},
		{TimestampUS: 2000, NodeID: 3, Type: "NEIGHBOR_ADDED", Details: "NodeID:1,RSSI:-84dBm,Hop:0"},
		{TimestampUS: 3000, NodeID: 2, Type: "HOP_CHANGE", Details: "Hop changed: 127 -> 1"},
		{TimestampUS: 4000, NodeID: 3, Type: "HOP_CHANGE", Details: "Hop changed: 127 -> 1"},
		{TimestampUS: 5000, NodeID: 2, Type: "AUTO_SEND_SEQ", Details: "Seq:1"},
		{TimestampUS: 6000, NodeID: 1, Type: "GW_RX_DATA", Details: "From:2,Hops:1,Route:[2>GW],Lat:50.0ms"},
		{TimestampUS: 7000, NodeID: 3, Type: "AUTO_SEND_SEQ", Details: "Seq:1"},
		{TimestampUS: 8000, NodeID: 1, Type: "GW_RX_DATA", Details: "From:3,Hops:1,Route:[3>GW],Lat:60.0ms"},
	}
}

func TestRun_StarEndToEnd(t *testing.T) {
	res := Run(starRecords())

	if res.Class != domain.ClassStar {
		t.Errorf("expected Star, got %s", res.Class)
	}
	if res.Graph.GatewayID != 1 {
		t.Errorf("expected gateway 1, got %d", res.Graph.GatewayID)
	}
	if res.DecodeFailures != 0 || res.Unrecognized != 0 {
		t.Errorf("clean input must not tally rejects: %d/%d",
			res.DecodeFailures, res.Unrecognized)
	}

	model := res.Model
	if len(model.Nodes) != 3 {
		t.Fatalf("expected 3 nodes in the model, got %d", len(model.Nodes))
	}
	for _, e := range model.Edges {
		if e.To != 1 {
			t.Errorf("star edges must all point at the gateway, got %d->%d", e.From, e.To)
		}
		if !e.Primary {
			t.Errorf("a sole outgoing edge must be primary: %d->%d", e.From, e.To)
		}
	}
	if model.Network.Received != 2 || model.Network.Transmitted != 2 {
		t.Errorf("expected 2/2 network totals, got %d/%d",
			model.Network.Received, model.Network.Transmitted)
	}
}

func TestRun_Deterministic(t *testing.T) {
	a := Run(starRecords())
	for i := 0; i < 5; i++ {
		b := Run(starRecords())
		if !reflect.DeepEqual(a.Model, b.Model) {
			t.Fatalf("run %d produced a different model", i)
		}
	}
}

func TestRun_MalformedRecordsAreCounted(t *testing.T) {
	records := append(starRecords(),
		codec.Record{TimestampUS: 9000, NodeID: 2, Type: "NEIGHBOR_ADDED", Details: "RSSI:junk"},
		codec.Record{TimestampUS: 9500, NodeID: 2, Type: "SOMETHING_NEW", Details: "x"},
	)
	res := Run(records)

	if res.DecodeFailures != 1 {
		t.Errorf("expected 1 decode failure, got %d", res.DecodeFailures)
	}
	if res.Unrecognized != 1 {
		t.Errorf("expected 1 unrecognized record, got %d", res.Unrecognized)
	}
	if res.Class != domain.ClassStar {
		t.Errorf("rejects must not change the analysis, got %s", res.Class)
	}
}

func TestRun_ModelRoundTrip(t *testing.T) {
	res := Run(starRecords())

	var buf bytes.Buffer
	if err := codec.NewJSONExporter().Export(res.Model, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	back, err := codec.ParseModel(&buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(res.Model, back) {
		t.Error("model changed across the JSON round trip")
	}
}

func TestRun_EmptyInput(t *testing.T) {
	res := Run(nil)

	// With no observations at all the default gateway still materializes
	if res.Graph.GatewayID != domain.DefaultGatewayID {
		t.Errorf("expected default gateway, got %d", res.Graph.GatewayID)
	}
	if len(res.Model.Nodes) != 1 {
		t.Errorf("expected just the gateway in the model, got %d nodes", len(res.Model.Nodes))
	}
}
