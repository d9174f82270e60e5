// Package domain defines the core types for the meshscope topology
// reconstruction engine.
//
// The package models a multi-hop wireless mesh as observed after the fact:
// nodes identified by small integer ids, undirected neighbor links carrying
// RSSI samples, and directed routing edges weighted by forwarded packet
// counts. A TopologyGraph is accumulated from event records by the engine
// package and then annotated (inferred edges, classification, positions)
// without ever revising observed facts.
//
// # Core Types
//
// Node carries an id and an optional hop count. The gateway is the node
// with hop count 0; every other node is a relay.
//
// NeighborLink is the undirected neighbor relation between two nodes with
// its RSSI history and a flag set only by an explicit bidirectional
// confirmation.
//
// RoutingEdge is a directed from→to forwarding relation with a packet
// weight and an Inferred flag distinguishing heuristic edges from
// observed ones.
//
// ReceiptRecord is one gateway-side receipt of a data packet, including
// the forwarding path embedded in the packet.
//
// # Derived Views
//
// Classify labels the finalized routing-edge set as Star, Linear,
// Branching or Mixed. Layout assigns deterministic 2-D coordinates using
// a strategy selected by the classification. RenderModel is the read-only
// export consumed by external renderers.
//
// # Design Principles
//
// - Observed facts are append-only; scalars follow last-write-wins
// - All iteration is over sorted ids so derived output is reproducible
// - No database or network dependencies
package domain
