// Package monitor receives live mesh events over UDP, keeps a running
// archive and statistics tables, and dispatches commands back to nodes.
package monitor

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"meshscope/internal/codec"
	"meshscope/internal/config"
	"meshscope/internal/domain"
	"meshscope/internal/engine"
	"meshscope/internal/report"
)

const (
	readTimeout   = 1 * time.Second
	maxRebinds    = 5
	rebindBackoff = 2 * time.Second
	idleSleep     = 100 * time.Millisecond
)

// Event types that get a per-type operation sequence number in the archive.
var numberedOps = map[string]bool{
	"NEIGHBOR_ADDED":   true,
	"NEIGHBOR_REMOVED": true,
	"BIDIR_LINK":       true,
	"HOP_CHANGE":       true,
	"CMD_EXECUTED":     true,
	"RSSI_LOW":         true,
}

type queuedCommand struct {
	NodeID  int
	Command string
}

type pdrEntry struct {
	Expected int
	Received int
	PDRPct   float64
	HasPDR   bool
}

// Monitor owns the UDP listener, the event archive and the command queue.
// Three locks guard the three independent concerns so the receiver never
// blocks on command dispatch.
type Monitor struct {
	cfg     *config.Config
	out     io.Writer
	metrics *Metrics

	mu          sync.Mutex // archive, op counters, reference timestamp
	records     []codec.Record
	opSeq       map[string]int
	referenceUS int64
	hasRef      bool
	seen        map[int]bool
	filter      displayFilter

	statsMu    sync.Mutex // live observer tables
	latency    map[int]*domain.LatencyStat
	pdrNode    map[int]pdrEntry
	pdrNetwork *domain.NetworkStat

	cmdMu sync.Mutex // outbound queue
	queue []queuedCommand

	connMu  sync.Mutex
	conn    *net.UDPConn
	running bool
	wg      sync.WaitGroup
}

func New(cfg *config.Config, out io.Writer) *Monitor {
	if out == nil {
		out = os.Stdout
	}
	return &Monitor{
		cfg:     cfg,
		out:     out,
		metrics: NewMetrics(),
		opSeq:   make(map[string]int),
		seen:    make(map[int]bool),
		latency: make(map[int]*domain.LatencyStat),
		pdrNode: make(map[int]pdrEntry),
	}
}

func (m *Monitor) Metrics() *Metrics { return m.metrics }

// Start binds the listen socket and launches the receiver and dispatcher.
func (m *Monitor) Start() error {
	addr, err := net.ResolveUDPAddr("udp", m.cfg.Monitor.ListenAddr)
	if err != nil {
		return fmt.Errorf("resolving listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("binding %s: %w", m.cfg.Monitor.ListenAddr, err)
	}

	m.connMu.Lock()
	m.conn = conn
	m.running = true
	m.connMu.Unlock()

	m.wg.Add(2)
	go m.receiveLoop()
	go m.dispatchLoop()
	return nil
}

// LocalAddr returns the bound listen address, nil before Start
func (m *Monitor) LocalAddr() net.Addr {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	if m.conn == nil {
		return nil
	}
	return m.conn.LocalAddr()
}

// Stop shuts down both loops and waits for them to exit.
func (m *Monitor) Stop() {
	m.connMu.Lock()
	m.running = false
	if m.conn != nil {
		m.conn.Close()
	}
	m.connMu.Unlock()
	m.wg.Wait()
}

func (m *Monitor) isRunning() bool {
	m.connMu.Lock()
	defer m.connMu.Unlock()
	return m.running
}

func (m *Monitor) receiveLoop() {
	defer m.wg.Done()
	buf := make([]byte, 2048)
	for m.isRunning() {
		m.connMu.Lock()
		conn := m.conn
		m.connMu.Unlock()
		if conn == nil {
			return
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if !m.isRunning() {
				return
			}
			if !m.rebind() {
				fmt.Fprintln(m.out, formatError("receiver: giving up after repeated socket errors"))
				return
			}
			continue
		}
		m.handleDatagram(buf[:n], time.Now())
	}
}

// rebind tears down the socket and retries the bind with backoff. Returns
// false once the retry budget is exhausted.
func (m *Monitor) rebind() bool {
	for attempt := 1; attempt <= maxRebinds; attempt++ {
		if !m.isRunning() {
			return false
		}
		m.metrics.Rebinds.Inc()
		log.Printf("receiver: rebinding %s (attempt %d/%d)", m.cfg.Monitor.ListenAddr, attempt, maxRebinds)
		time.Sleep(rebindBackoff)

		addr, err := net.ResolveUDPAddr("udp", m.cfg.Monitor.ListenAddr)
		if err != nil {
			continue
		}
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			continue
		}
		m.connMu.Lock()
		if m.conn != nil {
			m.conn.Close()
		}
		m.conn = conn
		m.connMu.Unlock()
		return true
	}
	return false
}

func (m *Monitor) handleDatagram(data []byte, received time.Time) {
	rec, err := codec.ParseDatagram(data, received)
	if err != nil {
		m.metrics.ParseErrors.Inc()
		return
	}
	m.metrics.EventsReceived.Inc()

	ev, decodeErr := codec.Decode(rec)

	m.mu.Lock()
	if !m.hasRef || rec.TimestampUS < m.referenceUS {
		// Clock sync on a node can shift timestamps backwards. The
		// reference only ever moves earlier so relative times stay
		// non-negative.
		m.referenceUS = rec.TimestampUS
		m.hasRef = true
	}
	if numberedOps[rec.Type] {
		m.opSeq[rec.Type]++
		rec.Operation = m.opSeq[rec.Type]
	}
	rec.RelTimeS = float64(rec.TimestampUS-m.referenceUS) / 1e6
	m.records = append(m.records, rec)
	if !m.seen[rec.NodeID] {
		m.seen[rec.NodeID] = true
		m.metrics.NodesSeen.Set(float64(len(m.seen)))
	}
	relS := rec.RelTimeS

	latencyMs, hasLatency := 0.0, false
	if decodeErr == nil {
		if lat, ok := ev.(codec.Latency); ok {
			latencyMs, hasLatency = lat.LatencyMs, true
		}
	}
	show := m.filter.keep(rec, latencyMs, hasLatency)
	m.mu.Unlock()

	if decodeErr != nil {
		m.metrics.ParseErrors.Inc()
	} else {
		m.recordLiveStats(ev)
	}
	if show {
		fmt.Fprintln(m.out, formatRecord(rec, relS))
	}
}

func (m *Monitor) recordLiveStats(ev codec.Event) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	switch e := ev.(type) {
	case codec.Latency:
		l := m.latency[e.Sender]
		if l == nil {
			l = &domain.LatencyStat{NodeID: e.Sender}
			m.latency[e.Sender] = l
		}
		l.Add(e.LatencyMs)
	case codec.PdrNode:
		entry := pdrEntry{}
		if e.HasExpected {
			entry.Expected = e.Expected
		}
		if e.HasReceived {
			entry.Received = e.Received
		}
		if e.HasPDR {
			entry.PDRPct = e.PDRPct
			entry.HasPDR = true
		}
		m.pdrNode[e.Sender] = entry
	case codec.PdrNetwork:
		m.pdrNetwork = &domain.NetworkStat{Received: e.Received, Transmitted: e.Expected}
	}
}

// QueueCommand appends a command for asynchronous dispatch. Node 0
// broadcasts to every configured node.
func (m *Monitor) QueueCommand(nodeID int, command string) {
	m.cmdMu.Lock()
	m.queue = append(m.queue, queuedCommand{NodeID: nodeID, Command: command})
	m.cmdMu.Unlock()
}

func (m *Monitor) dispatchLoop() {
	defer m.wg.Done()
	for m.isRunning() {
		m.cmdMu.Lock()
		var cmd queuedCommand
		ok := len(m.queue) > 0
		if ok {
			cmd = m.queue[0]
			m.queue = m.queue[1:]
		}
		m.cmdMu.Unlock()

		if !ok {
			time.Sleep(idleSleep)
			continue
		}
		m.sendCommand(cmd)
	}
}

func (m *Monitor) sendCommand(cmd queuedCommand) {
	targets := make(map[int]string)
	if cmd.NodeID == 0 {
		for id, host := range m.cfg.Nodes {
			targets[id] = host
		}
	} else {
		host, ok := m.cfg.Nodes[cmd.NodeID]
		if !ok {
			fmt.Fprintln(m.out, formatError(fmt.Sprintf("command: no address for node %d", cmd.NodeID)))
			m.metrics.CommandErrors.Inc()
			return
		}
		targets[cmd.NodeID] = host
	}

	ids := make([]int, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		addr := fmt.Sprintf("%s:%d", targets[id], m.cfg.Monitor.CommandPort)
		conn, err := net.Dial("udp", addr)
		if err != nil {
			log.Printf("command: dialing node %d (%s): %v", id, addr, err)
			m.metrics.CommandErrors.Inc()
			continue
		}
		_, err = conn.Write(codec.FormatCommand(id, cmd.Command))
		conn.Close()
		if err != nil {
			log.Printf("command: sending to node %d: %v", id, err)
			m.metrics.CommandErrors.Inc()
			continue
		}
		m.metrics.CommandsSent.Inc()
		fmt.Fprintf(m.out, "-> Node %d: %s\n", id, cmd.Command)
	}
}

// Records returns a snapshot of the archive.
func (m *Monitor) Records() []codec.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]codec.Record, len(m.records))
	copy(out, m.records)
	return out
}

// Save writes the archive to CSV ordered by origin timestamp.
func (m *Monitor) Save(path string) error {
	m.mu.Lock()
	records := make([]codec.Record, len(m.records))
	copy(records, m.records)
	ref := m.referenceUS
	m.mu.Unlock()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].TimestampUS < records[j].TimestampUS
	})

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := codec.WriteCSV(f, records, ref); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Analyze runs the full pipeline over the archive and prints the summary.
func (m *Monitor) Analyze(w io.Writer) *engine.Result {
	res := engine.Run(m.Records())
	report.Summary(w, res)
	report.Receipts(w, res.Receipts, res.Graph.GatewayID)
	report.Links(w, res.Graph)
	fmt.Fprint(w, report.RoutingDiagram(res.Graph))
	return res
}

// Stats prints the live latency table collected from observer reports.
func (m *Monitor) Stats(w io.Writer) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	fmt.Fprintln(w, "\nLive Latency (observer reports):")
	if len(m.latency) == 0 {
		fmt.Fprintln(w, "  no samples yet")
		return
	}
	ids := make([]int, 0, len(m.latency))
	for id := range m.latency {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		l := m.latency[id]
		fmt.Fprintf(w, "  Node %d: Avg=%.1fms, Min=%.1fms, Max=%.1fms (%d samples)\n",
			id, l.Avg(), l.Min(), l.Max(), len(l.Samples))
	}
}

// PDRStats prints the live PDR tables collected from observer reports.
func (m *Monitor) PDRStats(w io.Writer) {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()

	fmt.Fprintln(w, "\nLive PDR (observer reports):")
	if len(m.pdrNode) == 0 && m.pdrNetwork == nil {
		fmt.Fprintln(w, "  no reports yet")
		return
	}
	ids := make([]int, 0, len(m.pdrNode))
	for id := range m.pdrNode {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		e := m.pdrNode[id]
		if e.HasPDR {
			fmt.Fprintf(w, "  Node %d: PDR=%.1f%% (RX=%d/%d)\n", id, e.PDRPct, e.Received, e.Expected)
		} else {
			fmt.Fprintf(w, "  Node %d: RX=%d/%d\n", id, e.Received, e.Expected)
		}
	}
	if m.pdrNetwork != nil {
		fmt.Fprintf(w, "  NETWORK: %d/%d (%.1f%%)\n",
			m.pdrNetwork.Received, m.pdrNetwork.Transmitted, m.pdrNetwork.Ratio())
	}
}

// Export writes the current render model as JSON.
func (m *Monitor) Export(path string) error {
	res := engine.Run(m.Records())
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	exp := codec.NewJSONExporter()
	if err := exp.Export(res.Model, f); err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}
	return nil
}
