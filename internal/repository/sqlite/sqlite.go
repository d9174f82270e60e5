// Package sqlite archives analysis runs so topology snapshots can be
// compared across test sessions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"meshscope/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Repository stores finalized render models keyed by run id
type Repository struct {
	db *sql.DB
}

// New opens (and migrates) the run archive at the given path.
// Use ":memory:" for an ephemeral archive.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return repo, nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		topology TEXT NOT NULL,
		gateway_id INTEGER NOT NULL,
		network JSON NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS run_nodes (
		run_id TEXT NOT NULL,
		node_id INTEGER NOT NULL,
		hop INTEGER NOT NULL,
		hop_estimated INTEGER NOT NULL DEFAULT 0,
		gateway INTEGER NOT NULL DEFAULT 0,
		pdr REAL NOT NULL DEFAULT 0,
		pdr_estimated INTEGER NOT NULL DEFAULT 0,
		received INTEGER NOT NULL DEFAULT 0,
		transmitted INTEGER NOT NULL DEFAULT 0,
		avg_latency_ms REAL NOT NULL DEFAULT 0,
		pos_x REAL NOT NULL DEFAULT 0,
		pos_y REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, node_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS run_edges (
		run_id TEXT NOT NULL,
		from_id INTEGER NOT NULL,
		to_id INTEGER NOT NULL,
		weight INTEGER NOT NULL DEFAULT 0,
		is_primary INTEGER NOT NULL DEFAULT 0,
		inferred INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (run_id, from_id, to_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// SaveRun archives one finalized model and returns its run id
func (r *Repository) SaveRun(ctx context.Context, source string, model *domain.RenderModel) (string, error) {
	runID := uuid.NewString()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	network, err := json.Marshal(model.Network)
	if err != nil {
		return "", fmt.Errorf("failed to marshal network stats: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, topology, gateway_id, network, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, source, string(model.Topology), model.GatewayID, network, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	for _, n := range model.Nodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_nodes
				(run_id, node_id, hop, hop_estimated, gateway, pdr, pdr_estimated,
				 received, transmitted, avg_latency_ms, pos_x, pos_y)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, runID, n.ID, n.Hop, n.HopEstimated, n.Gateway, n.PDR, n.PDREstimated,
			n.Received, n.Transmitted, n.AvgLatencyMs, n.Position.X, n.Position.Y); err != nil {
			return "", fmt.Errorf("failed to insert node %d: %w", n.ID, err)
		}
	}

	for _, e := range model.Edges {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_edges (run_id, from_id, to_id, weight, is_primary, inferred)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, e.From, e.To, e.Weight, e.Primary, e.Inferred); err != nil {
			return "", fmt.Errorf("failed to insert edge %d->%d: %w", e.From, e.To, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

// GetRun loads one archived run by id
func (r *Repository) GetRun(ctx context.Context, runID string) (*domain.RenderModel, error) {
	model := &domain.RenderModel{}

	var topology string
	var network []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT topology, gateway_id, network FROM runs WHERE id = ?
	`, runID).Scan(&topology, &model.GatewayID, &network)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	model.Topology = domain.TopologyClass(topology)
	if err := json.Unmarshal(network, &model.Network); err != nil {
		return nil, fmt.Errorf("failed to unmarshal network stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT node_id, hop, hop_estimated, gateway, pdr, pdr_estimated,
		       received, transmitted, avg_latency_ms, pos_x, pos_y
		FROM run_nodes WHERE run_id = ? ORDER BY node_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var n domain.RenderNode
		if err := rows.Scan(&n.ID, &n.Hop, &n.HopEstimated, &n.Gateway, &n.PDR, &n.PDREstimated,
			&n.Received, &n.Transmitted, &n.AvgLatencyMs, &n.Position.X, &n.Position.Y); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		model.Nodes = append(model.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nodes: %w", err)
	}

	edgeRows, err := r.db.QueryContext(ctx, `
		SELECT from_id, to_id, weight, is_primary, inferred
		FROM run_edges WHERE run_id = ? ORDER BY from_id, to_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e domain.RenderEdge
		if err := edgeRows.Scan(&e.From, &e.To, &e.Weight, &e.Primary, &e.Inferred); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		model.Edges = append(model.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return model, nil
}

// LatestRunID returns the id of the most recently archived run
func (r *Repository) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM runs ORDER BY created_at DESC, id DESC LIMIT 1
	`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("no runs archived")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest run: %w", err)
	}
	return id, nil
}

// ListRuns returns run ids with their source and creation time, newest first
func (r *Repository) ListRuns(ctx context.Context) ([]RunInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, topology, created_at FROM runs ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		if err := rows.Scan(&info.ID, &info.Source, &info.Topology, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// RunInfo summarizes one archived run
type RunInfo struct {
	ID        string
	Source    string
	Topology  string
	CreatedAt time.Time
}

// Close releases the underlying database handle
func (r *Repository) Close() error {
	return r.db.Close()
}
