package db

import (
	"context"
	"fmt"
	"time"

	"estatekg/relate/internal/model"
)

const edgeColumns = `source_id, target_id, type, score, confidence, method, distance_km`

// scanEdge scans a row into an Edge. The row must carry the edgeColumns set.
func scanEdge(scanner interface{ Scan(dest ...any) error }) (model.Edge, error) {
	var e model.Edge
	err := scanner.Scan(&e.SourceID, &e.TargetID, &e.Type,
		&e.Score, &e.Confidence, &e.Method, &e.DistanceKM)
	return e, err
}

// UpsertEdges writes one batch of edges inside a single transaction, keyed
// on (source_id, target_id, type). Existing edges get their payload
// re-affirmed; the returned count is how many edges were actually new.
func (s *Store) UpsertEdges(ctx context.Context, edges []model.Edge) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, classify(fmt.Errorf("beginning edge batch: %w", err))
	}
	defer tx.Rollback()

	var before int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&before); err != nil {
		return 0, classify(fmt.Errorf("counting edges: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (source_id, target_id, type, score, confidence, method, distance_km, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, target_id, type) DO UPDATE SET
			score = excluded.score,
			confidence = excluded.confidence,
			method = excluded.method,
			distance_km = excluded.distance_km,
			updated_at = excluded.created_at
	`)
	if err != nil {
		return 0, classify(fmt.Errorf("preparing edge upsert: %w", err))
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, e.SourceID, e.TargetID, string(e.Type),
			e.Score, e.Confidence, e.Method, e.DistanceKM, now); err != nil {
			return 0, classify(fmt.Errorf("upserting edge %s-[%s]->%s: %w", e.SourceID, e.Type, e.TargetID, err))
		}
	}

	var after int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&after); err != nil {
		return 0, classify(fmt.Errorf("counting edges: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return 0, classify(fmt.Errorf("committing edge batch: %w", err))
	}
	return after - before, nil
}

// OutboundEdges returns edges leaving the node, optionally filtered by type
// (empty edgeType matches all).
func (s *Store) OutboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error) {
	query := `SELECT ` + edgeColumns + ` FROM edges WHERE source_id = ?`
	args := []any{nodeID}
	if edgeType != "" {
		query += ` AND type = ?`
		args = append(args, string(edgeType))
	}
	return s.queryEdges(ctx, query, args...)
}

// InboundEdges returns edges arriving at the node, optionally filtered by type.
func (s *Store) InboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error) {
	query := `SELECT ` + edgeColumns + ` FROM edges WHERE target_id = ?`
	args := []any{nodeID}
	if edgeType != "" {
		query += ` AND type = ?`
		args = append(args, string(edgeType))
	}
	return s.queryEdges(ctx, query, args...)
}

// AllEdges returns every edge in the store. Used by the audit checks.
func (s *Store) AllEdges(ctx context.Context) ([]model.Edge, error) {
	return s.queryEdges(ctx, `SELECT `+edgeColumns+` FROM edges`)
}

// EdgeCount returns the number of edges of the given type (all types when
// empty).
func (s *Store) EdgeCount(ctx context.Context, edgeType model.EdgeType) (int, error) {
	query := `SELECT COUNT(*) FROM edges`
	var args []any
	if edgeType != "" {
		query += ` WHERE type = ?`
		args = append(args, string(edgeType))
	}
	var n int
	if err := s.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, classify(fmt.Errorf("counting edges: %w", err))
	}
	return n, nil
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]model.Edge, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("querying edges: %w", err))
	}
	defer rows.Close()

	var edges []model.Edge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}
