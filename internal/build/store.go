package build

import (
	"context"

	"estatekg/relate/internal/model"
)

// Store is the graph-store contract the orchestrator writes through. Both
// the SQLite and the Neo4j backends implement it. Every write is an
// idempotent upsert keyed on the record's natural identity, so re-running a
// build against either backend converges without duplication.
type Store interface {
	// EnsureIndexes creates the natural-key indices a phase's matching
	// relies on. Idempotent; called before every phase.
	EnsureIndexes(ctx context.Context) error

	// LoadDataset reads all node kinds for one build run.
	LoadDataset(ctx context.Context) (*model.Dataset, error)

	// Catalog nodes, created lazily on first reference.
	UpsertFeatures(ctx context.Context, names []string) (int, error)
	UpsertPropertyTypes(ctx context.Context, types []model.PropertyType) (int, error)
	UpsertPriceBands(ctx context.Context, bands []model.PriceBand) (int, error)

	// UpsertEdges writes one batch and returns how many edges were new.
	UpsertEdges(ctx context.Context, edges []model.Edge) (int, error)

	// Downstream query surface over materialized edges.
	OutboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error)
	InboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error)
}
