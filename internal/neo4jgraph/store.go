// Package neo4jgraph is the graph-native store backend. Edge identity is
// enforced by MERGE on (source)-[type]->(target), which gives the same
// idempotent upsert semantics the SQLite backend gets from its primary key.
package neo4jgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// Store wraps a Neo4j driver plus the target database.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// New connects to Neo4j and verifies connectivity so configuration problems
// surface before any phase starts.
func New(ctx context.Context, cfg config.Neo4j, log *logger.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: neo4j uri not configured", config.ErrInvalid)
	}
	user := cfg.User
	if user == "" {
		user = "neo4j"
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(user, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying neo4j connectivity: %w", err)
	}
	return &Store{driver: driver, database: cfg.Database, log: log}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}

// transientError marks retryable driver failures for the orchestrator's
// backoff loop.
type transientError struct {
	err error
}

func (e *transientError) Error() string   { return e.err.Error() }
func (e *transientError) Unwrap() error   { return e.err }
func (e *transientError) Transient() bool { return true }

func classify(err error) error {
	if err == nil {
		return nil
	}
	if neo4j.IsRetryable(err) {
		return &transientError{err: err}
	}
	return err
}

// EnsureIndexes creates the id constraints per node label. IF NOT EXISTS
// makes repeated calls no-ops.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	statements := []string{
		`CREATE CONSTRAINT property_id IF NOT EXISTS FOR (n:Property) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT neighborhood_id IF NOT EXISTS FOR (n:Neighborhood) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT city_id IF NOT EXISTS FOR (n:City) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT county_id IF NOT EXISTS FOR (n:County) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT state_id IF NOT EXISTS FOR (n:State) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT zip_code_id IF NOT EXISTS FOR (n:ZipCode) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT article_id IF NOT EXISTS FOR (n:Article) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT feature_name IF NOT EXISTS FOR (n:Feature) REQUIRE n.name IS UNIQUE`,
		`CREATE CONSTRAINT feature_id IF NOT EXISTS FOR (n:Feature) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT property_type_id IF NOT EXISTS FOR (n:PropertyType) REQUIRE n.id IS UNIQUE`,
		`CREATE CONSTRAINT price_range_id IF NOT EXISTS FOR (n:PriceRange) REQUIRE n.id IS UNIQUE`,
		`CREATE INDEX property_city IF NOT EXISTS FOR (n:Property) ON (n.city)`,
		`CREATE INDEX neighborhood_city IF NOT EXISTS FOR (n:Neighborhood) ON (n.city)`,
		`CREATE INDEX article_city IF NOT EXISTS FOR (n:Article) ON (n.city)`,
	}
	for _, stmt := range statements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return classify(fmt.Errorf("creating schema: %w", err))
		}
		if _, err := res.Consume(ctx); err != nil {
			return classify(fmt.Errorf("creating schema: %w", err))
		}
	}
	return nil
}

// edgeRowsByType groups a batch into Cypher parameter rows per relationship
// type (Cypher cannot parameterize the type). Endpoints are matched by the
// id property, so every catalog merge must write one.
func edgeRowsByType(edges []model.Edge) map[model.EdgeType][]map[string]any {
	byType := make(map[model.EdgeType][]map[string]any)
	for _, e := range edges {
		row := map[string]any{
			"source_id":   e.SourceID,
			"target_id":   e.TargetID,
			"score":       nilOr(e.Score),
			"confidence":  nilOr(e.Confidence),
			"method":      nilOrString(e.Method),
			"distance_km": nilOr(e.DistanceKM),
		}
		byType[e.Type] = append(byType[e.Type], row)
	}
	return byType
}

// UpsertEdges MERGEs one batch, grouped by relationship type. Returns the
// relationships-created counter.
func (s *Store) UpsertEdges(ctx context.Context, edges []model.Edge) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}

	byType := edgeRowsByType(edges)

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		total := 0
		for edgeType, rows := range byType {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (src {id: row.source_id})
MATCH (dst {id: row.target_id})
MERGE (src)-[r:%s]->(dst)
SET r.score = row.score,
    r.confidence = row.confidence,
    r.method = row.method,
    r.distance_km = row.distance_km
`, string(edgeType))
			res, err := tx.Run(ctx, query, map[string]any{"rows": rows})
			if err != nil {
				return total, err
			}
			summary, err := res.Consume(ctx)
			if err != nil {
				return total, err
			}
			total += summary.Counters().RelationshipsCreated()
		}
		return total, nil
	})
	if err != nil {
		return 0, classify(fmt.Errorf("upserting edge batch: %w", err))
	}
	return created.(int), nil
}

// featureRows builds the parameter rows for the feature merge. Features are
// keyed by name, but the node also carries that name as its id so the edge
// batches' MATCH on id resolves feature endpoints.
func featureRows(names []string) []map[string]any {
	rows := make([]map[string]any, len(names))
	for i, name := range names {
		rows[i] = map[string]any{"id": name, "name": name}
	}
	return rows
}

// UpsertFeatures creates feature catalog nodes by name.
func (s *Store) UpsertFeatures(ctx context.Context, names []string) (int, error) {
	return s.mergeCatalog(ctx, `
UNWIND $rows AS row
MERGE (n:Feature {name: row.name})
SET n.id = row.id
`, featureRows(names))
}

// UpsertPropertyTypes creates property-type catalog nodes.
func (s *Store) UpsertPropertyTypes(ctx context.Context, types []model.PropertyType) (int, error) {
	ids := make([]string, len(types))
	for i, t := range types {
		ids[i] = string(t)
	}
	return s.mergeCatalog(ctx, `
UNWIND $rows AS row
MERGE (:PropertyType {id: row.id})
`, rowsOf("id", ids))
}

// UpsertPriceBands creates price-range catalog nodes with their interval.
func (s *Store) UpsertPriceBands(ctx context.Context, bands []model.PriceBand) (int, error) {
	rows := make([]map[string]any, len(bands))
	for i, b := range bands {
		rows[i] = map[string]any{"id": b.ID, "min": b.Min, "max": b.Max}
	}
	return s.mergeCatalog(ctx, `
UNWIND $rows AS row
MERGE (n:PriceRange {id: row.id})
SET n.min = row.min, n.max = row.max
`, rows)
}

func (s *Store) mergeCatalog(ctx context.Context, query string, rows []map[string]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		if err != nil {
			return 0, err
		}
		summary, err := res.Consume(ctx)
		if err != nil {
			return 0, err
		}
		return summary.Counters().NodesCreated(), nil
	})
	if err != nil {
		return 0, classify(fmt.Errorf("upserting catalog nodes: %w", err))
	}
	return created.(int), nil
}

func rowsOf(key string, values []string) []map[string]any {
	rows := make([]map[string]any, len(values))
	for i, v := range values {
		rows[i] = map[string]any{key: v}
	}
	return rows
}

func nilOr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nilOrString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
