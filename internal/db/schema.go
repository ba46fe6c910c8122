package db

import (
	"context"
	"fmt"
)

// ensureSchema creates the node and edge tables. Idempotent; runs at open.
func (s *Store) ensureSchema() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			price REAL,
			bedrooms INTEGER NOT NULL DEFAULT 0,
			bathrooms REAL NOT NULL DEFAULT 0,
			square_feet REAL,
			city TEXT NOT NULL DEFAULT '',
			neighborhood_id TEXT,
			zip_code TEXT,
			property_type TEXT NOT NULL DEFAULT '',
			features TEXT NOT NULL DEFAULT '[]'
		);
		CREATE TABLE IF NOT EXISTS neighborhoods (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			county_id TEXT,
			zip_code TEXT,
			lat REAL,
			lon REAL
		);
		CREATE TABLE IF NOT EXISTS cities (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			county_id TEXT
		);
		CREATE TABLE IF NOT EXISTS counties (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			state_id TEXT
		);
		CREATE TABLE IF NOT EXISTS states (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS zip_codes (
			id TEXT PRIMARY KEY,
			city_id TEXT,
			county_id TEXT,
			state_id TEXT
		);
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			city TEXT,
			state TEXT,
			neighborhood_id TEXT
		);
		CREATE TABLE IF NOT EXISTS features (
			name TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS property_types (
			id TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS price_ranges (
			id TEXT PRIMARY KEY,
			min REAL NOT NULL,
			max REAL
		);
		CREATE TABLE IF NOT EXISTS edges (
			source_id TEXT NOT NULL,
			target_id TEXT NOT NULL,
			type TEXT NOT NULL,
			score REAL,
			confidence REAL,
			method TEXT,
			distance_km REAL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER,
			PRIMARY KEY (source_id, target_id, type)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// EnsureIndexes creates the natural-key indices the matching phases rely on.
// Called before every phase; CREATE INDEX IF NOT EXISTS makes it a no-op
// after the first run.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_properties_city ON properties(city);
		CREATE INDEX IF NOT EXISTS idx_properties_neighborhood ON properties(neighborhood_id);
		CREATE INDEX IF NOT EXISTS idx_neighborhoods_city ON neighborhoods(city);
		CREATE INDEX IF NOT EXISTS idx_neighborhoods_county ON neighborhoods(county_id);
		CREATE INDEX IF NOT EXISTS idx_cities_county ON cities(county_id);
		CREATE INDEX IF NOT EXISTS idx_articles_city ON articles(city);
		CREATE INDEX IF NOT EXISTS idx_edges_source_type ON edges(source_id, type);
		CREATE INDEX IF NOT EXISTS idx_edges_target_type ON edges(target_id, type);
	`)
	if err != nil {
		return classify(fmt.Errorf("creating indexes: %w", err))
	}
	return nil
}
