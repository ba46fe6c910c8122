package db

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"estatekg/relate/internal/model"
)

// LoadDataset reads every node kind into memory for a build run. The engine
// reads nodes wholesale; all matching happens in the builders against
// in-memory indices.
func (s *Store) LoadDataset(ctx context.Context) (*model.Dataset, error) {
	ds := &model.Dataset{}

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, price, bedrooms, bathrooms, square_feet, city,
		       neighborhood_id, zip_code, property_type, features
		FROM properties`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading properties: %w", err))
	}
	for rows.Next() {
		var p model.Property
		var features string
		if err := rows.Scan(&p.ID, &p.Price, &p.Bedrooms, &p.Bathrooms, &p.SquareFeet,
			&p.City, &p.Neighborhood, &p.ZipCode, &p.PropertyType, &features); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		if err := json.Unmarshal([]byte(features), &p.Features); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decoding features for property %s: %w", p.ID, err)
		}
		ds.Properties = append(ds.Properties, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	rows, err = s.conn.QueryContext(ctx, `
		SELECT id, name, city, state, county_id, zip_code, lat, lon
		FROM neighborhoods`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading neighborhoods: %w", err))
	}
	for rows.Next() {
		var n model.Neighborhood
		if err := rows.Scan(&n.ID, &n.Name, &n.City, &n.State, &n.CountyID,
			&n.ZipCode, &n.Lat, &n.Lon); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning neighborhood: %w", err)
		}
		ds.Neighborhoods = append(ds.Neighborhoods, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	rows, err = s.conn.QueryContext(ctx, `SELECT id, name, county_id FROM cities`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading cities: %w", err))
	}
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Name, &c.CountyID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning city: %w", err)
		}
		ds.Cities = append(ds.Cities, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	rows, err = s.conn.QueryContext(ctx, `SELECT id, name, state_id FROM counties`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading counties: %w", err))
	}
	for rows.Next() {
		var c model.County
		if err := rows.Scan(&c.ID, &c.Name, &c.StateID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning county: %w", err)
		}
		ds.Counties = append(ds.Counties, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	rows, err = s.conn.QueryContext(ctx, `SELECT id, name FROM states`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading states: %w", err))
	}
	for rows.Next() {
		var st model.State
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning state: %w", err)
		}
		ds.States = append(ds.States, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	rows, err = s.conn.QueryContext(ctx, `SELECT id, city_id, county_id, state_id FROM zip_codes`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading zip codes: %w", err))
	}
	for rows.Next() {
		var z model.ZipCode
		if err := rows.Scan(&z.ID, &z.CityID, &z.CountyID, &z.StateID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning zip code: %w", err)
		}
		ds.ZipCodes = append(ds.ZipCodes, z)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	rows, err = s.conn.QueryContext(ctx, `SELECT id, title, city, state, neighborhood_id FROM articles`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading articles: %w", err))
	}
	for rows.Next() {
		var a model.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.City, &a.State, &a.Neighborhood); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		ds.Articles = append(ds.Articles, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return ds, nil
}

// UpsertFeatures creates feature catalog nodes that don't exist yet and
// returns how many were new.
func (s *Store) UpsertFeatures(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		res, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO features (name) VALUES (?)`, name)
		if err != nil {
			return created, classify(fmt.Errorf("upserting feature %q: %w", name, err))
		}
		n, _ := res.RowsAffected()
		created += int(n)
	}
	return created, nil
}

// UpsertPropertyTypes creates property-type catalog nodes.
func (s *Store) UpsertPropertyTypes(ctx context.Context, types []model.PropertyType) (int, error) {
	created := 0
	for _, t := range types {
		res, err := s.conn.ExecContext(ctx, `INSERT OR IGNORE INTO property_types (id) VALUES (?)`, string(t))
		if err != nil {
			return created, classify(fmt.Errorf("upserting property type %q: %w", t, err))
		}
		n, _ := res.RowsAffected()
		created += int(n)
	}
	return created, nil
}

// UpsertPriceBands creates price-range catalog nodes. The open-ended band
// stores a NULL max.
func (s *Store) UpsertPriceBands(ctx context.Context, bands []model.PriceBand) (int, error) {
	created := 0
	for _, b := range bands {
		var max any
		if !math.IsInf(b.Max, 1) {
			max = b.Max
		}
		res, err := s.conn.ExecContext(ctx,
			`INSERT OR IGNORE INTO price_ranges (id, min, max) VALUES (?, ?, ?)`, b.ID, b.Min, max)
		if err != nil {
			return created, classify(fmt.Errorf("upserting price range %q: %w", b.ID, err))
		}
		n, _ := res.RowsAffected()
		created += int(n)
	}
	return created, nil
}

// NodeIDs returns the ids of every node of every kind, catalog included.
func (s *Store) NodeIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id FROM properties
		UNION SELECT id FROM neighborhoods
		UNION SELECT id FROM cities
		UNION SELECT id FROM counties
		UNION SELECT id FROM states
		UNION SELECT id FROM zip_codes
		UNION SELECT id FROM articles
		UNION SELECT name FROM features
		UNION SELECT id FROM property_types
		UNION SELECT id FROM price_ranges
	`)
	if err != nil {
		return nil, classify(fmt.Errorf("loading node ids: %w", err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
