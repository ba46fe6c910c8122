package db

import (
	"context"
	"encoding/json"
	"fmt"

	"estatekg/relate/internal/model"
)

// Node insertion surface consumed by the upstream ETL loader (and the test
// fixtures). The relationship engine itself only ever creates catalog nodes.

func (s *Store) InsertProperty(ctx context.Context, p model.Property) error {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return fmt.Errorf("encoding features for property %s: %w", p.ID, err)
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO properties
			(id, price, bedrooms, bathrooms, square_feet, city, neighborhood_id, zip_code, property_type, features)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Price, p.Bedrooms, p.Bathrooms, p.SquareFeet,
		p.City, p.Neighborhood, p.ZipCode, p.PropertyType, string(features))
	if err != nil {
		return classify(fmt.Errorf("inserting property %s: %w", p.ID, err))
	}
	return nil
}

func (s *Store) InsertNeighborhood(ctx context.Context, n model.Neighborhood) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO neighborhoods
			(id, name, city, state, county_id, zip_code, lat, lon)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.City, n.State, n.CountyID, n.ZipCode, n.Lat, n.Lon)
	if err != nil {
		return classify(fmt.Errorf("inserting neighborhood %s: %w", n.ID, err))
	}
	return nil
}

func (s *Store) InsertCity(ctx context.Context, c model.City) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO cities (id, name, county_id) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.CountyID)
	if err != nil {
		return classify(fmt.Errorf("inserting city %s: %w", c.ID, err))
	}
	return nil
}

func (s *Store) InsertCounty(ctx context.Context, c model.County) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO counties (id, name, state_id) VALUES (?, ?, ?)`,
		c.ID, c.Name, c.StateID)
	if err != nil {
		return classify(fmt.Errorf("inserting county %s: %w", c.ID, err))
	}
	return nil
}

func (s *Store) InsertState(ctx context.Context, st model.State) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO states (id, name) VALUES (?, ?)`, st.ID, st.Name)
	if err != nil {
		return classify(fmt.Errorf("inserting state %s: %w", st.ID, err))
	}
	return nil
}

func (s *Store) InsertZipCode(ctx context.Context, z model.ZipCode) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO zip_codes (id, city_id, county_id, state_id) VALUES (?, ?, ?, ?)`,
		z.ID, z.CityID, z.CountyID, z.StateID)
	if err != nil {
		return classify(fmt.Errorf("inserting zip code %s: %w", z.ID, err))
	}
	return nil
}

func (s *Store) InsertArticle(ctx context.Context, a model.Article) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT OR REPLACE INTO articles (id, title, city, state, neighborhood_id)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Title, a.City, a.State, a.Neighborhood)
	if err != nil {
		return classify(fmt.Errorf("inserting article %s: %w", a.ID, err))
	}
	return nil
}
