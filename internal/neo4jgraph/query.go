package neo4jgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"estatekg/relate/internal/model"
)

// LoadDataset reads every node kind from the graph.
func (s *Store) LoadDataset(ctx context.Context) (*model.Dataset, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	ds := &model.Dataset{}

	err := s.collectNodes(ctx, session, `MATCH (n:Property) RETURN n`, func(props map[string]any) {
		ds.Properties = append(ds.Properties, model.Property{
			ID:           propString(props, "id"),
			Price:        propFloatPtr(props, "price"),
			Bedrooms:     propInt(props, "bedrooms"),
			Bathrooms:    propFloat(props, "bathrooms"),
			SquareFeet:   propFloatPtr(props, "square_feet"),
			City:         propString(props, "city"),
			Neighborhood: propStringPtr(props, "neighborhood_id"),
			ZipCode:      propStringPtr(props, "zip_code"),
			PropertyType: propString(props, "property_type"),
			Features:     propStrings(props, "features"),
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.collectNodes(ctx, session, `MATCH (n:Neighborhood) RETURN n`, func(props map[string]any) {
		ds.Neighborhoods = append(ds.Neighborhoods, model.Neighborhood{
			ID:       propString(props, "id"),
			Name:     propString(props, "name"),
			City:     propString(props, "city"),
			State:    propString(props, "state"),
			CountyID: propStringPtr(props, "county_id"),
			ZipCode:  propStringPtr(props, "zip_code"),
			Lat:      propFloatPtr(props, "lat"),
			Lon:      propFloatPtr(props, "lon"),
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.collectNodes(ctx, session, `MATCH (n:City) RETURN n`, func(props map[string]any) {
		ds.Cities = append(ds.Cities, model.City{
			ID:       propString(props, "id"),
			Name:     propString(props, "name"),
			CountyID: propStringPtr(props, "county_id"),
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.collectNodes(ctx, session, `MATCH (n:County) RETURN n`, func(props map[string]any) {
		ds.Counties = append(ds.Counties, model.County{
			ID:      propString(props, "id"),
			Name:    propString(props, "name"),
			StateID: propStringPtr(props, "state_id"),
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.collectNodes(ctx, session, `MATCH (n:State) RETURN n`, func(props map[string]any) {
		ds.States = append(ds.States, model.State{
			ID:   propString(props, "id"),
			Name: propString(props, "name"),
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.collectNodes(ctx, session, `MATCH (n:ZipCode) RETURN n`, func(props map[string]any) {
		ds.ZipCodes = append(ds.ZipCodes, model.ZipCode{
			ID:       propString(props, "id"),
			CityID:   propStringPtr(props, "city_id"),
			CountyID: propStringPtr(props, "county_id"),
			StateID:  propStringPtr(props, "state_id"),
		})
	})
	if err != nil {
		return nil, err
	}

	err = s.collectNodes(ctx, session, `MATCH (n:Article) RETURN n`, func(props map[string]any) {
		ds.Articles = append(ds.Articles, model.Article{
			ID:           propString(props, "id"),
			Title:        propString(props, "title"),
			City:         propStringPtr(props, "city"),
			State:        propStringPtr(props, "state"),
			Neighborhood: propStringPtr(props, "neighborhood_id"),
		})
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

func (s *Store) collectNodes(ctx context.Context, session neo4j.SessionWithContext, query string, visit func(map[string]any)) error {
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return classify(fmt.Errorf("loading nodes: %w", err))
	}
	for result.Next(ctx) {
		value, found := result.Record().Get("n")
		if !found {
			continue
		}
		node, ok := value.(neo4j.Node)
		if !ok {
			continue
		}
		visit(node.Props)
	}
	return classify(result.Err())
}

const edgeReturn = `type(r) AS type, src.id AS source_id, dst.id AS target_id,
       r.score AS score, r.confidence AS confidence, r.method AS method, r.distance_km AS distance_km`

// OutboundEdges returns edges leaving the node, optionally filtered by type.
func (s *Store) OutboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error) {
	return s.queryEdges(ctx, `
MATCH (src {id: $id})-[r]->(dst)
WHERE $type = '' OR type(r) = $type
RETURN `+edgeReturn, map[string]any{"id": nodeID, "type": string(edgeType)})
}

// InboundEdges returns edges arriving at the node, optionally filtered by type.
func (s *Store) InboundEdges(ctx context.Context, nodeID string, edgeType model.EdgeType) ([]model.Edge, error) {
	return s.queryEdges(ctx, `
MATCH (src)-[r]->(dst {id: $id})
WHERE $type = '' OR type(r) = $type
RETURN `+edgeReturn, map[string]any{"id": nodeID, "type": string(edgeType)})
}

// AllEdges returns every derived edge. Used by the audit checks.
func (s *Store) AllEdges(ctx context.Context) ([]model.Edge, error) {
	return s.queryEdges(ctx, `MATCH (src)-[r]->(dst) RETURN `+edgeReturn, nil)
}

// NodeIDs returns the ids of every node (feature nodes are keyed by name).
func (s *Store) NodeIDs(ctx context.Context) ([]string, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, `MATCH (n) RETURN coalesce(n.id, n.name) AS id`, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("loading node ids: %w", err))
	}
	var ids []string
	for result.Next(ctx) {
		if v, ok := result.Record().Get("id"); ok {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, classify(result.Err())
}

func (s *Store) queryEdges(ctx context.Context, query string, params map[string]any) ([]model.Edge, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, classify(fmt.Errorf("querying edges: %w", err))
	}
	var edges []model.Edge
	for result.Next(ctx) {
		m := result.Record().AsMap()
		edges = append(edges, model.Edge{
			SourceID:   propString(m, "source_id"),
			TargetID:   propString(m, "target_id"),
			Type:       model.EdgeType(propString(m, "type")),
			Score:      propFloatPtr(m, "score"),
			Confidence: propFloatPtr(m, "confidence"),
			Method:     propStringPtr(m, "method"),
			DistanceKM: propFloatPtr(m, "distance_km"),
		})
	}
	return edges, classify(result.Err())
}

func propString(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func propStringPtr(props map[string]any, key string) *string {
	if v, ok := props[key].(string); ok && v != "" {
		return &v
	}
	return nil
}

func propFloat(props map[string]any, key string) float64 {
	switch v := props[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func propFloatPtr(props map[string]any, key string) *float64 {
	switch v := props[key].(type) {
	case float64:
		return &v
	case int64:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func propInt(props map[string]any, key string) int {
	switch v := props[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func propStrings(props map[string]any, key string) []string {
	raw, ok := props[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
