package build

import (
	"math"
	"testing"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

func newProximity(t *testing.T) *Proximity {
	t.Helper()
	return NewProximity(config.Default(), logger.NewNop())
}

func hood(id, city string, lat, lon *float64) model.Neighborhood {
	return model.Neighborhood{ID: id, Name: id, City: city, Lat: lat, Lon: lon}
}

func TestHaversine_KnownDistance(t *testing.T) {
	// Downtown Springfield to a point ~10km north.
	d := haversineKM(39.7817, -89.6501, 39.8717, -89.6501)
	if math.Abs(d-10.0) > 0.1 {
		t.Errorf("distance = %f km, want ~10", d)
	}
}

func TestBuildCity_NoCoordinatesAlwaysNear(t *testing.T) {
	p := newProximity(t)
	edges := p.BuildCity([]model.Neighborhood{
		hood("n1", "x", nil, nil),
		hood("n2", "x", nil, nil),
	})
	if len(edges) != 2 {
		t.Fatalf("expected one NEAR pair (2 edges), got %d", len(edges))
	}
	if edges[0].DistanceKM != nil {
		t.Error("coordinate-free match must not carry distance_km")
	}
}

func TestBuildCity_WithinRadius(t *testing.T) {
	p := newProximity(t)
	edges := p.BuildCity([]model.Neighborhood{
		hood("n1", "x", f(39.7817), f(-89.6501)),
		hood("n2", "x", f(39.7997), f(-89.6501)), // ~2km north
	})
	if len(edges) != 2 {
		t.Fatalf("expected one NEAR pair, got %d edges", len(edges))
	}
	if edges[0].DistanceKM == nil {
		t.Fatal("geocoded match must carry distance_km")
	}
	if *edges[0].DistanceKM > 5.0 || *edges[0].DistanceKM < 1.0 {
		t.Errorf("distance_km = %f, want roughly 2", *edges[0].DistanceKM)
	}
	if edges[1].DistanceKM == nil || *edges[1].DistanceKM != *edges[0].DistanceKM {
		t.Error("reverse edge must carry the identical payload")
	}
}

func TestBuildCity_BeyondRadiusNoEdge(t *testing.T) {
	p := newProximity(t)
	edges := p.BuildCity([]model.Neighborhood{
		hood("n1", "x", f(39.7817), f(-89.6501)),
		hood("n2", "x", f(39.8717), f(-89.6501)), // ~10km, radius default 5
	})
	if len(edges) != 0 {
		t.Fatalf("pair 10km apart must not match at radius 5, got %d edges", len(edges))
	}
}

func TestBuildCity_OneSideMissingCoordinatesFallsBack(t *testing.T) {
	p := newProximity(t)
	edges := p.BuildCity([]model.Neighborhood{
		hood("n1", "x", f(39.7817), f(-89.6501)),
		hood("n2", "x", nil, nil),
	})
	if len(edges) != 2 {
		t.Fatalf("missing coordinates on one side should fall back to same-city rule, got %d edges", len(edges))
	}
}

func TestBuildCity_CanonicalPairOrdering(t *testing.T) {
	p := newProximity(t)
	edges := p.BuildCity([]model.Neighborhood{
		hood("n2", "x", nil, nil),
		hood("n1", "x", nil, nil),
		hood("n3", "x", nil, nil),
	})
	// 3 unordered pairs, each evaluated once, each emitting a pair of edges.
	if len(edges) != 6 {
		t.Fatalf("expected 6 edges, got %d", len(edges))
	}
	for i := 0; i < len(edges); i += 2 {
		fwd, rev := edges[i], edges[i+1]
		if fwd.SourceID >= fwd.TargetID {
			t.Errorf("forward edge %s->%s not canonically ordered", fwd.SourceID, fwd.TargetID)
		}
		if rev.SourceID != fwd.TargetID || rev.TargetID != fwd.SourceID {
			t.Errorf("edge %d reverse mismatch", i)
		}
	}
}

func TestPartition_IgnoresNeighborhoodsWithoutCity(t *testing.T) {
	p := newProximity(t)
	ds := &model.Dataset{Neighborhoods: []model.Neighborhood{
		hood("n1", "x", nil, nil),
		hood("n2", "", nil, nil),
	}}
	cities, parts := p.Partition(ds)
	if len(cities) != 1 || len(parts["x"]) != 1 {
		t.Errorf("expected a single one-neighborhood partition, got %v", parts)
	}
}
