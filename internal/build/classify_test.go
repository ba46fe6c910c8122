package build

import (
	"testing"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(config.Default(), logger.NewNop())
}

func countEdges(edges []model.Edge, edgeType model.EdgeType) int {
	n := 0
	for _, e := range edges {
		if e.Type == edgeType {
			n++
		}
	}
	return n
}

func TestClassify_FeaturesNormalizedAndDeduped(t *testing.T) {
	ds := &model.Dataset{Properties: []model.Property{
		{ID: "p1", PropertyType: "house", Features: []string{" Pool ", "pool", "GARAGE", ""}},
	}}
	res := newClassifier(t).Build(ds)

	if got := countEdges(res.Edges, model.EdgeHasFeature); got != 2 {
		t.Fatalf("got %d HAS_FEATURE edges, want 2", got)
	}
	set := edgeSet(res.Edges)
	if !set["p1|HAS_FEATURE|pool"] || !set["p1|HAS_FEATURE|garage"] {
		t.Errorf("expected normalized pool and garage edges, got %v", res.Edges)
	}
	if len(res.Features) != 2 {
		t.Errorf("catalog should hold 2 features, got %v", res.Features)
	}
}

func TestClassify_UnknownTypeFallsBackToOther(t *testing.T) {
	ds := &model.Dataset{Properties: []model.Property{
		{ID: "p1", PropertyType: "Condo"},
		{ID: "p2", PropertyType: "castle"},
	}}
	res := newClassifier(t).Build(ds)

	set := edgeSet(res.Edges)
	if !set["p1|OF_TYPE|condo"] {
		t.Error("recognized type should canonicalize to condo")
	}
	if !set["p2|OF_TYPE|other"] {
		t.Error("unrecognized type should fall back to other")
	}
	if res.UnknownTypes != 1 {
		t.Errorf("UnknownTypes = %d, want 1", res.UnknownTypes)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("fallback should be reported, got %v", res.Warnings)
	}
}

func TestClassify_PriceRangeExactlyOne(t *testing.T) {
	ds := &model.Dataset{Properties: []model.Property{
		{ID: "p1", PropertyType: "house", Price: f(500000)},
		{ID: "p2", PropertyType: "house", Price: f(0)},
		{ID: "p3", PropertyType: "house", Price: f(10_000_000)}, // open-ended band
	}}
	res := newClassifier(t).Build(ds)

	byProp := make(map[string]int)
	for _, e := range res.Edges {
		if e.Type == model.EdgeInPriceRange {
			byProp[e.SourceID]++
		}
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if byProp[id] != 1 {
			t.Errorf("property %s has %d price-range edges, want 1", id, byProp[id])
		}
	}
	set := edgeSet(res.Edges)
	if !set["p1|IN_PRICE_RANGE|500000-750000"] {
		t.Errorf("p1 should land in 500000-750000, edges: %v", res.Edges)
	}
	if !set["p3|IN_PRICE_RANGE|2000000-plus"] {
		t.Errorf("p3 should land in the open-ended band, edges: %v", res.Edges)
	}
}

func TestClassify_MissingOrNegativePriceNoEdge(t *testing.T) {
	neg := -1.0
	ds := &model.Dataset{Properties: []model.Property{
		{ID: "p1", PropertyType: "house"},
		{ID: "p2", PropertyType: "house", Price: &neg},
	}}
	res := newClassifier(t).Build(ds)
	if got := countEdges(res.Edges, model.EdgeInPriceRange); got != 0 {
		t.Errorf("missing/negative price must yield no edge, got %d", got)
	}
}
