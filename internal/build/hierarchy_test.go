package build

import (
	"strings"
	"testing"

	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

func strptr(s string) *string { return &s }

func testDataset() *model.Dataset {
	return &model.Dataset{
		Properties: []model.Property{
			{ID: "p1", City: "Springfield", Neighborhood: strptr("n1"), ZipCode: strptr("62701")},
			{ID: "p2", City: "Springfield", Neighborhood: strptr("n-missing")},
		},
		Neighborhoods: []model.Neighborhood{
			{ID: "n1", Name: "Downtown", City: "Springfield", ZipCode: strptr("62701")},
			{ID: "n2", Name: "Riverside", City: "Ghost Town"},
		},
		Cities:   []model.City{{ID: "c1", Name: "Springfield", CountyID: strptr("co1")}},
		Counties: []model.County{{ID: "co1", Name: "Sangamon", StateID: strptr("IL")}},
		States:   []model.State{{ID: "IL", Name: "Illinois"}},
		ZipCodes: []model.ZipCode{{ID: "62701", CityID: strptr("c1")}},
	}
}

func edgeSet(edges []model.Edge) map[string]bool {
	set := make(map[string]bool, len(edges))
	for _, e := range edges {
		set[e.SourceID+"|"+string(e.Type)+"|"+e.TargetID] = true
	}
	return set
}

func TestHierarchy_FullChain(t *testing.T) {
	res := NewHierarchy(logger.NewNop()).Build(testDataset())

	want := []string{
		"p1|LOCATED_IN|n1",
		"n1|IN_CITY|c1",
		"c1|IN_COUNTY|co1",
		"co1|IN_STATE|IL",
		"p1|IN_ZIP_CODE|62701",
		"n1|IN_ZIP_CODE|62701",
	}
	got := edgeSet(res.Edges)
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing edge %s", w)
		}
	}
	if len(res.Edges) != len(want) {
		t.Errorf("got %d edges, want %d", len(res.Edges), len(want))
	}
}

func TestHierarchy_UnresolvedParentIsWarningNotError(t *testing.T) {
	res := NewHierarchy(logger.NewNop()).Build(testDataset())

	// p2 -> n-missing and n2 -> "Ghost Town" both skip with a warning.
	if len(res.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %v", len(res.Warnings), res.Warnings)
	}
	joined := strings.Join(res.Warnings, "\n")
	if !strings.Contains(joined, "n-missing") {
		t.Errorf("warnings should name the unresolved neighborhood: %v", res.Warnings)
	}
	if !strings.Contains(joined, "Ghost Town") {
		t.Errorf("warnings should name the unresolved city: %v", res.Warnings)
	}
	got := edgeSet(res.Edges)
	if got["p2|LOCATED_IN|n-missing"] {
		t.Error("unresolved parent must not produce an edge")
	}
}

func TestHierarchy_CityMatchIsCaseInsensitive(t *testing.T) {
	ds := testDataset()
	ds.Neighborhoods[0].City = "SPRINGFIELD"
	res := NewHierarchy(logger.NewNop()).Build(ds)
	if !edgeSet(res.Edges)["n1|IN_CITY|c1"] {
		t.Error("city natural-key match should be case-insensitive")
	}
}

func TestHierarchy_NoCycles(t *testing.T) {
	res := NewHierarchy(logger.NewNop()).Build(testDataset())

	parents := make(map[string][]string)
	for _, e := range res.Edges {
		parents[e.SourceID] = append(parents[e.SourceID], e.TargetID)
	}
	var walk func(id string, seen map[string]bool) bool
	walk = func(id string, seen map[string]bool) bool {
		if seen[id] {
			return true
		}
		seen[id] = true
		for _, p := range parents[id] {
			if walk(p, seen) {
				return true
			}
		}
		delete(seen, id)
		return false
	}
	for id := range parents {
		if walk(id, map[string]bool{}) {
			t.Fatalf("node %s is its own transitive parent", id)
		}
	}
}

func TestHierarchy_MissingForeignKeysSkipQuietly(t *testing.T) {
	ds := &model.Dataset{
		Properties:    []model.Property{{ID: "p1", City: "x"}},
		Neighborhoods: []model.Neighborhood{{ID: "n1", Name: "A"}},
	}
	res := NewHierarchy(logger.NewNop()).Build(ds)
	if len(res.Edges) != 0 {
		t.Errorf("no foreign keys should mean no edges, got %d", len(res.Edges))
	}
	if len(res.Warnings) != 0 {
		t.Errorf("absent keys are not integrity warnings, got %v", res.Warnings)
	}
}
