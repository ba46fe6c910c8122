// Package audit verifies the structural invariants of a built graph: the
// geographic hierarchy is acyclic, symmetric edge types come in matched
// directed pairs, and no property carries more than one price-range edge.
package audit

import (
	"context"
	"fmt"
	"sort"

	"estatekg/relate/internal/model"
)

// maxSamples bounds the violation samples kept in the report.
const maxSamples = 10

// Source reads the built graph for auditing. Both store backends satisfy it.
type Source interface {
	AllEdges(ctx context.Context) ([]model.Edge, error)
	NodeIDs(ctx context.Context) ([]string, error)
}

// Report is the JSON-serializable audit result.
type Report struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`

	HierarchyCycles   int      `json:"hierarchy_cycles"`
	CycleSamples      []string `json:"cycle_samples,omitempty"`
	UnpairedSymmetric int      `json:"unpaired_symmetric"`
	UnpairedSamples   []string `json:"unpaired_samples,omitempty"`
	MultiPriceRange   int      `json:"multi_price_range"`
	MultiPriceSamples []string `json:"multi_price_samples,omitempty"`

	Components int  `json:"components"`
	Orphans    int  `json:"orphans"`
	OK         bool `json:"ok"`
}

// Run loads the graph and evaluates every check.
func Run(ctx context.Context, src Source) (*Report, error) {
	edges, err := src.AllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading edges: %w", err)
	}
	nodeIDs, err := src.NodeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading node ids: %w", err)
	}

	r := &Report{TotalNodes: len(nodeIDs), TotalEdges: len(edges)}
	r.checkHierarchyCycles(edges)
	r.checkSymmetricPairs(edges)
	r.checkPriceRanges(edges)
	r.computeConnectivity(nodeIDs, edges)
	r.OK = r.HierarchyCycles == 0 && r.UnpairedSymmetric == 0 && r.MultiPriceRange == 0
	return r, nil
}

// checkHierarchyCycles walks the chained parent edges and reports any node
// reachable from itself.
func (r *Report) checkHierarchyCycles(edges []model.Edge) {
	parents := make(map[string][]string)
	for _, e := range edges {
		if e.Type.IsHierarchy() {
			parents[e.SourceID] = append(parents[e.SourceID], e.TargetID)
		}
	}

	const (
		white = 0 // unvisited
		gray  = 1 // on the current path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(parents))

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, parent := range parents[id] {
			switch color[parent] {
			case gray:
				r.HierarchyCycles++
				if len(r.CycleSamples) < maxSamples {
					r.CycleSamples = append(r.CycleSamples, id+" -> "+parent)
				}
				return true
			case white:
				if visit(parent) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}

	ids := make([]string, 0, len(parents))
	for id := range parents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			visit(id)
		}
	}
}

// checkSymmetricPairs verifies every NEAR and SIMILAR_TO edge has its
// reverse.
func (r *Report) checkSymmetricPairs(edges []model.Edge) {
	present := make(map[string]bool)
	key := func(src, dst string, t model.EdgeType) string {
		return src + "|" + dst + "|" + string(t)
	}
	for _, e := range edges {
		if e.Type.IsSymmetric() {
			present[key(e.SourceID, e.TargetID, e.Type)] = true
		}
	}
	for _, e := range edges {
		if !e.Type.IsSymmetric() {
			continue
		}
		if !present[key(e.TargetID, e.SourceID, e.Type)] {
			r.UnpairedSymmetric++
			if len(r.UnpairedSamples) < maxSamples {
				r.UnpairedSamples = append(r.UnpairedSamples,
					fmt.Sprintf("%s-[%s]->%s has no reverse", e.SourceID, e.Type, e.TargetID))
			}
		}
	}
}

// checkPriceRanges verifies the at-most-one IN_PRICE_RANGE invariant.
func (r *Report) checkPriceRanges(edges []model.Edge) {
	counts := make(map[string]int)
	for _, e := range edges {
		if e.Type == model.EdgeInPriceRange {
			counts[e.SourceID]++
		}
	}
	ids := make([]string, 0, len(counts))
	for id, n := range counts {
		if n > 1 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	r.MultiPriceRange = len(ids)
	for _, id := range ids {
		if len(r.MultiPriceSamples) >= maxSamples {
			break
		}
		r.MultiPriceSamples = append(r.MultiPriceSamples,
			fmt.Sprintf("property %s has %d price-range edges", id, counts[id]))
	}
}

// computeConnectivity reports component and orphan statistics.
func (r *Report) computeConnectivity(nodeIDs []string, edges []model.Edge) {
	uf := NewUnionFind(nodeIDs)
	known := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		known[id] = true
	}
	degree := make(map[string]int, len(nodeIDs))
	for _, e := range edges {
		if !known[e.SourceID] || !known[e.TargetID] {
			continue
		}
		uf.Union(e.SourceID, e.TargetID)
		degree[e.SourceID]++
		degree[e.TargetID]++
	}
	r.Components = uf.ComponentCount()
	for _, id := range nodeIDs {
		if degree[id] == 0 {
			r.Orphans++
		}
	}
}
