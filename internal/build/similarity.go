package build

import (
	"math"
	"sort"
	"strings"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// Relative-difference cutoffs for the similarity components. A difference
// under the tight cutoff earns the full weight, under the loose cutoff half.
const (
	priceTightCutoff = 0.20
	priceLooseCutoff = 0.40
	sizeTightCutoff  = 0.15
	sizeLooseCutoff  = 0.30
)

// Similarity computes weighted pairwise property similarity within each
// city. Restricting candidates to a city bounds the O(n^2) pair cost to the
// sum of squared city sizes.
type Similarity struct {
	cfg config.Config
	log *logger.Logger
}

func NewSimilarity(cfg config.Config, log *logger.Logger) *Similarity {
	return &Similarity{cfg: cfg, log: log}
}

// Score computes the similarity score for a property pair. Deterministic:
// identical inputs always produce identical scores.
func (s *Similarity) Score(a, b model.Property) float64 {
	w := s.cfg.Similarity
	score := 0.0

	// Price: relative to the canonical pair's first price. Missing or zero
	// prices contribute nothing (and never divide by zero).
	if a.Price != nil && b.Price != nil && *a.Price != 0 {
		rel := math.Abs(*a.Price-*b.Price) / *a.Price
		switch {
		case rel < priceTightCutoff:
			score += w.PriceWeight
		case rel < priceLooseCutoff:
			score += w.PriceWeight / 2
		}
	}

	// Bedrooms: exact match or off-by-one.
	diff := a.Bedrooms - b.Bedrooms
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		score += w.BedroomWeight
	case 1:
		score += w.BedroomWeight / 2
	}

	// Square feet: a missing or zero value on either side scores the neutral
	// half weight rather than penalizing the pair.
	switch {
	case a.SquareFeet == nil || b.SquareFeet == nil || *a.SquareFeet == 0 || *b.SquareFeet == 0:
		score += w.SizeWeight / 2
	default:
		rel := math.Abs(*a.SquareFeet-*b.SquareFeet) / *a.SquareFeet
		switch {
		case rel < sizeTightCutoff:
			score += w.SizeWeight
		case rel < sizeLooseCutoff:
			score += w.SizeWeight / 2
		}
	}

	return score
}

// Partition groups properties by city for the worker pool. Keys are sorted
// for deterministic scheduling.
func (s *Similarity) Partition(ds *model.Dataset) ([]string, map[string][]model.Property) {
	byCity := make(map[string][]model.Property)
	for _, p := range ds.Properties {
		if p.City == "" {
			continue
		}
		key := strings.ToLower(p.City)
		byCity[key] = append(byCity[key], p)
	}
	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities, byCity
}

// BuildCity scores every canonically ordered pair (id(A) < id(B)) in one
// city and emits the SIMILAR_TO edge pair for scores at or above the
// threshold.
func (s *Similarity) BuildCity(properties []model.Property) []model.Edge {
	sorted := make([]model.Property, len(properties))
	copy(sorted, properties)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var edges []model.Edge
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			score := s.Score(sorted[i], sorted[j])
			if score < s.cfg.Similarity.Threshold {
				continue
			}
			sc := score
			edge := model.Edge{
				SourceID: sorted[i].ID,
				TargetID: sorted[j].ID,
				Type:     model.EdgeSimilarTo,
				Score:    &sc,
			}
			edges = append(edges, edge, edge.Reverse())
		}
	}
	return edges
}
