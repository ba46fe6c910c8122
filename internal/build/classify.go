package build

import (
	"fmt"
	"sort"
	"strings"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// ClassificationResult is the candidate output of the classification phase.
// Features, Types and Bands are the catalog nodes the edges depend on; the
// orchestrator must upsert them before the edge batches.
type ClassificationResult struct {
	Edges    []model.Edge
	Features []string
	Types    []model.PropertyType
	Bands    []model.PriceBand
	Warnings []string

	// UnknownTypes counts properties that fell back to the "other" type.
	UnknownTypes int
}

// Classifier assigns feature, property-type, and price-range edges.
type Classifier struct {
	cfg config.Config
	log *logger.Logger
}

func NewClassifier(cfg config.Config, log *logger.Logger) *Classifier {
	return &Classifier{cfg: cfg, log: log}
}

// normalizeFeature trims and case-folds a raw feature string.
func normalizeFeature(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Build computes all classification edges plus the catalog nodes they
// reference.
func (c *Classifier) Build(ds *model.Dataset) *ClassificationResult {
	res := &ClassificationResult{Bands: c.cfg.PriceBands()}

	featureSet := make(map[string]bool)
	typeSet := make(map[model.PropertyType]bool)

	for _, p := range ds.Properties {
		// HAS_FEATURE: duplicates within one property's list collapse
		seen := make(map[string]bool, len(p.Features))
		for _, raw := range p.Features {
			name := normalizeFeature(raw)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			featureSet[name] = true
			res.Edges = append(res.Edges, model.Edge{SourceID: p.ID, TargetID: name, Type: model.EdgeHasFeature})
		}

		// OF_TYPE: unknown values map to the catch-all variant
		ptype, known := model.CanonicalPropertyType(normalizeFeature(p.PropertyType))
		if !known {
			res.UnknownTypes++
			msg := fmt.Sprintf("property %s has unrecognized type %q, using %q", p.ID, p.PropertyType, ptype)
			c.log.Warn("classification fallback", "reason", msg)
			res.Warnings = append(res.Warnings, msg)
		}
		typeSet[ptype] = true
		res.Edges = append(res.Edges, model.Edge{SourceID: p.ID, TargetID: string(ptype), Type: model.EdgeOfType})

		// IN_PRICE_RANGE: exactly one bucket when price is usable
		if p.Price == nil || *p.Price < 0 {
			continue
		}
		for _, band := range res.Bands {
			if band.Contains(*p.Price) {
				res.Edges = append(res.Edges, model.Edge{SourceID: p.ID, TargetID: band.ID, Type: model.EdgeInPriceRange})
				break
			}
		}
	}

	res.Features = make([]string, 0, len(featureSet))
	for name := range featureSet {
		res.Features = append(res.Features, name)
	}
	sort.Strings(res.Features)

	res.Types = make([]model.PropertyType, 0, len(typeSet))
	for t := range typeSet {
		res.Types = append(res.Types, t)
	}
	sort.Slice(res.Types, func(i, j int) bool { return res.Types[i] < res.Types[j] })

	return res
}
