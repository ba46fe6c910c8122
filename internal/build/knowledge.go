package build

import (
	"strings"

	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// Matching strategies for DESCRIBES edges, in descending confidence order.
const (
	MethodDirect     = "direct"
	MethodTitle      = "title_match"
	MethodCity       = "city_match"
	ConfidenceDirect = 0.95
	ConfidenceTitle  = 0.80
	ConfidenceCity   = 0.70
)

// Knowledge links external articles to neighborhoods. Every strategy is
// evaluated for every (article, neighborhood) pair; when several fire for
// the same pair only the highest-confidence candidate survives, so a pair
// never carries parallel DESCRIBES edges.
type Knowledge struct {
	log *logger.Logger
}

func NewKnowledge(log *logger.Logger) *Knowledge {
	return &Knowledge{log: log}
}

// KnowledgeResult is the candidate output of the knowledge phase.
type KnowledgeResult struct {
	Edges    []model.Edge
	Warnings []string
}

// Build evaluates the three strategies and materializes one edge per
// matched pair.
func (k *Knowledge) Build(ds *model.Dataset) *KnowledgeResult {
	res := &KnowledgeResult{}

	neighborhoods := make(map[string]bool, len(ds.Neighborhoods))
	for _, n := range ds.Neighborhoods {
		neighborhoods[n.ID] = true
	}

	for _, a := range ds.Articles {
		if a.Neighborhood != nil && !neighborhoods[*a.Neighborhood] {
			msg := "article " + a.ID + " references unknown neighborhood " + *a.Neighborhood
			k.log.Warn("knowledge skip", "reason", msg)
			res.Warnings = append(res.Warnings, msg)
		}

		titleLower := strings.ToLower(a.Title)
		for _, n := range ds.Neighborhoods {
			confidence, method := bestMatch(a, n, titleLower)
			if method == "" {
				continue
			}
			c := confidence
			m := method
			res.Edges = append(res.Edges, model.Edge{
				SourceID:   a.ID,
				TargetID:   n.ID,
				Type:       model.EdgeDescribes,
				Confidence: &c,
				Method:     &m,
			})
		}
	}
	return res
}

// bestMatch returns the highest-confidence strategy that matches the pair,
// or an empty method when none does.
func bestMatch(a model.Article, n model.Neighborhood, titleLower string) (float64, string) {
	if a.Neighborhood != nil && *a.Neighborhood == n.ID {
		return ConfidenceDirect, MethodDirect
	}

	if n.Name != "" && titleLower != "" {
		nameLower := strings.ToLower(n.Name)
		if strings.Contains(titleLower, nameLower) || strings.Contains(nameLower, titleLower) {
			return ConfidenceTitle, MethodTitle
		}
	}

	if a.City != nil && n.City != "" && strings.EqualFold(*a.City, n.City) {
		return ConfidenceCity, MethodCity
	}

	return 0, ""
}
