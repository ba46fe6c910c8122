package build

import (
	"fmt"
	"strings"

	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// HierarchyResult is the candidate output of the hierarchy phase.
type HierarchyResult struct {
	Edges    []model.Edge
	Warnings []string
}

// Hierarchy links the geographic containment chain: properties into
// neighborhoods and zip codes, neighborhoods into cities and zip codes,
// cities into counties, counties into states. A child whose parent key does
// not resolve is a data-integrity warning, never an error.
type Hierarchy struct {
	log *logger.Logger
}

func NewHierarchy(log *logger.Logger) *Hierarchy {
	return &Hierarchy{log: log}
}

// Build computes the full child->parent edge set. Levels run in a fixed
// order so later phases can assume the chain is materialized.
func (h *Hierarchy) Build(ds *model.Dataset) *HierarchyResult {
	res := &HierarchyResult{}

	neighborhoods := make(map[string]bool, len(ds.Neighborhoods))
	for _, n := range ds.Neighborhoods {
		neighborhoods[n.ID] = true
	}
	// Cities are matched by name, the natural key children carry.
	cityByName := make(map[string]string, len(ds.Cities))
	for _, c := range ds.Cities {
		cityByName[strings.ToLower(c.Name)] = c.ID
	}
	counties := make(map[string]bool, len(ds.Counties))
	for _, c := range ds.Counties {
		counties[c.ID] = true
	}
	states := make(map[string]bool, len(ds.States))
	for _, s := range ds.States {
		states[s.ID] = true
	}
	zips := make(map[string]bool, len(ds.ZipCodes))
	for _, z := range ds.ZipCodes {
		zips[z.ID] = true
	}

	// Property -> Neighborhood
	for _, p := range ds.Properties {
		if p.Neighborhood == nil {
			continue
		}
		if !neighborhoods[*p.Neighborhood] {
			res.warn(h.log, fmt.Sprintf("property %s references unknown neighborhood %s", p.ID, *p.Neighborhood))
			continue
		}
		res.Edges = append(res.Edges, model.Edge{SourceID: p.ID, TargetID: *p.Neighborhood, Type: model.EdgeLocatedIn})
	}

	// Neighborhood -> City
	for _, n := range ds.Neighborhoods {
		if n.City == "" {
			continue
		}
		cityID, ok := cityByName[strings.ToLower(n.City)]
		if !ok {
			res.warn(h.log, fmt.Sprintf("neighborhood %s references unknown city %q", n.ID, n.City))
			continue
		}
		res.Edges = append(res.Edges, model.Edge{SourceID: n.ID, TargetID: cityID, Type: model.EdgeInCity})
	}

	// City -> County
	for _, c := range ds.Cities {
		if c.CountyID == nil {
			continue
		}
		if !counties[*c.CountyID] {
			res.warn(h.log, fmt.Sprintf("city %s references unknown county %s", c.ID, *c.CountyID))
			continue
		}
		res.Edges = append(res.Edges, model.Edge{SourceID: c.ID, TargetID: *c.CountyID, Type: model.EdgeInCounty})
	}

	// County -> State
	for _, c := range ds.Counties {
		if c.StateID == nil {
			continue
		}
		if !states[*c.StateID] {
			res.warn(h.log, fmt.Sprintf("county %s references unknown state %s", c.ID, *c.StateID))
			continue
		}
		res.Edges = append(res.Edges, model.Edge{SourceID: c.ID, TargetID: *c.StateID, Type: model.EdgeInState})
	}

	// Property -> ZipCode
	for _, p := range ds.Properties {
		if p.ZipCode == nil {
			continue
		}
		if !zips[*p.ZipCode] {
			res.warn(h.log, fmt.Sprintf("property %s references unknown zip code %s", p.ID, *p.ZipCode))
			continue
		}
		res.Edges = append(res.Edges, model.Edge{SourceID: p.ID, TargetID: *p.ZipCode, Type: model.EdgeInZipCode})
	}

	// Neighborhood -> ZipCode
	for _, n := range ds.Neighborhoods {
		if n.ZipCode == nil {
			continue
		}
		if !zips[*n.ZipCode] {
			res.warn(h.log, fmt.Sprintf("neighborhood %s references unknown zip code %s", n.ID, *n.ZipCode))
			continue
		}
		res.Edges = append(res.Edges, model.Edge{SourceID: n.ID, TargetID: *n.ZipCode, Type: model.EdgeInZipCode})
	}

	return res
}

func (r *HierarchyResult) warn(log *logger.Logger, msg string) {
	log.Warn("hierarchy skip", "reason", msg)
	r.Warnings = append(r.Warnings, msg)
}
