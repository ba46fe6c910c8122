package build

import (
	"math"
	"sort"
	"strings"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

const earthRadiusKM = 6371.0

// haversineKM computes the great-circle distance between two coordinates.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Proximity connects neighborhoods that are geographically close. Candidate
// pairs share a city; when both sides are geocoded the pair must also fall
// within the configured radius.
type Proximity struct {
	cfg config.Config
	log *logger.Logger
}

func NewProximity(cfg config.Config, log *logger.Logger) *Proximity {
	return &Proximity{cfg: cfg, log: log}
}

// Partition groups neighborhoods by city so partitions can run on separate
// workers. Keys are sorted for deterministic scheduling.
func (p *Proximity) Partition(ds *model.Dataset) ([]string, map[string][]model.Neighborhood) {
	byCity := make(map[string][]model.Neighborhood)
	for _, n := range ds.Neighborhoods {
		if n.City == "" {
			continue
		}
		key := strings.ToLower(n.City)
		byCity[key] = append(byCity[key], n)
	}
	cities := make([]string, 0, len(byCity))
	for city := range byCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities, byCity
}

// BuildCity evaluates every unordered pair within one city exactly once
// (canonical id ordering) and emits the NEAR edge pair for matches.
func (p *Proximity) BuildCity(neighborhoods []model.Neighborhood) []model.Edge {
	sorted := make([]model.Neighborhood, len(neighborhoods))
	copy(sorted, neighborhoods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var edges []model.Edge
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			edge := model.Edge{SourceID: a.ID, TargetID: b.ID, Type: model.EdgeNear}

			if a.Lat != nil && a.Lon != nil && b.Lat != nil && b.Lon != nil {
				dist := haversineKM(*a.Lat, *a.Lon, *b.Lat, *b.Lon)
				if dist > p.cfg.ProximityRadiusKM {
					continue
				}
				d := dist
				edge.DistanceKM = &d
			}
			// Either side without coordinates falls back to the
			// coordinate-free same-city rule.

			edges = append(edges, edge, edge.Reverse())
		}
	}
	return edges
}
