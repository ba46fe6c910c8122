package model

import (
	"fmt"
	"math"
)

// PropertyType is the closed catalog of canonical property types. Unknown
// source values fall back to PropertyTypeOther so data-quality issues stay
// visible without halting a build.
type PropertyType string

const (
	PropertyTypeHouse       PropertyType = "house"
	PropertyTypeCondo       PropertyType = "condo"
	PropertyTypeTownhouse   PropertyType = "townhouse"
	PropertyTypeApartment   PropertyType = "apartment"
	PropertyTypeMultiFamily PropertyType = "multi_family"
	PropertyTypeLand        PropertyType = "land"
	PropertyTypeOther       PropertyType = "other"
)

// PropertyTypes lists every catalog variant, fallback included.
var PropertyTypes = []PropertyType{
	PropertyTypeHouse,
	PropertyTypeCondo,
	PropertyTypeTownhouse,
	PropertyTypeApartment,
	PropertyTypeMultiFamily,
	PropertyTypeLand,
	PropertyTypeOther,
}

// CanonicalPropertyType maps a normalized source value onto the catalog.
// The second return is false when the value was unrecognized and the
// fallback variant was used.
func CanonicalPropertyType(normalized string) (PropertyType, bool) {
	switch PropertyType(normalized) {
	case PropertyTypeHouse, PropertyTypeCondo, PropertyTypeTownhouse,
		PropertyTypeApartment, PropertyTypeMultiFamily, PropertyTypeLand:
		return PropertyType(normalized), true
	default:
		return PropertyTypeOther, false
	}
}

// PriceBand is one half-open [Min, Max) price interval. The last band of a
// set has Max = +Inf so the set covers [0, +Inf).
type PriceBand struct {
	ID  string  `json:"id"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports interval membership for a price.
func (b PriceBand) Contains(price float64) bool {
	return price >= b.Min && price < b.Max
}

// PriceBands derives the band set from ascending boundary values. The first
// boundary must be 0; the final band is open-ended.
func PriceBands(boundaries []float64) []PriceBand {
	bands := make([]PriceBand, 0, len(boundaries))
	for i, min := range boundaries {
		max := math.Inf(1)
		id := fmt.Sprintf("%d-plus", int64(min))
		if i+1 < len(boundaries) {
			max = boundaries[i+1]
			id = fmt.Sprintf("%d-%d", int64(min), int64(max))
		}
		bands = append(bands, PriceBand{ID: id, Min: min, Max: max})
	}
	return bands
}
