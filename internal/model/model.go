package model

// EdgeType is the type tag of a derived relationship.
type EdgeType string

const (
	EdgeLocatedIn    EdgeType = "LOCATED_IN"     // Property -> Neighborhood
	EdgeInZipCode    EdgeType = "IN_ZIP_CODE"    // Property/Neighborhood -> ZipCode
	EdgeInCity       EdgeType = "IN_CITY"        // Neighborhood -> City
	EdgeInCounty     EdgeType = "IN_COUNTY"      // City -> County
	EdgeInState      EdgeType = "IN_STATE"       // County -> State
	EdgeNear         EdgeType = "NEAR"           // Neighborhood <-> Neighborhood
	EdgeSimilarTo    EdgeType = "SIMILAR_TO"     // Property <-> Property
	EdgeHasFeature   EdgeType = "HAS_FEATURE"    // Property -> Feature
	EdgeOfType       EdgeType = "OF_TYPE"        // Property -> PropertyType
	EdgeInPriceRange EdgeType = "IN_PRICE_RANGE" // Property -> PriceRange
	EdgeDescribes    EdgeType = "DESCRIBES"      // Article -> Neighborhood
)

// HierarchyEdgeTypes are the directed child->parent edge types that must
// together form a DAG.
var HierarchyEdgeTypes = []EdgeType{
	EdgeLocatedIn, EdgeInZipCode, EdgeInCity, EdgeInCounty, EdgeInState,
}

// IsHierarchy reports whether t is part of the geographic hierarchy chain.
func (t EdgeType) IsHierarchy() bool {
	switch t {
	case EdgeLocatedIn, EdgeInZipCode, EdgeInCity, EdgeInCounty, EdgeInState:
		return true
	default:
		return false
	}
}

// IsSymmetric reports whether t is stored as a matched pair of directed edges.
func (t EdgeType) IsSymmetric() bool {
	return t == EdgeNear || t == EdgeSimilarTo
}

// Edge is a typed directed relationship with optional payload attributes.
// Its natural identity is (SourceID, TargetID, Type); writes upsert on that
// key so re-running a build never duplicates an edge.
type Edge struct {
	SourceID   string   `json:"source_id"`
	TargetID   string   `json:"target_id"`
	Type       EdgeType `json:"type"`
	Score      *float64 `json:"score,omitempty"`       // SIMILAR_TO
	Confidence *float64 `json:"confidence,omitempty"`  // DESCRIBES
	Method     *string  `json:"method,omitempty"`      // DESCRIBES
	DistanceKM *float64 `json:"distance_km,omitempty"` // NEAR
}

// Reverse returns the mirrored edge with an identical payload. Symmetric
// types (NEAR, SIMILAR_TO) are materialized as the edge plus its reverse.
func (e Edge) Reverse() Edge {
	r := e
	r.SourceID, r.TargetID = e.TargetID, e.SourceID
	return r
}

// Property is a listed property with its natural-key attributes.
// Pointer fields are absent when the source record had no value.
type Property struct {
	ID           string
	Price        *float64
	Bedrooms     int
	Bathrooms    float64
	SquareFeet   *float64
	City         string
	Neighborhood *string // neighborhood id
	ZipCode      *string // zip code id
	PropertyType string  // raw source value, canonicalized by classification
	Features     []string
}

// Neighborhood is a named area within a city, optionally geocoded.
type Neighborhood struct {
	ID       string
	Name     string
	City     string
	State    string
	CountyID *string
	ZipCode  *string
	Lat      *float64
	Lon      *float64
}

type City struct {
	ID       string
	Name     string
	CountyID *string
}

type County struct {
	ID      string
	Name    string
	StateID *string
}

type State struct {
	ID   string
	Name string
}

type ZipCode struct {
	ID       string
	CityID   *string
	CountyID *string
	StateID  *string
}

// Article is an external knowledge-corpus document (e.g. a Wikipedia page).
type Article struct {
	ID           string
	Title        string
	City         *string
	State        *string
	Neighborhood *string // explicit neighborhood id when the corpus carries one
}

// Dataset is one consistent read of every node kind the builders consume.
type Dataset struct {
	Properties    []Property
	Neighborhoods []Neighborhood
	Cities        []City
	Counties      []County
	States        []State
	ZipCodes      []ZipCode
	Articles      []Article
}
