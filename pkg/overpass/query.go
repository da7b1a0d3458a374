package overpass

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// VenueType is one OSM tag that marks a venue candidate.
type VenueType struct {
	Key   string
	Value string
}

func (t VenueType) String() string { return t.Key + "=" + t.Value }

// DefaultVenueTypes are the tags fetched when none are given: schools,
// sports facilities, community centres and gym buildings.
var DefaultVenueTypes = []VenueType{
	{"amenity", "school"},
	{"amenity", "college"},
	{"amenity", "university"},
	{"leisure", "sports_centre"},
	{"leisure", "sports_hall"},
	{"leisure", "fitness_centre"},
	{"amenity", "community_centre"},
	{"leisure", "recreation_ground"},
	{"building", "sports_hall"},
	{"building", "gymnasium"},
}

// ParseVenueType parses "key=value".
func ParseVenueType(s string) (VenueType, error) {
	key, value, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok || key == "" || value == "" {
		return VenueType{}, eris.Errorf("overpass: venue type %q must be key=value", s)
	}
	return VenueType{Key: key, Value: value}, nil
}

// BBox is a south, west, north, east bounding box in degrees.
type BBox struct {
	South, West, North, East float64
}

var regions = map[string]*BBox{
	"bay_area":   {36.9, -123.0, 38.5, -121.5},
	"california": {32.5, -124.5, 42.0, -114.0},
	"usa":        {24.0, -125.0, 49.5, -66.5},
	"world":      nil,
}

// RegionNames lists the named regions accepted by LookupRegion.
func RegionNames() []string {
	return []string{"bay_area", "california", "usa", "world"}
}

// LookupRegion returns the bounding box of a named region. "world" has no
// bounds and yields nil.
func LookupRegion(name string) (*BBox, error) {
	bbox, ok := regions[name]
	if !ok {
		return nil, eris.Errorf("overpass: unknown region %q (valid: %s)", name, strings.Join(RegionNames(), ", "))
	}
	return bbox, nil
}

// BuildQuery returns the Overpass QL query for one venue type. Ways and
// relations are returned with their center point.
func BuildQuery(bbox *BBox, t VenueType, limit int) string {
	bounds := ""
	if bbox != nil {
		bounds = fmt.Sprintf("(%g,%g,%g,%g)", bbox.South, bbox.West, bbox.North, bbox.East)
	}

	var b strings.Builder
	b.WriteString("[out:json][timeout:300];\n(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s[%q=%q]%s;\n", kind, t.Key, t.Value, bounds)
	}
	fmt.Fprintf(&b, ");\nout center %d;\n", limit)
	return b.String()
}
