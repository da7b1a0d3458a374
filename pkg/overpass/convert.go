package overpass

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *center           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (e element) coordinates() (lat, lng float64, ok bool) {
	if e.Type == "node" {
		if e.Lat == nil || e.Lon == nil {
			return 0, 0, false
		}
		return *e.Lat, *e.Lon, true
	}
	if e.Center == nil {
		return 0, 0, false
	}
	return e.Center.Lat, e.Center.Lon, true
}

// toRecord converts an element fetched for venue type t. Elements without a
// position, unnamed educational sites and elementary schools are dropped.
func toRecord(e element, t VenueType) (venue.Record, bool) {
	lat, lng, ok := e.coordinates()
	if !ok {
		return venue.Record{}, false
	}

	name := strings.TrimSpace(e.Tags["name"])
	if name == "" {
		switch t.Value {
		case "school", "college", "university":
			return venue.Record{}, false
		}
		name = "Unknown " + cases.Title(language.English).String(strings.ReplaceAll(t.Value, "_", " "))
	}

	category, ok := categorize(t.Value, name)
	if !ok {
		return venue.Record{}, false
	}

	r := venue.New("gym_"+strconv.FormatInt(e.ID, 10), name, round6(lat), round6(lng), category, true)
	r.Extra = extras(e.Tags, t)
	return r, true
}

func categorize(value, name string) (venue.Category, bool) {
	switch value {
	case "school":
		lower := strings.ToLower(name)
		switch {
		case strings.Contains(lower, "high"), strings.Contains(lower, "secondary"):
			return venue.CategoryHighSchool, true
		case strings.Contains(lower, "middle"), strings.Contains(lower, "junior"):
			return venue.CategoryMiddleSchool, true
		case strings.Contains(lower, "elementary"), strings.Contains(lower, "primary"):
			return "", false
		}
		return venue.CategorySchool, true
	case "college", "university":
		return venue.CategoryCollege, true
	case "sports_centre", "sports_hall", "fitness_centre":
		return venue.CategoryAthleticClub, true
	case "community_centre", "recreation_ground":
		return venue.CategoryRecreationCenter, true
	case "gymnasium":
		return venue.CategoryGym, true
	}
	return venue.CategoryOther, true
}

// extras carries the contact and address tags through to the output files.
func extras(tags map[string]string, t VenueType) map[string]json.RawMessage {
	out := map[string]json.RawMessage{"osm_type": quote(t.String())}

	var address []string
	for _, k := range []string{"addr:housenumber", "addr:street", "addr:city", "addr:state"} {
		if v := tags[k]; v != "" {
			address = append(address, v)
		}
	}
	if len(address) > 0 {
		out["address"] = quote(strings.Join(address, ", "))
	}

	for field, tag := range map[string]string{
		"city":          "addr:city",
		"state":         "addr:state",
		"website":       "website",
		"phone":         "phone",
		"opening_hours": "opening_hours",
		"operator":      "operator",
	} {
		if v := tags[tag]; v != "" {
			out[field] = quote(v)
		}
	}
	return out
}

func quote(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}
