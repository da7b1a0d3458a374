// Package venue defines the basketball venue record shared by every dedup
// pass and collaborator.
package venue

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/bcorbett503/HoopRank/internal/geo"
)

// Category classifies the kind of facility a venue is.
type Category string

const (
	CategorySchool           Category = "school"
	CategoryHighSchool       Category = "high_school"
	CategoryMiddleSchool     Category = "middle_school"
	CategoryCollege          Category = "college"
	CategoryAthleticClub     Category = "athletic_club"
	CategoryRecreationCenter Category = "recreation_center"
	CategoryGym              Category = "gym"
	CategoryBasketballCourt  Category = "basketball_court"
	CategoryOther            Category = "other"
)

var categories = map[Category]bool{
	CategorySchool:           true,
	CategoryHighSchool:       true,
	CategoryMiddleSchool:     true,
	CategoryCollege:          true,
	CategoryAthleticClub:     true,
	CategoryRecreationCenter: true,
	CategoryGym:              true,
	CategoryBasketballCourt:  true,
	CategoryOther:            true,
}

// ParseCategory converts a string into a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !categories[c] {
		return "", eris.Errorf("venue: unknown category %q", s)
	}
	return c, nil
}

// IsSchoolLike reports whether c is an educational category.
func (c Category) IsSchoolLike() bool {
	switch c {
	case CategorySchool, CategoryHighSchool, CategoryMiddleSchool, CategoryCollege:
		return true
	default:
		return false
	}
}

// Record is one surveyed basketball venue. Records are never edited by the
// dedup passes; a pass only decides which records to drop.
type Record struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	Category Category `json:"category,omitempty"`
	Indoor   bool     `json:"indoor"`

	// Extra holds source fields the passes never read (address, website,
	// ...). File codecs carry them through unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// New builds a record with both coordinates set.
func New(id, name string, lat, lng float64, category Category, indoor bool) Record {
	return Record{
		ID:       id,
		Name:     name,
		Lat:      &lat,
		Lng:      &lng,
		Category: category,
		Indoor:   indoor,
	}
}

// Point returns the record's coordinates. ok is false when either is missing.
func (r Record) Point() (p geo.Point, ok bool) {
	if r.Lat == nil || r.Lng == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *r.Lat, Lng: *r.Lng}, true
}

// Source is one independent survey of venues, e.g. an outdoor court crawl.
type Source struct {
	Name    string   `json:"name"`
	Indoor  bool     `json:"indoor"`
	Records []Record `json:"records"`
}
