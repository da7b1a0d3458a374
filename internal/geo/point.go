// Package geo provides the coordinate model and great-circle distance used
// by venue deduplication.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// SRID for WGS84 lat/lng degrees.
const SRID = 4326

// ErrInvalidCoordinate is returned when a latitude or longitude falls outside
// the WGS84 range.
var ErrInvalidCoordinate = eris.New("geo: invalid coordinate")

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that p lies within [-90,90] x [-180,180].
func Validate(p Point) error {
	switch {
	case math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90:
		return eris.Wrapf(ErrInvalidCoordinate, "latitude %v out of range", p.Lat)
	case math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180:
		return eris.Wrapf(ErrInvalidCoordinate, "longitude %v out of range", p.Lng)
	}
	return nil
}

// Geom converts p to a go-geom point. Axis order is lng, lat.
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}).SetSRID(SRID)
}
