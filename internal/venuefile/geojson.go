package venuefile

import (
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

// EncodeGeoJSON writes records as a FeatureCollection of points. Records
// without coordinates have no geometry to draw and are left out; the number
// skipped is returned.
func EncodeGeoJSON(w io.Writer, records []venue.Record) (int, error) {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	skipped := 0
	for _, r := range records {
		p, ok := r.Point()
		if !ok {
			skipped++
			continue
		}
		props := make(map[string]any, len(r.Extra)+3)
		for k, v := range r.Extra {
			props[k] = v
		}
		props[fieldName] = r.Name
		props[fieldIndoor] = r.Indoor
		if r.Category != "" {
			props[fieldCategory] = string(r.Category)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         r.ID,
			Geometry:   p.Geom(),
			Properties: props,
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return 0, eris.Wrap(err, "venuefile: encode geojson")
	}
	if _, err := w.Write(data); err != nil {
		return 0, eris.Wrap(err, "venuefile: write geojson")
	}
	return skipped, nil
}

// DecodeGeoJSON reads a FeatureCollection of points back into records.
func DecodeGeoJSON(r io.Reader) ([]venue.Record, error) {
	var fc geojson.FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "venuefile: decode geojson")
	}

	records := make([]venue.Record, 0, len(fc.Features))
	for i, f := range fc.Features {
		rec := venue.Record{ID: f.ID}

		if f.Geometry != nil {
			pt, ok := f.Geometry.(*geom.Point)
			if !ok {
				return nil, eris.Errorf("venuefile: geojson feature %d is %T, want point", i, f.Geometry)
			}
			lng, lat := pt.X(), pt.Y()
			rec.Lat, rec.Lng = &lat, &lng
		}

		for k, v := range f.Properties {
			switch k {
			case fieldName:
				rec.Name, _ = v.(string)
			case fieldCategory:
				s, _ := v.(string)
				rec.Category = venue.Category(s)
			case fieldIndoor:
				rec.Indoor, _ = v.(bool)
			default:
				raw, err := json.Marshal(v)
				if err != nil {
					return nil, eris.Wrapf(err, "venuefile: geojson feature %d property %q", i, k)
				}
				if rec.Extra == nil {
					rec.Extra = make(map[string]json.RawMessage)
				}
				rec.Extra[k] = raw
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
