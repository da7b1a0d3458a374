package venuefile

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

// Field names shared by every format.
const (
	fieldID       = "id"
	fieldName     = "name"
	fieldLat      = "lat"
	fieldLng      = "lng"
	fieldCategory = "category"
	fieldIndoor   = "indoor"
)

// DecodeJSON reads a JSON array of venue objects. Decoding is lenient: a
// missing or null name decodes as "", missing or null coordinates decode as
// nil, numeric ids are kept as their decimal text, and unrecognized fields
// are kept in Record.Extra.
func DecodeJSON(r io.Reader) ([]venue.Record, error) {
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(err, "venuefile: decode json")
	}

	records := make([]venue.Record, 0, len(raw))
	for i, obj := range raw {
		rec, err := recordFromJSON(obj)
		if err != nil {
			return nil, eris.Wrapf(err, "venuefile: json entry %d", i)
		}
		records = append(records, rec)
	}
	return records, nil
}

func recordFromJSON(obj map[string]json.RawMessage) (venue.Record, error) {
	var rec venue.Record
	for key, val := range obj {
		var err error
		switch key {
		case fieldID:
			rec.ID, err = decodeID(val)
		case fieldName:
			rec.Name, err = decodeOptionalString(val)
		case fieldLat:
			rec.Lat, err = decodeOptionalFloat(val)
		case fieldLng:
			rec.Lng, err = decodeOptionalFloat(val)
		case fieldCategory:
			var s string
			s, err = decodeOptionalString(val)
			rec.Category = venue.Category(s)
		case fieldIndoor:
			if !isNull(val) {
				err = json.Unmarshal(val, &rec.Indoor)
			}
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]json.RawMessage)
			}
			rec.Extra[key] = val
		}
		if err != nil {
			return venue.Record{}, eris.Wrapf(err, "field %q", key)
		}
	}
	return rec, nil
}

func isNull(val json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(val), []byte("null"))
}

func decodeID(val json.RawMessage) (string, error) {
	if isNull(val) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(val, &n); err != nil {
		return "", eris.New("id must be a string or number")
	}
	return n.String(), nil
}

func decodeOptionalString(val json.RawMessage) (string, error) {
	if isNull(val) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return "", err
	}
	return s, nil
}

func decodeOptionalFloat(val json.RawMessage) (*float64, error) {
	if isNull(val) {
		return nil, nil
	}
	var f float64
	if err := json.Unmarshal(val, &f); err != nil {
		// Some scraped sources quote their coordinates.
		var s string
		if json.Unmarshal(val, &s) != nil {
			return nil, err
		}
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return nil, err
		}
	}
	return &f, nil
}

// EncodeJSON writes records as an indented JSON array. id, name, lat and lng
// are always written; category is written when set and indoor only when
// true, so an outdoor file that never had those keys does not gain them.
func EncodeJSON(w io.Writer, records []venue.Record) error {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		obj := make(map[string]any, len(r.Extra)+6)
		for k, v := range r.Extra {
			obj[k] = v
		}
		obj[fieldID] = r.ID
		obj[fieldName] = r.Name
		obj[fieldLat] = r.Lat
		obj[fieldLng] = r.Lng
		if r.Category != "" {
			obj[fieldCategory] = r.Category
		}
		if r.Indoor {
			obj[fieldIndoor] = true
		}
		out[i] = obj
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(out), "venuefile: encode json")
}
