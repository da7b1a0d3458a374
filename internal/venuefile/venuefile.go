// Package venuefile reads and writes venue collections in the formats the
// mobile app and its scripts exchange: a JSON array, a generated Dart list
// literal, and GeoJSON for map review.
package venuefile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

// Format identifies a file encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatDart    Format = "dart"
	FormatGeoJSON Format = "geojson"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".dart":
		return FormatDart, nil
	case ".geojson":
		return FormatGeoJSON, nil
	default:
		return "", eris.Errorf("venuefile: unsupported file extension %q", filepath.Ext(path))
	}
}

// Read loads records from path, choosing the decoder by extension.
func Read(path string) ([]venue.Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "venuefile: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var records []venue.Record
	switch format {
	case FormatJSON:
		records, err = DecodeJSON(f)
	case FormatDart:
		records, err = DecodeDart(f)
	case FormatGeoJSON:
		records, err = DecodeGeoJSON(f)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "venuefile: read %s", path)
	}

	zap.L().Debug("venuefile: read",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// Write stores records at path, choosing the encoder by extension. The file
// is written to a temporary sibling and renamed into place so a failed write
// never leaves a truncated collection behind.
func Write(path string, records []venue.Record, dart DartOptions) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrapf(err, "venuefile: create temp for %s", path)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	switch format {
	case FormatJSON:
		err = EncodeJSON(tmp, records)
	case FormatDart:
		err = EncodeDart(tmp, records, dart)
	case FormatGeoJSON:
		var skipped int
		skipped, err = EncodeGeoJSON(tmp, records)
		if skipped > 0 {
			zap.L().Debug("venuefile: records without coordinates left out of geojson",
				zap.String("path", path),
				zap.Int("skipped", skipped),
			)
		}
	}
	if err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "venuefile: write %s", path)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrapf(err, "venuefile: chmod %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "venuefile: close %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "venuefile: rename into %s", path)
	}

	zap.L().Debug("venuefile: wrote",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("records", len(records)),
	)
	return nil
}
