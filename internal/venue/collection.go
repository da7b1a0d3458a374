package venue

import (
	"github.com/rotisserie/eris"

	"github.com/bcorbett503/HoopRank/internal/geo"
)

// ErrDuplicateID is returned when two records in one pass share an id.
var ErrDuplicateID = eris.New("venue: duplicate id")

// Removals is the read side of a removal set: indices into a collection.
type Removals interface {
	Has(idx int) bool
}

// ApplyRemovals returns a new slice holding the records whose index is not in
// removed, in their original order. records is not modified.
func ApplyRemovals(records []Record, removed Removals) []Record {
	out := make([]Record, 0, len(records))
	for i, r := range records {
		if removed != nil && removed.Has(i) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ValidateIDs checks that every non-empty id appears once.
func ValidateIDs(records []Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == "" {
			continue
		}
		if j, ok := seen[r.ID]; ok {
			return eris.Wrapf(ErrDuplicateID, "id %q at %d and %d", r.ID, j, i)
		}
		seen[r.ID] = i
	}
	return nil
}

// ValidateCoordinates checks every record that has coordinates. Records with a
// missing coordinate are not an error.
func ValidateCoordinates(records []Record) error {
	for _, r := range records {
		p, ok := r.Point()
		if !ok {
			continue
		}
		if err := geo.Validate(p); err != nil {
			return eris.Wrapf(err, "record %q", r.ID)
		}
	}
	return nil
}

// CountByCategory tallies records per category.
func CountByCategory(records []Record) map[Category]int {
	counts := make(map[Category]int)
	for _, r := range records {
		c := r.Category
		if c == "" {
			c = CategoryOther
		}
		counts[c]++
	}
	return counts
}
