package dedup

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/bcorbett503/HoopRank/internal/names"
)

// Pass names.
const (
	PassOutdoorSameName = "outdoor_same_name"
	PassIndoorSameName  = "indoor_same_name"
	PassSameName        = "same_name"
	PassPriority        = "indoor_priority"
	PassCrossSource     = "cross_source"
)

// Default distance thresholds in meters.
const (
	OutdoorSameNameMeters   = 500.0
	CourtListSameNameMeters = 100.0
	PriorityMeters          = 300.0
	CrossSourceMeters       = 200.0
)

// ErrInvalidDistance is returned for negative or NaN distance thresholds.
var ErrInvalidDistance = eris.New("dedup: invalid distance threshold")

// MatchPolicy decides which qualifying candidate a cross-category pass
// pairs with a queried record.
type MatchPolicy string

const (
	// FirstMatch stops at the first candidate in bucket insertion order that
	// passes the distance and name checks.
	FirstMatch MatchPolicy = "first"
	// BestMatch scans every candidate and keeps the closest qualifying one;
	// ties go to the earlier candidate.
	BestMatch MatchPolicy = "best"
)

// ParseMatchPolicy converts a string into a MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case FirstMatch, "":
		return FirstMatch, nil
	case BestMatch:
		return BestMatch, nil
	default:
		return "", eris.Errorf("dedup: unknown match policy %q (valid: first, best)", s)
	}
}

// CrossOptions configures the priority and cross-source passes.
type CrossOptions struct {
	MaxMeters float64
	Threshold float64
	Policy    MatchPolicy
	// Workers > 1 shards the queried collection across goroutines.
	Workers int
}

// DefaultPriorityOptions returns the indoor-over-outdoor settings.
func DefaultPriorityOptions() CrossOptions {
	return CrossOptions{
		MaxMeters: PriorityMeters,
		Threshold: names.CrossCategoryThreshold,
		Policy:    FirstMatch,
	}
}

// DefaultCrossSourceOptions returns the indoor-vs-outdoor settings.
func DefaultCrossSourceOptions() CrossOptions {
	return CrossOptions{
		MaxMeters: CrossSourceMeters,
		Threshold: names.CrossCategoryThreshold,
		Policy:    FirstMatch,
	}
}

func validateDistance(meters float64) error {
	if math.IsNaN(meters) || meters < 0 {
		return eris.Wrapf(ErrInvalidDistance, "distance %v", meters)
	}
	return nil
}

func (o CrossOptions) validate() (names.Scorer, error) {
	if err := validateDistance(o.MaxMeters); err != nil {
		return names.Scorer{}, err
	}
	if _, err := ParseMatchPolicy(string(o.Policy)); err != nil {
		return names.Scorer{}, err
	}
	return names.NewScorer(o.Threshold)
}
