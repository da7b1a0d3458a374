package names

import (
	"math"

	"github.com/rotisserie/eris"
)

// Similarity thresholds used by the dedup passes. Cross-category pairs
// (a school and its gym) are phrased more differently than same-category
// pairs, so they get the looser threshold.
const (
	CrossCategoryThreshold = 0.5
	SameCategoryThreshold  = 0.6
)

// ErrInvalidThreshold is returned for similarity thresholds outside (0, 1].
var ErrInvalidThreshold = eris.New("names: invalid similarity threshold")

// ValidateThreshold checks that t is in (0, 1].
func ValidateThreshold(t float64) error {
	if math.IsNaN(t) || t <= 0 || t > 1 {
		return eris.Wrapf(ErrInvalidThreshold, "threshold %v not in (0, 1]", t)
	}
	return nil
}

// Jaccard returns |a ∩ b| / |a ∪ b|, or 0 when either set is empty.
func Jaccard(a, b TokenSet) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if b.Has(tok) {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// Similar reports whether two names share enough tokens to be the same venue.
// An empty name never matches anything.
func Similar(name1, name2 string, threshold float64) (bool, error) {
	s, err := NewScorer(threshold)
	if err != nil {
		return false, err
	}
	return s.Match(name1, name2), nil
}

// Scorer compares names against a threshold validated once at construction.
type Scorer struct {
	threshold float64
}

// NewScorer returns a Scorer for the given threshold.
func NewScorer(threshold float64) (Scorer, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Scorer{}, err
	}
	return Scorer{threshold: threshold}, nil
}

// Threshold returns the scorer's threshold.
func (s Scorer) Threshold() float64 { return s.threshold }

// Match reports whether name1 and name2 reach the threshold.
func (s Scorer) Match(name1, name2 string) bool {
	ok, _ := s.Score(name1, name2)
	return ok
}

// Score returns the match decision and the realized Jaccard value.
func (s Scorer) Score(name1, name2 string) (bool, float64) {
	a := Tokenize(name1)
	b := Tokenize(name2)
	if len(a) == 0 || len(b) == 0 {
		return false, 0
	}
	j := Jaccard(a, b)
	return j >= s.threshold, j
}
