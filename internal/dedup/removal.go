package dedup

import "sort"

// RemovalSet holds indices into a record collection that a pass decided to
// drop. Set union is commutative, so sets from independent passes or shards
// merge in any order.
type RemovalSet map[int]struct{}

// NewRemovalSet returns an empty set.
func NewRemovalSet() RemovalSet {
	return make(RemovalSet)
}

// Add marks idx for removal.
func (s RemovalSet) Add(idx int) { s[idx] = struct{}{} }

// Has reports whether idx is marked.
func (s RemovalSet) Has(idx int) bool {
	_, ok := s[idx]
	return ok
}

// Len returns the number of marked indices.
func (s RemovalSet) Len() int { return len(s) }

// Union returns a new set holding the indices of s and every other set.
func (s RemovalSet) Union(others ...RemovalSet) RemovalSet {
	out := make(RemovalSet, len(s))
	for i := range s {
		out[i] = struct{}{}
	}
	for _, o := range others {
		for i := range o {
			out[i] = struct{}{}
		}
	}
	return out
}

// Sorted returns the marked indices in ascending order.
func (s RemovalSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Match records why one record was dropped in favor of another.
type Match struct {
	Removed     int     `json:"removed" yaml:"removed"`
	Kept        int     `json:"kept" yaml:"kept"`
	RemovedID   string  `json:"removed_id" yaml:"removed_id"`
	KeptID      string  `json:"kept_id" yaml:"kept_id"`
	RemovedName string  `json:"removed_name" yaml:"removed_name"`
	KeptName    string  `json:"kept_name" yaml:"kept_name"`
	Distance    float64 `json:"distance_m" yaml:"distance_m"`
	Similarity  float64 `json:"similarity" yaml:"similarity"`
}

// Result is the outcome of one dedup pass. Removals index into the
// collection the pass was asked to prune.
type Result struct {
	Pass     string     `json:"pass"`
	Removals RemovalSet `json:"-"`
	Matches  []Match    `json:"matches"`
	// Skipped counts records left out of distance comparisons because a
	// coordinate was missing.
	Skipped int `json:"skipped"`
}
