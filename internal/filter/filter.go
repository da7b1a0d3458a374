// Package filter rejects venues whose names show they are not basketball
// facilities (yoga studios, swim clubs, senior centers and the like). It has
// no spatial component and runs independently of dedup.
package filter

import (
	"sort"
	"strings"

	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

// Rejection is a record dropped by the filter together with its reason.
type Rejection struct {
	Record venue.Record `json:"record" yaml:"record"`
	Reason string       `json:"reason" yaml:"reason"`
}

// Filter holds the compiled keyword automata. Build it once with New.
type Filter struct {
	school ruleSet
	club   ruleSet
}

type ruleSet struct {
	automaton aho.AhoCorasick
	rules     []Rule
}

func compile(rules []Rule) ruleSet {
	patterns := make([]string, len(rules))
	for i, r := range rules {
		patterns[i] = r.Keyword
	}
	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	return ruleSet{automaton: builder.Build(patterns), rules: rules}
}

// first returns the rule with the lowest index whose keyword occurs in name.
// Overlapping iteration is needed so that a later, longer keyword cannot hide
// an earlier one starting at the same offset.
func (s ruleSet) first(name string) (Rule, bool) {
	best := -1
	iter := s.automaton.IterOverlappingByte([]byte(name))
	for next := iter.Next(); next != nil; next = iter.Next() {
		if p := next.Pattern(); best < 0 || p < best {
			best = p
		}
	}
	if best < 0 {
		return Rule{}, false
	}
	return s.rules[best], true
}

// New compiles the built-in school and club denylists.
func New() *Filter {
	return NewWithRules(schoolRules, clubRules)
}

// NewWithRules compiles custom denylists. Keywords must be lower case.
func NewWithRules(school, club []Rule) *Filter {
	return &Filter{
		school: compile(school),
		club:   compile(club),
	}
}

// IsRejected reports whether a venue should be dropped and why. School-like
// categories are checked only against the short school denylist; every other
// category is checked against the themed club list.
func (f *Filter) IsRejected(name string, category venue.Category) (bool, string) {
	lower := strings.ToLower(name)
	if lower == "" {
		return false, ""
	}

	set := f.club
	if category.IsSchoolLike() {
		set = f.school
	}
	r, ok := set.first(lower)
	if !ok {
		return false, ""
	}
	return true, r.Reason
}

// Apply splits records into kept and rejected, preserving input order in
// both. The input slice is not modified.
func (f *Filter) Apply(records []venue.Record) ([]venue.Record, []Rejection) {
	kept := make([]venue.Record, 0, len(records))
	var rejected []Rejection
	for _, r := range records {
		if bad, reason := f.IsRejected(r.Name, r.Category); bad {
			rejected = append(rejected, Rejection{Record: r, Reason: reason})
			continue
		}
		kept = append(kept, r)
	}
	return kept, rejected
}

// ReasonCount is the number of rejections sharing one reason.
type ReasonCount struct {
	Reason string `json:"reason" yaml:"reason"`
	Count  int    `json:"count" yaml:"count"`
}

// ReasonCounts tallies rejections by reason, most common first. Ties are
// ordered by reason.
func ReasonCounts(rejected []Rejection) []ReasonCount {
	counts := make(map[string]int)
	for _, r := range rejected {
		counts[r.Reason]++
	}
	out := make([]ReasonCount, 0, len(counts))
	for reason, n := range counts {
		out = append(out, ReasonCount{Reason: reason, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Reason < out[j].Reason
	})
	return out
}
