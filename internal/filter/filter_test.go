package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

func TestIsRejected(t *testing.T) {
	f := New()

	tests := []struct {
		name     string
		venue    string
		category venue.Category
		rejected bool
		reason   string
	}{
		{"yoga studio club", "Downtown Yoga Studio", venue.CategoryAthleticClub, true, "yoga studio"},
		{"crossfit brand", "CrossFit Mission", venue.CategoryAthleticClub, true, "CrossFit"},
		{"swim club", "Rossmoor Swim Club", venue.CategoryRecreationCenter, true, "swim club"},
		{"senior center", "Richmond Senior Center", venue.CategoryRecreationCenter, true, "senior center"},
		{"british spelling", "Northside Aquatic Centre", venue.CategoryRecreationCenter, true, "aquatic center"},
		{"golf club", "Olympic Golf Club", venue.CategoryOther, true, "golf"},
		{"plain gym", "24 Hour Fitness", venue.CategoryAthleticClub, false, ""},
		{"ymca", "Stonestown YMCA", venue.CategoryAthleticClub, false, ""},
		{"rec center", "Potrero Hill Recreation Center", venue.CategoryRecreationCenter, false, ""},
		{"empty name", "", venue.CategoryAthleticClub, false, ""},

		{"school kept", "Lincoln High School", venue.CategoryHighSchool, false, ""},
		{"school montessori", "Bayside Montessori", venue.CategorySchool, true, "montessori"},
		{"school yoga", "Sunrise Yoga School", venue.CategorySchool, true, "yoga"},
		// Swim clubs are only on the club list.
		{"school swim club", "Lowell Swim Club", venue.CategorySchool, false, ""},
		{"college dance studio", "Campus Dance Studio", venue.CategoryCollege, true, "dance studio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rejected, reason := f.IsRejected(tt.venue, tt.category)
			assert.Equal(t, tt.rejected, rejected)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestIsRejected_EarliestRuleWins(t *testing.T) {
	f := New()

	// "pilates" appears first in the name but "yoga" is first in the list.
	rejected, reason := f.IsRejected("Pilates and Yoga Loft", venue.CategoryAthleticClub)
	assert.True(t, rejected)
	assert.Equal(t, "yoga studio", reason)

	// "karate academy" and "martial arts academy" overlap in rule order.
	rejected, reason = f.IsRejected("Karate Academy of Martial Arts Academy", venue.CategoryAthleticClub)
	assert.True(t, rejected)
	assert.Equal(t, "martial arts", reason)
}

func TestIsRejected_OverlappingKeywords(t *testing.T) {
	f := NewWithRules(nil, []Rule{
		{"boxing", "short"},
		{"kickboxing gym", "long"},
	})

	rejected, reason := f.IsRejected("Elite Kickboxing Gym", venue.CategoryAthleticClub)
	assert.True(t, rejected)
	assert.Equal(t, "short", reason)
}

func TestIsRejected_CaseInsensitive(t *testing.T) {
	f := New()
	rejected, reason := f.IsRejected("SOULCYCLE UNION SQUARE", venue.CategoryAthleticClub)
	assert.True(t, rejected)
	assert.Equal(t, "SoulCycle", reason)
}

func TestApply(t *testing.T) {
	f := New()
	records := []venue.Record{
		venue.New("g1", "Downtown Yoga Studio", 37.7, -122.4, venue.CategoryAthleticClub, true),
		venue.New("g2", "Mission High School", 37.76, -122.42, venue.CategoryHighSchool, true),
		venue.New("g3", "Core Power Yoga", 37.78, -122.41, venue.CategoryAthleticClub, true),
		venue.New("g4", "Hamilton Recreation Center", 37.78, -122.43, venue.CategoryRecreationCenter, true),
		venue.New("g5", "Bay Club Tennis Club", 37.79, -122.40, venue.CategoryAthleticClub, true),
	}
	snapshot := append([]venue.Record(nil), records...)

	kept, rejected := f.Apply(records)
	require.Len(t, kept, 2)
	assert.Equal(t, "g2", kept[0].ID)
	assert.Equal(t, "g4", kept[1].ID)

	require.Len(t, rejected, 3)
	assert.Equal(t, "g1", rejected[0].Record.ID)
	assert.Equal(t, "tennis only", rejected[2].Reason)
	assert.Equal(t, snapshot, records)

	counts := ReasonCounts(rejected)
	assert.Equal(t, []ReasonCount{
		{Reason: "yoga studio", Count: 2},
		{Reason: "tennis only", Count: 1},
	}, counts)
}

func TestApply_Empty(t *testing.T) {
	kept, rejected := New().Apply(nil)
	assert.Empty(t, kept)
	assert.Empty(t, rejected)
	assert.Empty(t, ReasonCounts(nil))
}

func TestRuleLists(t *testing.T) {
	for _, r := range append(append([]Rule{}, schoolRules...), clubRules...) {
		assert.NotEmpty(t, r.Keyword)
		assert.NotEmpty(t, r.Reason)
		assert.Equal(t, r.Keyword, toLowerASCII(r.Keyword), "keyword %q must be lower case", r.Keyword)
	}
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
