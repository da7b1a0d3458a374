package dedup

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcorbett503/HoopRank/internal/geo"
	"github.com/bcorbett503/HoopRank/internal/names"
	"github.com/bcorbett503/HoopRank/internal/venue"
)

var origin = geo.Point{Lat: 40.0, Lng: -73.0}

// at builds a record offset from origin by north/east meters.
func at(id, name string, north, east float64, cat venue.Category, indoor bool) venue.Record {
	p := geo.Offset(origin, north, east)
	return venue.New(id, name, p.Lat, p.Lng, cat, indoor)
}

func court(id, name string, north, east float64) venue.Record {
	return at(id, name, north, east, venue.CategoryBasketballCourt, false)
}

func gym(id, name string, north, east float64) venue.Record {
	return at(id, name, north, east, venue.CategorySchool, true)
}

func TestSameName_SuffixVariantsCollapse(t *testing.T) {
	records := []venue.Record{
		court("a", "Lincoln Park Courts", 0, 0),
		court("b", "Lincoln Park Court", 50, 0),
	}

	res, err := SameName(records, OutdoorSameNameMeters)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Removals.Sorted())
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "b", res.Matches[0].RemovedID)
	assert.Equal(t, "a", res.Matches[0].KeptID)
	assert.InDelta(t, 50, res.Matches[0].Distance, 0.5)
}

func TestSameName_DistanceIsStrict(t *testing.T) {
	records := []venue.Record{
		court("a", "Glen Park Courts", 0, 0),
		court("b", "Glen Park Courts", 150, 0),
	}

	res, err := SameName(records, 100)
	require.NoError(t, err)
	assert.Zero(t, res.Removals.Len())

	res, err = SameName(records, 200)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removals.Len())
}

func TestSameName_ComparesAgainstFirstOnly(t *testing.T) {
	// c is 80 m from b but 160 m from the kept record a.
	records := []venue.Record{
		court("a", "Mission Playground", 0, 0),
		court("b", "Mission Playground", 80, 0),
		court("c", "Mission Playground", 160, 0),
	}

	res, err := SameName(records, 100)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Removals.Sorted())
}

func TestSameName_NotFuzzy(t *testing.T) {
	records := []venue.Record{
		court("a", "Balboa Park Center", 0, 0),
		court("b", "Balboa Center", 10, 0),
	}

	res, err := SameName(records, OutdoorSameNameMeters)
	require.NoError(t, err)
	assert.Zero(t, res.Removals.Len())
}

func TestSameName_EmptyAndMissing(t *testing.T) {
	records := []venue.Record{
		court("a", "", 0, 0),
		court("b", "", 1, 0),
		court("c", "Courts", 0, 0),
		{ID: "d", Name: "Dolores Park"},
		court("e", "Dolores Park", 5, 0),
	}

	res, err := SameName(records, OutdoorSameNameMeters)
	require.NoError(t, err)
	assert.Zero(t, res.Removals.Len())
	assert.Equal(t, 1, res.Skipped)
}

func TestSameName_Idempotent(t *testing.T) {
	records := []venue.Record{
		court("a", "Lincoln Park Courts", 0, 0),
		court("b", "Lincoln Park Court", 50, 0),
		court("c", "Lincoln Park", 900, 0),
		court("d", "Garfield Square", 0, 300),
		court("e", "garfield  square", 10, 300),
		court("f", "Garfield Square Courts", 20, 300),
	}

	first, err := SameName(records, OutdoorSameNameMeters)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 5}, first.Removals.Sorted())

	survivors := venue.ApplyRemovals(records, first.Removals)
	second, err := SameName(survivors, OutdoorSameNameMeters)
	require.NoError(t, err)
	assert.Zero(t, second.Removals.Len())
}

func TestSameName_InvalidInput(t *testing.T) {
	_, err := SameName(nil, -1)
	assert.ErrorIs(t, err, ErrInvalidDistance)

	_, err = SameName(nil, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidDistance)

	bad := []venue.Record{venue.New("x", "X", 100, 0, venue.CategoryOther, false)}
	_, err = SameName(bad, 100)
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
}

func TestPriority_RemovesOutdoorDuplicate(t *testing.T) {
	outdoor := []venue.Record{
		court("o1", "Mission High School Courts", 120, 0),
		court("o2", "Dolores Park Courts", 50, 0),
	}
	indoor := []venue.Record{
		gym("i1", "Mission High School", 0, 0),
	}

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Equal(t, PassPriority, res.Pass)
	assert.Equal(t, []int{0}, res.Removals.Sorted())
	require.Len(t, res.Matches, 1)
	m := res.Matches[0]
	assert.Equal(t, "o1", m.RemovedID)
	assert.Equal(t, "i1", m.KeptID)
	assert.InDelta(t, 120, m.Distance, 0.5)
	assert.InDelta(t, 1.0, m.Similarity, 1e-9)
}

func TestPriority_RooseveltBelowThreshold(t *testing.T) {
	// {roosevelt, high, school} vs {roosevelt, hs}: Jaccard 1/4 = 0.25.
	indoor := []venue.Record{
		venue.New("i1", "Roosevelt High School", 40.0, -73.0, venue.CategoryHighSchool, true),
	}
	p := geo.Offset(geo.Point{Lat: 40.0, Lng: -73.0}, 120, 0)
	outdoor := []venue.Record{
		venue.New("o1", "Roosevelt HS Courts", p.Lat, p.Lng, venue.CategoryBasketballCourt, false),
	}

	j := names.Jaccard(names.Tokenize(outdoor[0].Name), names.Tokenize(indoor[0].Name))
	require.InDelta(t, 0.25, j, 1e-9)

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Zero(t, res.Removals.Len())
	assert.Empty(t, res.Matches)
}

func TestPriority_DistanceGate(t *testing.T) {
	outdoor := []venue.Record{court("o1", "Balboa Park", 350, 0)}
	indoor := []venue.Record{gym("i1", "Balboa Park Gym", 0, 0)}

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Zero(t, res.Removals.Len())

	opts := DefaultPriorityOptions()
	opts.MaxMeters = 400
	res, err = Priority(outdoor, indoor, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Removals.Len())
}

func TestPriority_FirstMatchUsesInsertionOrder(t *testing.T) {
	outdoor := []venue.Record{court("o1", "Jefferson Courts", 0, 0)}
	indoor := []venue.Record{
		gym("far", "Jefferson", 250, 0),
		gym("near", "Jefferson Gym", 20, 0),
	}

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "far", res.Matches[0].KeptID)

	opts := DefaultPriorityOptions()
	opts.Policy = BestMatch
	res, err = Priority(outdoor, indoor, opts)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "near", res.Matches[0].KeptID)
}

func TestPriority_EmptyNamesNeverMatch(t *testing.T) {
	outdoor := []venue.Record{court("o1", "", 0, 0)}
	indoor := []venue.Record{gym("i1", "", 1, 0)}

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Zero(t, res.Removals.Len())
}

func TestPriority_MissingCoordinates(t *testing.T) {
	outdoor := []venue.Record{
		{ID: "o1", Name: "Mission High School"},
		court("o2", "Mission High School", 10, 0),
	}
	indoor := []venue.Record{
		{ID: "i0", Name: "Mission High School"},
		gym("i1", "Mission High School", 0, 0),
	}

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Removals.Sorted())
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, "i1", res.Matches[0].KeptID)
}

func TestPriority_Idempotent(t *testing.T) {
	outdoor := []venue.Record{
		court("o1", "Mission High School Courts", 120, 0),
		court("o2", "Dolores Park Courts", 50, 0),
		court("o3", "Everett Middle School", 0, 100),
	}
	indoor := []venue.Record{
		gym("i1", "Mission High School", 0, 0),
		gym("i2", "Everett Middle School Gymnasium", 0, 80),
	}

	first, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, first.Removals.Sorted())

	second, err := Priority(venue.ApplyRemovals(outdoor, first.Removals), indoor, DefaultPriorityOptions())
	require.NoError(t, err)
	assert.Zero(t, second.Removals.Len())
}

func TestPriority_InvalidOptions(t *testing.T) {
	opts := DefaultPriorityOptions()
	opts.Threshold = 0
	_, err := Priority(nil, nil, opts)
	assert.ErrorIs(t, err, names.ErrInvalidThreshold)

	opts = DefaultPriorityOptions()
	opts.Threshold = 1.5
	_, err = Priority(nil, nil, opts)
	assert.ErrorIs(t, err, names.ErrInvalidThreshold)

	opts = DefaultPriorityOptions()
	opts.MaxMeters = -5
	_, err = Priority(nil, nil, opts)
	assert.ErrorIs(t, err, ErrInvalidDistance)

	opts = DefaultPriorityOptions()
	opts.Policy = "closest"
	_, err = Priority(nil, nil, opts)
	assert.Error(t, err)
}

func TestPriority_InvalidCoordinateFailsWholePass(t *testing.T) {
	outdoor := []venue.Record{
		court("o1", "Mission High School", 10, 0),
		venue.New("bad", "Bad", 0, 190, venue.CategoryOther, false),
	}
	indoor := []venue.Record{gym("i1", "Mission High School", 0, 0)}

	res, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinate)
	assert.Nil(t, res)
}

func TestCrossSource_RemovesIndoor(t *testing.T) {
	indoor := []venue.Record{
		gym("i1", "Potrero Hill Recreation Center", 0, 0),
		gym("i2", "Hamilton Recreation Center", 0, 1000),
	}
	outdoor := []venue.Record{
		court("o1", "Potrero Hill Courts", 150, 0),
		court("o2", "Hamilton Playground", 0, 1250),
	}

	res, err := CrossSource(indoor, outdoor, DefaultCrossSourceOptions())
	require.NoError(t, err)
	assert.Equal(t, PassCrossSource, res.Pass)
	// i2 matches by name but is 250 m away, past the 200 m default.
	assert.Equal(t, []int{0}, res.Removals.Sorted())
	assert.Equal(t, "o1", res.Matches[0].KeptID)
}

func TestCrossMatch_ShardedMatchesSequential(t *testing.T) {
	var outdoor, indoor []venue.Record
	for i := 0; i < 200; i++ {
		north := float64(i%20) * 400
		east := float64(i/20) * 400
		name := fmt.Sprintf("Site %d School", i)
		indoor = append(indoor, gym(fmt.Sprintf("i%d", i), name, north, east))
		if i%3 == 0 {
			outdoor = append(outdoor, court(fmt.Sprintf("o%d", i), name+" Courts", north+40, east))
		} else {
			outdoor = append(outdoor, court(fmt.Sprintf("o%d", i), fmt.Sprintf("Lot %d", i), north+40, east))
		}
	}

	seq, err := Priority(outdoor, indoor, DefaultPriorityOptions())
	require.NoError(t, err)

	opts := DefaultPriorityOptions()
	opts.Workers = 7
	par, err := Priority(outdoor, indoor, opts)
	require.NoError(t, err)

	assert.Equal(t, seq.Removals.Sorted(), par.Removals.Sorted())
	assert.Equal(t, seq.Matches, par.Matches)
	assert.Equal(t, 67, seq.Removals.Len())
}

func TestRemovalSet_Union(t *testing.T) {
	a := NewRemovalSet()
	a.Add(1)
	a.Add(3)
	b := NewRemovalSet()
	b.Add(3)
	b.Add(7)

	u := a.Union(b)
	assert.Equal(t, []int{1, 3, 7}, u.Sorted())
	assert.Equal(t, b.Union(a).Sorted(), u.Sorted())
	assert.Equal(t, 2, a.Len())
}

func TestParseMatchPolicy(t *testing.T) {
	p, err := ParseMatchPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FirstMatch, p)

	p, err = ParseMatchPolicy(" Best ")
	require.NoError(t, err)
	assert.Equal(t, BestMatch, p)

	_, err = ParseMatchPolicy("nearest")
	assert.Error(t, err)
}
