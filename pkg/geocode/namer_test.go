package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

type fakeReverser struct {
	addrs map[string]Address
	err   error
	calls int
}

func (f *fakeReverser) Reverse(_ context.Context, lat, lng float64) (Address, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.addrs[CacheKey(lat, lng)], nil
}

func TestNameFromAddress(t *testing.T) {
	const key = "37.775,-122.419"
	suffix := SuffixFor(key)

	tests := []struct {
		name string
		addr Address
		want string
		ok   bool
	}{
		{"park wins", Address{"park": "Dolores Park", "road": "Church Street"}, "Dolores Park Court", true},
		{"playground", Address{"playground": "Mission Playground", "school": "Mission High"}, "Mission Playground Court", true},
		{"recreation ground", Address{"recreation_ground": "Crocker Amazon"}, "Crocker Amazon Court", true},
		{"school", Address{"school": "Mission High School"}, "Mission High School Basketball Court", true},
		{"university", Address{"university": "USF"}, "USF Court", true},
		{"neighbourhood", Address{"neighbourhood": "Noe Valley", "road": "24th Street"}, "Noe Valley " + suffix, true},
		{"suburb", Address{"suburb": "Bernal Heights"}, "Bernal Heights " + suffix, true},
		{"road abbreviated", Address{"road": "Geary Boulevard"}, "Geary Blvd " + suffix, true},
		{"street and avenue", Address{"road": "Ocean Avenue Street"}, "Ocean Ave St " + suffix, true},
		{"city", Address{"city": "Daly City"}, "Daly City Public Court", true},
		{"town", Address{"town": "Sausalito"}, "Sausalito Public Court", true},
		{"nothing useful", Address{"country": "United States"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NameFromAddress(tt.addr, key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuffixFor_Deterministic(t *testing.T) {
	assert.Equal(t, SuffixFor("37.775,-122.419"), SuffixFor("37.775,-122.419"))

	seen := make(map[string]bool)
	for lat := 0; lat < 200; lat++ {
		s := SuffixFor(CacheKey(37+float64(lat)/1000, -122.4))
		assert.Contains(t, suffixes, s)
		seen[s] = true
	}
	assert.Len(t, seen, len(suffixes))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "37.775,-122.419", CacheKey(37.77512, -122.41899))
	assert.Equal(t, CacheKey(37.77512, -122.41899), CacheKey(37.77531, -122.41931))
}

func TestNamer_UsesCache(t *testing.T) {
	rev := &fakeReverser{addrs: map[string]Address{
		"37.775,-122.419": {"park": "Civic Center Plaza"},
	}}
	cache := NewMemoryCache()
	n := NewNamer(rev, cache)
	ctx := context.Background()

	name, err := n.Name(ctx, 37.7751, -122.4191, GenericName)
	require.NoError(t, err)
	assert.Equal(t, "Civic Center Plaza Court", name)

	name, err = n.Name(ctx, 37.7749, -122.4189, GenericName)
	require.NoError(t, err)
	assert.Equal(t, "Civic Center Plaza Court", name)
	assert.Equal(t, 1, rev.calls)
	assert.Equal(t, 1, cache.Len())
}

func TestNamer_FallsBackToOriginal(t *testing.T) {
	rev := &fakeReverser{addrs: map[string]Address{}}
	cache := NewMemoryCache()
	n := NewNamer(rev, cache)

	name, err := n.Name(context.Background(), 10, 10, GenericName)
	require.NoError(t, err)
	assert.Equal(t, GenericName, name)
	assert.Equal(t, 0, cache.Len(), "misses are not cached")

	rev.err = errors.New("nominatim: http 400")
	name, err = n.Name(context.Background(), 11, 11, GenericName)
	require.NoError(t, err)
	assert.Equal(t, GenericName, name)
}

func TestNamer_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewNamer(&fakeReverser{err: context.Canceled}, nil)
	_, err := n.Name(ctx, 1, 1, GenericName)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNamer_Rename(t *testing.T) {
	rev := &fakeReverser{addrs: map[string]Address{
		"37.770,-122.450": {"park": "Golden Gate Park"},
		"37.760,-122.430": {"city": "San Francisco"},
	}}
	n := NewNamer(rev, nil)

	records := []venue.Record{
		venue.New("court_1", GenericName, 37.770, -122.450, venue.CategoryBasketballCourt, false),
		venue.New("court_2", "Mission Rec Courts", 37.765, -122.420, venue.CategoryBasketballCourt, false),
		{ID: "court_3", Name: GenericName},
		venue.New("court_4", GenericName, 37.760, -122.430, venue.CategoryBasketballCourt, false),
		venue.New("court_5", GenericName, 1, 1, venue.CategoryBasketballCourt, false),
	}

	out, renamed, err := n.Rename(context.Background(), records, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, renamed)
	assert.Equal(t, "Golden Gate Park Court", out[0].Name)
	assert.Equal(t, "Mission Rec Courts", out[1].Name)
	assert.Equal(t, GenericName, out[2].Name)
	assert.Equal(t, "San Francisco Public Court", out[3].Name)
	assert.Equal(t, GenericName, out[4].Name)
	assert.Equal(t, GenericName, records[0].Name, "input untouched")
	assert.Equal(t, 3, rev.calls)

	rev.calls = 0
	limited, renamed, err := NewNamer(rev, nil).Rename(context.Background(), records, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, renamed)
	assert.Equal(t, 1, rev.calls)
	assert.Equal(t, GenericName, limited[3].Name)
}
