package geocode

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bcorbett503/HoopRank/internal/venue"
)

// GenericName is the placeholder name the court survey gives unnamed courts.
const GenericName = "Basketball Court"

var suffixes = []string{"Court", "Hoops", "Courts", "Park Court", "Playground"}

var roadAbbreviations = strings.NewReplacer(
	" Street", " St",
	" Avenue", " Ave",
	" Boulevard", " Blvd",
)

// Namer derives court names from reverse geocodes.
type Namer struct {
	rev   Reverser
	cache Cache
}

// NewNamer creates a Namer. cache may be nil, in which case an in-memory
// cache scoped to the Namer is used.
func NewNamer(rev Reverser, cache Cache) *Namer {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Namer{rev: rev, cache: cache}
}

// Name returns a name for the court at lat, lng, or original when the
// geocode yields nothing usable. Lookup failures are logged and fall back to
// original; only context cancellation and cache errors are returned.
func (n *Namer) Name(ctx context.Context, lat, lng float64, original string) (string, error) {
	key := CacheKey(lat, lng)
	if name, ok, err := n.cache.GetCachedName(ctx, key); err != nil {
		return "", eris.Wrap(err, "geocode: cache get")
	} else if ok {
		return name, nil
	}

	addr, err := n.rev.Reverse(ctx, lat, lng)
	if err != nil {
		if ctx.Err() != nil {
			return "", eris.Wrap(ctx.Err(), "geocode: reverse")
		}
		zap.L().Warn("geocode: reverse failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return original, nil
	}

	name, ok := NameFromAddress(addr, key)
	if !ok {
		return original, nil
	}
	if err := n.cache.SetCachedName(ctx, key, name); err != nil {
		return "", eris.Wrap(err, "geocode: cache set")
	}
	return name, nil
}

// NameFromAddress picks a name from address details. Named places win over
// areas: park, playground, recreation ground, school, university, then the
// neighbourhood or road with a suffix chosen from key, then the city.
func NameFromAddress(addr Address, key string) (string, bool) {
	if len(addr) == 0 {
		return "", false
	}
	for _, place := range []string{"park", "playground", "recreation_ground"} {
		if v := addr[place]; v != "" {
			return v + " Court", true
		}
	}
	if v := addr["school"]; v != "" {
		return v + " Basketball Court", true
	}
	if v := addr["university"]; v != "" {
		return v + " Court", true
	}

	suffix := SuffixFor(key)
	if v := firstOf(addr, "neighbourhood", "suburb", "quarter"); v != "" {
		return v + " " + suffix, true
	}
	if v := addr["road"]; v != "" {
		return roadAbbreviations.Replace(v) + " " + suffix, true
	}
	if v := firstOf(addr, "city", "town", "village", "municipality"); v != "" {
		return v + " Public Court", true
	}
	return "", false
}

// SuffixFor picks a name suffix from the cache key so a rerun names the same
// court the same way.
func SuffixFor(key string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return suffixes[h.Sum32()%uint32(len(suffixes))]
}

func firstOf(addr Address, keys ...string) string {
	for _, k := range keys {
		if v := addr[k]; v != "" {
			return v
		}
	}
	return ""
}

// Rename returns a copy of records with every generic court renamed. At most
// limit records are looked up when limit > 0. records is not modified.
func (n *Namer) Rename(ctx context.Context, records []venue.Record, limit int) ([]venue.Record, int, error) {
	out := make([]venue.Record, len(records))
	copy(out, records)

	looked, renamed := 0, 0
	for i, r := range out {
		if r.Name != GenericName {
			continue
		}
		p, ok := r.Point()
		if !ok {
			continue
		}
		if limit > 0 && looked >= limit {
			break
		}
		looked++

		name, err := n.Name(ctx, p.Lat, p.Lng, r.Name)
		if err != nil {
			return nil, renamed, eris.Wrapf(err, "geocode: rename %s", r.ID)
		}
		if name != r.Name {
			out[i].Name = name
			renamed++
		}
		if looked%100 == 0 {
			zap.L().Info("geocode: progress", zap.Int("looked_up", looked), zap.Int("renamed", renamed))
		}
	}
	return out, renamed, nil
}
