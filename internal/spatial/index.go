// Package spatial buckets points into a coarse lat/lng grid so proximity
// queries only compare nearby items.
package spatial

import (
	"math"

	"github.com/bcorbett503/HoopRank/internal/geo"
)

// CellsPerDegree sets the grid resolution: 0.01 degree cells, roughly
// 1.1 km of latitude by 0.8-1.1 km of longitude in the continental US.
const CellsPerDegree = 100

// Key identifies one grid cell.
type Key struct {
	Lat int
	Lng int
}

// BucketKey returns the grid cell containing p.
func BucketKey(p geo.Point) Key {
	return Key{
		Lat: int(math.Floor(p.Lat * CellsPerDegree)),
		Lng: int(math.Floor(p.Lng * CellsPerDegree)),
	}
}

// Neighbors returns the 3x3 block of keys centered on k, row-major from the
// south-west corner.
func (k Key) Neighbors() [9]Key {
	var out [9]Key
	i := 0
	for dLat := -1; dLat <= 1; dLat++ {
		for dLng := -1; dLng <= 1; dLng++ {
			out[i] = Key{Lat: k.Lat + dLat, Lng: k.Lng + dLng}
			i++
		}
	}
	return out
}

// Index maps grid cells to the items near them. Each item is stored under its
// own cell and the eight surrounding cells, so a query is a single lookup
// that already sees every item within one cell width.
type Index[T any] struct {
	buckets map[Key][]T
	items   int
}

// New returns an empty index.
func New[T any]() *Index[T] {
	return &Index[T]{buckets: make(map[Key][]T)}
}

// Insert adds item at p.
func (idx *Index[T]) Insert(p geo.Point, item T) {
	for _, k := range BucketKey(p).Neighbors() {
		idx.buckets[k] = append(idx.buckets[k], item)
	}
	idx.items++
}

// Candidates returns the items stored under p's cell, in insertion order.
// The returned slice must not be modified.
func (idx *Index[T]) Candidates(p geo.Point) []T {
	return idx.buckets[BucketKey(p)]
}

// Len returns the number of inserted items.
func (idx *Index[T]) Len() int { return idx.items }

// Buckets returns the number of populated cells.
func (idx *Index[T]) Buckets() int { return len(idx.buckets) }
