// Package dedup decides which venue records describe the same physical place
// and produces the set of records to drop. Records are never merged; one of a
// duplicate pair is always kept verbatim.
package dedup

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bcorbett503/HoopRank/internal/geo"
	"github.com/bcorbett503/HoopRank/internal/names"
	"github.com/bcorbett503/HoopRank/internal/spatial"
	"github.com/bcorbett503/HoopRank/internal/venue"
)

// SameName removes repeated survey points of one facility within a single
// source. Records are grouped by exact normalized name; the first record of
// each group is kept and any later record closer than maxMeters to it is
// marked for removal. Unnamed records and records without coordinates never
// join a group.
func SameName(records []venue.Record, maxMeters float64) (*Result, error) {
	if err := validateDistance(maxMeters); err != nil {
		return nil, err
	}
	if err := venue.ValidateCoordinates(records); err != nil {
		return nil, eris.Wrap(err, "dedup: same name")
	}

	res := &Result{Pass: PassSameName, Removals: NewRemovalSet()}

	groups := make(map[string][]int)
	var order []string
	for i, r := range records {
		if _, ok := r.Point(); !ok {
			res.Skipped++
			continue
		}
		key := names.Normalize(r.Name)
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		kept := members[0]
		keptPoint, _ := records[kept].Point()
		for _, idx := range members[1:] {
			p, _ := records[idx].Point()
			d := geo.Distance(keptPoint, p)
			if d < maxMeters {
				res.Removals.Add(idx)
				res.Matches = append(res.Matches, newMatch(records, records, idx, kept, d, 1))
			}
		}
	}

	logSkipped(res)
	return res, nil
}

// Priority removes lower-priority records (e.g. outdoor courts) that duplicate
// a higher-priority record (e.g. the indoor gym at the same school). The
// higher collection is bucketed into a spatial index; each lower record is
// compared with the candidates in its own cell that are closer than
// opts.MaxMeters and whose names reach opts.Threshold. Removals index into
// lower.
func Priority(lower, higher []venue.Record, opts CrossOptions) (*Result, error) {
	res, err := crossMatch(lower, higher, opts)
	if err != nil {
		return nil, eris.Wrap(err, "dedup: priority")
	}
	res.Pass = PassPriority
	logSkipped(res)
	return res, nil
}

// CrossSource removes indoor records that duplicate an outdoor record. It is
// Priority with the roles reversed; removals index into indoor.
func CrossSource(indoor, outdoor []venue.Record, opts CrossOptions) (*Result, error) {
	res, err := crossMatch(indoor, outdoor, opts)
	if err != nil {
		return nil, eris.Wrap(err, "dedup: cross source")
	}
	res.Pass = PassCrossSource
	logSkipped(res)
	return res, nil
}

// crossMatch finds, for each queried record, an indexed record close enough
// and named similarly enough to count as the same venue.
func crossMatch(queried, indexed []venue.Record, opts CrossOptions) (*Result, error) {
	scorer, err := opts.validate()
	if err != nil {
		return nil, err
	}
	if err := venue.ValidateCoordinates(indexed); err != nil {
		return nil, err
	}
	if err := venue.ValidateCoordinates(queried); err != nil {
		return nil, err
	}

	idx := spatial.New[int]()
	for i, r := range indexed {
		if p, ok := r.Point(); ok {
			idx.Insert(p, i)
		}
	}

	m := &matcher{
		queried: queried,
		indexed: indexed,
		index:   idx,
		scorer:  scorer,
		max:     opts.MaxMeters,
		best:    opts.Policy == BestMatch,
	}

	workers := opts.Workers
	if workers <= 1 || len(queried) < workers {
		return m.run(0, len(queried)), nil
	}

	// Shards only read the index, so no locking is needed; the per-shard
	// results are merged in shard order to keep the match list stable.
	shards := make([]*Result, workers)
	size := (len(queried) + workers - 1) / workers
	var g errgroup.Group
	for s := 0; s < workers; s++ {
		lo := s * size
		hi := min(lo+size, len(queried))
		if lo >= hi {
			shards[s] = &Result{Removals: NewRemovalSet()}
			continue
		}
		s := s
		g.Go(func() error {
			shards[s] = m.run(lo, hi)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{Removals: NewRemovalSet()}
	for _, sh := range shards {
		res.Removals = res.Removals.Union(sh.Removals)
		res.Matches = append(res.Matches, sh.Matches...)
		res.Skipped += sh.Skipped
	}
	return res, nil
}

type matcher struct {
	queried []venue.Record
	indexed []venue.Record
	index   *spatial.Index[int]
	scorer  names.Scorer
	max     float64
	best    bool
}

// run scans queried[lo:hi].
func (m *matcher) run(lo, hi int) *Result {
	res := &Result{Removals: NewRemovalSet()}

	for qi := lo; qi < hi; qi++ {
		q := m.queried[qi]
		qp, ok := q.Point()
		if !ok {
			res.Skipped++
			continue
		}

		found := false
		var bestIdx int
		var bestDist, bestSim float64

		for _, ci := range m.index.Candidates(qp) {
			cp, _ := m.indexed[ci].Point()
			d := geo.Distance(qp, cp)
			if d >= m.max {
				continue
			}
			ok, sim := m.scorer.Score(q.Name, m.indexed[ci].Name)
			if !ok {
				continue
			}
			if !found || d < bestDist {
				found, bestIdx, bestDist, bestSim = true, ci, d, sim
			}
			if !m.best {
				break
			}
		}

		if found {
			res.Removals.Add(qi)
			res.Matches = append(res.Matches, newMatch(m.queried, m.indexed, qi, bestIdx, bestDist, bestSim))
		}
	}

	return res
}

func newMatch(removedFrom, keptFrom []venue.Record, removed, kept int, dist, sim float64) Match {
	return Match{
		Removed:     removed,
		Kept:        kept,
		RemovedID:   removedFrom[removed].ID,
		KeptID:      keptFrom[kept].ID,
		RemovedName: removedFrom[removed].Name,
		KeptName:    keptFrom[kept].Name,
		Distance:    dist,
		Similarity:  sim,
	}
}

func logSkipped(res *Result) {
	if res.Skipped == 0 {
		return
	}
	zap.L().Debug("dedup: records without coordinates skipped",
		zap.String("pass", res.Pass),
		zap.Int("skipped", res.Skipped),
	)
}
