// Package pipeline runs the full dedup sequence over an outdoor court survey
// and an indoor gym survey: same-name passes on each source, indoor priority
// over outdoor, an optional cross-source pass and the category filter.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bcorbett503/HoopRank/internal/config"
	"github.com/bcorbett503/HoopRank/internal/dedup"
	"github.com/bcorbett503/HoopRank/internal/filter"
	"github.com/bcorbett503/HoopRank/internal/metrics"
	"github.com/bcorbett503/HoopRank/internal/model"
	"github.com/bcorbett503/HoopRank/internal/store"
	"github.com/bcorbett503/HoopRank/internal/venue"
)

// PassCategoryFilter names the filter step in reports and run history.
const PassCategoryFilter = "category_filter"

// Source labels used for metrics.
const (
	SourceOutdoor = "outdoor"
	SourceIndoor  = "indoor"
)

// Pipeline orchestrates one dedup run.
type Pipeline struct {
	cfg     config.DedupConfig
	filter  *filter.Filter
	store   store.Store
	metrics *metrics.Collector
	input   model.RunInput

	priority dedup.CrossOptions
	cross    dedup.CrossOptions
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStore records every run and pass in st.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithMetrics observes every pass on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = c }
}

// WithInput sets the run input stored alongside the run.
func WithInput(in model.RunInput) Option {
	return func(p *Pipeline) { p.input = in }
}

// WithFilter replaces the default category filter. A nil filter disables the
// filter step.
func WithFilter(f *filter.Filter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// New builds a Pipeline from configuration. Thresholds are validated here so a
// misconfigured run fails before any record is touched.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: config")
	}
	policy, err := dedup.ParseMatchPolicy(cfg.Dedup.Policy)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: config")
	}

	p := &Pipeline{
		cfg: cfg.Dedup,
		priority: dedup.CrossOptions{
			MaxMeters: cfg.Dedup.PriorityMeters,
			Threshold: cfg.Dedup.CrossCategoryThreshold,
			Policy:    policy,
			Workers:   cfg.Dedup.Workers,
		},
		cross: dedup.CrossOptions{
			MaxMeters: cfg.Dedup.CrossSourceMeters,
			Threshold: cfg.Dedup.CrossCategoryThreshold,
			Policy:    policy,
			Workers:   cfg.Dedup.Workers,
		},
	}
	if cfg.Filter.Enabled {
		p.filter = filter.New()
	}
	p.input.CrossSource = cfg.Dedup.CrossSource
	p.input.Policy = string(policy)

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run deduplicates outdoor and indoor and returns the surviving collections.
// Inputs are never modified. Any pass error aborts the run and no report is
// returned.
func (p *Pipeline) Run(ctx context.Context, outdoor, indoor []venue.Record) (*Report, error) {
	start := time.Now()
	log := zap.L().With(zap.Int("outdoor_in", len(outdoor)), zap.Int("indoor_in", len(indoor)))
	log.Info("pipeline: starting dedup run")

	var runID string
	if p.store != nil {
		run, err := p.store.CreateRun(ctx, p.input)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
		log = log.With(zap.String("run_id", runID))
	}

	report, err := p.run(ctx, log, outdoor, indoor)
	if err != nil {
		log.Error("pipeline: run failed", zap.Error(err))
		p.metrics.IncRuns(string(model.RunStatusFailed))
		if p.store != nil {
			if failErr := p.store.FailRun(ctx, runID, err); failErr != nil {
				log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
			}
		}
		return nil, err
	}

	report.RunID = runID
	report.Summary.DurationMS = time.Since(start).Milliseconds()
	p.metrics.IncRuns(string(model.RunStatusComplete))

	if p.store != nil {
		for i := range report.Passes {
			p.recordPass(ctx, log, runID, &report.Passes[i])
		}
		if err := p.store.CompleteRun(ctx, runID, report.Summary); err != nil {
			log.Warn("pipeline: failed to complete run", zap.Error(err))
		}
	}

	log.Info("pipeline: dedup run complete",
		zap.Int("outdoor_out", report.Summary.OutdoorOut),
		zap.Int("indoor_out", report.Summary.IndoorOut),
		zap.Int("removed", report.Summary.Removed()),
		zap.Int("rejected", report.Summary.Rejected),
		zap.Int64("duration_ms", report.Summary.DurationMS),
	)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, log *zap.Logger, outdoor, indoor []venue.Record) (*Report, error) {
	if err := venue.ValidateIDs(outdoor); err != nil {
		return nil, eris.Wrap(err, "pipeline: outdoor")
	}
	if err := venue.ValidateIDs(indoor); err != nil {
		return nil, eris.Wrap(err, "pipeline: indoor")
	}

	report := &Report{
		Summary: model.RunSummary{OutdoorIn: len(outdoor), IndoorIn: len(indoor)},
	}
	p.metrics.SetRecords(SourceOutdoor, "in", len(outdoor))
	p.metrics.SetRecords(SourceIndoor, "in", len(indoor))

	// Same-name passes touch disjoint collections.
	var outdoorPass, indoorPass PassReport
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		outdoorPass, err = p.timed(gCtx, log, dedup.PassOutdoorSameName, func() (*dedup.Result, error) {
			return dedup.SameName(outdoor, p.cfg.OutdoorSameNameMeters)
		})
		return err
	})
	g.Go(func() error {
		var err error
		indoorPass, err = p.timed(gCtx, log, dedup.PassIndoorSameName, func() (*dedup.Result, error) {
			return dedup.SameName(indoor, p.cfg.IndoorSameNameMeters)
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	report.Passes = append(report.Passes, outdoorPass, indoorPass)
	outdoor = venue.ApplyRemovals(outdoor, outdoorPass.Result.Removals)
	indoor = venue.ApplyRemovals(indoor, indoorPass.Result.Removals)

	priority, err := p.timed(ctx, log, dedup.PassPriority, func() (*dedup.Result, error) {
		return dedup.Priority(outdoor, indoor, p.priority)
	})
	if err != nil {
		return nil, err
	}
	report.Passes = append(report.Passes, priority)
	outdoor = venue.ApplyRemovals(outdoor, priority.Result.Removals)

	if p.cfg.CrossSource {
		cross, err := p.timed(ctx, log, dedup.PassCrossSource, func() (*dedup.Result, error) {
			return dedup.CrossSource(indoor, outdoor, p.cross)
		})
		if err != nil {
			return nil, err
		}
		report.Passes = append(report.Passes, cross)
		indoor = venue.ApplyRemovals(indoor, cross.Result.Removals)
	}

	if p.filter != nil {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "pipeline: %s", PassCategoryFilter)
		}
		start := time.Now()
		kept, rejected := p.filter.Apply(indoor)
		d := time.Since(start)

		report.Rejected = rejected
		report.Reasons = filter.ReasonCounts(rejected)
		report.Passes = append(report.Passes, PassReport{
			Pass:       PassCategoryFilter,
			Removed:    len(rejected),
			DurationMS: d.Milliseconds(),
		})
		for _, rc := range report.Reasons {
			p.metrics.AddRejections(rc.Reason, rc.Count)
		}
		p.metrics.ObservePass(PassCategoryFilter, len(rejected), 0, d)
		log.Info("pipeline: pass complete",
			zap.String("pass", PassCategoryFilter),
			zap.Int("removed", len(rejected)),
			zap.Int64("duration_ms", d.Milliseconds()),
		)
		indoor = kept
	}

	report.Outdoor = outdoor
	report.Indoor = indoor
	report.IndoorCategories = venue.CountByCategory(indoor)
	report.Summary.OutdoorOut = len(outdoor)
	report.Summary.IndoorOut = len(indoor)
	report.Summary.Rejected = len(report.Rejected)
	p.metrics.SetRecords(SourceOutdoor, "out", len(outdoor))
	p.metrics.SetRecords(SourceIndoor, "out", len(indoor))
	return report, nil
}

// timed runs one dedup pass, renames its result and observes it.
func (p *Pipeline) timed(ctx context.Context, log *zap.Logger, pass string, fn func() (*dedup.Result, error)) (PassReport, error) {
	if err := ctx.Err(); err != nil {
		return PassReport{}, eris.Wrapf(err, "pipeline: %s", pass)
	}

	start := time.Now()
	res, err := fn()
	d := time.Since(start)
	if err != nil {
		return PassReport{}, eris.Wrapf(err, "pipeline: %s", pass)
	}
	res.Pass = pass

	pr := PassReport{
		Pass:       pass,
		Removed:    res.Removals.Len(),
		Skipped:    res.Skipped,
		DurationMS: d.Milliseconds(),
		Samples:    sample(res.Matches, p.cfg.AuditLimit),
		Result:     res,
	}
	p.metrics.ObservePass(pass, pr.Removed, pr.Skipped, d)

	log.Info("pipeline: pass complete",
		zap.String("pass", pass),
		zap.Int("removed", pr.Removed),
		zap.Int("skipped", pr.Skipped),
		zap.Int64("duration_ms", pr.DurationMS),
	)
	for _, m := range pr.Samples {
		log.Debug("pipeline: removed duplicate",
			zap.String("pass", pass),
			zap.String("removed", m.RemovedName),
			zap.String("kept", m.KeptName),
			zap.Float64("distance_m", m.Distance),
		)
	}
	return pr, nil
}

func (p *Pipeline) recordPass(ctx context.Context, log *zap.Logger, runID string, pr *PassReport) {
	rec := &model.PassRecord{
		RunID:      runID,
		Pass:       pr.Pass,
		Removed:    pr.Removed,
		Skipped:    pr.Skipped,
		DurationMS: pr.DurationMS,
	}
	if pr.Result != nil {
		rec.Matches = pr.Result.Matches
	}
	if err := p.store.RecordPass(ctx, rec); err != nil {
		log.Warn("pipeline: failed to record pass", zap.String("pass", pr.Pass), zap.Error(err))
	}
}

// sample returns at most limit matches. A limit of zero keeps none.
func sample(matches []dedup.Match, limit int) []dedup.Match {
	if limit <= 0 || len(matches) == 0 {
		return nil
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]dedup.Match, len(matches))
	copy(out, matches)
	return out
}
