package pipeline

import (
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/bcorbett503/HoopRank/internal/dedup"
	"github.com/bcorbett503/HoopRank/internal/filter"
	"github.com/bcorbett503/HoopRank/internal/model"
	"github.com/bcorbett503/HoopRank/internal/venue"
)

// PassReport summarizes one pass of a run. Samples holds at most the
// configured audit limit of matched pairs; Result keeps the full outcome.
type PassReport struct {
	Pass       string        `json:"pass" yaml:"pass"`
	Removed    int           `json:"removed" yaml:"removed"`
	Skipped    int           `json:"skipped" yaml:"skipped"`
	DurationMS int64         `json:"duration_ms" yaml:"duration_ms"`
	Samples    []dedup.Match `json:"samples,omitempty" yaml:"samples,omitempty"`

	Result *dedup.Result `json:"-" yaml:"-"`
}

// Report is the outcome of a completed run.
type Report struct {
	RunID            string                 `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Summary          model.RunSummary       `json:"summary" yaml:"summary"`
	Passes           []PassReport           `json:"passes" yaml:"passes"`
	Reasons          []filter.ReasonCount   `json:"rejection_reasons,omitempty" yaml:"rejection_reasons,omitempty"`
	IndoorCategories map[venue.Category]int `json:"indoor_categories,omitempty" yaml:"indoor_categories,omitempty"`

	Outdoor  []venue.Record     `json:"-" yaml:"-"`
	Indoor   []venue.Record     `json:"-" yaml:"-"`
	Rejected []filter.Rejection `json:"-" yaml:"-"`
}

// Pass returns the report for the named pass.
func (r *Report) Pass(name string) (PassReport, bool) {
	for _, p := range r.Passes {
		if p.Pass == name {
			return p, true
		}
	}
	return PassReport{}, false
}

// YAML renders the summary, pass counts, samples and rejection reasons.
func (r *Report) YAML() ([]byte, error) {
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: marshal report")
	}
	return out, nil
}
