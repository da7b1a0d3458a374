// Package model holds the run history types shared by the pipeline, the
// store and the CLI.
package model

import (
	"time"

	"github.com/bcorbett503/HoopRank/internal/dedup"
)

// RunStatus represents the current state of a dedup run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunInput describes where a run's records came from.
type RunInput struct {
	OutdoorPath string `json:"outdoor_path"`
	IndoorPath  string `json:"indoor_path"`
	CrossSource bool   `json:"cross_source"`
	Policy      string `json:"policy"`
}

// Run represents a single dedup run over an outdoor and an indoor source.
type Run struct {
	ID        string      `json:"id"`
	Input     RunInput    `json:"input"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary holds record counts before and after a run.
type RunSummary struct {
	OutdoorIn  int   `json:"outdoor_in" yaml:"outdoor_in"`
	IndoorIn   int   `json:"indoor_in" yaml:"indoor_in"`
	OutdoorOut int   `json:"outdoor_out" yaml:"outdoor_out"`
	IndoorOut  int   `json:"indoor_out" yaml:"indoor_out"`
	Rejected   int   `json:"rejected" yaml:"rejected"`
	DurationMS int64 `json:"duration_ms" yaml:"duration_ms"`
}

// Removed returns the total number of records dropped by the run.
func (s RunSummary) Removed() int {
	return (s.OutdoorIn - s.OutdoorOut) + (s.IndoorIn - s.IndoorOut)
}

// PassRecord is the persisted outcome of one dedup or filter pass.
type PassRecord struct {
	ID         string        `json:"id"`
	RunID      string        `json:"run_id"`
	Pass       string        `json:"pass"`
	Removed    int           `json:"removed"`
	Skipped    int           `json:"skipped"`
	Matches    []dedup.Match `json:"matches,omitempty"`
	DurationMS int64         `json:"duration_ms"`
	CreatedAt  time.Time     `json:"created_at"`
}
