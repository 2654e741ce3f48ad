package bootstrap

import (
	"time"

	"github.com/swimlab/agecurve/internal/aggregate"
	"github.com/swimlab/agecurve/internal/config"
	"github.com/swimlab/agecurve/internal/replicate"
)

// Outcome represents the complete result of a bootstrap run.
type Outcome struct {
	RunID     string             `json:"run_id"`
	Pipeline  string             `json:"pipeline"`
	Timestamp time.Time          `json:"timestamp"`
	Setup     Setup              `json:"config"`
	Digest    Digest             `json:"summary"`
	Skipped   []SkippedReplicate `json:"skipped_replicates,omitempty"`
	Bands     []aggregate.Row    `json:"bands"`

	// Results carries the raw per-replicate output for archiving; Table is
	// the aggregate used for rendering. Neither belongs in summary JSON.
	Results []replicate.Result `json:"-"`
	Table   *aggregate.Table   `json:"-"`
}

// Setup echoes the effective configuration a run executed with, defaults
// and flag overrides included.
type Setup struct {
	Dataset string               `json:"dataset"`
	Config  config.RunSettings   `json:"config"`
	Models  []config.ModelConfig `json:"models"`
	Grid    config.GridConfig    `json:"grid"`
}

// Digest summarizes a run: replicate accounting plus per-model error and
// weight means across completed replicates.
type Digest struct {
	Replicates int   `json:"replicates"`
	Completed  int   `json:"completed"`
	Skipped    int   `json:"skipped"`
	Rows       int   `json:"dataset_rows"`
	DurationMs int64 `json:"duration_ms"`

	// MeanCVRMSE is keyed by member name; MeanRMSE and MeanWeights also
	// carry the stack and average variants where defined.
	MeanCVRMSE  map[string]float64 `json:"mean_cv_rmse"`
	MeanRMSE    map[string]float64 `json:"mean_test_rmse"`
	MeanWeights map[string]float64 `json:"mean_weights"`
}

// SkippedReplicate records one replicate excluded from aggregation.
type SkippedReplicate struct {
	Index  int    `json:"index"`
	Seed   int64  `json:"seed"`
	Reason string `json:"reason"`
}
