// Package config provides the PipelineSpec struct and loader for
// pipeline.yaml files, plus the RunConfig passed to the bootstrap runner.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/swimlab/agecurve/internal/regress"
)

// Default values for pipeline configuration. These are the single source of
// truth — applyDefaults references them and no other code should duplicate
// them.
const (
	DefaultReplicates    = 10
	DefaultSeed          = 1
	DefaultTrainFraction = 0.8
	DefaultFolds         = 5
	DefaultIntervalLo    = 2.5
	DefaultIntervalHi    = 97.5
	DefaultWorkers       = 4
	DefaultTimeout       = 300

	DefaultGridAgeMin = 35
	DefaultGridAgeMax = 84

	DefaultOutputDir = "results/"
)

// Failure policies for replicates whose model fits do not converge.
const (
	FailureSkip = "skip"
	FailureFail = "fail"
)

// PipelineSpec represents a complete bootstrap pipeline specification.
type PipelineSpec struct {
	SpecIdentity `yaml:",inline"`
	DatasetPath  string        `yaml:"dataset"`
	Config       RunSettings   `yaml:"config"`
	Models       []ModelConfig `yaml:"models"`
	Grid         GridConfig    `yaml:"grid,omitempty"`
	Output       OutputConfig  `yaml:"output,omitempty"`
}

type SpecIdentity struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// RunSettings controls resampling and execution behavior.
type RunSettings struct {
	Replicates    int       `yaml:"replicates" json:"replicates"`
	Seed          int64     `yaml:"seed" json:"seed"`
	TrainFraction float64   `yaml:"train_fraction,omitempty" json:"train_fraction"`
	Folds         int       `yaml:"cv_folds,omitempty" json:"cv_folds"`
	Interval      []float64 `yaml:"interval,omitempty,flow" json:"interval"`
	Concurrent    bool      `yaml:"parallel" json:"concurrent"`
	Workers       int       `yaml:"max_workers,omitempty" json:"workers,omitempty"`
	TimeoutSec    int       `yaml:"timeout_seconds" json:"timeout_sec"`
	OnFitFailure  string    `yaml:"on_fit_failure,omitempty" json:"on_fit_failure,omitempty"`
}

// ModelConfig defines one ensemble member.
type ModelConfig struct {
	Kind       regress.Kind   `yaml:"type" json:"kind"`
	Identifier string         `yaml:"name" json:"identifier"`
	Parameters map[string]any `yaml:"config,omitempty" json:"parameters,omitempty"`
}

// GridConfig bounds the prediction grid rendered by every replicate.
type GridConfig struct {
	AgeMin int `yaml:"age_min,omitempty" json:"age_min"`
	AgeMax int `yaml:"age_max,omitempty" json:"age_max"`
}

// OutputConfig controls where and what the run writes.
type OutputConfig struct {
	Dir     string `yaml:"dir,omitempty" json:"dir"`
	Plots   *bool  `yaml:"plots,omitempty" json:"plots"`
	Archive bool   `yaml:"archive,omitempty" json:"archive"`
}

// LoadPipelineSpec loads a spec from a YAML file, fills in missing fields
// with defaults, and validates it.
func LoadPipelineSpec(path string) (*PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec PipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	spec.applyDefaults()
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &spec, nil
}

// applyDefaults fills zero-valued optional fields. Required fields (name,
// dataset, models) are left alone so Validate can report them.
func (s *PipelineSpec) applyDefaults() {
	if s.Config.Replicates == 0 {
		s.Config.Replicates = DefaultReplicates
	}
	if s.Config.Seed == 0 {
		s.Config.Seed = DefaultSeed
	}
	if s.Config.TrainFraction == 0 {
		s.Config.TrainFraction = DefaultTrainFraction
	}
	if s.Config.Folds == 0 {
		s.Config.Folds = DefaultFolds
	}
	if len(s.Config.Interval) == 0 {
		s.Config.Interval = []float64{DefaultIntervalLo, DefaultIntervalHi}
	}
	if s.Config.Workers == 0 {
		s.Config.Workers = DefaultWorkers
	}
	if s.Config.TimeoutSec == 0 {
		s.Config.TimeoutSec = DefaultTimeout
	}
	if s.Config.OnFitFailure == "" {
		s.Config.OnFitFailure = FailureSkip
	}
	if s.Grid.AgeMin == 0 {
		s.Grid.AgeMin = DefaultGridAgeMin
	}
	if s.Grid.AgeMax == 0 {
		s.Grid.AgeMax = DefaultGridAgeMax
	}
	if s.Output.Dir == "" {
		s.Output.Dir = DefaultOutputDir
	}
	if s.Output.Plots == nil {
		t := true
		s.Output.Plots = &t
	}
}

// Validate checks that the spec is valid.
func (s *PipelineSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("pipeline name is required")
	}
	if s.DatasetPath == "" {
		return fmt.Errorf("dataset path is required")
	}
	if s.Config.Replicates < 1 {
		return fmt.Errorf("replicates must be at least 1, got %d", s.Config.Replicates)
	}
	if s.Config.TrainFraction <= 0 || s.Config.TrainFraction >= 1 {
		return fmt.Errorf("train_fraction must be in (0, 1), got %g", s.Config.TrainFraction)
	}
	if s.Config.Folds < 2 {
		return fmt.Errorf("cv_folds must be at least 2, got %d", s.Config.Folds)
	}
	if len(s.Config.Interval) != 2 {
		return fmt.Errorf("interval must have exactly two bounds, got %d", len(s.Config.Interval))
	}
	if lo, hi := s.Config.Interval[0], s.Config.Interval[1]; lo < 0 || hi > 100 || lo >= hi {
		return fmt.Errorf("interval bounds [%g, %g] must satisfy 0 <= lo < hi <= 100", lo, hi)
	}
	if s.Config.TimeoutSec < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", s.Config.TimeoutSec)
	}
	if s.Config.OnFitFailure != FailureSkip && s.Config.OnFitFailure != FailureFail {
		return fmt.Errorf("'%s' is not a valid on_fit_failure policy (want %s or %s)",
			s.Config.OnFitFailure, FailureSkip, FailureFail)
	}
	if len(s.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	seen := make(map[string]bool, len(s.Models))
	for i, m := range s.Models {
		if m.Identifier == "" {
			return fmt.Errorf("models[%d]: name is required", i)
		}
		if seen[m.Identifier] {
			return fmt.Errorf("models[%d]: duplicate name %q", i, m.Identifier)
		}
		seen[m.Identifier] = true
	}
	if s.Grid.AgeMin > s.Grid.AgeMax {
		return fmt.Errorf("grid age_min %d exceeds age_max %d", s.Grid.AgeMin, s.Grid.AgeMax)
	}
	return nil
}

// BuildMembers instantiates the configured ensemble members. Hyperparameter
// maps are decoded and range-checked by the model registry.
func (s *PipelineSpec) BuildMembers() ([]regress.Model, error) {
	members := make([]regress.Model, 0, len(s.Models))
	for _, mc := range s.Models {
		m, err := regress.Create(mc.Kind, mc.Identifier, mc.Parameters)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}
