package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	specPath := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(specPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write spec file: %v", err)
	}
	return specPath
}

func TestPipelineSpec_LoadFromYAML(t *testing.T) {
	yamlContent := `name: masters-freestyle
description: Age curves for masters freestyle times
dataset: data/swim.csv
config:
  replicates: 200
  seed: 7
  train_fraction: 0.75
  cv_folds: 4
  interval: [5, 95]
  parallel: true
  max_workers: 8
  timeout_seconds: 120
  on_fit_failure: fail
models:
  - type: nnet
    name: nnet
    config:
      hidden_units: 6
      epochs: 150
      learning_rate: 0.1
  - type: poly
    name: poly
    config:
      degree: 3
  - type: spline
    name: spline
    config:
      df: 4
grid:
  age_min: 35
  age_max: 80
output:
  dir: out/
  plots: false
  archive: true
`
	spec, err := LoadPipelineSpec(writeSpec(t, yamlContent))
	if err != nil {
		t.Fatalf("Failed to load spec: %v", err)
	}

	if spec.Name != "masters-freestyle" {
		t.Errorf("Expected name 'masters-freestyle', got '%s'", spec.Name)
	}
	if spec.DatasetPath != "data/swim.csv" {
		t.Errorf("Expected dataset 'data/swim.csv', got '%s'", spec.DatasetPath)
	}
	if spec.Config.Replicates != 200 {
		t.Errorf("Expected 200 replicates, got %d", spec.Config.Replicates)
	}
	if spec.Config.Seed != 7 {
		t.Errorf("Expected seed 7, got %d", spec.Config.Seed)
	}
	if spec.Config.TrainFraction != 0.75 {
		t.Errorf("Expected train_fraction 0.75, got %g", spec.Config.TrainFraction)
	}
	if spec.Config.Folds != 4 {
		t.Errorf("Expected 4 folds, got %d", spec.Config.Folds)
	}
	if len(spec.Config.Interval) != 2 || spec.Config.Interval[0] != 5 || spec.Config.Interval[1] != 95 {
		t.Errorf("Expected interval [5, 95], got %v", spec.Config.Interval)
	}
	if !spec.Config.Concurrent {
		t.Error("Expected parallel=true")
	}
	if spec.Config.Workers != 8 {
		t.Errorf("Expected 8 workers, got %d", spec.Config.Workers)
	}
	if spec.Config.OnFitFailure != FailureFail {
		t.Errorf("Expected on_fit_failure=fail, got '%s'", spec.Config.OnFitFailure)
	}
	if len(spec.Models) != 3 {
		t.Fatalf("Expected 3 models, got %d", len(spec.Models))
	}
	if spec.Models[0].Identifier != "nnet" || string(spec.Models[0].Kind) != "nnet" {
		t.Errorf("Unexpected first model: %+v", spec.Models[0])
	}
	if hu := spec.Models[0].Parameters["hidden_units"]; hu != 6 {
		t.Errorf("Expected hidden_units=6, got %v", hu)
	}
	if spec.Grid.AgeMax != 80 {
		t.Errorf("Expected grid age_max=80, got %d", spec.Grid.AgeMax)
	}
	if spec.Output.Dir != "out/" {
		t.Errorf("Expected output dir 'out/', got '%s'", spec.Output.Dir)
	}
	if spec.Output.Plots == nil || *spec.Output.Plots {
		t.Error("Expected plots=false to survive loading")
	}
	if !spec.Output.Archive {
		t.Error("Expected archive=true")
	}
}

func TestPipelineSpec_DefaultValues(t *testing.T) {
	// Minimal YAML - defaults need to be set by loader
	yamlContent := `name: minimal
dataset: swim.csv
models:
  - type: poly
    name: poly
`
	spec, err := LoadPipelineSpec(writeSpec(t, yamlContent))
	if err != nil {
		t.Fatalf("Failed to load spec: %v", err)
	}

	if spec.Config.Replicates != DefaultReplicates {
		t.Errorf("Expected replicates=%d, got %d", DefaultReplicates, spec.Config.Replicates)
	}
	if spec.Config.Seed != DefaultSeed {
		t.Errorf("Expected seed=%d, got %d", DefaultSeed, spec.Config.Seed)
	}
	if spec.Config.TrainFraction != DefaultTrainFraction {
		t.Errorf("Expected train_fraction=%g, got %g", DefaultTrainFraction, spec.Config.TrainFraction)
	}
	if spec.Config.Folds != DefaultFolds {
		t.Errorf("Expected cv_folds=%d, got %d", DefaultFolds, spec.Config.Folds)
	}
	if len(spec.Config.Interval) != 2 || spec.Config.Interval[0] != DefaultIntervalLo || spec.Config.Interval[1] != DefaultIntervalHi {
		t.Errorf("Expected interval [%g, %g], got %v", DefaultIntervalLo, DefaultIntervalHi, spec.Config.Interval)
	}
	if spec.Config.Concurrent {
		t.Error("Expected parallel=false by default")
	}
	if spec.Config.Workers != DefaultWorkers {
		t.Errorf("Expected workers=%d, got %d", DefaultWorkers, spec.Config.Workers)
	}
	if spec.Config.TimeoutSec != DefaultTimeout {
		t.Errorf("Expected timeout=%d, got %d", DefaultTimeout, spec.Config.TimeoutSec)
	}
	if spec.Config.OnFitFailure != FailureSkip {
		t.Errorf("Expected on_fit_failure=skip, got '%s'", spec.Config.OnFitFailure)
	}
	if spec.Grid.AgeMin != DefaultGridAgeMin || spec.Grid.AgeMax != DefaultGridAgeMax {
		t.Errorf("Expected grid %d..%d, got %d..%d",
			DefaultGridAgeMin, DefaultGridAgeMax, spec.Grid.AgeMin, spec.Grid.AgeMax)
	}
	if spec.Output.Dir != DefaultOutputDir {
		t.Errorf("Expected output dir '%s', got '%s'", DefaultOutputDir, spec.Output.Dir)
	}
	if spec.Output.Plots == nil || !*spec.Output.Plots {
		t.Error("Expected plots=true by default")
	}
	if spec.Output.Archive {
		t.Error("Expected archive=false by default")
	}
}

func TestPipelineSpec_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "dataset: swim.csv\nmodels:\n  - type: poly\n    name: poly\n",
			wantErr: "name is required",
		},
		{
			name:    "missing dataset",
			yaml:    "name: p\nmodels:\n  - type: poly\n    name: poly\n",
			wantErr: "dataset path is required",
		},
		{
			name:    "no models",
			yaml:    "name: p\ndataset: swim.csv\n",
			wantErr: "at least one model",
		},
		{
			name: "duplicate model names",
			yaml: "name: p\ndataset: swim.csv\nmodels:\n" +
				"  - type: poly\n    name: m\n  - type: spline\n    name: m\n",
			wantErr: "duplicate name",
		},
		{
			name: "train fraction out of range",
			yaml: "name: p\ndataset: swim.csv\nconfig:\n  train_fraction: 1.5\n" +
				"models:\n  - type: poly\n    name: poly\n",
			wantErr: "train_fraction",
		},
		{
			name: "single fold",
			yaml: "name: p\ndataset: swim.csv\nconfig:\n  cv_folds: 1\n" +
				"models:\n  - type: poly\n    name: poly\n",
			wantErr: "cv_folds",
		},
		{
			name: "inverted interval",
			yaml: "name: p\ndataset: swim.csv\nconfig:\n  interval: [97.5, 2.5]\n" +
				"models:\n  - type: poly\n    name: poly\n",
			wantErr: "interval bounds",
		},
		{
			name: "three interval bounds",
			yaml: "name: p\ndataset: swim.csv\nconfig:\n  interval: [2.5, 50, 97.5]\n" +
				"models:\n  - type: poly\n    name: poly\n",
			wantErr: "exactly two bounds",
		},
		{
			name: "unknown failure policy",
			yaml: "name: p\ndataset: swim.csv\nconfig:\n  on_fit_failure: retry\n" +
				"models:\n  - type: poly\n    name: poly\n",
			wantErr: "not a valid on_fit_failure policy",
		},
		{
			name: "inverted grid",
			yaml: "name: p\ndataset: swim.csv\ngrid:\n  age_min: 80\n  age_max: 40\n" +
				"models:\n  - type: poly\n    name: poly\n",
			wantErr: "age_min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPipelineSpec(writeSpec(t, tt.yaml))
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPipelineSpec_BuildMembers(t *testing.T) {
	yamlContent := `name: members
dataset: swim.csv
models:
  - type: poly
    name: cubic
    config:
      degree: 3
  - type: spline
    name: smooth
    config:
      df: 5
`
	spec, err := LoadPipelineSpec(writeSpec(t, yamlContent))
	if err != nil {
		t.Fatalf("Failed to load spec: %v", err)
	}

	members, err := spec.BuildMembers()
	if err != nil {
		t.Fatalf("BuildMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(members))
	}
	if members[0].Name() != "cubic" || members[1].Name() != "smooth" {
		t.Errorf("Unexpected member names: %s, %s", members[0].Name(), members[1].Name())
	}
}

func TestPipelineSpec_BuildMembersRejectsUnknownKind(t *testing.T) {
	yamlContent := `name: badkind
dataset: swim.csv
models:
  - type: forest
    name: trees
`
	spec, err := LoadPipelineSpec(writeSpec(t, yamlContent))
	if err != nil {
		t.Fatalf("Failed to load spec: %v", err)
	}

	if _, err := spec.BuildMembers(); err == nil {
		t.Fatal("Expected error for unknown model kind")
	}
}

func TestLoadPipelineSpec_MissingFile(t *testing.T) {
	if _, err := LoadPipelineSpec(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadPipelineSpec_MalformedYAML(t *testing.T) {
	_, err := LoadPipelineSpec(writeSpec(t, "name: [unterminated"))
	if err == nil {
		t.Fatal("Expected parse error")
	}
	if !strings.Contains(err.Error(), "parsing") {
		t.Errorf("Error %q does not mention parsing", err.Error())
	}
}
