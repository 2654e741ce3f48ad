// Package wizard drives the interactive pipeline setup used by agecurve new.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/swimlab/agecurve/internal/scaffold"
)

// PipelineChoices holds all fields collected during the interactive wizard.
type PipelineChoices struct {
	Name        string
	Dataset     string
	Replicates  int
	Seed        int64
	Members     []string
	HiddenUnits int
	Degree      int
	DF          int
	Parallel    bool
}

// HasMember reports whether the given model kind was selected.
func (c *PipelineChoices) HasMember(kind string) bool {
	for _, m := range c.Members {
		if m == kind {
			return true
		}
	}
	return false
}

// Title returns the pipeline name in Title Case for the description line.
func (c *PipelineChoices) Title() string {
	return scaffold.TitleCase(c.Name)
}

const pipelineYAMLTemplate = `name: {{ .Name }}
description: Age-performance curves for {{ .Title }}
dataset: {{ .Dataset }}
config:
  replicates: {{ .Replicates }}
  seed: {{ .Seed }}
  train_fraction: 0.8
  cv_folds: 5
  interval: [2.5, 97.5]
  parallel: {{ .Parallel }}
  max_workers: 4
  timeout_seconds: 300
  on_fit_failure: skip
models:
{{- if .HasMember "nnet" }}
  - type: nnet
    name: nn
    config:
      hidden_units: {{ .HiddenUnits }}
      epochs: 400
      learning_rate: 0.01
{{- end }}
{{- if .HasMember "poly" }}
  - type: poly
    name: cubic
    config:
      degree: {{ .Degree }}
{{- end }}
{{- if .HasMember "spline" }}
  - type: spline
    name: smooth
    config:
      df: {{ .DF }}
{{- end }}
grid:
  age_min: 35
  age_max: 84
output:
  dir: results/
  plots: true
`

// RunPipelineWizard runs an interactive huh form to collect pipeline
// settings. If initialName is non-empty, it pre-populates the name field.
func RunPipelineWizard(in io.Reader, out io.Writer, initialName string) (*PipelineChoices, error) {
	defaultDataset, _ := scaffold.ReadProjectDefaults()

	var (
		name          = initialName
		dataset       = defaultDataset
		replicatesRaw = "50"
		seedRaw       = "1"
		members       = []string{"poly", "spline"}
		hiddenRaw     = "6"
		degreeRaw     = "3"
		dfRaw         = "5"
		parallel      = true
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pipeline name").
				Description("A kebab-case name for your pipeline").
				Placeholder("masters-freestyle").
				Value(&name).
				Validate(func(s string) error {
					return scaffold.ValidateName(strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Dataset path").
				Description("CSV with age, sex and time_sec columns").
				Value(&dataset).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("dataset path is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Replicates").
				Description("Bootstrap replicates to run").
				Value(&replicatesRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Base seed").
				Description("Replicate i uses seed + i - 1").
				Value(&seedRaw).
				Validate(validateInt),
		),
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Ensemble members").
				Options(
					huh.NewOption("polynomial", "poly").Selected(true),
					huh.NewOption("natural cubic spline", "spline").Selected(true),
					huh.NewOption("neural net", "nnet"),
				).
				Value(&members).
				Validate(func(picked []string) error {
					if len(picked) == 0 {
						return fmt.Errorf("pick at least one member")
					}
					return nil
				}),
			huh.NewInput().
				Title("Hidden units (neural net)").
				Value(&hiddenRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Degree (polynomial)").
				Value(&degreeRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Degrees of freedom (spline)").
				Value(&dfRaw).
				Validate(validatePositiveInt),
			huh.NewConfirm().
				Title("Run replicates in parallel?").
				Value(&parallel),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	replicates, err := strconv.Atoi(strings.TrimSpace(replicatesRaw))
	if err != nil {
		return nil, fmt.Errorf("replicates: %w", err)
	}
	seed, err := strconv.ParseInt(strings.TrimSpace(seedRaw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	hidden, err := strconv.Atoi(strings.TrimSpace(hiddenRaw))
	if err != nil {
		return nil, fmt.Errorf("hidden units: %w", err)
	}
	degree, err := strconv.Atoi(strings.TrimSpace(degreeRaw))
	if err != nil {
		return nil, fmt.Errorf("degree: %w", err)
	}
	df, err := strconv.Atoi(strings.TrimSpace(dfRaw))
	if err != nil {
		return nil, fmt.Errorf("df: %w", err)
	}

	return &PipelineChoices{
		Name:        strings.TrimSpace(name),
		Dataset:     strings.TrimSpace(dataset),
		Replicates:  replicates,
		Seed:        seed,
		Members:     members,
		HiddenUnits: hidden,
		Degree:      degree,
		DF:          df,
		Parallel:    parallel,
	}, nil
}

// GeneratePipelineYAML renders a pipeline.yaml from the given choices.
func GeneratePipelineYAML(choices *PipelineChoices) (string, error) {
	tmpl, err := template.New("pipeline").Parse(pipelineYAMLTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, choices); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("must be a positive integer")
	}
	return nil
}

func validateInt(s string) error {
	if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
		return fmt.Errorf("must be an integer")
	}
	return nil
}
