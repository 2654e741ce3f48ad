package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/swimlab/agecurve/internal/scaffold"
	"github.com/swimlab/agecurve/internal/wizard"
)

func newNewCommand() *cobra.Command {
	var withSample bool
	var sampleReps int

	cmd := &cobra.Command{
		Use:   "new <pipeline-name>",
		Short: "Create a new bootstrap pipeline",
		Long: `Create a new bootstrap pipeline with a ready-to-edit spec file.

Two modes of operation:

  Inside a project (.agecurve.yaml detected):
    Creates pipelines/{name}.yaml using the project defaults.

  Standalone (no project file):
    Creates {name}/ with pipeline.yaml, README.md and .gitignore.

When running in a terminal (TTY), launches an interactive wizard for
pipeline settings. In non-interactive environments (CI, pipes), uses
defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return newCommandE(cmd, args, withSample, sampleReps)
		},
	}

	cmd.Flags().BoolVar(&withSample, "sample-data", false, "Also write a synthetic sample dataset")
	cmd.Flags().IntVar(&sampleReps, "sample-reps", 4, "Synthetic records per age/sex cell (requires --sample-data)")

	return cmd
}

func newCommandE(cmd *cobra.Command, args []string, withSample bool, sampleReps int) error {
	name := args[0]

	if err := scaffold.ValidateName(name); err != nil {
		return err
	}

	projectRoot, inProject := findProjectRoot()

	// Check TTY from the command's input stream, not os.Stdin directly.
	inReader := cmd.InOrStdin()
	isTTY := false
	if f, ok := inReader.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	var choices *wizard.PipelineChoices
	if isTTY {
		c, err := wizard.RunPipelineWizard(cmd.InOrStdin(), cmd.OutOrStdout(), name)
		if err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
		choices = c
	} else {
		choices = defaultChoices(name)
	}

	content, err := wizard.GeneratePipelineYAML(choices)
	if err != nil {
		return fmt.Errorf("failed to generate pipeline spec: %w", err)
	}

	if inProject {
		return scaffoldInProject(cmd, projectRoot, name, choices, content, withSample, sampleReps)
	}
	return scaffoldStandalone(cmd, name, choices, content, withSample, sampleReps)
}

// defaultChoices builds non-interactive pipeline settings, honoring project
// defaults when a .agecurve.yaml is in reach.
func defaultChoices(name string) *wizard.PipelineChoices {
	datasetPath, _ := scaffold.ReadProjectDefaults()
	return &wizard.PipelineChoices{
		Name:        name,
		Dataset:     datasetPath,
		Replicates:  50,
		Seed:        1,
		Members:     []string{"poly", "spline"},
		HiddenUnits: 6,
		Degree:      3,
		DF:          5,
	}
}

// findProjectRoot walks up from CWD looking for a .agecurve.yaml project
// file. Returns the directory containing it and true, or ("", false) if not
// found.
func findProjectRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(dir, ".agecurve.yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", false
}

// scaffoldInProject adds a pipeline to an existing project.
func scaffoldInProject(cmd *cobra.Command, projectRoot, name string, choices *wizard.PipelineChoices, pipelineYAML string, withSample bool, sampleReps int) error {
	pipelineDir := filepath.Join(projectRoot, "pipelines")
	if err := os.MkdirAll(pipelineDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", pipelineDir, err)
	}

	files := []fileEntry{
		{filepath.Join(pipelineDir, name+".yaml"), pipelineYAML},
	}
	if withSample {
		// Relative dataset paths resolve against the pipeline file at run
		// time, so the sample lands next to the spec that names it.
		datasetPath := choices.Dataset
		if !filepath.IsAbs(datasetPath) {
			datasetPath = filepath.Join(pipelineDir, datasetPath)
		}
		files = append(files, fileEntry{datasetPath, scaffold.SampleCSV(choices.Seed, sampleReps)})
	}

	return writeFiles(cmd, files)
}

// scaffoldStandalone creates a self-contained pipeline directory.
func scaffoldStandalone(cmd *cobra.Command, name string, choices *wizard.PipelineChoices, pipelineYAML string, withSample bool, sampleReps int) error {
	rootDir := name
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", rootDir, err)
	}

	files := []fileEntry{
		{filepath.Join(rootDir, "pipeline.yaml"), pipelineYAML},
		{filepath.Join(rootDir, ".gitignore"), defaultGitignore()},
		{filepath.Join(rootDir, "README.md"), defaultReadme(choices)},
	}
	if withSample {
		datasetPath := choices.Dataset
		if !filepath.IsAbs(datasetPath) {
			datasetPath = filepath.Join(rootDir, datasetPath)
		}
		files = append(files, fileEntry{datasetPath, scaffold.SampleCSV(choices.Seed, sampleReps)})
	}

	return writeFiles(cmd, files)
}

// fileEntry pairs a path with its content for batch writing.
type fileEntry struct {
	path    string
	content string
}

// writeFiles writes each file, skipping any that already exist.
func writeFiles(cmd *cobra.Command, files []fileEntry) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Scaffolding pipeline:") //nolint:errcheck

	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "  skip %s (already exists)\n", f.path) //nolint:errcheck
			continue
		}

		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  create %s\n", f.path) //nolint:errcheck
	}

	return nil
}

// --- Template content functions ---

func defaultGitignore() string {
	return `results/
*.json.gz
`
}

func defaultReadme(choices *wizard.PipelineChoices) string {
	return fmt.Sprintf(`# %s

Bootstrap pipeline for age-performance curves.

## Run

    agecurve check pipeline.yaml
    agecurve run pipeline.yaml

Outputs land in results/: summary.json, summary.csv and the band charts.
The dataset is expected at %s with columns age, sex and time_sec.
`, choices.Title(), choices.Dataset)
}
