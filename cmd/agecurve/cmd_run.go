package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/swimlab/agecurve/internal/bootstrap"
	"github.com/swimlab/agecurve/internal/config"
	"github.com/swimlab/agecurve/internal/report"
	"github.com/swimlab/agecurve/internal/validation"
)

var (
	outputDir    string
	verbose      bool
	parallel     bool
	workers      int
	replicates   int
	seedOverride int64
	noPlots      bool
	archive      bool
	interpret    bool
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <pipeline.yaml>",
		Short: "Run a bootstrap pipeline",
		Long: `Run a bootstrap pipeline from a spec file.

The pipeline file names the dataset, the ensemble members with their
hyperparameters, and the resampling settings. Relative paths in the file
resolve against the directory containing it.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory for results (overrides the pipeline file)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-replicate progress")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run replicates concurrently")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent workers (default: 4, requires --parallel)")
	cmd.Flags().IntVar(&replicates, "replicates", 0, "Number of bootstrap replicates (overrides the pipeline file)")
	cmd.Flags().Int64Var(&seedOverride, "seed", 0, "Base random seed (overrides the pipeline file)")
	cmd.Flags().BoolVar(&noPlots, "no-plots", false, "Skip chart rendering")
	cmd.Flags().BoolVar(&archive, "archive", false, "Write a gzip archive of per-replicate results")
	cmd.Flags().BoolVar(&interpret, "interpret", false, "Print a plain-language interpretation of the results")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	specPath := args[0]

	// Schema check before loading so a malformed file fails with
	// field-level errors instead of a zero-valued struct.
	specErrs, datasetErrs, err := validation.ValidatePipelineFile(specPath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}
	if len(specErrs) > 0 {
		return fmt.Errorf("pipeline %s failed validation:\n  - %s", specPath, strings.Join(specErrs, "\n  - "))
	}
	if len(datasetErrs) > 0 {
		return fmt.Errorf("pipeline %s names an unusable dataset:\n  - %s", specPath, strings.Join(datasetErrs, "\n  - "))
	}

	spec, err := config.LoadPipelineSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load pipeline: %w", err)
	}

	// CLI flags override spec config
	if parallel {
		spec.Config.Concurrent = true
	}
	if workers > 0 {
		spec.Config.Workers = workers
	}
	if replicates > 0 {
		spec.Config.Replicates = replicates
	}
	if seedOverride != 0 {
		spec.Config.Seed = seedOverride
	}
	if noPlots {
		off := false
		spec.Output.Plots = &off
	}
	if archive {
		spec.Output.Archive = true
	}

	// Resolve the spec directory so the run works from any CWD
	specDir := filepath.Dir(specPath)
	if !filepath.IsAbs(specDir) {
		absSpecDir, err := filepath.Abs(specDir)
		if err == nil {
			specDir = absSpecDir
		}
	}

	cfg := config.NewRunConfig(spec,
		config.WithSpecDir(specDir),
		config.WithOutputDir(outputDir),
		config.WithVerbose(verbose),
	)

	runner, err := bootstrap.NewRunner(cfg)
	if err != nil {
		return err
	}

	// Add progress listener
	if verbose {
		runner.OnProgress(verboseProgressListener)
	} else {
		runner.OnProgress(simpleProgressListener)
	}

	ctx := context.Background()

	fmt.Printf("Running pipeline: %s\n", spec.Name)
	fmt.Printf("Dataset: %s\n", cfg.DatasetPath())
	fmt.Printf("Replicates: %d\n", spec.Config.Replicates)
	fmt.Printf("Seed: %d\n", spec.Config.Seed)
	if spec.Config.Concurrent {
		w := spec.Config.Workers
		if w <= 0 {
			w = config.DefaultWorkers
		}
		fmt.Printf("Parallel: %d workers\n", w)
	}
	fmt.Println()

	outcome, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	printSummary(outcome)
	printBandTable(outcome)

	if interpret {
		fmt.Println()
		fmt.Print(report.FormatSummaryReport(outcome))
	}

	// The --output-dir flag is taken as given; an output dir named in the
	// pipeline file resolves against the file like the dataset path does.
	outDir := cfg.OutputDir()
	if outputDir == "" && !filepath.IsAbs(outDir) {
		outDir = filepath.Join(specDir, outDir)
	}
	if err := saveOutputs(outcome, spec, outDir); err != nil {
		return err
	}

	// Return skips as a typed error so callers can tell a thin run from a
	// clean one by exit code.
	if outcome.Digest.Skipped > 0 {
		return &DegradedRunError{
			Message: fmt.Sprintf("run completed with %d of %d replicates skipped",
				outcome.Digest.Skipped, outcome.Digest.Replicates),
		}
	}

	return nil
}

// saveOutputs writes every configured artifact under dir.
func saveOutputs(outcome *bootstrap.Outcome, spec *config.PipelineSpec, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	summaryPath := filepath.Join(dir, "summary.json")
	if err := report.WriteSummaryJSON(outcome, summaryPath); err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	csvPath := filepath.Join(dir, "summary.csv")
	if err := report.WriteSummaryCSV(outcome.Table, csvPath); err != nil {
		return fmt.Errorf("failed to save band table: %w", err)
	}

	written := []string{summaryPath, csvPath}

	if spec.Output.Plots == nil || *spec.Output.Plots {
		plots, err := report.WritePlots(outcome.Table, dir)
		if err != nil {
			return fmt.Errorf("failed to render plots: %w", err)
		}
		written = append(written, plots...)
	}

	if spec.Output.Archive {
		archivePath := filepath.Join(dir, "replicates.json.gz")
		if err := report.WriteReplicateArchive(outcome, archivePath); err != nil {
			return fmt.Errorf("failed to save replicate archive: %w", err)
		}
		written = append(written, archivePath)
	}

	fmt.Printf("\nResults saved to: %s\n", dir)
	if verbose {
		for _, p := range written {
			fmt.Printf("  - %s\n", p)
		}
	}

	return nil
}
