package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/swimlab/agecurve/internal/config"
	"github.com/swimlab/agecurve/internal/dataset"
	"github.com/swimlab/agecurve/internal/spinner"
	"github.com/swimlab/agecurve/internal/validation"
)

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <pipeline.yaml> [more-pipelines...]",
		Short: "Check pipelines and their datasets before running",
		Long: `Check that pipeline files are ready to run.

Performs the following checks per pipeline:
  1. Schema - the file matches the embedded pipeline JSON schema
  2. Models - every ensemble member builds from its hyperparameters
  3. Dataset - the CSV loads and every row survives integrity checks
  4. Anchors - each sex in the data has records at the anchor age
  5. Coverage - records per (age, sex) cell across the modeled lattice

With multiple pipeline files, checks run concurrently and a summary
table is printed at the end:
  agecurve check pipelines/*.yaml`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          runCheck,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.Flags().String("format", "text", "Output format: text | json")
	return cmd
}

// --- JSON output structs ---

type checkJSONReport struct {
	Timestamp string               `json:"timestamp"`
	Pipelines []pipelineJSONReport `json:"pipelines"`
}

type pipelineJSONReport struct {
	Name         string                 `json:"name"`
	Path         string                 `json:"path"`
	Ready        bool                   `json:"ready"`
	SchemaErrors []string               `json:"schemaErrors,omitempty"`
	ModelError   string                 `json:"modelError,omitempty"`
	DatasetError string                 `json:"datasetError,omitempty"`
	AnchorError  string                 `json:"anchorError,omitempty"`
	Rows         int                    `json:"rows"`
	LatticeRows  int                    `json:"latticeRows"`
	Coverage     map[string]map[int]int `json:"coverage,omitempty"`
}

// readinessReport collects every check outcome for one pipeline file.
type readinessReport struct {
	path        string
	name        string
	schemaErrs  []string // pipeline file violates the schema
	datasetErrs []string // dataset named by the file is unreachable
	loadErr     error    // spec fails semantic validation past the schema gate
	memberErr   error    // model registry rejects a member
	dataErr     error    // dataset load or integrity failure
	anchorErr   error    // a sex has no anchor-age records
	rows        int
	kept        int
	coverage    map[dataset.Sex]map[int]int
}

func (r *readinessReport) ready() bool {
	return len(r.schemaErrs) == 0 && len(r.datasetErrs) == 0 &&
		r.loadErr == nil && r.memberErr == nil && r.dataErr == nil && r.anchorErr == nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: expected text or json", format)
	}

	// Dataset reads can take a moment, so animate progress when stderr
	// is an interactive terminal.
	var completed atomic.Int32
	note := func() {}
	stopSpinner := func() {}
	if f, ok := cmd.ErrOrStderr().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		sp := spinner.Start(cmd.ErrOrStderr(), fmt.Sprintf("Checking %d pipeline(s)...", len(args)))
		note = func() {
			sp.Update(fmt.Sprintf("Checking pipeline(s)... %d/%d done", completed.Load(), len(args)))
		}
		stopSpinner = sp.Stop
	}
	defer stopSpinner()

	// Check pipelines concurrently but keep argument order for output.
	reports := make([]*readinessReport, len(args))
	var g errgroup.Group
	for i, path := range args {
		g.Go(func() error {
			report, err := checkReadiness(path)
			if err != nil {
				return fmt.Errorf("checking pipeline %s: %w", path, err)
			}
			reports[i] = report
			completed.Add(1)
			note()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	stopSpinner()

	w := cmd.OutOrStdout()

	if format == "json" {
		if err := outputCheckJSON(cmd, reports); err != nil {
			return err
		}
	} else {
		for i, r := range reports {
			if len(reports) > 1 {
				if i > 0 {
					fmt.Fprintln(w) //nolint:errcheck
				}
				fmt.Fprintf(w, "=== %s ===\n", r.name) //nolint:errcheck
			}
			displayReadinessReport(w, r)
		}

		if len(reports) > 1 {
			printCheckSummaryTable(w, reports)
		}
	}

	notReady := 0
	for _, r := range reports {
		if !r.ready() {
			notReady++
		}
	}
	if notReady > 0 {
		return fmt.Errorf("%d of %d pipeline(s) failed readiness checks", notReady, len(args))
	}
	return nil
}

// checkReadiness runs every check for one pipeline file. An error return
// means the file itself could not be read; everything else is recorded in
// the report.
func checkReadiness(path string) (*readinessReport, error) {
	report := &readinessReport{
		path: path,
		name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	specErrs, datasetErrs, err := validation.ValidatePipelineFile(path)
	if err != nil {
		return nil, err
	}
	report.schemaErrs = specErrs
	report.datasetErrs = datasetErrs
	if len(specErrs) > 0 {
		return report, nil
	}

	spec, err := config.LoadPipelineSpec(path)
	if err != nil {
		report.loadErr = err
		return report, nil
	}
	report.name = spec.Name

	if _, err := spec.BuildMembers(); err != nil {
		report.memberErr = err
	}

	if len(datasetErrs) > 0 {
		return report, nil
	}

	specDir := filepath.Dir(path)
	if !filepath.IsAbs(specDir) {
		if absSpecDir, err := filepath.Abs(specDir); err == nil {
			specDir = absSpecDir
		}
	}
	cfg := config.NewRunConfig(spec, config.WithSpecDir(specDir))

	obs, err := dataset.LoadObservations(cfg.DatasetPath())
	if err != nil {
		report.dataErr = err
		return report, nil
	}
	report.rows = len(obs)

	kept := dataset.Filter(obs)
	report.kept = len(kept)
	if len(kept) == 0 {
		report.dataErr = fmt.Errorf("no records in the modeled age range %d-%d", dataset.MinAge, dataset.MaxAge)
		return report, nil
	}

	report.coverage = make(map[dataset.Sex]map[int]int, len(dataset.Sexes))
	for _, sex := range dataset.Sexes {
		report.coverage[sex] = make(map[int]int)
	}
	for _, o := range kept {
		report.coverage[o.Sex][o.Age]++
	}

	if _, err := dataset.Anchors(kept); err != nil {
		report.anchorErr = err
	}

	return report, nil
}

func displayReadinessReport(w io.Writer, r *readinessReport) {
	fmt.Fprintf(w, "Pipeline: %s (%s)\n", r.name, r.path) //nolint:errcheck

	if len(r.schemaErrs) > 0 {
		fmt.Fprintf(w, "  Schema:   ❌ %d error(s)\n", len(r.schemaErrs)) //nolint:errcheck
		for _, e := range r.schemaErrs {
			fmt.Fprintf(w, "      - %s\n", e) //nolint:errcheck
		}
		return
	}
	fmt.Fprintf(w, "  Schema:   ✅ valid\n") //nolint:errcheck

	if r.loadErr != nil {
		fmt.Fprintf(w, "  Config:   ❌ %v\n", r.loadErr) //nolint:errcheck
		return
	}

	if r.memberErr != nil {
		fmt.Fprintf(w, "  Models:   ❌ %v\n", r.memberErr) //nolint:errcheck
	} else {
		fmt.Fprintf(w, "  Models:   ✅ all members build\n") //nolint:errcheck
	}

	switch {
	case len(r.datasetErrs) > 0:
		fmt.Fprintf(w, "  Dataset:  ❌ %s\n", strings.Join(r.datasetErrs, "; ")) //nolint:errcheck
		return
	case r.dataErr != nil:
		fmt.Fprintf(w, "  Dataset:  ❌ %v\n", r.dataErr) //nolint:errcheck
		return
	default:
		fmt.Fprintf(w, "  Dataset:  ✅ %d rows, %d on the age lattice\n", r.rows, r.kept) //nolint:errcheck
	}

	if r.anchorErr != nil {
		fmt.Fprintf(w, "  Anchors:  ❌ %v\n", r.anchorErr) //nolint:errcheck
	} else {
		fmt.Fprintf(w, "  Anchors:  ✅ anchor age %d covered\n", dataset.AnchorAge) //nolint:errcheck
	}

	displayCoverageTable(w, r)

	if r.ready() {
		fmt.Fprintf(w, "\n  Ready to run: agecurve run %s\n", r.path) //nolint:errcheck
	}
}

// displayCoverageTable prints records per (age, sex) cell. Empty cells
// render as "-" so gaps stand out.
func displayCoverageTable(w io.Writer, r *readinessReport) {
	ages := latticeAges()

	fmt.Fprintf(w, "\n  Coverage (records per age):\n") //nolint:errcheck

	header := "    sex"
	for _, age := range ages {
		header += fmt.Sprintf("  %4d", age)
	}
	fmt.Fprintln(w, header) //nolint:errcheck

	for _, sex := range dataset.Sexes {
		line := fmt.Sprintf("    %-3s", string(sex))
		for _, age := range ages {
			if n := r.coverage[sex][age]; n > 0 {
				line += fmt.Sprintf("  %4d", n)
			} else {
				line += fmt.Sprintf("  %4s", "-")
			}
		}
		fmt.Fprintln(w, line) //nolint:errcheck
	}
}

// latticeAges lists the modeled age lattice.
func latticeAges() []int {
	var ages []int
	for age := dataset.MinAge; age <= dataset.MaxAge; age += dataset.AgeStep {
		ages = append(ages, age)
	}
	return ages
}

func printCheckSummaryTable(w io.Writer, reports []*readinessReport) {
	const maxNameWidth = 25
	const minNameWidth = 10

	// Compute dynamic column width from the longest pipeline name.
	nameWidth := len("Pipeline")
	for _, r := range reports {
		n := r.name
		if n == "" {
			n = "unnamed"
		}
		if runeLen := utf8.RuneCountInString(n); runeLen > nameWidth {
			nameWidth = runeLen
		}
	}
	if nameWidth > maxNameWidth {
		nameWidth = maxNameWidth
	}
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}

	// Fixed column widths (display columns) for emoji-safe alignment.
	const colSchema = 7
	const colModels = 7
	const colDataset = 8
	const colAnchors = 8
	totalWidth := nameWidth + colSchema + colModels + colDataset + colAnchors + len("Ready") + 10 // 10 = 5 gaps × 2 spaces

	fmt.Fprintf(w, "\n")                                      //nolint:errcheck
	fmt.Fprintf(w, "%s\n", strings.Repeat("═", totalWidth))   //nolint:errcheck
	fmt.Fprintf(w, " CHECK SUMMARY\n")                        //nolint:errcheck
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("═", totalWidth)) //nolint:errcheck

	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", //nolint:errcheck
		checkPadRight("Pipeline", nameWidth),
		checkPadRight("Schema", colSchema),
		checkPadRight("Models", colModels),
		checkPadRight("Dataset", colDataset),
		checkPadRight("Anchors", colAnchors),
		"Ready")
	fmt.Fprintf(w, "%s\n", strings.Repeat("─", totalWidth)) //nolint:errcheck

	for _, r := range reports {
		name := r.name
		if name == "" {
			name = "unnamed"
		}
		name = checkTruncateName(name, nameWidth)

		schemaStatus := "✅"
		if len(r.schemaErrs) > 0 {
			schemaStatus = "❌"
		}
		modelStatus := "✅"
		if r.loadErr != nil || r.memberErr != nil {
			modelStatus = "❌"
		}
		dataStatus := "✅"
		if len(r.datasetErrs) > 0 || r.dataErr != nil {
			dataStatus = "❌"
		}
		anchorStatus := "✅"
		if r.anchorErr != nil {
			anchorStatus = "❌"
		}
		readyStatus := "✅"
		if !r.ready() {
			readyStatus = "❌"
		}

		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n", //nolint:errcheck
			checkPadRight(name, nameWidth),
			checkPadRight(schemaStatus, colSchema),
			checkPadRight(modelStatus, colModels),
			checkPadRight(dataStatus, colDataset),
			checkPadRight(anchorStatus, colAnchors),
			readyStatus)
	}
	fmt.Fprintln(w) //nolint:errcheck
}

func outputCheckJSON(cmd *cobra.Command, reports []*readinessReport) error {
	doc := checkJSONReport{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	for _, r := range reports {
		p := pipelineJSONReport{
			Name:         r.name,
			Path:         r.path,
			Ready:        r.ready(),
			SchemaErrors: r.schemaErrs,
			Rows:         r.rows,
			LatticeRows:  r.kept,
		}
		switch {
		case r.loadErr != nil:
			p.ModelError = r.loadErr.Error()
		case r.memberErr != nil:
			p.ModelError = r.memberErr.Error()
		}
		switch {
		case len(r.datasetErrs) > 0:
			p.DatasetError = strings.Join(r.datasetErrs, "; ")
		case r.dataErr != nil:
			p.DatasetError = r.dataErr.Error()
		}
		if r.anchorErr != nil {
			p.AnchorError = r.anchorErr.Error()
		}
		if len(r.coverage) > 0 {
			p.Coverage = make(map[string]map[int]int, len(r.coverage))
			for sex, counts := range r.coverage {
				p.Coverage[string(sex)] = counts
			}
		}
		doc.Pipelines = append(doc.Pipelines, p)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal check report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data)) //nolint:errcheck
	return nil
}

// checkTruncateName shortens a name to maxLen runes, replacing the last rune
// with "…" if needed.
func checkTruncateName(name string, maxLen int) string {
	runes := []rune(name)
	if len(runes) <= maxLen {
		return name
	}
	return string(runes[:maxLen-1]) + "…"
}

// checkPadRight pads s with spaces so its terminal display width reaches
// width. Emoji are double-width, so byte or rune counts would misalign.
func checkPadRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
