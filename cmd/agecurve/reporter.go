package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/swimlab/agecurve/internal/bootstrap"
	"github.com/swimlab/agecurve/internal/config"
	"github.com/swimlab/agecurve/internal/report"
)

// formatDuration formats a duration in a consistent, human-readable way.
// This ensures stable output regardless of Go version changes.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

func verboseProgressListener(event bootstrap.ProgressEvent) {
	switch event.EventType {
	case bootstrap.EventRunStart:
		fmt.Printf("Starting bootstrap with %d replicate(s)...\n\n", event.Total)
	case bootstrap.EventReplicateStart:
		fmt.Printf("[%d/%d] Running replicate (seed %d)\n", event.Replicate, event.Total, event.Seed)
	case bootstrap.EventReplicateComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("  replicate %d done (%v)\n", event.Replicate, duration)
	case bootstrap.EventReplicateSkipped:
		fmt.Printf("  replicate %d skipped: %v\n", event.Replicate, event.Details["reason"])
	case bootstrap.EventRunComplete:
		duration := time.Duration(event.DurationMs) * time.Millisecond
		fmt.Printf("\nBootstrap completed in %v\n\n", duration)
	}
}

func simpleProgressListener(event bootstrap.ProgressEvent) {
	switch event.EventType {
	case bootstrap.EventReplicateComplete:
		fmt.Printf("✓ [%d/%d] seed %d\n", event.Replicate, event.Total, event.Seed)
	case bootstrap.EventReplicateSkipped:
		fmt.Printf("✗ [%d/%d] seed %d skipped\n", event.Replicate, event.Total, event.Seed)
	}
}

func printSummary(outcome *bootstrap.Outcome) {
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println(" BOOTSTRAP RESULTS")
	fmt.Println("=" + strings.Repeat("=", 50))
	fmt.Println()

	digest := outcome.Digest

	fmt.Printf("Pipeline:       %s\n", outcome.Pipeline)
	fmt.Printf("Run ID:         %s\n", outcome.RunID)
	fmt.Printf("Replicates:     %d\n", digest.Replicates)
	fmt.Printf("Completed:      %d\n", digest.Completed)
	fmt.Printf("Skipped:        %d\n", digest.Skipped)
	fmt.Printf("Dataset Rows:   %d\n", digest.Rows)
	fmt.Printf("Duration:       %s\n", formatDuration(time.Duration(digest.DurationMs)*time.Millisecond))
	fmt.Println()

	// Per-model breakdown
	fmt.Println("-" + strings.Repeat("-", 50))
	fmt.Println(" PER-MODEL BREAKDOWN")
	fmt.Println("-" + strings.Repeat("-", 50))
	names := make([]string, 0, len(digest.MeanRMSE))
	for name := range digest.MeanRMSE {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		line := fmt.Sprintf("  %-10s rmse=%.4f", name, digest.MeanRMSE[name])
		if cv, ok := digest.MeanCVRMSE[name]; ok {
			line += fmt.Sprintf("  cv_rmse=%.4f", cv)
		}
		if w, ok := digest.MeanWeights[name]; ok {
			line += fmt.Sprintf("  weight=%.3f", w)
		}
		fmt.Println(line)
	}
	fmt.Println()

	// Show skipped replicates
	if digest.Skipped > 0 {
		fmt.Println("Skipped Replicates:")
		for _, s := range outcome.Skipped {
			fmt.Printf("  - replicate %d (seed %d): %s\n", s.Index, s.Seed, s.Reason)
		}
		fmt.Println()
	}
}

// printBandTable renders the aggregate bands at a handful of ages so the
// console table stays narrow even for wide grids.
func printBandTable(outcome *bootstrap.Outcome) {
	if outcome.Table == nil || outcome.Table.Len() == 0 {
		return
	}
	fmt.Print(report.FormatBandTable(outcome.Table, summaryAges(outcome.Setup.Grid)))
}

// summaryAges picks the decade marks inside the grid, falling back to the
// grid bounds when no decade mark lands inside.
func summaryAges(grid config.GridConfig) []int {
	start := grid.AgeMin
	if rem := start % 10; rem != 0 {
		start += 10 - rem
	}

	var ages []int
	for age := start; age <= grid.AgeMax; age += 10 {
		ages = append(ages, age)
	}
	if len(ages) == 0 {
		ages = append(ages, grid.AgeMin)
		if grid.AgeMax != grid.AgeMin {
			ages = append(ages, grid.AgeMax)
		}
	}
	return ages
}
