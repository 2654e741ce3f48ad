package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/swimlab/agecurve/internal/aggregate"
	"github.com/swimlab/agecurve/internal/bootstrap"
	"github.com/swimlab/agecurve/internal/ensemble"
)

// InterpretBestMember names the member with the lowest mean cross-validation
// error.
func InterpretBestMember(cvRMSE map[string]float64) string {
	if len(cvRMSE) == 0 {
		return "No cross-validation results."
	}

	names := make([]string, 0, len(cvRMSE))
	for name := range cvRMSE {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	for _, name := range names[1:] {
		if cvRMSE[name] < cvRMSE[best] {
			best = name
		}
	}
	return fmt.Sprintf("%s fits best under cross-validation (mean CV-RMSE %.3f, standardized)", best, cvRMSE[best])
}

// InterpretWeights describes how the stack distributed its blend weight.
func InterpretWeights(weights map[string]float64) string {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return "The stack assigned no weight to any member."
	}

	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Strings(names)

	top := names[0]
	for _, name := range names[1:] {
		if weights[name] > weights[top] {
			top = name
		}
	}

	share := weights[top] / total * 100
	switch {
	case share >= 75:
		return fmt.Sprintf("The stack leans almost entirely on %s (%.0f%% of the blend weight)", top, share)
	case share >= 50:
		return fmt.Sprintf("The stack favors %s (%.0f%% of the blend weight)", top, share)
	default:
		return "The blend spreads weight across members with no dominant model"
	}
}

// InterpretBandWidth labels an average uncertainty-band width on the ratio
// scale, where 0.05 means the band spans 5% of the age-35 reference pace.
func InterpretBandWidth(avgWidth float64) string {
	pct := avgWidth * 100
	switch {
	case pct >= 15:
		return fmt.Sprintf("Wide bands (avg %.1f%% of the reference pace); more replicates or data would tighten them", pct)
	case pct >= 5:
		return fmt.Sprintf("Moderate bands (avg %.1f%% of the reference pace)", pct)
	case pct >= 2:
		return fmt.Sprintf("Narrow bands (avg %.1f%% of the reference pace)", pct)
	default:
		return fmt.Sprintf("Very tight bands (avg %.1f%% of the reference pace)", pct)
	}
}

// InterpretSkips explains how many replicates survived to the aggregation.
func InterpretSkips(completed, skipped int) string {
	if skipped == 0 {
		return fmt.Sprintf("All %d replicates completed.", completed)
	}
	total := completed + skipped
	if skipped*2 >= total {
		return fmt.Sprintf("Results are thin: %d of %d replicates were skipped. Rerun with more replicates or investigate the skip reasons.", skipped, total)
	}
	return fmt.Sprintf("%d of %d replicates were skipped; the bands rest on the remaining %d.", skipped, total, completed)
}

// StackBandWidth returns the mean width of the stacked model's uncertainty
// band across every grid cell, 0 when the table has no stack rows.
func StackBandWidth(table *aggregate.Table) float64 {
	var sum float64
	var n int
	for _, row := range table.Rows() {
		if row.Model != ensemble.VariantStack {
			continue
		}
		sum += row.Hi - row.Lo
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// FormatSummaryReport produces a full plain-language report from an Outcome.
func FormatSummaryReport(outcome *bootstrap.Outcome) string {
	var b strings.Builder

	d := outcome.Digest
	duration := time.Duration(d.DurationMs) * time.Millisecond

	b.WriteString("=== Interpretation ===\n\n")

	b.WriteString(fmt.Sprintf("Members:     %s\n", InterpretBestMember(d.MeanCVRMSE)))
	b.WriteString(fmt.Sprintf("Blend:       %s\n", InterpretWeights(d.MeanWeights)))
	if outcome.Table != nil {
		b.WriteString(fmt.Sprintf("Uncertainty: %s\n", InterpretBandWidth(StackBandWidth(outcome.Table))))
	}
	b.WriteString(fmt.Sprintf("Replicates:  %s\n", InterpretSkips(d.Completed, d.Skipped)))
	b.WriteString(fmt.Sprintf("Duration:    %v\n", duration))

	if len(outcome.Skipped) > 0 {
		b.WriteString("\nSkipped replicates:\n")
		for _, s := range outcome.Skipped {
			b.WriteString(fmt.Sprintf("  - replicate %d (seed %d): %s\n", s.Index, s.Seed, s.Reason))
		}
	}

	return b.String()
}
