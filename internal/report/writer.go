// Package report renders a finished bootstrap run for people: summary files,
// plain-language interpretation, aligned tables and charts.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/swimlab/agecurve/internal/aggregate"
	"github.com/swimlab/agecurve/internal/bootstrap"
	"github.com/swimlab/agecurve/internal/replicate"
)

// WriteSummaryJSON writes the outcome document as indented JSON.
func WriteSummaryJSON(outcome *bootstrap.Outcome, path string) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// WriteSummaryCSV writes one row per aggregated grid cell with the band
// bounds, in the table's (model, sex, age) order.
func WriteSummaryCSV(table *aggregate.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	header := []string{"age", "sex", "model", "mean", "lo", "hi"}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, row := range table.Rows() {
		record := []string{
			strconv.Itoa(row.Age),
			string(row.Sex),
			row.Model,
			formatFloat(row.Mean),
			formatFloat(row.Lo),
			formatFloat(row.Hi),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// replicateArchive is the document inside replicates.json.gz: the raw
// per-replicate results, enough to redo the aggregation offline.
type replicateArchive struct {
	RunID    string                       `json:"run_id"`
	Pipeline string                       `json:"pipeline"`
	Results  []replicate.Result           `json:"results"`
	Skipped  []bootstrap.SkippedReplicate `json:"skipped,omitempty"`
}

// WriteReplicateArchive writes every replicate's full result as gzipped JSON.
func WriteReplicateArchive(outcome *bootstrap.Outcome, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	gw, err := gzip.NewWriterLevel(f, gzip.BestCompression)
	if err != nil {
		f.Close()
		return fmt.Errorf("create gzip writer: %w", err)
	}

	doc := replicateArchive{
		RunID:    outcome.RunID,
		Pipeline: outcome.Pipeline,
		Results:  outcome.Results,
		Skipped:  outcome.Skipped,
	}
	enc := json.NewEncoder(gw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		gw.Close()
		f.Close()
		return err
	}

	if err := gw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("close gzip: %w", err)
	}

	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
