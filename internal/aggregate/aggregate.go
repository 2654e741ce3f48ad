package aggregate

import (
	"fmt"
	"sort"

	"github.com/swimlab/agecurve/internal/dataset"
	"github.com/swimlab/agecurve/internal/replicate"
	"github.com/swimlab/agecurve/internal/stats"
)

// Key identifies one summarized grid cell.
type Key struct {
	Age   int
	Sex   dataset.Sex
	Model string
}

// Row is one summary record in long form: the mean prediction and its
// percentile band across replicates.
type Row struct {
	Age   int         `json:"age"`
	Sex   dataset.Sex `json:"sex"`
	Model string      `json:"model"`
	Mean  float64     `json:"mean"`
	Lo    float64     `json:"lo"`
	Hi    float64     `json:"hi"`
}

// MismatchError reports replicate grids that cannot be merged. It indicates
// a logic bug upstream, so callers should treat it as fatal.
type MismatchError struct {
	Reason string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("aggregation: %s", e.Reason)
}

// Table is the aggregated summary across replicates.
type Table struct {
	LoPct float64
	HiPct float64

	rows  []Row
	index map[Key]int
}

// Build groups every replicate's grid by (age, sex, model) and computes the
// mean and [loPct, hiPct] percentile interval across replicates. Every
// replicate must cover the same cells exactly once; the order of results
// never affects the output.
func Build(results []replicate.Result, loPct, hiPct float64) (*Table, error) {
	if len(results) == 0 {
		return nil, &MismatchError{Reason: "no replicate results to aggregate"}
	}
	if loPct < 0 || hiPct > 100 || loPct >= hiPct {
		return nil, fmt.Errorf("aggregation: percentile bounds [%g, %g] are invalid", loPct, hiPct)
	}

	values := make(map[Key][]float64)
	for _, res := range results {
		seen := make(map[Key]bool, len(res.Grid))
		for _, g := range res.Grid {
			key := Key{Age: g.Age, Sex: g.Sex, Model: g.Model}
			if seen[key] {
				return nil, &MismatchError{Reason: fmt.Sprintf("replicate %d predicts cell %+v twice", res.Index, key)}
			}
			seen[key] = true
			values[key] = append(values[key], g.Ratio)
		}
	}

	for key, vs := range values {
		if len(vs) != len(results) {
			return nil, &MismatchError{
				Reason: fmt.Sprintf("cell %+v covered by %d of %d replicates", key, len(vs), len(results)),
			}
		}
	}

	t := &Table{
		LoPct: loPct,
		HiPct: hiPct,
		rows:  make([]Row, 0, len(values)),
		index: make(map[Key]int, len(values)),
	}
	for key, vs := range values {
		iv := stats.PercentileInterval(vs, loPct, hiPct)
		t.rows = append(t.rows, Row{
			Age:   key.Age,
			Sex:   key.Sex,
			Model: key.Model,
			Mean:  iv.Mean,
			Lo:    iv.Lo,
			Hi:    iv.Hi,
		})
	}

	sort.Slice(t.rows, func(i, j int) bool {
		a, b := t.rows[i], t.rows[j]
		if a.Model != b.Model {
			return a.Model < b.Model
		}
		if a.Sex != b.Sex {
			return a.Sex < b.Sex
		}
		return a.Age < b.Age
	})
	for i, row := range t.rows {
		t.index[Key{Age: row.Age, Sex: row.Sex, Model: row.Model}] = i
	}
	return t, nil
}

// Rows returns the summary in a stable order: by model, then sex, then age.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

// Lookup returns the summary row for one cell.
func (t *Table) Lookup(age int, sex dataset.Sex, model string) (Row, bool) {
	i, ok := t.index[Key{Age: age, Sex: sex, Model: model}]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// Models returns the distinct model variants in row order.
func (t *Table) Models() []string {
	var out []string
	seen := make(map[string]bool)
	for _, row := range t.rows {
		if !seen[row.Model] {
			seen[row.Model] = true
			out = append(out, row.Model)
		}
	}
	return out
}

// Len returns the number of summary rows.
func (t *Table) Len() int { return len(t.rows) }
