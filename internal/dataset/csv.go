package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Sex is the athlete sex code used in the source data.
type Sex string

const (
	Male   Sex = "M"
	Female Sex = "F"
)

// Sexes lists the codes in presentation order.
var Sexes = []Sex{Male, Female}

// ParseSex normalizes a raw sex code from the data file.
func ParseSex(raw string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M":
		return Male, nil
	case "F":
		return Female, nil
	}
	return "", fmt.Errorf("unrecognized sex code %q", raw)
}

// Observation is one athlete-event record from the source file.
type Observation struct {
	Age     int     `json:"age"`
	Sex     Sex     `json:"sex"`
	TimeSec float64 `json:"time_sec"`
}

// Required header columns. Extra columns in the file are ignored.
const (
	colAge  = "age"
	colSex  = "sex"
	colTime = "time_sec"
)

// IntegrityError reports source data that cannot be used for modeling: a
// malformed row, an unusable value, or a structural problem with the file.
// It is fatal — the pipeline never models around bad input.
type IntegrityError struct {
	Row    int // 1-based file row including the header, 0 when not row-specific
	Field  string
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("data integrity: row %d, field %s: %s", e.Row, e.Field, e.Reason)
	}
	return fmt.Sprintf("data integrity: %s", e.Reason)
}

// LoadObservations reads athlete records from a CSV file. The first row must
// be a header naming the age, sex and time_sec columns in any order. Any row
// that fails to parse aborts the load so malformed data never reaches the
// models.
func LoadObservations(path string) ([]Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: parse %s: %w", path, err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("csv: %s is empty (no header row)", path)
	}

	idx := make(map[string]int, len(records[0]))
	for j, h := range records[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = j
	}
	for _, col := range []string{colAge, colSex, colTime} {
		if _, ok := idx[col]; !ok {
			return nil, &IntegrityError{Field: col, Reason: fmt.Sprintf("missing required column in %s", path)}
		}
	}

	obs := make([]Observation, 0, len(records)-1)
	for i, record := range records[1:] {
		row := i + 2 // account for the header

		age, err := strconv.Atoi(strings.TrimSpace(record[idx[colAge]]))
		if err != nil {
			return nil, &IntegrityError{Row: row, Field: colAge, Reason: fmt.Sprintf("not an integer: %q", record[idx[colAge]])}
		}

		sex, err := ParseSex(record[idx[colSex]])
		if err != nil {
			return nil, &IntegrityError{Row: row, Field: colSex, Reason: err.Error()}
		}

		timeSec, err := strconv.ParseFloat(strings.TrimSpace(record[idx[colTime]]), 64)
		if err != nil {
			return nil, &IntegrityError{Row: row, Field: colTime, Reason: fmt.Sprintf("not a number: %q", record[idx[colTime]])}
		}
		if math.IsNaN(timeSec) || math.IsInf(timeSec, 0) || timeSec <= 0 {
			return nil, &IntegrityError{Row: row, Field: colTime, Reason: fmt.Sprintf("time must be positive and finite, got %v", timeSec)}
		}

		obs = append(obs, Observation{Age: age, Sex: sex, TimeSec: timeSec})
	}

	return obs, nil
}
