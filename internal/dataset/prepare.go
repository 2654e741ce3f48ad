package dataset

import (
	"errors"
	"fmt"
)

// Age lattice and normalization anchor for the modeled population.
const (
	MinAge    = 30
	MaxAge    = 80
	AgeStep   = 5
	AnchorAge = 35
)

// ErrMissingAnchor indicates a sex present in the data has no records at the
// anchor age, so its normalization denominator cannot be computed.
var ErrMissingAnchor = errors.New("no records at anchor age")

// Point is one prepared record: filtered onto the age lattice, sex-encoded
// and normalized against the sex-specific anchor mean.
type Point struct {
	Age    int     `json:"age"`
	Sex    Sex     `json:"sex"`
	Female float64 `json:"female"` // 1 for F, 0 for M
	Ratio  float64 `json:"ratio"`  // TimeSec over the sex anchor mean
}

// Filter keeps observations on the modeled age lattice: ages that are
// multiples of AgeStep within [MinAge, MaxAge].
func Filter(obs []Observation) []Observation {
	kept := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Age%AgeStep != 0 || o.Age < MinAge || o.Age > MaxAge {
			continue
		}
		kept = append(kept, o)
	}
	return kept
}

// Anchors computes the per-sex mean time at the anchor age. Every sex present
// in the observations must have at least one anchor-age record, since that
// mean is the denominator of every Ratio for the sex.
func Anchors(obs []Observation) (map[Sex]float64, error) {
	sums := make(map[Sex]float64)
	counts := make(map[Sex]int)
	present := make(map[Sex]bool)

	for _, o := range obs {
		present[o.Sex] = true
		if o.Age == AnchorAge {
			sums[o.Sex] += o.TimeSec
			counts[o.Sex]++
		}
	}

	anchors := make(map[Sex]float64, len(present))
	for _, sex := range Sexes {
		if !present[sex] {
			continue
		}
		if counts[sex] == 0 {
			return nil, fmt.Errorf("dataset: %w for sex %s (age %d)", ErrMissingAnchor, sex, AnchorAge)
		}
		anchors[sex] = sums[sex] / float64(counts[sex])
	}
	return anchors, nil
}

// Prepare filters raw observations and derives the normalized response.
// The returned points preserve input order, so preparation is deterministic
// for a given file.
func Prepare(obs []Observation) ([]Point, map[Sex]float64, error) {
	kept := Filter(obs)
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("dataset: no observations in the modeled age range %d-%d", MinAge, MaxAge)
	}

	anchors, err := Anchors(kept)
	if err != nil {
		return nil, nil, err
	}

	points := make([]Point, len(kept))
	for i, o := range kept {
		female := 0.0
		if o.Sex == Female {
			female = 1.0
		}
		points[i] = Point{
			Age:    o.Age,
			Sex:    o.Sex,
			Female: female,
			Ratio:  o.TimeSec / anchors[o.Sex],
		}
	}
	return points, anchors, nil
}

// Columns extracts parallel age, female-indicator and ratio slices for the
// modeling layer.
func Columns(points []Point) (age, female, ratio []float64) {
	age = make([]float64, len(points))
	female = make([]float64, len(points))
	ratio = make([]float64, len(points))
	for i, p := range points {
		age[i] = float64(p.Age)
		female[i] = p.Female
		ratio[i] = p.Ratio
	}
	return age, female, ratio
}
