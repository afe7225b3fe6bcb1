package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
	"github.com/MikeSquared-Agency/Funding/internal/weighted"
)

// Degenerate results.
var (
	// ErrZeroBaseline is returned by RelativeChange when the baseline is 0.
	ErrZeroBaseline = errors.New("stats: relative change against a zero baseline")
	// ErrEmptyGroup is returned when a reported group has no weighted population.
	ErrEmptyGroup = errors.New("stats: demographic group is empty")
)

// personRow is one person with their household's resources, before or
// after reform.
type personRow struct {
	p         *survey.Person
	h         *survey.Household
	resources float64
}

type householdRow struct {
	h         *survey.Household
	resources float64
}

func personWeight(r personRow) float64 { return r.p.Weight }

func perPerson(r personRow) float64 { return r.resources / float64(r.h.NumPer) }

func personPoor(r personRow) float64 {
	if r.resources < r.h.Threshold {
		return 1
	}
	return 0
}

func householdWeight(r householdRow) float64 { return r.h.Weight }

func householdResources(r householdRow) float64 { return r.resources }

func shortfall(r householdRow) float64 {
	return math.Max(r.h.Threshold-r.resources, 0)
}

// measure computes the geography and per-demographic statistics of one
// target population. Baselines and reformed populations go through this
// same path, so an unchanged population measures identically.
func measure(geo string, persons []personRow, households []householdRow) (GeographyStats, []DemographicStats, error) {
	g := GeographyStats{
		Geography:      geo,
		PovertyGap:     weighted.Sum(households, shortfall, householdWeight),
		TotalResources: weighted.Sum(households, householdResources, householdWeight),
	}
	gini, err := weighted.Gini(persons, perPerson, personWeight)
	if err != nil {
		return GeographyStats{}, nil, fmt.Errorf("gini for %s: %w", geo, err)
	}
	g.Gini = gini

	demogs := make([]DemographicStats, 0, len(demographics))
	members := make([]personRow, 0, len(persons))
	for _, d := range Demographics() {
		members = members[:0]
		for _, r := range persons {
			if d.Member(r.p) {
				members = append(members, r)
			}
		}
		ds := DemographicStats{Geography: geo, Demographic: d}
		rate, err := weighted.Mean(members, personPoor, personWeight)
		switch {
		case errors.Is(err, weighted.ErrZeroWeight):
			// Empty group: rate stays 0 with a zero population.
		case err != nil:
			return GeographyStats{}, nil, err
		default:
			ds.PovertyRate = rate
			ds.Population = weighted.Sum(members, one, personWeight)
		}
		demogs = append(demogs, ds)
	}
	return g, demogs, nil
}

func one(personRow) float64 { return 1 }

// RelativeChange returns (new − old) / old rounded to digits decimals.
func RelativeChange(new, old float64, digits int) (float64, error) {
	if old == 0 {
		return 0, ErrZeroBaseline
	}
	return Round((new-old)/old, digits), nil
}

// Round rounds x to digits decimals, halves to even.
func Round(x float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.RoundToEven(x*p) / p
}
