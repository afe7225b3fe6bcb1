package stats

import (
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
	"github.com/MikeSquared-Agency/Funding/internal/weighted"
)

// Indicator is one before/after statistic. Change is the rounded relative
// change, nil when the baseline is zero.
type Indicator struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Baseline float64  `json:"baseline"`
	Reformed float64  `json:"reformed"`
	Change   *float64 `json:"change"`
}

func newIndicator(key, label string, before, after float64) Indicator {
	ind := Indicator{Key: key, Label: label, Baseline: before, Reformed: after}
	if c, err := RelativeChange(after, before, 3); err == nil {
		ind.Change = &c
	}
	return ind
}

// Bundle is the complete outcome of one reform measured against the
// baseline of its geography.
type Bundle struct {
	Geography string       `json:"geography"`
	Level     policy.Level `json:"level"`

	UBI                float64 `json:"ubi"`
	MonthlyUBI         float64 `json:"monthly_ubi"`
	Revenue            float64 `json:"revenue"`
	EligiblePopulation float64 `json:"eligible_population"`
	// Target figures restrict funding to the selected geography; they
	// equal the totals for the whole country.
	TargetEligiblePopulation float64 `json:"target_eligible_population"`
	TargetRevenue            float64 `json:"target_revenue"`

	Population             float64 `json:"population"`
	PercentBetterOff       float64 `json:"percent_better_off"`
	AverageChangePerPerson float64 `json:"average_change_per_person"`

	PovertyRate Indicator   `json:"poverty_rate"`
	PovertyGap  Indicator   `json:"poverty_gap"`
	Gini        Indicator   `json:"gini"`
	Breakdown   []Indicator `json:"breakdown"`
}

// Compare measures res over its reform's geography and compares it with
// base. The target population is every person in the geography, whether
// or not they receive the UBI.
func Compare(pop *survey.Population, base *Baseline, res *policy.Result) (*Bundle, error) {
	geo := res.Reform.Geography()
	bg, ok := base.Geography(geo)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoGeography, geo)
	}
	everyone, ok := base.Demographic(geo, Person)
	if !ok || everyone.Population == 0 {
		return nil, fmt.Errorf("%w: %s in %q", ErrEmptyGroup, Person, geo)
	}

	persons, households, err := reformedRows(pop, res, geo)
	if err != nil {
		return nil, err
	}
	g, demogs, err := measure(geo, persons, households)
	if err != nil {
		return nil, err
	}
	after := make(map[Demographic]DemographicStats, len(demogs))
	for _, d := range demogs {
		after[d.Demographic] = d
	}

	b := &Bundle{
		Geography:          geo,
		Level:              res.Reform.Level(),
		UBI:                res.UBI,
		MonthlyUBI:         res.UBI / 12,
		Revenue:            res.Revenue,
		EligiblePopulation: res.EligiblePopulation,
		Population:         everyone.Population,
		PovertyRate:        newIndicator("poverty_rate", "Poverty rate", everyone.PovertyRate, after[Person].PovertyRate),
		PovertyGap:         newIndicator("poverty_gap", "Poverty gap", bg.PovertyGap, g.PovertyGap),
		Gini:               newIndicator("gini", "Gini index", bg.Gini, g.Gini),
	}

	b.TargetEligiblePopulation = weighted.Sum(households, func(r householdRow) float64 {
		o, _ := res.Outcome(r.h.Key())
		return float64(o.Eligible)
	}, householdWeight)
	b.TargetRevenue = res.UBI * b.TargetEligiblePopulation

	winners := weighted.Sum(persons, func(r personRow) float64 {
		if r.resources > r.h.Resources {
			return 1
		}
		return 0
	}, personWeight)
	b.PercentBetterOff = Round(winners/everyone.Population*100, 1)
	b.AverageChangePerPerson = (g.TotalResources - bg.TotalResources) / everyone.Population

	for _, d := range Breakdown() {
		before, _ := base.Demographic(geo, d)
		if before.Population == 0 || after[d].Population == 0 {
			return nil, fmt.Errorf("%w: %s in %q", ErrEmptyGroup, d, geo)
		}
		b.Breakdown = append(b.Breakdown, newIndicator(string(d), d.Label(), before.PovertyRate, after[d].PovertyRate))
	}
	return b, nil
}

// reformedRows selects the target persons and households of geo in
// population order, with their post-reform resources.
func reformedRows(pop *survey.Population, res *policy.Result, geo string) ([]personRow, []householdRow, error) {
	hh := pop.Households()
	var households []householdRow
	for i := range hh {
		if !hh[i].InGeography(geo) {
			continue
		}
		o, ok := res.Outcome(hh[i].Key())
		if !ok {
			return nil, nil, fmt.Errorf("%w: unit %d year %d was not simulated",
				survey.ErrIntegrity, hh[i].Unit, hh[i].Year)
		}
		households = append(households, householdRow{h: &hh[i], resources: o.NewResources})
	}

	ps := pop.Persons()
	var persons []personRow
	for i := range ps {
		h := &hh[pop.HouseholdIndex(i)]
		if !h.InGeography(geo) {
			continue
		}
		o, _ := res.Outcome(h.Key())
		persons = append(persons, personRow{p: &ps[i], h: h, resources: o.NewResources})
	}
	return persons, households, nil
}

// IsDegenerate reports whether err is an undefined-result error rather
// than a bad request or a failure.
func IsDegenerate(err error) bool {
	for _, target := range []error{
		policy.ErrNoEligiblePopulation, weighted.ErrZeroWeight, weighted.ErrZeroTotal,
		ErrZeroBaseline, ErrEmptyGroup,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
