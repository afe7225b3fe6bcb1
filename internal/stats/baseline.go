package stats

import (
	"errors"
	"fmt"
	"slices"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// ErrIncompleteBaseline is returned when snapshot rows do not cover every
// demographic of every geography.
var ErrIncompleteBaseline = errors.New("stats: incomplete baseline")

// ErrNoGeography is returned when a geography has no baseline.
var ErrNoGeography = errors.New("stats: geography not in baseline")

// GeographyStats are the pre-reform aggregates of one geography.
type GeographyStats struct {
	Geography      string  `json:"geography"`
	PovertyGap     float64 `json:"poverty_gap"`
	Gini           float64 `json:"gini"`
	TotalResources float64 `json:"total_resources"`
}

// DemographicStats are the pre-reform poverty rate and weighted
// population of one demographic in one geography.
type DemographicStats struct {
	Geography   string      `json:"geography"`
	Demographic Demographic `json:"demog"`
	PovertyRate float64     `json:"pov_rate"`
	Population  float64     `json:"pop"`
}

// Baseline holds the pre-reform statistics of every geography. It is
// immutable once built.
type Baseline struct {
	geographies []string
	geo         map[string]GeographyStats
	demog       map[string]map[Demographic]DemographicStats
}

// NewBaseline measures every geography of pop: the whole country and each
// state.
func NewBaseline(pop *survey.Population) (*Baseline, error) {
	b := &Baseline{
		geo:   make(map[string]GeographyStats),
		demog: make(map[string]map[Demographic]DemographicStats),
	}
	persons, households := baselineRows(pop)
	for _, geo := range pop.Geographies() {
		g, demogs, err := measure(geo, persons[geo], households[geo])
		if err != nil {
			return nil, fmt.Errorf("baseline: %w", err)
		}
		b.add(g, demogs)
	}
	return b, nil
}

// baselineRows buckets the population by geography, keeping population
// order within each bucket.
func baselineRows(pop *survey.Population) (map[string][]personRow, map[string][]householdRow) {
	hh := pop.Households()
	persons := make(map[string][]personRow)
	households := make(map[string][]householdRow)
	for i := range hh {
		r := householdRow{h: &hh[i], resources: hh[i].Resources}
		households[survey.NationalGeography] = append(households[survey.NationalGeography], r)
		households[hh[i].State] = append(households[hh[i].State], r)
	}
	ps := pop.Persons()
	for i := range ps {
		h := &hh[pop.HouseholdIndex(i)]
		r := personRow{p: &ps[i], h: h, resources: h.Resources}
		persons[survey.NationalGeography] = append(persons[survey.NationalGeography], r)
		persons[h.State] = append(persons[h.State], r)
	}
	return persons, households
}

// BaselineFromRows rebuilds a Baseline from snapshot rows. Every geography
// must carry a row for every demographic.
func BaselineFromRows(geo []GeographyStats, demog []DemographicStats) (*Baseline, error) {
	b := &Baseline{
		geo:   make(map[string]GeographyStats),
		demog: make(map[string]map[Demographic]DemographicStats),
	}
	byGeo := make(map[string][]DemographicStats)
	for _, d := range demog {
		if _, err := ParseDemographic(string(d.Demographic)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompleteBaseline, err)
		}
		byGeo[d.Geography] = append(byGeo[d.Geography], d)
	}
	for _, g := range geo {
		if _, dup := b.geo[g.Geography]; dup {
			return nil, fmt.Errorf("%w: duplicate geography %q", ErrIncompleteBaseline, g.Geography)
		}
		b.add(g, byGeo[g.Geography])
		if len(b.demog[g.Geography]) != len(demographics) {
			return nil, fmt.Errorf("%w: %q has %d of %d demographics",
				ErrIncompleteBaseline, g.Geography, len(b.demog[g.Geography]), len(demographics))
		}
		delete(byGeo, g.Geography)
	}
	for orphan := range byGeo {
		return nil, fmt.Errorf("%w: demographic rows for unknown geography %q", ErrIncompleteBaseline, orphan)
	}
	return b, nil
}

func (b *Baseline) add(g GeographyStats, demogs []DemographicStats) {
	b.geographies = append(b.geographies, g.Geography)
	b.geo[g.Geography] = g
	m := make(map[Demographic]DemographicStats, len(demogs))
	for _, d := range demogs {
		m[d.Demographic] = d
	}
	b.demog[g.Geography] = m
}

// Geographies returns the geographies in the order they were added.
func (b *Baseline) Geographies() []string { return slices.Clone(b.geographies) }

// Geography returns the aggregates for geo.
func (b *Baseline) Geography(geo string) (GeographyStats, bool) {
	g, ok := b.geo[geo]
	return g, ok
}

// Demographic returns the statistics of d in geo.
func (b *Baseline) Demographic(geo string, d Demographic) (DemographicStats, bool) {
	s, ok := b.demog[geo][d]
	return s, ok
}

// Rows flattens the baseline into snapshot rows, geographies in order and
// demographics in Demographics order.
func (b *Baseline) Rows() ([]GeographyStats, []DemographicStats) {
	geo := make([]GeographyStats, 0, len(b.geographies))
	var demog []DemographicStats
	for _, g := range b.geographies {
		geo = append(geo, b.geo[g])
		for _, d := range Demographics() {
			demog = append(demog, b.demog[g][d])
		}
	}
	return geo, demog
}
