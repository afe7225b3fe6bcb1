package survey

import (
	"fmt"
	"slices"
)

// Population is the read-only baseline: households, their persons, and the
// index joining them. Nothing in this package mutates a Population after
// NewPopulation returns, so one value can serve concurrent simulations.
type Population struct {
	households []Household
	persons    []Person
	byKey      map[HouseholdKey]int
	// personHousehold[i] is the index in households of persons[i]'s unit.
	personHousehold []int
	states          []string
}

// NewPopulation indexes households and persons. Every person must belong
// to a listed household whose numper matches the person's, and every
// weight must be positive and finite.
func NewPopulation(households []Household, persons []Person) (*Population, error) {
	p := &Population{
		households:      households,
		persons:         persons,
		byKey:           make(map[HouseholdKey]int, len(households)),
		personHousehold: make([]int, len(persons)),
	}

	seen := make(map[string]bool)
	for i := range households {
		h := &households[i]
		if _, dup := p.byKey[h.Key()]; dup {
			return nil, fmt.Errorf("%w: duplicate unit %d year %d", ErrIntegrity, h.Unit, h.Year)
		}
		if h.NumPer <= 0 {
			return nil, fmt.Errorf("%w: unit %d year %d has numper %d", ErrIntegrity, h.Unit, h.Year, h.NumPer)
		}
		if !validWeight(h.Weight) {
			return nil, fmt.Errorf("%w: %w: unit %d year %d spmwt %v",
				ErrIntegrity, ErrInvalidWeight, h.Unit, h.Year, h.Weight)
		}
		p.byKey[h.Key()] = i
		if !seen[h.State] {
			seen[h.State] = true
			p.states = append(p.states, h.State)
		}
	}
	slices.Sort(p.states)

	for i := range persons {
		per := &persons[i]
		if err := checkPersonWeights(per); err != nil {
			return nil, err
		}
		hi, ok := p.byKey[per.Key()]
		if !ok {
			return nil, fmt.Errorf("%w: person %s has no household (unit %d year %d)",
				ErrIntegrity, per.ID, per.Unit, per.Year)
		}
		h := &households[hi]
		if per.NumPer != h.NumPer || per.State != h.State {
			return nil, fmt.Errorf("%w: person %s disagrees with unit %d year %d",
				ErrIntegrity, per.ID, h.Unit, h.Year)
		}
		p.personHousehold[i] = hi
	}
	return p, nil
}

// Households returns the household rows. Callers must not modify them.
func (p *Population) Households() []Household { return p.households }

// Persons returns the person rows. Callers must not modify them.
func (p *Population) Persons() []Person { return p.persons }

// HouseholdIndex returns the index into Households of persons[i]'s unit.
func (p *Population) HouseholdIndex(i int) int { return p.personHousehold[i] }

// Lookup returns the index of the household with key k.
func (p *Population) Lookup(k HouseholdKey) (int, bool) {
	i, ok := p.byKey[k]
	return i, ok
}

// States returns the sorted distinct states present.
func (p *Population) States() []string { return slices.Clone(p.states) }

// Geographies returns NationalGeography followed by every state.
func (p *Population) Geographies() []string {
	return append([]string{NationalGeography}, p.states...)
}

// HasGeography reports whether geo is NationalGeography or a state present
// in the population.
func (p *Population) HasGeography(geo string) bool {
	if geo == NationalGeography {
		return true
	}
	_, found := slices.BinarySearch(p.states, geo)
	return found
}
