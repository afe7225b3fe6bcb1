package survey

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrInconsistentHousehold is returned by Aggregate when members of the
	// same household disagree on a household-level value such as the state.
	ErrInconsistentHousehold = errors.New("survey: inconsistent household")
	// ErrIntegrity is returned by Verify when a household row disagrees
	// with its persons.
	ErrIntegrity = errors.New("survey: household does not match its persons")
	// ErrInvalidWeight accompanies ErrIntegrity for a weight that is not a
	// positive finite number.
	ErrInvalidWeight = errors.New("survey: weight must be positive and finite")
)

func validWeight(w float64) bool { return w > 0 && !math.IsInf(w, 1) }

func checkPersonWeights(p *Person) error {
	if !validWeight(p.Weight) {
		return fmt.Errorf("%w: %w: person %s asecwt %v", ErrIntegrity, ErrInvalidWeight, p.ID, p.Weight)
	}
	if !validWeight(p.HouseholdWeight) {
		return fmt.Errorf("%w: %w: person %s spmwt %v", ErrIntegrity, ErrInvalidWeight, p.ID, p.HouseholdWeight)
	}
	return nil
}

// Aggregate collapses person rows into one row per (spmfamunit, year),
// summing the tax, benefit and demographic-count fields. Payroll, income
// and state taxes are negated at the household level. Households are
// returned ordered by year, then unit.
func Aggregate(persons []Person) ([]Household, error) {
	index := make(map[HouseholdKey]int)
	var out []Household

	for i := range persons {
		p := &persons[i]
		if err := checkPersonWeights(p); err != nil {
			return nil, err
		}
		k := p.Key()
		pos, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, Household{
				Unit:          p.Unit,
				Year:          p.Year,
				State:         p.State,
				Threshold:     p.Threshold,
				Resources:     p.Resources,
				Weight:        p.HouseholdWeight,
				SNAP:          p.SNAP,
				EnergySubsidy: p.EnergySubsidy,
			})
			pos = len(out) - 1
		}
		h := &out[pos]
		if err := checkMember(h, p); err != nil {
			return nil, err
		}

		h.NumPer++
		h.AGI += p.AGI
		h.PayrollTax -= p.PayrollTax
		h.IncomeTax -= p.IncomeTax
		h.StateTax -= p.StateTax
		h.CTC += p.CTC
		h.SSI += p.SSI
		h.Unemployment += p.Unemployment
		h.EITC += p.EITC
		h.Children += boolInt(p.Child)
		h.Adults += boolInt(p.Adult)
		h.NonCitizens += boolInt(p.NonCitizen)
		h.NonCitizenChildren += boolInt(p.NonCitizenChild)
		h.NonCitizenAdults += boolInt(p.NonCitizenAdult)
	}

	slices.SortFunc(out, func(a, b Household) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		switch {
		case a.Unit < b.Unit:
			return -1
		case a.Unit > b.Unit:
			return 1
		}
		return 0
	})
	return out, nil
}

func checkMember(h *Household, p *Person) error {
	switch {
	case h.State != p.State:
		return fmt.Errorf("%w: unit %d year %d has states %q and %q",
			ErrInconsistentHousehold, h.Unit, h.Year, h.State, p.State)
	case h.Threshold != p.Threshold:
		return fmt.Errorf("%w: unit %d year %d has thresholds %v and %v",
			ErrInconsistentHousehold, h.Unit, h.Year, h.Threshold, p.Threshold)
	case h.Resources != p.Resources:
		return fmt.Errorf("%w: unit %d year %d has resources %v and %v",
			ErrInconsistentHousehold, h.Unit, h.Year, h.Resources, p.Resources)
	case h.Weight != p.HouseholdWeight:
		return fmt.Errorf("%w: unit %d year %d has weights %v and %v",
			ErrInconsistentHousehold, h.Unit, h.Year, h.Weight, p.HouseholdWeight)
	}
	return nil
}

// verifyTolerance bounds the floating point drift allowed between a
// household sum and the sum recomputed from its persons.
const verifyTolerance = 1e-6

// Verify checks that every household equals the aggregate of its persons
// and that every person belongs to a listed household.
func Verify(households []Household, persons []Person) error {
	want, err := Aggregate(persons)
	if err != nil {
		return err
	}
	if len(want) != len(households) {
		return fmt.Errorf("%w: %d households listed, persons form %d",
			ErrIntegrity, len(households), len(want))
	}

	byKey := make(map[HouseholdKey]*Household, len(want))
	for i := range want {
		byKey[want[i].Key()] = &want[i]
	}
	for i := range households {
		got := &households[i]
		exp, ok := byKey[got.Key()]
		if !ok {
			return fmt.Errorf("%w: unit %d year %d has no persons", ErrIntegrity, got.Unit, got.Year)
		}
		if field, ok := sameHousehold(got, exp); !ok {
			return fmt.Errorf("%w: unit %d year %d field %s", ErrIntegrity, got.Unit, got.Year, field)
		}
	}
	return nil
}

func sameHousehold(got, exp *Household) (string, bool) {
	if got.State != exp.State {
		return "state", false
	}
	ints := []struct {
		name     string
		got, exp int
	}{
		{"numper", got.NumPer, exp.NumPer},
		{"child", got.Children, exp.Children},
		{"adult", got.Adults, exp.Adults},
		{"non_citizen", got.NonCitizens, exp.NonCitizens},
		{"non_citizen_child", got.NonCitizenChildren, exp.NonCitizenChildren},
		{"non_citizen_adult", got.NonCitizenAdults, exp.NonCitizenAdults},
	}
	for _, f := range ints {
		if f.got != f.exp {
			return f.name, false
		}
	}
	floats := []struct {
		name     string
		got, exp float64
	}{
		{"spmthresh", got.Threshold, exp.Threshold},
		{"spmtotres", got.Resources, exp.Resources},
		{"spmwt", got.Weight, exp.Weight},
		{"adjginc", got.AGI, exp.AGI},
		{"fica", got.PayrollTax, exp.PayrollTax},
		{"fedtaxac", got.IncomeTax, exp.IncomeTax},
		{"stataxac", got.StateTax, exp.StateTax},
		{"ctc", got.CTC, exp.CTC},
		{"incssi", got.SSI, exp.SSI},
		{"incunemp", got.Unemployment, exp.Unemployment},
		{"eitcred", got.EITC, exp.EITC},
	}
	for _, f := range floats {
		if math.Abs(f.got-f.exp) > verifyTolerance*math.Max(1, math.Abs(f.exp)) {
			return f.name, false
		}
	}
	return "", true
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
