package policy

import (
	"fmt"
	"math"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
	"github.com/MikeSquared-Agency/Funding/internal/weighted"
)

// Rules toggles behaviours that differed between variants of the model.
type Rules struct {
	// CreditCorrections restores the child tax credit and EITC when they
	// are repealed together with income tax, since both are delivered
	// through it. Applied at the federal level only.
	CreditCorrections bool `yaml:"credit_corrections" toml:"credit_corrections"`
	// ClampNegativeAGI taxes negative AGI as zero.
	ClampNegativeAGI bool `yaml:"clamp_negative_agi" toml:"clamp_negative_agi"`
}

// DefaultRules is the canonical model.
func DefaultRules() Rules {
	return Rules{CreditCorrections: true, ClampNegativeAGI: true}
}

// Outcome is the post-reform state of one household. Household points at
// the shared baseline row, which is never written.
type Outcome struct {
	Household    *survey.Household
	NewTaxes     float64
	Eligible     int
	TotalUBI     float64
	NewResources float64
}

// ResourcesPerPerson divides new resources by the full household size,
// including members excluded from the UBI.
func (o *Outcome) ResourcesPerPerson() float64 {
	return o.NewResources / float64(o.Household.NumPer)
}

// Poor reports whether the household is below its threshold after reform.
func (o *Outcome) Poor() bool {
	return o.NewResources < o.Household.Threshold
}

// Result is a completed simulation. Outcomes are in the order of the
// simulated households.
type Result struct {
	Reform             *Reform
	Outcomes           []Outcome
	UBI                float64
	Revenue            float64
	EligiblePopulation float64

	index map[survey.HouseholdKey]int
}

// Outcome returns the outcome for household k, if it was simulated.
func (r *Result) Outcome(k survey.HouseholdKey) (*Outcome, bool) {
	i, ok := r.index[k]
	if !ok {
		return nil, false
	}
	return &r.Outcomes[i], true
}

// Distributed is Σ(weight × total UBI), which equals Revenue.
func (r *Result) Distributed() float64 {
	return weighted.Sum(r.Outcomes, outcomeUBI, outcomeWeight)
}

// SimulatedHouseholds returns the households a reform touches: all of
// them at the federal level, only the selected geography's at the state
// level.
func SimulatedHouseholds(pop *survey.Population, r *Reform) []*survey.Household {
	hh := pop.Households()
	out := make([]*survey.Household, 0, len(hh))
	for i := range hh {
		if r.Level() == LevelState && !hh[i].InGeography(r.Geography()) {
			continue
		}
		out = append(out, &hh[i])
	}
	return out
}

// Simulate applies r to the population and balances the budget into a
// flat per-capita UBI. It is a pure transform: pop is only read.
func Simulate(pop *survey.Population, r *Reform, rules Rules) (*Result, error) {
	households := SimulatedHouseholds(pop, r)
	res := &Result{
		Reform:   r,
		Outcomes: make([]Outcome, len(households)),
		index:    make(map[survey.HouseholdKey]int, len(households)),
	}
	for i, h := range households {
		res.Outcomes[i] = Outcome{Household: h, NewResources: h.Resources}
		res.index[h.Key()] = i
	}

	var revenue float64
	level := r.Level()
	for _, prog := range r.Repealed() {
		revenue += repeal(res.Outcomes, func(h *survey.Household) float64 {
			return prog.Amount(h, level)
		})
	}

	if level == LevelFederal && rules.CreditCorrections && r.Repeals(IncomeTax) {
		for _, credit := range []Program{ChildTaxCredit, EITC} {
			if !r.Repeals(credit) {
				continue
			}
			revenue -= restore(res.Outcomes, func(h *survey.Household) float64 {
				return credit.Amount(h, level)
			})
		}
	}

	rate := r.TaxRate()
	for i := range res.Outcomes {
		o := &res.Outcomes[i]
		agi := o.Household.AGI
		if rules.ClampNegativeAGI {
			agi = math.Max(agi, 0)
		}
		o.NewTaxes = agi * rate
		o.NewResources -= o.NewTaxes
	}
	revenue += weighted.Sum(res.Outcomes, func(o Outcome) float64 { return o.NewTaxes }, outcomeWeight)

	for i := range res.Outcomes {
		res.Outcomes[i].Eligible = EligibleCount(res.Outcomes[i].Household, r)
	}
	eligible := weighted.Sum(res.Outcomes, func(o Outcome) float64 { return float64(o.Eligible) }, outcomeWeight)
	if eligible == 0 {
		return nil, fmt.Errorf("%w: excluded %v", ErrNoEligiblePopulation, r.Excluded())
	}

	ubi := revenue / eligible
	for i := range res.Outcomes {
		o := &res.Outcomes[i]
		o.TotalUBI = ubi * float64(o.Eligible)
		o.NewResources += o.TotalUBI
	}

	res.UBI = ubi
	res.Revenue = revenue
	res.EligiblePopulation = eligible
	return res, nil
}

// repeal subtracts amount from every outcome's resources and returns the
// weighted total removed.
func repeal(outcomes []Outcome, amount func(*survey.Household) float64) float64 {
	var total float64
	for i := range outcomes {
		o := &outcomes[i]
		a := amount(o.Household)
		o.NewResources -= a
		total += a * o.Household.Weight
	}
	return total
}

// restore adds amount back to every outcome's resources and returns the
// weighted total returned.
func restore(outcomes []Outcome, amount func(*survey.Household) float64) float64 {
	var total float64
	for i := range outcomes {
		o := &outcomes[i]
		a := amount(o.Household)
		o.NewResources += a
		total += a * o.Household.Weight
	}
	return total
}

// EligibleCount is the number of household members who receive the UBI.
// The non-citizen children and adults are added back when their age group
// is excluded together with non-citizens, so nobody is subtracted twice.
func EligibleCount(h *survey.Household, r *Reform) int {
	n := h.NumPer
	exChildren := r.Excludes(Children)
	exNonCitizens := r.Excludes(NonCitizens)
	exAdults := r.Excludes(Adults)

	if exChildren {
		n -= h.Children
	}
	if exNonCitizens {
		n -= h.NonCitizens
	}
	if exChildren && exNonCitizens {
		n += h.NonCitizenChildren
	}
	if exAdults {
		n -= h.Adults
	}
	if exAdults && exNonCitizens {
		n += h.NonCitizenAdults
	}
	return n
}

func outcomeWeight(o Outcome) float64 { return o.Household.Weight }
func outcomeUBI(o Outcome) float64    { return o.TotalUBI }
