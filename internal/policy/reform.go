package policy

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// Configuration errors, rejected when a Reform is built.
var (
	ErrInvalidTaxRate      = errors.New("policy: tax rate out of range")
	ErrUnknownProgram      = errors.New("policy: unknown program")
	ErrUnknownGroup        = errors.New("policy: unknown demographic group")
	ErrUnknownLevel        = errors.New("policy: unknown reform level")
	ErrProgramNotAvailable = errors.New("policy: program not repealable at this level")
	ErrWrongKind           = errors.New("policy: program listed under the wrong kind")
)

// ErrNoEligiblePopulation is returned by Simulate when exclusions leave
// nobody to receive the UBI.
var ErrNoEligiblePopulation = errors.New("policy: eligible population is zero")

// IsConfigError reports whether err is a Reform configuration error.
func IsConfigError(err error) bool {
	for _, target := range []error{
		ErrInvalidTaxRate, ErrUnknownProgram, ErrUnknownGroup,
		ErrUnknownLevel, ErrProgramNotAvailable, ErrWrongKind,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// DefaultMaxTaxRatePercent is the upper bound on the flat AGI tax. A
// configured cap may lower it but never raise it.
const DefaultMaxTaxRatePercent = 50

// Params is the raw form of a reform as supplied by a caller.
type Params struct {
	Geography string   `json:"geography" yaml:"geography"`
	Level     string   `json:"level" yaml:"level"`
	TaxRate   float64  `json:"tax_rate" yaml:"tax_rate"` // percent
	Benefits  []string `json:"benefits" yaml:"benefits"`
	Taxes     []string `json:"taxes" yaml:"taxes"`
	Include   []string `json:"include" yaml:"include"`
}

// Reform is one validated, immutable reform scenario.
type Reform struct {
	geography string
	level     Level
	rate      float64
	repeal    []Program
	excluded  map[Group]bool
}

// NewReform validates p against the catalogue. maxRatePercent caps the
// flat tax; values <= 0 or above DefaultMaxTaxRatePercent fall back to it. Groups not
// listed in p.Include are excluded from eligibility. An empty geography
// means the whole country.
func NewReform(p Params, maxRatePercent float64) (*Reform, error) {
	if maxRatePercent <= 0 || maxRatePercent > DefaultMaxTaxRatePercent {
		maxRatePercent = DefaultMaxTaxRatePercent
	}
	level, err := ParseLevel(p.Level)
	if err != nil {
		return nil, err
	}
	if p.TaxRate < 0 || p.TaxRate > maxRatePercent || math.IsNaN(p.TaxRate) {
		return nil, fmt.Errorf("%w: %v%% not in [0, %v]", ErrInvalidTaxRate, p.TaxRate, maxRatePercent)
	}

	geo := p.Geography
	if geo == "" {
		geo = survey.NationalGeography
	}
	r := &Reform{
		geography: geo,
		level:     level,
		rate:      p.TaxRate / 100,
		excluded:  make(map[Group]bool),
	}

	add := func(keys []string, kind Kind) error {
		for _, k := range keys {
			prog, err := ParseProgram(k)
			if err != nil {
				return err
			}
			if prog.Kind() != kind {
				return fmt.Errorf("%w: %q is a %s", ErrWrongKind, k, prog.Kind())
			}
			if !prog.AvailableAt(level) {
				return fmt.Errorf("%w: %q at %s level", ErrProgramNotAvailable, k, level)
			}
			if !slices.Contains(r.repeal, prog) {
				r.repeal = append(r.repeal, prog)
			}
		}
		return nil
	}
	if err := add(p.Taxes, KindTax); err != nil {
		return nil, err
	}
	if err := add(p.Benefits, KindBenefit); err != nil {
		return nil, err
	}
	slices.Sort(r.repeal)

	included := make(map[Group]bool)
	for _, k := range p.Include {
		g, err := ParseGroup(k)
		if err != nil {
			return nil, err
		}
		included[g] = true
	}
	for _, g := range Groups() {
		if !included[g] {
			r.excluded[g] = true
		}
	}
	return r, nil
}

// Geography is the selected state or survey.NationalGeography.
func (r *Reform) Geography() string { return r.geography }

// Level is the reform level.
func (r *Reform) Level() Level { return r.level }

// TaxRate is the flat AGI tax as a fraction.
func (r *Reform) TaxRate() float64 { return r.rate }

// Repealed returns the repealed programs in catalogue order.
func (r *Reform) Repealed() []Program { return slices.Clone(r.repeal) }

// Repeals reports whether p is repealed.
func (r *Reform) Repeals(p Program) bool { return slices.Contains(r.repeal, p) }

// Excludes reports whether g is left out of UBI eligibility.
func (r *Reform) Excludes(g Group) bool { return r.excluded[g] }

// Excluded returns the excluded groups in catalogue order.
func (r *Reform) Excluded() []Group {
	var out []Group
	for _, g := range Groups() {
		if r.excluded[g] {
			out = append(out, g)
		}
	}
	return out
}
