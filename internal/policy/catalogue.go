package policy

import (
	"fmt"
	"slices"

	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// Level is the scope a reform's tax and benefit changes apply to.
type Level string

const (
	LevelFederal Level = "federal"
	LevelState   Level = "state"
)

// ParseLevel validates a level key.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelFederal, LevelState:
		return Level(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Kind separates benefits from existing taxes in the catalogue.
type Kind string

const (
	KindBenefit Kind = "benefit"
	KindTax     Kind = "tax"
)

// Program is a repealable benefit or tax.
type Program uint8

const (
	ChildTaxCredit Program = iota
	SSI
	SNAP
	EITC
	Unemployment
	EnergySubsidy
	IncomeTax
	PayrollTax

	numPrograms
)

type programDef struct {
	key    string
	label  string
	kind   Kind
	levels []Level
	// amount is the household-level value removed from resources when
	// the program is repealed at the federal level.
	amount func(*survey.Household) float64
}

// programs is indexed by Program; its length pins every Program to a definition.
var programs = [numPrograms]programDef{
	ChildTaxCredit: {"ctc", "Child Tax Credit", KindBenefit, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.CTC }},
	SSI: {"incssi", "Supplemental Security Income (SSI)", KindBenefit, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.SSI }},
	SNAP: {"spmsnap", "SNAP (food stamps)", KindBenefit, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.SNAP }},
	EITC: {"eitcred", "Earned Income Tax Credit", KindBenefit, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.EITC }},
	Unemployment: {"incunemp", "Unemployment benefits", KindBenefit, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.Unemployment }},
	EnergySubsidy: {"spmheat", "Energy subsidy (LIHEAP)", KindBenefit, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.EnergySubsidy }},
	IncomeTax: {"fedtaxac", "Income taxes", KindTax, []Level{LevelFederal, LevelState},
		func(h *survey.Household) float64 { return h.IncomeTax }},
	PayrollTax: {"fica", "Employee side payroll", KindTax, []Level{LevelFederal},
		func(h *survey.Household) float64 { return h.PayrollTax }},
}

func (p Program) String() string { return programs[p].key }

// Label is the display name of the program.
func (p Program) Label() string { return programs[p].label }

// Kind reports whether p is a benefit or a tax.
func (p Program) Kind() Kind { return programs[p].kind }

// Levels returns the levels p can be repealed at.
func (p Program) Levels() []Level { return slices.Clone(programs[p].levels) }

// AvailableAt reports whether p can be repealed at level.
func (p Program) AvailableAt(level Level) bool {
	return slices.Contains(programs[p].levels, level)
}

// Amount is the household value removed from resources (and added to
// revenue, weighted) when p is repealed at level. Repealing income tax at
// the state level repeals the state income tax instead.
func (p Program) Amount(h *survey.Household, level Level) float64 {
	if p == IncomeTax && level == LevelState {
		return h.StateTax
	}
	return programs[p].amount(h)
}

// ParseProgram maps a catalogue key to its Program.
func ParseProgram(key string) (Program, error) {
	for i := range programs {
		if programs[i].key == key {
			return Program(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProgram, key)
}

// Programs returns every program in catalogue order.
func Programs() []Program {
	out := make([]Program, numPrograms)
	for i := range out {
		out[i] = Program(i)
	}
	return out
}

// Group is a demographic group that can be left out of UBI eligibility.
type Group string

const (
	Children    Group = "children"
	NonCitizens Group = "non_citizens"
	Adults      Group = "adults"
)

// Groups returns every excludable group.
func Groups() []Group { return []Group{NonCitizens, Children, Adults} }

// ParseGroup validates a group key.
func ParseGroup(s string) (Group, error) {
	switch Group(s) {
	case Children, NonCitizens, Adults:
		return Group(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGroup, s)
}
